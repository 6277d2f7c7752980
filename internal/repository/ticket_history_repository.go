package repository

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// SortOrder selects chronological direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// AuditRepository stores audit entries. Entries are append-only; rows leave
// the table only through the cascade on ticket deletion.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	ListByTicket(ctx context.Context, ticketID string, order SortOrder) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	db DBTX
}

// NewAuditRepository builds repository.
func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO ticket_audit_entries (id, ticket_id, actor_id, action, old_value, new_value, notes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.ActorID,
		entry.Action,
		entry.OldValue,
		entry.NewValue,
		entry.Notes,
		entry.CreatedAt,
	)
	return err
}

func (r *auditRepository) ListByTicket(ctx context.Context, ticketID string, order SortOrder) ([]domain.AuditEntry, error) {
	query := `
        SELECT id, ticket_id, actor_id, action, old_value, new_value, notes, created_at
        FROM ticket_audit_entries WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	if order == OrderDesc {
		query = `
        SELECT id, ticket_id, actor_id, action, old_value, new_value, notes, created_at
        FROM ticket_audit_entries WHERE ticket_id=$1 ORDER BY created_at DESC, seq DESC`
	}
	if !validID(ticketID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorID,
			&entry.Action,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Notes,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
