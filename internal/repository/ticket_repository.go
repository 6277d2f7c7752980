package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/ticketfilter"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// SortField names a ticket ordering key.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortPriority  SortField = "priority"
	SortStatus    SortField = "status"
)

// Valid reports whether f is a supported sort key.
func (f SortField) Valid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortPriority, SortStatus:
		return true
	}
	return false
}

// TicketQuery selects a page of tickets.
type TicketQuery struct {
	Filter ticketfilter.Spec
	Sort   SortField
	Desc   bool
	Limit  int
	Offset int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate loads the ticket and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	// UpdateIfStatus persists ticket only if the stored status still equals expected.
	UpdateIfStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query TicketQuery) ([]domain.Ticket, error)
	Count(ctx context.Context, filter ticketfilter.Spec) (int, error)
	// NextDailySequence returns the next counter value for prefix on day.
	NextDailySequence(ctx context.Context, prefix string, day time.Time) (int, error)
}

const ticketColumns = `id, number, reporter_id, category_id, description, latitude, longitude, address,
               status, priority, progress, department_id, assignee_id, verifier_id, org_unit_id,
               admin_notes, verification_notes, rejection_reason, verified_at, in_progress_at,
               completed_at, created_at, updated_at`

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Number,
		ticket.ReporterID,
		ticket.CategoryID,
		ticket.Description,
		ticket.Latitude,
		ticket.Longitude,
		ticket.Address,
		ticket.Status,
		ticket.Priority,
		ticket.Progress,
		ticket.DepartmentID,
		ticket.AssigneeID,
		ticket.VerifierID,
		ticket.OrgUnitID,
		ticket.AdminNotes,
		ticket.VerificationNotes,
		ticket.RejectionReason,
		ticket.VerifiedAt,
		ticket.InProgressAt,
		ticket.CompletedAt,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return err
}

func (r *ticketRepository) UpdateIfStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET status=$1, priority=$2, progress=$3, department_id=$4, assignee_id=$5,
            verifier_id=$6, admin_notes=$7, verification_notes=$8, rejection_reason=$9,
            verified_at=$10, in_progress_at=$11, completed_at=$12, updated_at=$13
        WHERE id=$14 AND status=$15`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Status,
		ticket.Priority,
		ticket.Progress,
		ticket.DepartmentID,
		ticket.AssigneeID,
		ticket.VerifierID,
		ticket.AdminNotes,
		ticket.VerificationNotes,
		ticket.RejectionReason,
		ticket.VerifiedAt,
		ticket.InProgressAt,
		ticket.CompletedAt,
		ticket.UpdatedAt,
		ticket.ID,
		expected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewConflict("ticket status changed concurrently", map[string]any{
			"ticket_id": ticket.ID,
			"expected":  string(expected),
		})
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	if !validID(id) {
		return nil, pgx.ErrNoRows
	}
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	if !validID(id) {
		return nil, pgx.ErrNoRows
	}
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return pgx.ErrNoRows
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, q TicketQuery) ([]domain.Ticket, error) {
	where, args := ticketfilter.ToSQL(q.Filter, 0)
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE %s ORDER BY %s", ticketColumns, where, orderBy(q.Sort, q.Desc))
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Count(ctx context.Context, filter ticketfilter.Spec) (int, error) {
	where, args := ticketfilter.ToSQL(filter, 0)
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM tickets WHERE "+where, args...).Scan(&count)
	return count, err
}

func (r *ticketRepository) NextDailySequence(ctx context.Context, prefix string, day time.Time) (int, error) {
	const query = `
        INSERT INTO ticket_number_sequences (prefix, day, next_number)
        VALUES ($1, $2, 1)
        ON CONFLICT (prefix, day)
        DO UPDATE SET next_number = ticket_number_sequences.next_number + 1
        RETURNING next_number`
	var next int
	if err := r.db.QueryRow(ctx, query, prefix, day.Format("2006-01-02")).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func orderBy(field SortField, desc bool) string {
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	var expr string
	switch field {
	case SortUpdatedAt:
		expr = "updated_at"
	case SortPriority:
		expr = "CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 ELSE 3 END"
	case SortStatus:
		expr = "CASE status WHEN 'new' THEN 0 WHEN 'verified' THEN 1 WHEN 'in_progress' THEN 2 WHEN 'completed' THEN 3 ELSE 4 END"
	default:
		expr = "created_at"
	}
	return fmt.Sprintf("%s %s, id %s", expr, direction, direction)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.ReporterID,
		&ticket.CategoryID,
		&ticket.Description,
		&ticket.Latitude,
		&ticket.Longitude,
		&ticket.Address,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Progress,
		&ticket.DepartmentID,
		&ticket.AssigneeID,
		&ticket.VerifierID,
		&ticket.OrgUnitID,
		&ticket.AdminNotes,
		&ticket.VerificationNotes,
		&ticket.RejectionReason,
		&ticket.VerifiedAt,
		&ticket.InProgressAt,
		&ticket.CompletedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
