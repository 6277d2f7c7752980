// Package audit writes and reads the append-only ticket history.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// Entry describes one mutation to record.
type Entry struct {
	TicketID string
	ActorID  *string
	Action   domain.AuditAction
	Old      map[string]any
	New      map[string]any
	Notes    *string
}

// Recorder appends and lists audit entries.
type Recorder struct {
	now func() time.Time
}

// NewRecorder returns a recorder stamping entries with now.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Log appends entry through repos, which must belong to the transaction that
// performs the mutation being recorded.
func (r *Recorder) Log(ctx context.Context, repos repository.Repositories, entry Entry) (*domain.AuditEntry, error) {
	record := &domain.AuditEntry{
		ID:        uuid.NewString(),
		TicketID:  entry.TicketID,
		ActorID:   entry.ActorID,
		Action:    entry.Action,
		OldValue:  entry.Old,
		NewValue:  entry.New,
		Notes:     entry.Notes,
		CreatedAt: r.now().UTC(),
	}
	if err := repos.Audit.Append(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// History returns a ticket's entries in the requested order.
func (r *Recorder) History(ctx context.Context, repos repository.Repositories, ticketID string, order repository.SortOrder) ([]domain.AuditEntry, error) {
	if order != repository.OrderDesc {
		order = repository.OrderAsc
	}
	entries, err := repos.Audit.ListByTicket(ctx, ticketID, order)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}
