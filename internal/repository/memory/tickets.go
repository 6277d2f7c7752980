package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/ticketfilter"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

type ticketRepository struct {
	store *Store
	inTx  bool
}

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.store.access(r.inTx, func(st *state) error {
		if _, exists := st.numbers[ticket.Number]; exists {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_tickets_number"}
		}
		if _, exists := st.tickets[ticket.ID]; exists {
			return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_pkey"}
		}
		st.tickets[ticket.ID] = ticket.Clone()
		st.numbers[ticket.Number] = ticket.ID
		return nil
	})
}

func (r *ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var out domain.Ticket
	err := r.store.access(r.inTx, func(st *state) error {
		t, ok := st.tickets[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = t.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepository) UpdateIfStatus(_ context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	return r.store.access(r.inTx, func(st *state) error {
		current, ok := st.tickets[ticket.ID]
		if !ok || current.Status != expected {
			return apperrors.NewConflict("ticket status changed concurrently", map[string]any{
				"ticket_id": ticket.ID,
				"expected":  string(expected),
			})
		}
		updated := ticket.Clone()
		updated.Number = current.Number
		updated.ReporterID = current.ReporterID
		updated.CreatedAt = current.CreatedAt
		st.tickets[ticket.ID] = updated
		return nil
	})
}

func (r *ticketRepository) Delete(_ context.Context, id string) error {
	return r.store.access(r.inTx, func(st *state) error {
		t, ok := st.tickets[id]
		if !ok {
			return pgx.ErrNoRows
		}
		delete(st.tickets, id)
		delete(st.numbers, t.Number)
		delete(st.audit, id)
		return nil
	})
}

func (r *ticketRepository) List(_ context.Context, q repository.TicketQuery) ([]domain.Ticket, error) {
	filter := q.Filter
	if filter == nil {
		filter = ticketfilter.All()
	}
	var result []domain.Ticket
	_ = r.store.access(r.inTx, func(st *state) error {
		for _, t := range st.tickets {
			if filter.Matches(&t) {
				result = append(result, t.Clone())
			}
		}
		return nil
	})

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		c := compare(a, b, q.Sort)
		if c == 0 {
			c = stringCmp(a.ID, b.ID)
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})

	if q.Offset > 0 {
		if q.Offset >= len(result) {
			return nil, nil
		}
		result = result[q.Offset:]
	}
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (r *ticketRepository) Count(_ context.Context, filter ticketfilter.Spec) (int, error) {
	if filter == nil {
		filter = ticketfilter.All()
	}
	count := 0
	_ = r.store.access(r.inTx, func(st *state) error {
		for _, t := range st.tickets {
			if filter.Matches(&t) {
				count++
			}
		}
		return nil
	})
	return count, nil
}

func (r *ticketRepository) NextDailySequence(_ context.Context, prefix string, day time.Time) (int, error) {
	key := fmt.Sprintf("%s/%s", prefix, day.Format("2006-01-02"))
	var next int
	_ = r.store.access(r.inTx, func(st *state) error {
		st.sequences[key]++
		next = st.sequences[key]
		return nil
	})
	return next, nil
}

func compare(a, b domain.Ticket, field repository.SortField) int {
	switch field {
	case repository.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case repository.SortPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case repository.SortStatus:
		return statusRank(a.Status) - statusRank(b.Status)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func statusRank(s domain.TicketStatus) int {
	for i, status := range domain.AllTicketStatuses {
		if status == s {
			return i
		}
	}
	return len(domain.AllTicketStatuses)
}

func stringCmp(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
