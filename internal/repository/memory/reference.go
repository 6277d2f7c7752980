package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

type auditRepository struct {
	store *Store
	inTx  bool
}

func (r *auditRepository) Append(_ context.Context, entry *domain.AuditEntry) error {
	return r.store.access(r.inTx, func(st *state) error {
		if _, ok := st.tickets[entry.TicketID]; !ok {
			return &pgconn.PgError{Code: "23503", ConstraintName: "ticket_audit_entries_ticket_id_fkey"}
		}
		st.audit[entry.TicketID] = append(st.audit[entry.TicketID], *entry)
		return nil
	})
}

func (r *auditRepository) ListByTicket(_ context.Context, ticketID string, order repository.SortOrder) ([]domain.AuditEntry, error) {
	var result []domain.AuditEntry
	_ = r.store.access(r.inTx, func(st *state) error {
		result = append(result, st.audit[ticketID]...)
		return nil
	})
	// Append order is the tie-breaker for equal timestamps.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if order == repository.OrderDesc {
		for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
			result[i], result[j] = result[j], result[i]
		}
	}
	return result, nil
}

type departmentRepository struct {
	store *Store
	inTx  bool
}

func (r *departmentRepository) Create(_ context.Context, dept *domain.Department) error {
	now := time.Now().UTC()
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	dept.CreatedAt, dept.UpdatedAt = now, now
	return r.store.access(r.inTx, func(st *state) error {
		st.departments[dept.ID] = *dept
		return nil
	})
}

func (r *departmentRepository) GetByID(_ context.Context, id string) (*domain.Department, error) {
	var out domain.Department
	err := r.store.access(r.inTx, func(st *state) error {
		d, ok := st.departments[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *departmentRepository) ListActive(_ context.Context) ([]domain.Department, error) {
	var result []domain.Department
	_ = r.store.access(r.inTx, func(st *state) error {
		for _, d := range st.departments {
			if d.IsActive {
				result = append(result, d)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type actorRepository struct {
	store *Store
	inTx  bool
}

func (r *actorRepository) Create(_ context.Context, actor *domain.Actor) error {
	now := time.Now().UTC()
	if actor.ID == "" {
		actor.ID = uuid.NewString()
	}
	actor.CreatedAt, actor.UpdatedAt = now, now
	return r.store.access(r.inTx, func(st *state) error {
		for _, existing := range st.actors {
			if existing.Email == actor.Email && existing.ID != actor.ID {
				return &pgconn.PgError{Code: "23505", ConstraintName: "actors_email_key"}
			}
		}
		st.actors[actor.ID] = *actor
		return nil
	})
}

func (r *actorRepository) GetByID(_ context.Context, id string) (*domain.Actor, error) {
	return r.find(func(a domain.Actor) bool { return a.ID == id })
}

func (r *actorRepository) GetByEmail(_ context.Context, email string) (*domain.Actor, error) {
	return r.find(func(a domain.Actor) bool { return a.Email == email })
}

func (r *actorRepository) find(match func(domain.Actor) bool) (*domain.Actor, error) {
	var out *domain.Actor
	_ = r.store.access(r.inTx, func(st *state) error {
		for _, a := range st.actors {
			if match(a) {
				found := a
				out = &found
				return nil
			}
		}
		return nil
	})
	if out == nil {
		return nil, pgx.ErrNoRows
	}
	return out, nil
}

func (r *actorRepository) List(_ context.Context, filter repository.ActorFilter) ([]domain.Actor, error) {
	eq := func(want *string, got *string) bool {
		return want == nil || (got != nil && *got == *want)
	}
	var result []domain.Actor
	_ = r.store.access(r.inTx, func(st *state) error {
		for _, a := range st.actors {
			if filter.RoleName != nil && a.RoleName != *filter.RoleName {
				continue
			}
			if filter.Active != nil && a.Active != *filter.Active {
				continue
			}
			if !eq(filter.DepartmentID, a.DepartmentID) || !eq(filter.OrgUnitID, a.OrgUnitID) {
				continue
			}
			result = append(result, a)
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type orgUnitRepository struct {
	store *Store
	inTx  bool
}

func (r *orgUnitRepository) Create(_ context.Context, unit *domain.OrgUnit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	return r.store.access(r.inTx, func(st *state) error {
		st.orgUnits[unit.ID] = *unit
		return nil
	})
}

func (r *orgUnitRepository) ListAll(_ context.Context) ([]domain.OrgUnit, error) {
	var result []domain.OrgUnit
	_ = r.store.access(r.inTx, func(st *state) error {
		for _, u := range st.orgUnits {
			result = append(result, u)
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
