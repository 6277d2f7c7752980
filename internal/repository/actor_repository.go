package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ActorRepository handles persistence for actors of every role.
type ActorRepository interface {
	Create(ctx context.Context, actor *domain.Actor) error
	GetByID(ctx context.Context, id string) (*domain.Actor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Actor, error)
	List(ctx context.Context, filter ActorFilter) ([]domain.Actor, error)
}

// ActorFilter defines query params for actor listing.
type ActorFilter struct {
	RoleName     *string
	DepartmentID *string
	OrgUnitID    *string
	Active       *bool
	Limit        int
	Offset       int
}

type actorRepository struct {
	db DBTX
}

// NewActorRepository instantiates the repository.
func NewActorRepository(db DBTX) ActorRepository {
	return &actorRepository{db: db}
}

func (r *actorRepository) Create(ctx context.Context, actor *domain.Actor) error {
	const query = `
        INSERT INTO actors (name, email, role_name, org_unit_id, department_id, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		actor.Name,
		actor.Email,
		actor.RoleName,
		actor.OrgUnitID,
		actor.DepartmentID,
		actor.Active,
	).Scan(&actor.ID, &actor.CreatedAt, &actor.UpdatedAt)
}

func (r *actorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	const query = `
        SELECT id, name, email, role_name, org_unit_id, department_id, active_flag, created_at, updated_at
        FROM actors WHERE id=$1`
	if !validID(id) {
		return nil, pgx.ErrNoRows
	}
	return scanActor(r.db.QueryRow(ctx, query, id))
}

func (r *actorRepository) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	const query = `
        SELECT id, name, email, role_name, org_unit_id, department_id, active_flag, created_at, updated_at
        FROM actors WHERE email=$1`
	return scanActor(r.db.QueryRow(ctx, query, email))
}

func (r *actorRepository) List(ctx context.Context, filter ActorFilter) ([]domain.Actor, error) {
	query := `
        SELECT id, name, email, role_name, org_unit_id, department_id, active_flag, created_at, updated_at
        FROM actors`
	args := []any{}
	clauses := []string{}

	if filter.RoleName != nil {
		args = append(args, *filter.RoleName)
		clauses = append(clauses, fmt.Sprintf("role_name=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.OrgUnitID != nil {
		args = append(args, *filter.OrgUnitID)
		clauses = append(clauses, fmt.Sprintf("org_unit_id=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY name ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *actor)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*domain.Actor, error) {
	var actor domain.Actor
	if err := row.Scan(
		&actor.ID,
		&actor.Name,
		&actor.Email,
		&actor.RoleName,
		&actor.OrgUnitID,
		&actor.DepartmentID,
		&actor.Active,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &actor, nil
}
