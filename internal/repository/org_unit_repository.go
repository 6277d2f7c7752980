package repository

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// OrgUnitRepository reads the administrative tree.
type OrgUnitRepository interface {
	Create(ctx context.Context, unit *domain.OrgUnit) error
	ListAll(ctx context.Context) ([]domain.OrgUnit, error)
}

type orgUnitRepository struct {
	db DBTX
}

// NewOrgUnitRepository builds the repository.
func NewOrgUnitRepository(db DBTX) OrgUnitRepository {
	return &orgUnitRepository{db: db}
}

func (r *orgUnitRepository) Create(ctx context.Context, unit *domain.OrgUnit) error {
	const query = `
        INSERT INTO org_units (parent_id, kind, name)
        VALUES ($1,$2,$3)
        RETURNING id`
	return r.db.QueryRow(ctx, query, unit.ParentID, unit.Kind, unit.Name).Scan(&unit.ID)
}

func (r *orgUnitRepository) ListAll(ctx context.Context) ([]domain.OrgUnit, error) {
	const query = `SELECT id, parent_id, kind, name FROM org_units ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.OrgUnit
	for rows.Next() {
		var unit domain.OrgUnit
		if err := rows.Scan(&unit.ID, &unit.ParentID, &unit.Kind, &unit.Name); err != nil {
			return nil, err
		}
		result = append(result, unit)
	}
	return result, rows.Err()
}
