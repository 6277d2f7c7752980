package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository/memory"
)

// seedDemo fills an in-memory store with a small city and one actor per
// common role, and logs a token for each so the API can be tried locally.
func seedDemo(ctx context.Context, store *memory.Store, tokens *auth.TokenManager, logger *zap.Logger) error {
	repos := store.Repositories()
	city, district, sub := "city", "district-1", "sub-district-1"
	units := []domain.OrgUnit{
		{ID: city, Kind: domain.OrgUnitCity, Name: "Kota"},
		{ID: district, ParentID: &city, Kind: domain.OrgUnitDistrict, Name: "Kecamatan 1"},
		{ID: sub, ParentID: &district, Kind: domain.OrgUnitSubDistrict, Name: "Kelurahan 1"},
	}
	for i := range units {
		if err := repos.OrgUnits.Create(ctx, &units[i]); err != nil {
			return err
		}
	}
	dept := domain.Department{ID: "public-works", OrgUnitID: city, Name: "Dinas Pekerjaan Umum", IsActive: true}
	if err := repos.Departments.Create(ctx, &dept); err != nil {
		return err
	}

	actors := []domain.Actor{
		{Name: "Admin", Email: "admin@example.org", RoleName: rbac.RoleSuperAdmin},
		{Name: "Verifier", Email: "verifier@example.org", RoleName: rbac.RoleVerifier},
		{Name: "Department Head", Email: "head@example.org", RoleName: rbac.RoleDepartmentHead, DepartmentID: &dept.ID},
		{Name: "Technician", Email: "tech@example.org", RoleName: rbac.RoleFieldTechnician, DepartmentID: &dept.ID},
		{Name: "District Head", Email: "district@example.org", RoleName: rbac.RoleDistrictHead, OrgUnitID: &district},
		{Name: "Citizen", Email: "citizen@example.org", RoleName: rbac.RoleCitizen, OrgUnitID: &sub},
	}
	for i := range actors {
		actor := &actors[i]
		actor.Active = true
		if err := repos.Actors.Create(ctx, actor); err != nil {
			return err
		}
		token, _, err := tokens.GenerateToken(actor.ID, actor.RoleName)
		if err != nil {
			return err
		}
		logger.Info("demo actor", zap.String("email", actor.Email), zap.String("role", actor.RoleName), zap.String("token", token))
	}
	return nil
}
