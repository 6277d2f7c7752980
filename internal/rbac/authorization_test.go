package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func TestAuthorizationContextCapabilities(t *testing.T) {
	catalog := DefaultCatalog()

	verifier := NewAuthorizationContext(domain.Actor{ID: "v1", RoleName: RoleVerifier, Active: true}, catalog)
	assert.Equal(t, CategoryVerifier, verifier.Category())
	assert.True(t, verifier.Can(PermTicketVerify))
	assert.True(t, verifier.Can(PermTicketReject))
	assert.True(t, verifier.Can(PermTicketUpdateStatus))
	assert.False(t, verifier.Can(PermTicketUpdateProgress))
	assert.False(t, verifier.Can(PermTicketAssignDepartment))
	assert.NoError(t, verifier.Require(PermTicketAddNote))

	err := verifier.Require(PermTicketSetPriority)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestAuthorizationContextUnknownRole(t *testing.T) {
	ctx := NewAuthorizationContext(domain.Actor{ID: "x", RoleName: "mayor_friend", Active: true}, DefaultCatalog())
	assert.Equal(t, CategoryCitizen, ctx.Category())
	assert.Empty(t, ctx.Capabilities())
}

func TestAuthorizationContextInactiveActor(t *testing.T) {
	ctx := NewAuthorizationContext(domain.Actor{ID: "a", RoleName: RoleSuperAdmin, Active: false}, DefaultCatalog())
	assert.Equal(t, CategoryCityWide, ctx.Category())
	assert.False(t, ctx.Can(PermTicketView))
}

func TestCatalogTopRanksAreCityWide(t *testing.T) {
	roles := DefaultCatalog().Roles()
	assert.Equal(t, RoleSuperAdmin, roles[0].Name)
	assert.Equal(t, RoleCityAdmin, roles[1].Name)
	for i, role := range roles {
		if i < 2 {
			assert.Equal(t, CategoryCityWide, role.Category)
			continue
		}
		assert.NotEqual(t, CategoryCityWide, role.Category, role.Name)
	}
}

func TestFieldTechnicianSharesStaffCategory(t *testing.T) {
	catalog := DefaultCatalog()
	tech, _ := catalog.Lookup(RoleFieldTechnician)
	staff, _ := catalog.Lookup(RoleDepartmentStaff)
	assert.Equal(t, staff.Category, tech.Category)
	assert.True(t, tech.Has(PermTicketUpdateProgress))
	assert.False(t, tech.Has(PermTicketAssignStaff))
}
