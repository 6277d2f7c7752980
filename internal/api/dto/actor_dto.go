package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/rbac"
)

// AuthResponse carries an issued access token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActorResponse describes an actor.
type ActorResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	OrgUnitID    *string `json:"org_unit_id"`
	DepartmentID *string `json:"department_id"`
	Active       bool    `json:"active"`
}

// ProfileResponse is the caller's identity plus granted capabilities.
type ProfileResponse struct {
	Actor        ActorResponse     `json:"actor"`
	Category     rbac.Category     `json:"category"`
	Capabilities []rbac.Permission `json:"capabilities"`
}

// DepartmentResponse describes a department.
type DepartmentResponse struct {
	ID        string `json:"id"`
	OrgUnitID string `json:"org_unit_id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
}

// NewActorResponse maps an actor.
func NewActorResponse(a *domain.Actor) ActorResponse {
	return ActorResponse{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Role:         a.RoleName,
		OrgUnitID:    a.OrgUnitID,
		DepartmentID: a.DepartmentID,
		Active:       a.Active,
	}
}

// NewDepartmentResponse maps a department.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, OrgUnitID: d.OrgUnitID, Name: d.Name, Active: d.IsActive}
}
