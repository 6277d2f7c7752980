package rbac

import (
	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// AuthorizationContext is the explicit authority of one caller: who they are,
// which role they hold and the capabilities that role grants. Every lifecycle
// operation receives it as an argument.
type AuthorizationContext struct {
	Actor        domain.Actor
	Role         Role
	capabilities map[Permission]struct{}
}

// NewAuthorizationContext resolves actor's role in catalog. Unknown or inactive
// roles fall back to the citizen category with no capabilities.
func NewAuthorizationContext(actor domain.Actor, catalog *Catalog) AuthorizationContext {
	role, ok := catalog.Lookup(actor.RoleName)
	if !ok || !role.Active {
		role = Role{Name: actor.RoleName, Rank: 1 << 30, Category: CategoryCitizen}
	}
	caps := make(map[Permission]struct{}, len(role.Permissions))
	if actor.Active {
		for _, p := range role.Permissions {
			caps[p] = struct{}{}
		}
	}
	return AuthorizationContext{Actor: actor, Role: role, capabilities: caps}
}

// Category returns the behavior class of the caller's role.
func (a AuthorizationContext) Category() Category {
	return a.Role.Category
}

// ActorID returns the caller id.
func (a AuthorizationContext) ActorID() string {
	return a.Actor.ID
}

// Can reports whether the caller holds p.
func (a AuthorizationContext) Can(p Permission) bool {
	_, ok := a.capabilities[p]
	return ok
}

// Require returns a Forbidden error when the caller lacks p.
func (a AuthorizationContext) Require(p Permission) error {
	if !a.Can(p) {
		return apperrors.NewForbidden("missing capability " + string(p))
	}
	return nil
}

// Capabilities lists granted permissions in catalog order.
func (a AuthorizationContext) Capabilities() []Permission {
	out := make([]Permission, 0, len(a.capabilities))
	for _, p := range AllPermissions {
		if a.Can(p) {
			out = append(out, p)
		}
	}
	return out
}
