package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

const (
	authorizationKey = "auth_authorization"
	actorIDKey       = "actor_id"
)

// AuthMiddleware validates bearer tokens and builds the caller's
// AuthorizationContext from the stored actor.
type AuthMiddleware struct {
	tokens  *TokenManager
	actors  repository.ActorRepository
	catalog *rbac.Catalog
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, actors repository.ActorRepository, catalog *rbac.Catalog) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, actors: actors, catalog: catalog}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	actor, err := m.actors.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("actor not found")
		}
		return apperrors.MapError(err)
	}
	if !actor.Active {
		return apperrors.NewUnauthorized("actor inactive")
	}

	authz := rbac.NewAuthorizationContext(*actor, m.catalog)
	c.Locals(authorizationKey, authz)
	c.Locals(actorIDKey, actor.ID)
	return c.Next()
}

// AuthorizationFromContext retrieves the caller's authority.
func AuthorizationFromContext(c *fiber.Ctx) (rbac.AuthorizationContext, bool) {
	authz, ok := c.Locals(authorizationKey).(rbac.AuthorizationContext)
	return authz, ok
}
