package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/rbac"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// RequirePermission rejects callers whose role lacks any of perms.
func RequirePermission(perms ...rbac.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz, ok := AuthorizationFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		for _, perm := range perms {
			if err := authz.Require(perm); err != nil {
				return err
			}
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures an AuthorizationContext is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := AuthorizationFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
