package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
)

// Me GET /me returns the caller and what their role allows.
func Me(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProfileResponse{
		Actor:        dto.NewActorResponse(&authz.Actor),
		Category:     authz.Category(),
		Capabilities: authz.Capabilities(),
	}})
}
