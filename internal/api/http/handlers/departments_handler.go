package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/service"
)

// DepartmentsHandler serves assignment pickers.
type DepartmentsHandler struct {
	assignments *service.AssignmentService
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(assignments *service.AssignmentService) *DepartmentsHandler {
	return &DepartmentsHandler{assignments: assignments}
}

// ListDepartments GET /departments.
func (h *DepartmentsHandler) ListDepartments(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	depts, err := h.assignments.ListDepartments(c.UserContext(), authz)
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, dto.NewDepartmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListStaff GET /departments/:id/staff.
func (h *DepartmentsHandler) ListStaff(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	staff, err := h.assignments.ListDepartmentStaff(c.UserContext(), authz, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ActorResponse, 0, len(staff))
	for i := range staff {
		items = append(items, dto.NewActorResponse(&staff[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
