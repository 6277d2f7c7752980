package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket lifecycle over HTTP.
type TicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, assignments *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignments: assignments}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	input, err := parseListQuery(c)
	if err != nil {
		return err
	}
	page, err := h.tickets.ListTickets(c.UserContext(), authz, input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.NewTicketResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.PageMeta{Page: page.Page, PageSize: page.PageSize, Total: page.Total},
	})
}

// Statistics GET /tickets/stats.
func (h *TicketsHandler) Statistics(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	stats, err := h.tickets.Statistics(c.UserContext(), authz)
	if err != nil {
		return err
	}
	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}
	return c.JSON(fiber.Map{"data": dto.StatisticsResponse{Total: stats.Total, ByStatus: byStatus}})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), authz, service.CreateTicketInput{
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Priority:    domain.TicketPriority(req.Priority),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), authz, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), authz, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	order := repository.SortOrder(strings.ToLower(c.Query("order", string(repository.OrderAsc))))
	entries, err := h.tickets.History(c.UserContext(), authz, c.Params("id"), order)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewAuditEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Verify POST /tickets/:id/verify.
func (h *TicketsHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyTicketRequest
	return h.apply(c, &req, func(authz rbac.AuthorizationContext, id string) (*domain.Ticket, error) {
		return h.tickets.Verify(c.UserContext(), authz, id, req.Notes)
	})
}

// Reject POST /tickets/:id/reject.
func (h *TicketsHandler) Reject(c *fiber.Ctx) error {
	var req dto.RejectTicketRequest
	return h.apply(c, &req, func(authz rbac.AuthorizationContext, id string) (*domain.Ticket, error) {
		return h.tickets.Reject(c.UserContext(), authz, id, req.Reason)
	})
}

// AssignDepartment POST /tickets/:id/assign-department.
func (h *TicketsHandler) AssignDepartment(c *fiber.Ctx) error {
	var req dto.AssignDepartmentRequest
	return h.apply(c, &req, func(authz rbac.AuthorizationContext, id string) (*domain.Ticket, error) {
		return h.assignments.AssignToDepartment(c.UserContext(), authz, id, req.DepartmentID, req.Notes)
	})
}

// AssignStaff POST /tickets/:id/assign-staff.
func (h *TicketsHandler) AssignStaff(c *fiber.Ctx) error {
	var req dto.AssignStaffRequest
	return h.apply(c, &req, func(authz rbac.AuthorizationContext, id string) (*domain.Ticket, error) {
		return h.assignments.AssignToStaff(c.UserContext(), authz, id, req.StaffID, req.Notes)
	})
}

// UpdateStatus POST /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	return h.apply(c, &req, func(authz rbac.AuthorizationContext, id string) (*domain.Ticket, error) {
		return h.tickets.UpdateStatus(c.UserContext(), authz, id, domain.TicketStatus(req.Status), req.Notes)
	})
}

// UpdateProgress POST /tickets/:id/progress.
func (h *TicketsHandler) UpdateProgress(c *fiber.Ctx) error {
	var req dto.UpdateProgressRequest
	return h.apply(c, &req, func(authz rbac.AuthorizationContext, id string) (*domain.Ticket, error) {
		return h.tickets.UpdateProgress(c.UserContext(), authz, id, *req.Progress, req.Notes)
	})
}

// SetPriority POST /tickets/:id/priority.
func (h *TicketsHandler) SetPriority(c *fiber.Ctx) error {
	var req dto.SetPriorityRequest
	return h.apply(c, &req, func(authz rbac.AuthorizationContext, id string) (*domain.Ticket, error) {
		return h.tickets.SetPriority(c.UserContext(), authz, id, domain.TicketPriority(req.Priority), req.Notes)
	})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.AddNoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry, err := h.tickets.AddNote(c.UserContext(), authz, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAuditEntryResponse(entry)})
}

// apply binds req and runs a ticket action, rendering the updated ticket.
func (h *TicketsHandler) apply(c *fiber.Ctx, req any, action func(rbac.AuthorizationContext, string) (*domain.Ticket, error)) error {
	authz, err := caller(c)
	if err != nil {
		return err
	}
	if err := bind(c, req); err != nil {
		return err
	}
	ticket, err := action(authz, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

func caller(c *fiber.Ctx) (rbac.AuthorizationContext, error) {
	authz, ok := auth.AuthorizationFromContext(c)
	if !ok {
		return rbac.AuthorizationContext{}, apperrors.NewUnauthorized("authentication required")
	}
	return authz, nil
}

func bind(c *fiber.Ctx, req any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	return dto.Validate(req)
}

func parseListQuery(c *fiber.Ctx) (service.ListInput, error) {
	input := service.ListInput{
		Search:   strings.TrimSpace(c.Query("q")),
		Sort:     repository.SortField(c.Query("sort")),
		Desc:     strings.EqualFold(c.Query("order"), "desc"),
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), service.DefaultPageSize),
	}
	for _, part := range splitList(c.Query("status")) {
		input.Statuses = append(input.Statuses, domain.TicketStatus(part))
	}
	for _, part := range splitList(c.Query("priority")) {
		input.Priorities = append(input.Priorities, domain.TicketPriority(part))
	}
	input.CategoryID = optional(c.Query("category_id"))
	input.DepartmentID = optional(c.Query("department_id"))
	input.OrgUnitID = optional(c.Query("org_unit_id"))

	var err error
	if input.CreatedFrom, err = parseTime("created_from", c.Query("created_from")); err != nil {
		return input, err
	}
	if input.CreatedTo, err = parseTime("created_to", c.Query("created_to")); err != nil {
		return input, err
	}
	return input, nil
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optional(val string) *string {
	if val == "" {
		return nil
	}
	return &val
}

func parseTime(field, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid timestamp", map[string]any{"field": field})
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
