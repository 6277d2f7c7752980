package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/rbac"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Departments    *handlers.DepartmentsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	api.Get("/me", handlers.Me)

	tickets := api.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/stats", cfg.Tickets.Statistics)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/history", auth.RequirePermission(rbac.PermTicketView, rbac.PermTicketViewHistory), cfg.Tickets.History)
	tickets.Post("/:id/verify", cfg.Tickets.Verify)
	tickets.Post("/:id/reject", cfg.Tickets.Reject)
	tickets.Post("/:id/assign-department", cfg.Tickets.AssignDepartment)
	tickets.Post("/:id/assign-staff", cfg.Tickets.AssignStaff)
	tickets.Post("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/progress", cfg.Tickets.UpdateProgress)
	tickets.Post("/:id/priority", cfg.Tickets.SetPriority)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)

	departments := api.Group("/departments")
	departments.Get("", auth.RequirePermission(rbac.PermTicketAssignDepartment), cfg.Departments.ListDepartments)
	departments.Get("/:id/staff", auth.RequirePermission(rbac.PermTicketAssignStaff), cfg.Departments.ListStaff)
}
