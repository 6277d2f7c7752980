package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// AssignmentService routes tickets to departments and individual staff.
type AssignmentService struct {
	*engine
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps Dependencies) *AssignmentService {
	return &AssignmentService{engine: newEngine(deps)}
}

// AssignToDepartment routes the ticket to a department. Status is unchanged.
func (s *AssignmentService) AssignToDepartment(ctx context.Context, authz rbac.AuthorizationContext, ticketID, departmentID string, notes *string) (*domain.Ticket, error) {
	if departmentID == "" {
		return nil, apperrors.NewValidationError("department is required", map[string]any{"field": "department_id"})
	}
	if err := validateText("notes", notes, false); err != nil {
		return nil, err
	}
	ticket, _, err := s.mutate(ctx, authz, "assign_department", rbac.PermTicketAssignDepartment, ticketID,
		func(ctx context.Context, repos repository.Repositories, t *domain.Ticket, _ time.Time) (*change, error) {
			if t.Status.Terminal() {
				return nil, closedTicket(t)
			}
			dept, err := getDepartment(ctx, repos, departmentID)
			if err != nil {
				return nil, err
			}
			if !dept.IsActive {
				return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": departmentID})
			}

			oldValue := map[string]any{"department_id": deref(t.DepartmentID), "department": nil}
			if t.DepartmentID != nil {
				previous, err := getDepartment(ctx, repos, *t.DepartmentID)
				if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
					return nil, err
				}
				if previous != nil {
					oldValue["department"] = previous.Name
				}
			}
			newValue := map[string]any{"department_id": dept.ID, "department": dept.Name}
			// Staff always belong to the ticket's department.
			if t.AssigneeID != nil && (t.DepartmentID == nil || *t.DepartmentID != dept.ID) {
				oldValue["assignee_id"] = *t.AssigneeID
				newValue["assignee_id"] = nil
				t.AssigneeID = nil
			}
			t.DepartmentID = strptr(dept.ID)
			return &change{
				action: domain.AuditAssignedDinas,
				old:    oldValue,
				new:    newValue,
				notes:  notes,
				event: &events.Event{
					Type:    events.EventTicketAssigned,
					Payload: events.TicketAssignedPayload{DepartmentID: t.DepartmentID, AssigneeID: t.AssigneeID},
				},
			}, nil
		})
	return ticket, err
}

// AssignToStaff hands the ticket to an individual department staff member.
// Department heads may only pick staff of their own department.
func (s *AssignmentService) AssignToStaff(ctx context.Context, authz rbac.AuthorizationContext, ticketID, staffID string, notes *string) (*domain.Ticket, error) {
	if staffID == "" {
		return nil, apperrors.NewValidationError("staff is required", map[string]any{"field": "staff_id"})
	}
	if err := validateText("notes", notes, false); err != nil {
		return nil, err
	}
	ticket, _, err := s.mutate(ctx, authz, "assign_staff", rbac.PermTicketAssignStaff, ticketID,
		func(ctx context.Context, repos repository.Repositories, t *domain.Ticket, _ time.Time) (*change, error) {
			if t.Status.Terminal() {
				return nil, closedTicket(t)
			}
			staff, err := s.assignableStaff(ctx, repos, authz, staffID)
			if err != nil {
				return nil, err
			}
			if t.DepartmentID != nil && (staff.DepartmentID == nil || *staff.DepartmentID != *t.DepartmentID) {
				return nil, apperrors.NewConflict("staff member is not in the ticket's department", map[string]any{
					"staff_id":      staffID,
					"department_id": *t.DepartmentID,
				})
			}

			oldValue := map[string]any{"assignee_id": deref(t.AssigneeID), "assignee": nil}
			if t.AssigneeID != nil {
				if previous, err := repos.Actors.GetByID(ctx, *t.AssigneeID); err == nil {
					oldValue["assignee"] = previous.Name
				} else if !errors.Is(err, pgx.ErrNoRows) {
					return nil, err
				}
			}
			t.AssigneeID = strptr(staff.ID)
			if t.DepartmentID == nil {
				t.DepartmentID = staff.DepartmentID
			}
			return &change{
				action: domain.AuditAssignedStaff,
				old:    oldValue,
				new:    map[string]any{"assignee_id": staff.ID, "assignee": staff.Name},
				notes:  notes,
				event: &events.Event{
					Type:    events.EventTicketAssigned,
					Payload: events.TicketAssignedPayload{DepartmentID: t.DepartmentID, AssigneeID: t.AssigneeID},
				},
			}, nil
		})
	return ticket, err
}

// ListDepartments returns active departments for assignment pickers.
func (s *AssignmentService) ListDepartments(ctx context.Context, authz rbac.AuthorizationContext) ([]domain.Department, error) {
	if err := authz.Require(rbac.PermTicketAssignDepartment); err != nil {
		return nil, err
	}
	depts, err := s.store.Repositories().Departments.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if depts == nil {
		depts = []domain.Department{}
	}
	return depts, nil
}

// ListDepartmentStaff returns the active staff a caller could assign within a department.
func (s *AssignmentService) ListDepartmentStaff(ctx context.Context, authz rbac.AuthorizationContext, departmentID string) ([]domain.Actor, error) {
	if err := authz.Require(rbac.PermTicketAssignStaff); err != nil {
		return nil, err
	}
	if err := s.requireOwnDepartment(authz, &departmentID); err != nil {
		return nil, err
	}
	active := true
	actors, err := s.store.Repositories().Actors.List(ctx, repository.ActorFilter{
		DepartmentID: &departmentID,
		Active:       &active,
		Limit:        MaxPageSize,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	staff := make([]domain.Actor, 0, len(actors))
	for _, actor := range actors {
		if s.isDepartmentStaff(actor) {
			staff = append(staff, actor)
		}
	}
	return staff, nil
}

func (s *AssignmentService) assignableStaff(ctx context.Context, repos repository.Repositories, authz rbac.AuthorizationContext, staffID string) (*domain.Actor, error) {
	staff, err := repos.Actors.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
		}
		return nil, err
	}
	if !s.isDepartmentStaff(*staff) {
		return nil, apperrors.NewValidationError("actor is not department staff", map[string]any{"staff_id": staffID})
	}
	if !staff.Active {
		return nil, apperrors.NewConflict("staff member inactive", map[string]any{"staff_id": staffID})
	}
	if err := s.requireOwnDepartment(authz, staff.DepartmentID); err != nil {
		return nil, err
	}
	if staff.DepartmentID != nil {
		dept, err := getDepartment(ctx, repos, *staff.DepartmentID)
		if err != nil {
			return nil, err
		}
		if !dept.IsActive {
			return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": dept.ID})
		}
	}
	return staff, nil
}

// requireOwnDepartment limits department heads to their own department.
func (s *AssignmentService) requireOwnDepartment(authz rbac.AuthorizationContext, departmentID *string) error {
	if authz.Category() != rbac.CategoryDepartmentHead {
		return nil
	}
	own := authz.Actor.DepartmentID
	if own == nil || departmentID == nil || *own != *departmentID {
		return apperrors.NewForbidden("department heads may only assign their own staff")
	}
	return nil
}

func (s *AssignmentService) isDepartmentStaff(actor domain.Actor) bool {
	role, ok := s.catalog.Lookup(actor.RoleName)
	return ok && role.Active && role.Category == rbac.CategoryDepartmentStaff
}

func getDepartment(ctx context.Context, repos repository.Repositories, id string) (*domain.Department, error) {
	dept, err := repos.Departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return nil, err
	}
	return dept, nil
}

func closedTicket(t *domain.Ticket) error {
	return apperrors.NewConflict("ticket is closed", map[string]any{"status": string(t.Status)})
}
