package service

import (
	"context"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/ticketfilter"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListInput holds caller-supplied filters layered on top of the visibility scope.
type ListInput struct {
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	CategoryID   *string
	DepartmentID *string
	OrgUnitID    *string
	Search       string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Sort         repository.SortField
	Desc         bool
	Page         int
	PageSize     int
}

// TicketPage is one page of a listing.
type TicketPage struct {
	Items    []domain.Ticket
	Total    int
	Page     int
	PageSize int
}

// StatusStatistics counts visible tickets per status.
type StatusStatistics struct {
	Total    int
	ByStatus map[domain.TicketStatus]int
}

// GetTicket returns a ticket the caller may see.
func (s *TicketService) GetTicket(ctx context.Context, authz rbac.AuthorizationContext, ticketID string) (*domain.Ticket, error) {
	if err := authz.Require(rbac.PermTicketView); err != nil {
		return nil, err
	}
	return s.visibleTicket(ctx, authz, ticketID)
}

func (s *TicketService) visibleTicket(ctx context.Context, authz rbac.AuthorizationContext, ticketID string) (*domain.Ticket, error) {
	scope, err := s.scope(ctx, authz)
	if err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.store.Repositories(), ticketID, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !scope.Matches(ticket) {
		return nil, apperrors.NewForbidden("ticket outside your scope")
	}
	return ticket, nil
}

// ListTickets returns the caller's visible tickets narrowed by input.
func (s *TicketService) ListTickets(ctx context.Context, authz rbac.AuthorizationContext, input ListInput) (*TicketPage, error) {
	if err := authz.Require(rbac.PermTicketView); err != nil {
		return nil, err
	}
	filter, err := listFilter(input)
	if err != nil {
		return nil, err
	}
	if input.Sort == "" {
		input.Sort = repository.SortCreatedAt
		input.Desc = true
	}
	if !input.Sort.Valid() {
		return nil, apperrors.NewValidationError("invalid sort field", map[string]any{"sort": input.Sort})
	}
	if input.Page <= 0 {
		input.Page = 1
	}
	if input.PageSize <= 0 {
		input.PageSize = DefaultPageSize
	}
	if input.PageSize > MaxPageSize {
		return nil, apperrors.NewValidationError("page size too large", map[string]any{"max": MaxPageSize})
	}

	scope, err := s.scope(ctx, authz)
	if err != nil {
		return nil, err
	}
	spec := ticketfilter.And(scope, filter)

	repos := s.store.Repositories()
	total, err := repos.Tickets.Count(ctx, spec)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	items, err := repos.Tickets.List(ctx, repository.TicketQuery{
		Filter: spec,
		Sort:   input.Sort,
		Desc:   input.Desc,
		Limit:  input.PageSize,
		Offset: (input.Page - 1) * input.PageSize,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.Ticket{}
	}
	return &TicketPage{Items: items, Total: total, Page: input.Page, PageSize: input.PageSize}, nil
}

// Statistics counts visible tickets per status. Every count reuses the same
// scope predicate.
func (s *TicketService) Statistics(ctx context.Context, authz rbac.AuthorizationContext) (*StatusStatistics, error) {
	if err := authz.Require(rbac.PermTicketView); err != nil {
		return nil, err
	}
	scope, err := s.scope(ctx, authz)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repositories()
	stats := &StatusStatistics{ByStatus: make(map[domain.TicketStatus]int, len(domain.AllTicketStatuses))}
	for _, status := range domain.AllTicketStatuses {
		count, err := repos.Tickets.Count(ctx, ticketfilter.And(scope, ticketfilter.Eq(ticketfilter.FieldStatus, string(status))))
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	return stats, nil
}

// History returns the audit trail of a ticket the caller may see.
func (s *TicketService) History(ctx context.Context, authz rbac.AuthorizationContext, ticketID string, order repository.SortOrder) ([]domain.AuditEntry, error) {
	if err := authz.Require(rbac.PermTicketView); err != nil {
		return nil, err
	}
	if err := authz.Require(rbac.PermTicketViewHistory); err != nil {
		return nil, err
	}
	if order != "" && order != repository.OrderAsc && order != repository.OrderDesc {
		return nil, apperrors.NewValidationError("invalid order", map[string]any{"order": order})
	}
	if _, err := s.visibleTicket(ctx, authz, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.recorder.History(ctx, s.store.Repositories(), ticketID, order)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func listFilter(input ListInput) (ticketfilter.Spec, error) {
	parts := []ticketfilter.Spec{}
	if len(input.Statuses) > 0 {
		values := make([]string, 0, len(input.Statuses))
		for _, st := range input.Statuses {
			if !st.Valid() {
				return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": st})
			}
			values = append(values, string(st))
		}
		parts = append(parts, ticketfilter.In(ticketfilter.FieldStatus, values))
	}
	if len(input.Priorities) > 0 {
		values := make([]string, 0, len(input.Priorities))
		for _, p := range input.Priorities {
			if !p.Valid() {
				return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": p})
			}
			values = append(values, string(p))
		}
		parts = append(parts, ticketfilter.In(ticketfilter.FieldPriority, values))
	}
	if input.CategoryID != nil {
		parts = append(parts, ticketfilter.Eq(ticketfilter.FieldCategory, *input.CategoryID))
	}
	if input.DepartmentID != nil {
		parts = append(parts, ticketfilter.Eq(ticketfilter.FieldDepartment, *input.DepartmentID))
	}
	if input.OrgUnitID != nil {
		parts = append(parts, ticketfilter.Eq(ticketfilter.FieldOrgUnit, *input.OrgUnitID))
	}
	if input.CreatedFrom != nil && input.CreatedTo != nil && input.CreatedFrom.After(*input.CreatedTo) {
		return nil, apperrors.NewValidationError("created_from is after created_to", nil)
	}
	parts = append(parts,
		ticketfilter.Search(input.Search),
		ticketfilter.CreatedBetween(input.CreatedFrom, input.CreatedTo),
	)
	return ticketfilter.And(parts...), nil
}
