package rbac

import (
	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

var cityWideTargets = []domain.TicketStatus{
	domain.TicketStatusVerified,
	domain.TicketStatusInProgress,
	domain.TicketStatusCompleted,
	domain.TicketStatusRejected,
}

var transitionMap = map[Category]map[domain.TicketStatus][]domain.TicketStatus{
	CategoryCityWide: {
		domain.TicketStatusNew:        cityWideTargets,
		domain.TicketStatusVerified:   cityWideTargets,
		domain.TicketStatusInProgress: cityWideTargets,
	},
	CategoryVerifier: {
		domain.TicketStatusNew: {domain.TicketStatusVerified, domain.TicketStatusRejected},
	},
	CategoryDepartmentHead: {
		domain.TicketStatusVerified:   {domain.TicketStatusInProgress},
		domain.TicketStatusInProgress: {domain.TicketStatusCompleted},
	},
	CategoryDepartmentStaff: {
		domain.TicketStatusInProgress: {domain.TicketStatusCompleted},
	},
}

// AllowedTransitions returns the statuses a role category may move a ticket
// to from current. Unlisted pairs yield an empty set.
func AllowedTransitions(category Category, current domain.TicketStatus) []domain.TicketStatus {
	targets := transitionMap[category][current]
	out := make([]domain.TicketStatus, 0, len(targets))
	for _, target := range targets {
		if target != current {
			out = append(out, target)
		}
	}
	return out
}

// CanTransition reports whether target is reachable from current for category.
func CanTransition(category Category, current, target domain.TicketStatus) bool {
	for _, candidate := range AllowedTransitions(category, current) {
		if candidate == target {
			return true
		}
	}
	return false
}

// AuthorizeTransition returns an IllegalTransition error unless the move is allowed.
func AuthorizeTransition(category Category, current, target domain.TicketStatus) error {
	if CanTransition(category, current, target) {
		return nil
	}
	allowed := AllowedTransitions(category, current)
	names := make([]string, 0, len(allowed))
	for _, status := range allowed {
		names = append(names, string(status))
	}
	return apperrors.NewIllegalTransition(string(current), string(target), names)
}
