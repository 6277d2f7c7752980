// Package visibility decides which tickets an actor may see.
package visibility

import (
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/orgtree"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/ticketfilter"
)

// Options tunes hierarchy-based rules.
type Options struct {
	// DistrictDepth bounds the org-unit levels below a district that district
	// roles can see. Zero or negative means the whole subtree.
	DistrictDepth int
}

// Rule names the scoping branch that applied to an actor.
type Rule string

const (
	RuleAll             Rule = "all"
	RuleNewOnly         Rule = "new_only"
	RuleOwnDepartment   Rule = "own_department"
	RuleOwnAssignments  Rule = "own_assignments"
	RuleDistrictSubtree Rule = "district_subtree"
	RuleOwnOrgUnit      Rule = "own_org_unit"
	RuleOwnReports      Rule = "own_reports"
)

// RuleFor returns the first rule matching the caller's role category.
func RuleFor(authz rbac.AuthorizationContext) Rule {
	switch authz.Category() {
	case rbac.CategoryCityWide:
		return RuleAll
	case rbac.CategoryVerifier:
		return RuleNewOnly
	case rbac.CategoryDepartmentHead:
		return RuleOwnDepartment
	case rbac.CategoryDepartmentStaff:
		return RuleOwnAssignments
	case rbac.CategoryDistrictHead, rbac.CategoryDistrictStaff:
		return RuleDistrictSubtree
	case rbac.CategorySubDistrict:
		return RuleOwnOrgUnit
	default:
		return RuleOwnReports
	}
}

// Scope builds the predicate selecting tickets visible to the caller. A rule
// that needs a department or org unit the actor lacks yields None.
func Scope(authz rbac.AuthorizationContext, tree *orgtree.Tree, opts Options) ticketfilter.Spec {
	actor := authz.Actor
	switch RuleFor(authz) {
	case RuleAll:
		return ticketfilter.All()
	case RuleNewOnly:
		return ticketfilter.Eq(ticketfilter.FieldStatus, string(domain.TicketStatusNew))
	case RuleOwnDepartment:
		if actor.DepartmentID == nil {
			return ticketfilter.None()
		}
		return ticketfilter.Eq(ticketfilter.FieldDepartment, *actor.DepartmentID)
	case RuleOwnAssignments:
		return ticketfilter.Eq(ticketfilter.FieldAssignee, actor.ID)
	case RuleDistrictSubtree:
		if actor.OrgUnitID == nil || tree == nil {
			return ticketfilter.None()
		}
		return ticketfilter.In(ticketfilter.FieldOrgUnit, tree.Descendants(*actor.OrgUnitID, opts.DistrictDepth))
	case RuleOwnOrgUnit:
		if actor.OrgUnitID == nil {
			return ticketfilter.None()
		}
		return ticketfilter.Eq(ticketfilter.FieldOrgUnit, *actor.OrgUnitID)
	}
	return ticketfilter.Eq(ticketfilter.FieldReporter, actor.ID)
}

// CanView reports whether ticket falls inside the caller's scope.
func CanView(authz rbac.AuthorizationContext, tree *orgtree.Tree, opts Options, ticket *domain.Ticket) bool {
	return Scope(authz, tree, opts).Matches(ticket)
}
