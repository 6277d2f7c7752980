// Package ticketfilter provides immutable, composable ticket predicates that can
// be evaluated in memory or rendered into a parameterized SQL condition.
package ticketfilter

import (
	"strings"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Field names a filterable ticket attribute.
type Field string

const (
	FieldStatus     Field = "status"
	FieldPriority   Field = "priority"
	FieldCategory   Field = "category"
	FieldDepartment Field = "department"
	FieldAssignee   Field = "assignee"
	FieldReporter   Field = "reporter"
	FieldOrgUnit    Field = "org_unit"
)

var columns = map[Field]string{
	FieldStatus:     "status",
	FieldPriority:   "priority",
	FieldCategory:   "category_id",
	FieldDepartment: "department_id",
	FieldAssignee:   "assignee_id",
	FieldReporter:   "reporter_id",
	FieldOrgUnit:    "org_unit_id",
}

// value extracts the field; ok is false for unset optional references.
func value(t *domain.Ticket, f Field) (string, bool) {
	deref := func(s *string) (string, bool) {
		if s == nil {
			return "", false
		}
		return *s, true
	}
	switch f {
	case FieldStatus:
		return string(t.Status), true
	case FieldPriority:
		return string(t.Priority), true
	case FieldCategory:
		return t.CategoryID, true
	case FieldReporter:
		return t.ReporterID, true
	case FieldDepartment:
		return deref(t.DepartmentID)
	case FieldAssignee:
		return deref(t.AssigneeID)
	case FieldOrgUnit:
		return deref(t.OrgUnitID)
	}
	return "", false
}

// Spec is a ticket predicate. Implementations are values and never mutate.
type Spec interface {
	Matches(t *domain.Ticket) bool
	render(b *sqlBuilder) string
}

type allSpec struct{}

func (allSpec) Matches(*domain.Ticket) bool { return true }

type noneSpec struct{}

func (noneSpec) Matches(*domain.Ticket) bool { return false }

// All matches every ticket.
func All() Spec { return allSpec{} }

// None matches no ticket.
func None() Spec { return noneSpec{} }

type inSpec struct {
	field  Field
	values []string
}

func (s inSpec) Matches(t *domain.Ticket) bool {
	v, ok := value(t, s.field)
	if !ok {
		return false
	}
	for _, candidate := range s.values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Eq matches tickets whose field equals v.
func Eq(field Field, v string) Spec {
	return inSpec{field: field, values: []string{v}}
}

// In matches tickets whose field is one of values. An empty set matches nothing.
func In(field Field, values []string) Spec {
	if len(values) == 0 {
		return None()
	}
	return inSpec{field: field, values: append([]string(nil), values...)}
}

type andSpec struct{ parts []Spec }

func (s andSpec) Matches(t *domain.Ticket) bool {
	for _, part := range s.parts {
		if !part.Matches(t) {
			return false
		}
	}
	return true
}

type orSpec struct{ parts []Spec }

func (s orSpec) Matches(t *domain.Ticket) bool {
	for _, part := range s.parts {
		if part.Matches(t) {
			return true
		}
	}
	return false
}

// And matches when every part matches. nil parts are ignored.
func And(parts ...Spec) Spec {
	kept := make([]Spec, 0, len(parts))
	for _, part := range parts {
		switch part.(type) {
		case nil, allSpec:
			continue
		case noneSpec:
			return None()
		}
		kept = append(kept, part)
	}
	switch len(kept) {
	case 0:
		return All()
	case 1:
		return kept[0]
	}
	return andSpec{parts: kept}
}

// Or matches when any part matches. nil parts are ignored.
func Or(parts ...Spec) Spec {
	kept := make([]Spec, 0, len(parts))
	for _, part := range parts {
		switch part.(type) {
		case nil, noneSpec:
			continue
		case allSpec:
			return All()
		}
		kept = append(kept, part)
	}
	switch len(kept) {
	case 0:
		return None()
	case 1:
		return kept[0]
	}
	return orSpec{parts: kept}
}

type searchSpec struct{ term string }

func (s searchSpec) Matches(t *domain.Ticket) bool {
	if strings.Contains(strings.ToLower(t.Description), s.term) ||
		strings.Contains(strings.ToLower(t.Number), s.term) {
		return true
	}
	return t.Address != nil && strings.Contains(strings.ToLower(*t.Address), s.term)
}

// Search matches a case-insensitive substring of description, number or address.
// A blank term matches everything.
func Search(term string) Spec {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return All()
	}
	return searchSpec{term: term}
}

type createdSpec struct {
	from *time.Time
	to   *time.Time
}

func (s createdSpec) Matches(t *domain.Ticket) bool {
	if s.from != nil && t.CreatedAt.Before(*s.from) {
		return false
	}
	if s.to != nil && t.CreatedAt.After(*s.to) {
		return false
	}
	return true
}

// CreatedBetween matches creation time within [from, to]; nil bounds are open.
func CreatedBetween(from, to *time.Time) Spec {
	if from == nil && to == nil {
		return All()
	}
	return createdSpec{from: from, to: to}
}
