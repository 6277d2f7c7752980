// Package orgtree models the city -> district -> sub-district administrative tree.
package orgtree

import (
	"fmt"
	"sort"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Tree is an immutable, validated view of the org-unit hierarchy.
type Tree struct {
	units    map[string]domain.OrgUnit
	children map[string][]string
	roots    []string
}

// Build validates units (unique ids, known parents, no cycles) and indexes them.
func Build(units []domain.OrgUnit) (*Tree, error) {
	t := &Tree{
		units:    make(map[string]domain.OrgUnit, len(units)),
		children: make(map[string][]string),
	}
	for _, unit := range units {
		if _, dup := t.units[unit.ID]; dup {
			return nil, fmt.Errorf("duplicate org unit %s", unit.ID)
		}
		t.units[unit.ID] = unit
	}
	for _, unit := range units {
		if unit.ParentID == nil {
			t.roots = append(t.roots, unit.ID)
			continue
		}
		if _, ok := t.units[*unit.ParentID]; !ok {
			return nil, fmt.Errorf("org unit %s references unknown parent %s", unit.ID, *unit.ParentID)
		}
		t.children[*unit.ParentID] = append(t.children[*unit.ParentID], unit.ID)
	}
	for parent := range t.children {
		sort.Strings(t.children[parent])
	}
	sort.Strings(t.roots)

	// every node must be reachable from a root, otherwise a cycle exists
	reached := 0
	for _, root := range t.roots {
		reached += 1 + len(t.Descendants(root, 0))
	}
	if reached != len(t.units) {
		return nil, fmt.Errorf("org hierarchy contains a cycle")
	}
	return t, nil
}

// Contains reports whether id is a known unit.
func (t *Tree) Contains(id string) bool {
	_, ok := t.units[id]
	return ok
}

// Get returns the unit with id.
func (t *Tree) Get(id string) (domain.OrgUnit, bool) {
	unit, ok := t.units[id]
	return unit, ok
}

// Roots returns the ids of parentless units.
func (t *Tree) Roots() []string {
	return append([]string(nil), t.roots...)
}

// Children returns the direct children of id.
func (t *Tree) Children(id string) []string {
	return append([]string(nil), t.children[id]...)
}

// Descendants returns the ids below id, breadth first, excluding id itself.
// maxDepth limits how many levels are walked; maxDepth <= 0 walks the whole subtree.
func (t *Tree) Descendants(id string, maxDepth int) []string {
	var out []string
	frontier := []string{id}
	for depth := 1; len(frontier) > 0; depth++ {
		if maxDepth > 0 && depth > maxDepth {
			break
		}
		var next []string
		for _, node := range frontier {
			next = append(next, t.children[node]...)
		}
		out = append(out, next...)
		frontier = next
	}
	return out
}

// Ancestors returns the chain from id's parent up to its root.
func (t *Tree) Ancestors(id string) []string {
	var out []string
	unit, ok := t.units[id]
	for ok && unit.ParentID != nil {
		out = append(out, *unit.ParentID)
		unit, ok = t.units[*unit.ParentID]
	}
	return out
}
