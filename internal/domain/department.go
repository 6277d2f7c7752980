package domain

import "time"

// Department (dinas) is a municipal technical unit tickets can be routed to.
type Department struct {
	ID        string
	OrgUnitID string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
