package domain

import "time"

// Actor is an authenticated system user: citizen, officer or administrator.
type Actor struct {
	ID           string
	Name         string
	Email        string
	RoleName     string
	OrgUnitID    *string
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
