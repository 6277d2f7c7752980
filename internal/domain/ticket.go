package domain

import "time"

// TicketStatus enumerates lifecycle states for complaint tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusVerified   TicketStatus = "verified"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusCompleted  TicketStatus = "completed"
	TicketStatusRejected   TicketStatus = "rejected"
)

// AllTicketStatuses lists statuses in workflow order.
var AllTicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusVerified,
	TicketStatusInProgress,
	TicketStatusCompleted,
	TicketStatusRejected,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusVerified, TicketStatusInProgress, TicketStatusCompleted, TicketStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further workflow step is possible.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusRejected
}

// TicketPriority enumerates handling urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities from low (0) to urgent (3).
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 0
	case TicketPriorityMedium:
		return 1
	case TicketPriorityHigh:
		return 2
	case TicketPriorityUrgent:
		return 3
	}
	return -1
}

// MaxProgress is the completion percentage.
const MaxProgress = 100

// Ticket is a citizen complaint tracked through the lifecycle.
type Ticket struct {
	ID                string
	Number            string
	ReporterID        string
	CategoryID        string
	Description       string
	Latitude          float64
	Longitude         float64
	Address           *string
	Status            TicketStatus
	Priority          TicketPriority
	Progress          int
	DepartmentID      *string
	AssigneeID        *string
	VerifierID        *string
	OrgUnitID         *string
	AdminNotes        *string
	VerificationNotes *string
	RejectionReason   *string
	VerifiedAt        *time.Time
	InProgressAt      *time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MarkMilestone stamps the timestamp belonging to status if it has never been set.
func (t *Ticket) MarkMilestone(status TicketStatus, at time.Time) {
	switch status {
	case TicketStatusVerified:
		if t.VerifiedAt == nil {
			t.VerifiedAt = &at
		}
	case TicketStatusInProgress:
		if t.InProgressAt == nil {
			t.InProgressAt = &at
		}
	case TicketStatusCompleted:
		if t.CompletedAt == nil {
			t.CompletedAt = &at
		}
	}
}

// Clone returns a deep copy.
func (t Ticket) Clone() Ticket {
	out := t
	out.Address = cloneString(t.Address)
	out.DepartmentID = cloneString(t.DepartmentID)
	out.AssigneeID = cloneString(t.AssigneeID)
	out.VerifierID = cloneString(t.VerifierID)
	out.OrgUnitID = cloneString(t.OrgUnitID)
	out.AdminNotes = cloneString(t.AdminNotes)
	out.VerificationNotes = cloneString(t.VerificationNotes)
	out.RejectionReason = cloneString(t.RejectionReason)
	out.VerifiedAt = cloneTime(t.VerifiedAt)
	out.InProgressAt = cloneTime(t.InProgressAt)
	out.CompletedAt = cloneTime(t.CompletedAt)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
