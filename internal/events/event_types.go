package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketDeleted         EventType = "ticket_deleted"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketProgressUpdated EventType = "ticket_progress_updated"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketNoteAdded       EventType = "ticket_note_added"
)

// AllEventTypes lists every type a subscriber may register for.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketDeleted,
	EventTicketStatusChanged,
	EventTicketProgressUpdated,
	EventTicketPriorityChanged,
	EventTicketAssigned,
	EventTicketNoteAdded,
}

// Event represents a domain event emitted after a lifecycle transaction commits.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	TicketID     string    `json:"ticket_id"`
	TicketNumber string    `json:"ticket_number"`
	ActorID      *string   `json:"actor_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReporterID string                `json:"reporter_id"`
	CategoryID string                `json:"category_id"`
	OrgUnitID  *string               `json:"org_unit_id,omitempty"`
	Priority   domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload. Action is the audit tag that caused it.
type TicketStatusChangedPayload struct {
	Action    domain.AuditAction  `json:"action"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Notes     string              `json:"notes,omitempty"`
}

// TicketProgressUpdatedPayload payload.
type TicketProgressUpdatedPayload struct {
	OldProgress int                 `json:"old_progress"`
	NewProgress int                 `json:"new_progress"`
	Status      domain.TicketStatus `json:"status"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	DepartmentID *string `json:"department_id,omitempty"`
	AssigneeID   *string `json:"assignee_id,omitempty"`
}

// TicketNoteAddedPayload payload.
type TicketNoteAddedPayload struct {
	Preview string `json:"preview"`
}
