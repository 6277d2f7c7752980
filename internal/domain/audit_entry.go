package domain

import "time"

// AuditAction tags the kind of mutation an audit entry records.
type AuditAction string

const (
	AuditCreated         AuditAction = "created"
	AuditVerified        AuditAction = "verified"
	AuditRejected        AuditAction = "rejected"
	AuditAssignedDinas   AuditAction = "assigned_to_dinas"
	AuditAssignedStaff   AuditAction = "assigned_to_staff"
	AuditStatusUpdated   AuditAction = "status_updated"
	AuditProgressUpdated AuditAction = "progress_updated"
	AuditPriorityUpdated AuditAction = "priority_updated"
	AuditNoteAdded       AuditAction = "note_added"
)

// AuditEntry is an immutable record of one mutation on a ticket.
// A nil ActorID marks a system-originated action.
type AuditEntry struct {
	ID        string
	TicketID  string
	ActorID   *string
	Action    AuditAction
	OldValue  map[string]any
	NewValue  map[string]any
	Notes     *string
	CreatedAt time.Time
}
