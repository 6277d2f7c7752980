package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string  `json:"category_id" validate:"required,max=64"`
	Description string  `json:"description" validate:"required,max=1000"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// VerifyTicketRequest payload.
type VerifyTicketRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

// RejectTicketRequest payload.
type RejectTicketRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// AssignDepartmentRequest payload.
type AssignDepartmentRequest struct {
	DepartmentID string  `json:"department_id" validate:"required"`
	Notes        *string `json:"notes" validate:"omitempty,max=1000"`
}

// AssignStaffRequest payload.
type AssignStaffRequest struct {
	StaffID string  `json:"staff_id" validate:"required"`
	Notes   *string `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=new verified in_progress completed rejected"`
	Notes  *string `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateProgressRequest payload. Progress is a pointer so 0 is distinguishable from absent.
type UpdateProgressRequest struct {
	Progress *int    `json:"progress" validate:"required,min=0,max=100"`
	Notes    *string `json:"notes" validate:"omitempty,max=1000"`
}

// SetPriorityRequest payload.
type SetPriorityRequest struct {
	Priority string  `json:"priority" validate:"required,oneof=low medium high urgent"`
	Notes    *string `json:"notes" validate:"omitempty,max=1000"`
}

// AddNoteRequest payload.
type AddNoteRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID                string                `json:"id"`
	Number            string                `json:"number"`
	ReporterID        string                `json:"reporter_id"`
	CategoryID        string                `json:"category_id"`
	Description       string                `json:"description"`
	Latitude          float64               `json:"latitude"`
	Longitude         float64               `json:"longitude"`
	Address           *string               `json:"address,omitempty"`
	Status            domain.TicketStatus   `json:"status"`
	Priority          domain.TicketPriority `json:"priority"`
	Progress          int                   `json:"progress"`
	DepartmentID      *string               `json:"department_id"`
	AssigneeID        *string               `json:"assignee_id"`
	VerifierID        *string               `json:"verifier_id"`
	OrgUnitID         *string               `json:"org_unit_id"`
	AdminNotes        *string               `json:"admin_notes,omitempty"`
	VerificationNotes *string               `json:"verification_notes,omitempty"`
	RejectionReason   *string               `json:"rejection_reason,omitempty"`
	VerifiedAt        *time.Time            `json:"verified_at"`
	InProgressAt      *time.Time            `json:"in_progress_at"`
	CompletedAt       *time.Time            `json:"completed_at"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// AuditEntryResponse is one history item.
type AuditEntryResponse struct {
	ID        string             `json:"id"`
	ActorID   *string            `json:"actor_id"`
	Action    domain.AuditAction `json:"action"`
	OldValue  map[string]any     `json:"old_value"`
	NewValue  map[string]any     `json:"new_value"`
	Notes     *string            `json:"notes,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// PageMeta describes a listing page.
type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// StatisticsResponse counts visible tickets per status.
type StatisticsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                t.ID,
		Number:            t.Number,
		ReporterID:        t.ReporterID,
		CategoryID:        t.CategoryID,
		Description:       t.Description,
		Latitude:          t.Latitude,
		Longitude:         t.Longitude,
		Address:           t.Address,
		Status:            t.Status,
		Priority:          t.Priority,
		Progress:          t.Progress,
		DepartmentID:      t.DepartmentID,
		AssigneeID:        t.AssigneeID,
		VerifierID:        t.VerifierID,
		OrgUnitID:         t.OrgUnitID,
		AdminNotes:        t.AdminNotes,
		VerificationNotes: t.VerificationNotes,
		RejectionReason:   t.RejectionReason,
		VerifiedAt:        t.VerifiedAt,
		InProgressAt:      t.InProgressAt,
		CompletedAt:       t.CompletedAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// NewAuditEntryResponse maps an audit entry.
func NewAuditEntryResponse(e *domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        e.ID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		OldValue:  e.OldValue,
		NewValue:  e.NewValue,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
	}
}
