package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/audit"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

const maxCreateAttempts = 3

// TicketService runs the ticket lifecycle: creation, verification, status and
// progress changes, priority, notes and reads.
type TicketService struct {
	*engine
}

// NewTicketService constructs the service.
func NewTicketService(deps Dependencies) *TicketService {
	return &TicketService{engine: newEngine(deps)}
}

// CreateTicketInput describes a citizen report.
type CreateTicketInput struct {
	CategoryID  string
	Description string
	Latitude    float64
	Longitude   float64
	Address     *string
	Priority    domain.TicketPriority
}

// CreateTicket files a new ticket for the caller in status new.
func (s *TicketService) CreateTicket(ctx context.Context, authz rbac.AuthorizationContext, input CreateTicketInput) (*domain.Ticket, error) {
	if err := authz.Require(rbac.PermTicketCreate); err != nil {
		return nil, err
	}
	input.CategoryID = strings.TrimSpace(input.CategoryID)
	input.Description = strings.TrimSpace(input.Description)
	if input.CategoryID == "" {
		return nil, apperrors.NewValidationError("category is required", map[string]any{"field": "category_id"})
	}
	if input.Description == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, apperrors.NewValidationError("coordinates out of range", map[string]any{
			"latitude": input.Latitude, "longitude": input.Longitude,
		})
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	var (
		ticket *domain.Ticket
		err    error
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		ticket, err = s.createOnce(ctx, authz, input)
		if err == nil || !repository.IsUniqueViolation(err) {
			break
		}
		s.logger.Warn("ticket number collision, retrying")
	}
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewPersistenceFailure(err)
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		ActorID:      strptr(authz.ActorID()),
		Payload: events.TicketCreatedPayload{
			ReporterID: ticket.ReporterID,
			CategoryID: ticket.CategoryID,
			OrgUnitID:  ticket.OrgUnitID,
			Priority:   ticket.Priority,
		},
	})
	return ticket, nil
}

func (s *TicketService) createOnce(ctx context.Context, authz rbac.AuthorizationContext, input CreateTicketInput) (*domain.Ticket, error) {
	number, err := s.numbers.Next(ctx, s.store)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Number:      number,
		ReporterID:  authz.ActorID(),
		CategoryID:  input.CategoryID,
		Description: input.Description,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Address:     input.Address,
		Status:      domain.TicketStatusNew,
		Priority:    input.Priority,
		OrgUnitID:   authz.Actor.OrgUnitID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		_, err := s.recorder.Log(ctx, repos, auditEntry(ticket.ID, authz.ActorID(), domain.AuditCreated, nil, map[string]any{
			"number":   ticket.Number,
			"status":   string(ticket.Status),
			"priority": string(ticket.Priority),
		}, nil))
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// DeleteTicket removes a ticket. Only its reporter may do so, and only while
// it is still new; its audit entries go with it.
func (s *TicketService) DeleteTicket(ctx context.Context, authz rbac.AuthorizationContext, ticketID string) error {
	var number string
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		ticket, err := loadTicket(ctx, repos, ticketID, true)
		if err != nil {
			return err
		}
		if ticket.ReporterID != authz.ActorID() || !authz.Actor.Active {
			return apperrors.NewForbidden("only the reporter may delete a ticket")
		}
		if ticket.Status != domain.TicketStatusNew {
			return apperrors.NewConflict("only new tickets can be deleted", map[string]any{"status": string(ticket.Status)})
		}
		number = ticket.Number
		return repos.Tickets.Delete(ctx, ticket.ID)
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:         events.EventTicketDeleted,
		TicketID:     ticketID,
		TicketNumber: number,
		ActorID:      strptr(authz.ActorID()),
	})
	return nil
}

// Verify accepts a new ticket.
func (s *TicketService) Verify(ctx context.Context, authz rbac.AuthorizationContext, ticketID string, notes *string) (*domain.Ticket, error) {
	if err := validateText("notes", notes, false); err != nil {
		return nil, err
	}
	ticket, _, err := s.mutate(ctx, authz, "verify", rbac.PermTicketVerify, ticketID,
		func(_ context.Context, _ repository.Repositories, t *domain.Ticket, now time.Time) (*change, error) {
			if err := requireNewTicket(authz, t, domain.TicketStatusVerified); err != nil {
				return nil, err
			}
			old := t.Status
			t.Status = domain.TicketStatusVerified
			t.VerifierID = strptr(authz.ActorID())
			if notes != nil && *notes != "" {
				t.VerificationNotes = notes
			}
			t.MarkMilestone(domain.TicketStatusVerified, now)
			return &change{
				action: domain.AuditVerified,
				old:    map[string]any{"status": string(old)},
				new:    map[string]any{"status": string(t.Status)},
				notes:  notes,
				event:  statusEvent(domain.AuditVerified, old, t.Status, notes),
			}, nil
		})
	return ticket, err
}

// Reject closes a new ticket with a mandatory reason.
func (s *TicketService) Reject(ctx context.Context, authz rbac.AuthorizationContext, ticketID, reason string) (*domain.Ticket, error) {
	if err := validateText("reason", &reason, true); err != nil {
		return nil, err
	}
	ticket, _, err := s.mutate(ctx, authz, "reject", rbac.PermTicketReject, ticketID,
		func(_ context.Context, _ repository.Repositories, t *domain.Ticket, _ time.Time) (*change, error) {
			if err := requireNewTicket(authz, t, domain.TicketStatusRejected); err != nil {
				return nil, err
			}
			old := t.Status
			t.Status = domain.TicketStatusRejected
			t.VerifierID = strptr(authz.ActorID())
			t.RejectionReason = strptr(reason)
			return &change{
				action: domain.AuditRejected,
				old:    map[string]any{"status": string(old)},
				new:    map[string]any{"status": string(t.Status), "reason": reason},
				event:  statusEvent(domain.AuditRejected, old, t.Status, &reason),
			}, nil
		})
	return ticket, err
}

// UpdateStatus moves the ticket to target if the caller's role allows it.
// Entering completed forces progress to 100.
func (s *TicketService) UpdateStatus(ctx context.Context, authz rbac.AuthorizationContext, ticketID string, target domain.TicketStatus, notes *string) (*domain.Ticket, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": target})
	}
	if err := validateText("notes", notes, false); err != nil {
		return nil, err
	}
	ticket, _, err := s.mutate(ctx, authz, "update_status", rbac.PermTicketUpdateStatus, ticketID,
		func(_ context.Context, _ repository.Repositories, t *domain.Ticket, now time.Time) (*change, error) {
			if err := rbac.AuthorizeTransition(authz.Category(), t.Status, target); err != nil {
				return nil, err
			}
			oldStatus, oldProgress := t.Status, t.Progress
			t.Status = target
			t.MarkMilestone(target, now)
			if oldStatus == domain.TicketStatusNew {
				t.VerifierID = strptr(authz.ActorID())
			}
			if target == domain.TicketStatusCompleted {
				t.Progress = domain.MaxProgress
			}
			if notes != nil && *notes != "" {
				t.AdminNotes = notes
			}

			oldValue := map[string]any{"status": string(oldStatus)}
			newValue := map[string]any{"status": string(t.Status)}
			if oldProgress != t.Progress {
				oldValue["progress"] = oldProgress
				newValue["progress"] = t.Progress
			}
			return &change{
				action: domain.AuditStatusUpdated,
				old:    oldValue,
				new:    newValue,
				notes:  notes,
				event:  statusEvent(domain.AuditStatusUpdated, oldStatus, t.Status, notes),
			}, nil
		})
	return ticket, err
}

// UpdateProgress records work progress. Reaching 100 completes the ticket and
// is only allowed when the caller's role may move it to completed.
func (s *TicketService) UpdateProgress(ctx context.Context, authz rbac.AuthorizationContext, ticketID string, percent int, notes *string) (*domain.Ticket, error) {
	if percent < 0 || percent > domain.MaxProgress {
		return nil, apperrors.NewValidationError("progress must be between 0 and 100", map[string]any{"progress": percent})
	}
	if err := validateText("notes", notes, false); err != nil {
		return nil, err
	}
	ticket, _, err := s.mutate(ctx, authz, "update_progress", rbac.PermTicketUpdateProgress, ticketID,
		func(_ context.Context, _ repository.Repositories, t *domain.Ticket, now time.Time) (*change, error) {
			if t.Status.Terminal() {
				return nil, illegal(authz.Category(), t.Status, t.Status)
			}
			oldStatus, oldProgress := t.Status, t.Progress
			if percent == domain.MaxProgress {
				if err := rbac.AuthorizeTransition(authz.Category(), t.Status, domain.TicketStatusCompleted); err != nil {
					return nil, err
				}
				t.Status = domain.TicketStatusCompleted
				t.MarkMilestone(domain.TicketStatusCompleted, now)
			}
			t.Progress = percent
			return &change{
				action: domain.AuditProgressUpdated,
				old:    map[string]any{"progress": oldProgress, "status": string(oldStatus)},
				new:    map[string]any{"progress": t.Progress, "status": string(t.Status)},
				notes:  notes,
				event: &events.Event{
					Type: events.EventTicketProgressUpdated,
					Payload: events.TicketProgressUpdatedPayload{
						OldProgress: oldProgress,
						NewProgress: t.Progress,
						Status:      t.Status,
					},
				},
			}, nil
		})
	return ticket, err
}

// SetPriority changes handling urgency.
func (s *TicketService) SetPriority(ctx context.Context, authz rbac.AuthorizationContext, ticketID string, priority domain.TicketPriority, notes *string) (*domain.Ticket, error) {
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}
	if err := validateText("notes", notes, false); err != nil {
		return nil, err
	}
	ticket, _, err := s.mutate(ctx, authz, "set_priority", rbac.PermTicketSetPriority, ticketID,
		func(_ context.Context, _ repository.Repositories, t *domain.Ticket, _ time.Time) (*change, error) {
			old := t.Priority
			t.Priority = priority
			return &change{
				action: domain.AuditPriorityUpdated,
				old:    map[string]any{"priority": string(old)},
				new:    map[string]any{"priority": string(priority)},
				notes:  notes,
				event: &events.Event{
					Type:    events.EventTicketPriorityChanged,
					Payload: events.TicketPriorityChangedPayload{OldPriority: old, NewPriority: priority},
				},
			}, nil
		})
	return ticket, err
}

// AddNote appends a note to the ticket's history without changing the ticket.
func (s *TicketService) AddNote(ctx context.Context, authz rbac.AuthorizationContext, ticketID, text string) (*domain.AuditEntry, error) {
	if err := validateText("text", &text, true); err != nil {
		return nil, err
	}
	_, entry, err := s.mutate(ctx, authz, "add_note", rbac.PermTicketAddNote, ticketID,
		func(_ context.Context, _ repository.Repositories, _ *domain.Ticket, _ time.Time) (*change, error) {
			return &change{
				action:    domain.AuditNoteAdded,
				notes:     strptr(text),
				auditOnly: true,
				event: &events.Event{
					Type:    events.EventTicketNoteAdded,
					Payload: events.TicketNoteAddedPayload{Preview: stringPreview(text, 120)},
				},
			}, nil
		})
	return entry, err
}

// requireNewTicket guards verify and reject: both start from new and must be
// a legal move for the caller's role.
func requireNewTicket(authz rbac.AuthorizationContext, t *domain.Ticket, target domain.TicketStatus) error {
	if t.Status != domain.TicketStatusNew {
		return illegal(authz.Category(), t.Status, target)
	}
	return rbac.AuthorizeTransition(authz.Category(), t.Status, target)
}

func statusEvent(action domain.AuditAction, old, next domain.TicketStatus, notes *string) *events.Event {
	payload := events.TicketStatusChangedPayload{Action: action, OldStatus: old, NewStatus: next}
	if notes != nil {
		payload.Notes = *notes
	}
	return &events.Event{Type: events.EventTicketStatusChanged, Payload: payload}
}

func auditEntry(ticketID, actorID string, action domain.AuditAction, old, next map[string]any, notes *string) audit.Entry {
	return audit.Entry{TicketID: ticketID, ActorID: &actorID, Action: action, Old: old, New: next, Notes: notes}
}

func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
