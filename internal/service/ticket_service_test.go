package service

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/rbac"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func TestCreateTicketDefaults(t *testing.T) {
	f := newFixture(t)

	ticket := f.createTicket(t)

	assert.Equal(t, "ADU-20240603-001", ticket.Number)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, 0, ticket.Progress)
	assert.Equal(t, "citizen", ticket.ReporterID)
	require.NotNil(t, ticket.OrgUnitID)
	assert.Equal(t, "s11", *ticket.OrgUnitID)

	history := f.history(t, ticket.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.AuditCreated, history[0].Action)
	assert.Nil(t, history[0].OldValue)
	assert.Equal(t, "new", history[0].NewValue["status"])
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.events.types())
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name  string
		input CreateTicketInput
	}{
		{"missing category", CreateTicketInput{Description: "x"}},
		{"blank description", CreateTicketInput{CategoryID: "road", Description: "   "}},
		{"latitude out of range", CreateTicketInput{CategoryID: "road", Description: "x", Latitude: 91}},
		{"bad priority", CreateTicketInput{CategoryID: "road", Description: "x", Priority: "critical"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tickets.CreateTicket(f.ctx, f.as("citizen"), tc.input)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}

	_, err := f.tickets.CreateTicket(f.ctx, f.as("verifier"), CreateTicketInput{CategoryID: "road", Description: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestCreateTicketNumbersUniqueUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	const n = 40

	var (
		mu      sync.Mutex
		numbers = map[string]struct{}{}
	)
	g, ctx := errgroup.WithContext(f.ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			ticket, err := f.tickets.CreateTicket(ctx, f.as("citizen"), CreateTicketInput{
				CategoryID:  "waste",
				Description: "Sampah menumpuk",
			})
			if err != nil {
				return err
			}
			mu.Lock()
			numbers[ticket.Number] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, numbers, n)
	pattern := regexp.MustCompile(`^ADU-\d{8}-\d{3}$`)
	for number := range numbers {
		assert.Regexp(t, pattern, number)
	}
}

func TestCreateTicketRetriesOnNumberCollision(t *testing.T) {
	f := newFixture(t)
	taken := &domain.Ticket{
		ID:          "legacy",
		Number:      "ADU-20240603-001",
		ReporterID:  "citizen",
		CategoryID:  "road",
		Description: "imported",
		Status:      domain.TicketStatusNew,
		Priority:    domain.TicketPriorityLow,
	}
	require.NoError(t, f.store.Repositories().Tickets.Create(f.ctx, taken))

	ticket := f.createTicket(t)

	assert.Equal(t, "ADU-20240603-002", ticket.Number)
}

func TestVerifyScenario(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)

	verified, err := f.tickets.Verify(f.ctx, f.as("verifier"), ticket.ID, strp("lokasi sesuai"))
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusVerified, verified.Status)
	require.NotNil(t, verified.VerifiedAt)
	require.NotNil(t, verified.VerifierID)
	assert.Equal(t, "verifier", *verified.VerifierID)
	require.NotNil(t, verified.VerificationNotes)
	assert.Equal(t, "lokasi sesuai", *verified.VerificationNotes)

	history := f.history(t, ticket.ID)
	require.Len(t, history, 2)
	entry := history[1]
	assert.Equal(t, domain.AuditVerified, entry.Action)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "verifier", *entry.ActorID)
	assert.Equal(t, map[string]any{"status": "new"}, entry.OldValue)
	assert.Equal(t, map[string]any{"status": "verified"}, entry.NewValue)
	assert.Contains(t, f.events.types(), events.EventTicketStatusChanged)
}

func TestVerifyRequiresNewTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)
	_, err := f.tickets.Verify(f.ctx, f.as("admin"), ticket.ID, nil)
	require.NoError(t, err)

	_, err = f.tickets.Verify(f.ctx, f.as("admin"), ticket.ID, nil)

	assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition), "got %v", err)
	assert.Len(t, f.history(t, ticket.ID), 2)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)

	_, err := f.tickets.Reject(f.ctx, f.as("verifier"), ticket.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.tickets.Reject(f.ctx, f.as("verifier"), ticket.ID, strings.Repeat("x", MaxTextLength+1))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	rejected, err := f.tickets.Reject(f.ctx, f.as("verifier"), ticket.ID, "duplikat laporan")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "duplikat laporan", *rejected.RejectionReason)

	history := f.history(t, ticket.ID)
	require.Len(t, history, 2)
	assert.Equal(t, domain.AuditRejected, history[1].Action)
	assert.Equal(t, map[string]any{"status": "rejected", "reason": "duplikat laporan"}, history[1].NewValue)
}

func TestBlankTextIsRejected(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)

	for _, blank := range []string{" ", "   ", "\t\n"} {
		_, err := f.tickets.Reject(f.ctx, f.as("verifier"), ticket.ID, blank)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "reason %q", blank)

		_, err = f.tickets.AddNote(f.ctx, f.as("admin"), ticket.ID, blank)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "note %q", blank)
	}

	assert.Equal(t, domain.TicketStatusNew, f.stored(t, ticket.ID).Status)
	assert.Len(t, f.history(t, ticket.ID), 1)
}

func TestDepartmentStaffCannotStartWork(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)
	_, err := f.tickets.Verify(f.ctx, f.as("verifier"), ticket.ID, nil)
	require.NoError(t, err)
	_, err = f.assignments.AssignToDepartment(f.ctx, f.as("admin"), ticket.ID, "dpu", nil)
	require.NoError(t, err)
	_, err = f.assignments.AssignToStaff(f.ctx, f.as("head"), ticket.ID, "tech", nil)
	require.NoError(t, err)
	before := f.stored(t, ticket.ID)
	entries := len(f.history(t, ticket.ID))

	_, err = f.tickets.UpdateStatus(f.ctx, f.as("tech"), ticket.ID, domain.TicketStatusInProgress, nil)

	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeIllegalTransition, domainErr.Code)
	assert.Equal(t, "verified", domainErr.Details["current"])
	assert.Equal(t, []string{}, domainErr.Details["allowed"])
	assert.Equal(t, before, f.stored(t, ticket.ID))
	assert.Len(t, f.history(t, ticket.ID), entries)
}

func TestProgressToHundredCompletes(t *testing.T) {
	f := newFixture(t)
	ticket := f.inProgressTicket(t)
	entries := len(f.history(t, ticket.ID))

	_, err := f.tickets.UpdateProgress(f.ctx, f.as("tech"), ticket.ID, 40, nil)
	require.NoError(t, err)
	done, err := f.tickets.UpdateProgress(f.ctx, f.as("tech"), ticket.ID, 100, strp("selesai ditambal"))
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	require.NotNil(t, done.CompletedAt)

	history := f.history(t, ticket.ID)
	require.Len(t, history, entries+2)
	last := history[len(history)-1]
	assert.Equal(t, domain.AuditProgressUpdated, last.Action)
	assert.Equal(t, map[string]any{"progress": 40, "status": "in_progress"}, last.OldValue)
	assert.Equal(t, map[string]any{"progress": 100, "status": "completed"}, last.NewValue)
	for _, entry := range history[entries:] {
		assert.NotEqual(t, domain.AuditStatusUpdated, entry.Action)
	}
}

func TestProgressToHundredFollowsTransitionRules(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)
	_, err := f.tickets.Verify(f.ctx, f.as("verifier"), ticket.ID, nil)
	require.NoError(t, err)
	_, err = f.assignments.AssignToStaff(f.ctx, f.as("admin"), ticket.ID, "tech", nil)
	require.NoError(t, err)

	_, err = f.tickets.UpdateProgress(f.ctx, f.as("tech"), ticket.ID, 100, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition), "got %v", err)

	_, err = f.tickets.UpdateProgress(f.ctx, f.as("tech"), ticket.ID, 30, nil)
	require.NoError(t, err)
	stored := f.stored(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusVerified, stored.Status)
	assert.Equal(t, 30, stored.Progress)
}

func TestProgressOnClosedTicketIsIllegal(t *testing.T) {
	f := newFixture(t)
	ticket := f.inProgressTicket(t)
	_, err := f.tickets.UpdateStatus(f.ctx, f.as("head"), ticket.ID, domain.TicketStatusCompleted, nil)
	require.NoError(t, err)

	_, err = f.tickets.UpdateProgress(f.ctx, f.as("admin"), ticket.ID, 50, nil)

	assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition))
	assert.Equal(t, 100, f.stored(t, ticket.ID).Progress)
}

func TestProgressValidation(t *testing.T) {
	f := newFixture(t)
	ticket := f.inProgressTicket(t)

	for _, percent := range []int{-1, 101} {
		_, err := f.tickets.UpdateProgress(f.ctx, f.as("tech"), ticket.ID, percent, nil)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "percent %d", percent)
	}
}

func TestCompletingForcesFullProgress(t *testing.T) {
	f := newFixture(t)
	ticket := f.inProgressTicket(t)
	_, err := f.tickets.UpdateProgress(f.ctx, f.as("tech"), ticket.ID, 70, nil)
	require.NoError(t, err)

	done, err := f.tickets.UpdateStatus(f.ctx, f.as("head"), ticket.ID, domain.TicketStatusCompleted, nil)
	require.NoError(t, err)

	assert.Equal(t, 100, done.Progress)
	history := f.history(t, ticket.ID)
	last := history[len(history)-1]
	assert.Equal(t, domain.AuditStatusUpdated, last.Action)
	assert.Equal(t, map[string]any{"status": "in_progress", "progress": 70}, last.OldValue)
	assert.Equal(t, map[string]any{"status": "completed", "progress": 100}, last.NewValue)
}

func TestMilestonesAreWrittenOnce(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)
	verified, err := f.tickets.UpdateStatus(f.ctx, f.as("admin"), ticket.ID, domain.TicketStatusVerified, nil)
	require.NoError(t, err)
	firstVerified := *verified.VerifiedAt

	started, err := f.tickets.UpdateStatus(f.ctx, f.as("admin"), ticket.ID, domain.TicketStatusInProgress, nil)
	require.NoError(t, err)
	firstStarted := *started.InProgressAt

	_, err = f.tickets.UpdateStatus(f.ctx, f.as("admin"), ticket.ID, domain.TicketStatusVerified, nil)
	require.NoError(t, err)
	again, err := f.tickets.UpdateStatus(f.ctx, f.as("admin"), ticket.ID, domain.TicketStatusInProgress, nil)
	require.NoError(t, err)

	assert.Equal(t, firstVerified, *again.VerifiedAt)
	assert.Equal(t, firstStarted, *again.InProgressAt)
	assert.Nil(t, again.CompletedAt)
}

func TestUpdateStatusRefusals(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)

	cases := []struct {
		name   string
		actor  string
		target domain.TicketStatus
		code   string
	}{
		{"verifier cannot skip triage", "verifier", domain.TicketStatusInProgress, apperrors.CodeIllegalTransition},
		{"citizen has no capability", "citizen", domain.TicketStatusVerified, apperrors.CodeForbidden},
		{"unknown status", "admin", domain.TicketStatus("archived"), apperrors.CodeValidation},
		{"same status", "admin", domain.TicketStatusNew, apperrors.CodeIllegalTransition},
		{"out of scope", "tech", domain.TicketStatusCompleted, apperrors.CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tickets.UpdateStatus(f.ctx, f.as(tc.actor), ticket.ID, tc.target, nil)
			assert.True(t, apperrors.HasCode(err, tc.code), "got %v", err)
		})
	}

	assert.Equal(t, domain.TicketStatusNew, f.stored(t, ticket.ID).Status)
	assert.Len(t, f.history(t, ticket.ID), 1)
}

func TestVerifierTriagesThroughUpdateStatus(t *testing.T) {
	f := newFixture(t)

	for _, target := range rbac.AllowedTransitions(rbac.CategoryVerifier, domain.TicketStatusNew) {
		ticket := f.createTicket(t)

		updated, err := f.tickets.UpdateStatus(f.ctx, f.as("verifier"), ticket.ID, target, strp("sudah dicek"))
		require.NoError(t, err, target)
		assert.Equal(t, target, updated.Status)
		require.NotNil(t, updated.VerifierID)
		assert.Equal(t, "verifier", *updated.VerifierID)

		history := f.history(t, ticket.ID)
		require.Len(t, history, 2)
		assert.Equal(t, domain.AuditStatusUpdated, history[1].Action)
		assert.Equal(t, map[string]any{"status": string(target)}, history[1].NewValue)
	}

	verified := f.createTicket(t)
	_, err := f.tickets.Verify(f.ctx, f.as("verifier"), verified.ID, nil)
	require.NoError(t, err)
	_, err = f.tickets.UpdateStatus(f.ctx, f.as("verifier"), verified.ID, domain.TicketStatusRejected, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), "verified tickets leave the verifier's scope: %v", err)
}

func TestUpdateStatusMissingTicket(t *testing.T) {
	f := newFixture(t)

	_, err := f.tickets.UpdateStatus(f.ctx, f.as("admin"), "nope", domain.TicketStatusVerified, nil)

	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)
	_, err := f.tickets.Reject(f.ctx, f.as("admin"), ticket.ID, "bukan wewenang kota")
	require.NoError(t, err)

	for _, target := range []domain.TicketStatus{domain.TicketStatusNew, domain.TicketStatusVerified, domain.TicketStatusInProgress, domain.TicketStatusCompleted} {
		_, err := f.tickets.UpdateStatus(f.ctx, f.as("admin"), ticket.ID, target, nil)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition), "target %s", target)
	}
	assert.Len(t, f.history(t, ticket.ID), 2)
}

func TestSetPriority(t *testing.T) {
	f := newFixture(t)
	ticket := f.inProgressTicket(t)

	updated, err := f.tickets.SetPriority(f.ctx, f.as("head"), ticket.ID, domain.TicketPriorityUrgent, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityUrgent, updated.Priority)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	history := f.history(t, ticket.ID)
	last := history[len(history)-1]
	assert.Equal(t, domain.AuditPriorityUpdated, last.Action)
	assert.Equal(t, map[string]any{"priority": "medium"}, last.OldValue)
	assert.Equal(t, map[string]any{"priority": "urgent"}, last.NewValue)

	_, err = f.tickets.SetPriority(f.ctx, f.as("tech"), ticket.ID, domain.TicketPriorityLow, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = f.tickets.SetPriority(f.ctx, f.as("head"), ticket.ID, "critical", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestAddNoteLeavesTicketUntouched(t *testing.T) {
	f := newFixture(t)
	ticket := f.inProgressTicket(t)
	before := f.stored(t, ticket.ID)

	entry, err := f.tickets.AddNote(f.ctx, f.as("tech"), ticket.ID, "material aspal dipesan")
	require.NoError(t, err)

	assert.Equal(t, domain.AuditNoteAdded, entry.Action)
	require.NotNil(t, entry.Notes)
	assert.Equal(t, "material aspal dipesan", *entry.Notes)
	assert.Nil(t, entry.OldValue)
	assert.Nil(t, entry.NewValue)
	assert.Equal(t, before, f.stored(t, ticket.ID))

	_, err = f.tickets.AddNote(f.ctx, f.as("tech"), ticket.ID, strings.Repeat("a", MaxTextLength+1))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = f.tickets.AddNote(f.ctx, f.as("tech"), ticket.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestEveryMutationWritesOneAuditEntry(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)
	steps := []struct {
		action domain.AuditAction
		run    func() error
	}{
		{domain.AuditVerified, func() error {
			_, err := f.tickets.Verify(f.ctx, f.as("verifier"), ticket.ID, nil)
			return err
		}},
		{domain.AuditAssignedDinas, func() error {
			_, err := f.assignments.AssignToDepartment(f.ctx, f.as("admin"), ticket.ID, "dpu", nil)
			return err
		}},
		{domain.AuditAssignedStaff, func() error {
			_, err := f.assignments.AssignToStaff(f.ctx, f.as("head"), ticket.ID, "tech", nil)
			return err
		}},
		{domain.AuditPriorityUpdated, func() error {
			_, err := f.tickets.SetPriority(f.ctx, f.as("head"), ticket.ID, domain.TicketPriorityHigh, nil)
			return err
		}},
		{domain.AuditStatusUpdated, func() error {
			_, err := f.tickets.UpdateStatus(f.ctx, f.as("head"), ticket.ID, domain.TicketStatusInProgress, nil)
			return err
		}},
		{domain.AuditNoteAdded, func() error {
			_, err := f.tickets.AddNote(f.ctx, f.as("tech"), ticket.ID, "survey lokasi")
			return err
		}},
		{domain.AuditProgressUpdated, func() error {
			_, err := f.tickets.UpdateProgress(f.ctx, f.as("tech"), ticket.ID, 100, nil)
			return err
		}},
	}

	for i, step := range steps {
		require.NoError(t, step.run(), "step %d", i)
		history := f.history(t, ticket.ID)
		require.Len(t, history, i+2)
		last := history[len(history)-1]
		assert.Equal(t, step.action, last.Action)
		require.NotNil(t, last.ActorID)
	}
}

func TestDeleteTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)

	err := f.tickets.DeleteTicket(f.ctx, f.as("citizen2"), ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	require.NoError(t, f.tickets.DeleteTicket(f.ctx, f.as("citizen"), ticket.ID))
	_, err = f.tickets.GetTicket(f.ctx, f.as("admin"), ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Empty(t, f.history(t, ticket.ID))
	assert.Contains(t, f.events.types(), events.EventTicketDeleted)

	verified := f.createTicket(t)
	_, err = f.tickets.Verify(f.ctx, f.as("verifier"), verified.ID, nil)
	require.NoError(t, err)
	err = f.tickets.DeleteTicket(f.ctx, f.as("citizen"), verified.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestFailedMutationPublishesNothing(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)
	published := len(f.events.types())

	_, err := f.tickets.UpdateStatus(f.ctx, f.as("head"), ticket.ID, domain.TicketStatusInProgress, nil)
	require.Error(t, err)

	assert.Len(t, f.events.types(), published)
}

func TestUnknownRoleCannotMutate(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)
	ghost := rbac.NewAuthorizationContext(domain.Actor{ID: "ghost", RoleName: "janitor", Active: true}, rbac.DefaultCatalog())

	_, err := f.tickets.Verify(f.ctx, ghost, ticket.ID, nil)

	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
