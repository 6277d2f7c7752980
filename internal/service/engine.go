package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/audit"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/orgtree"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/ticketfilter"
	"github.com/spec-kit/complaint-service/internal/visibility"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// MaxTextLength bounds notes, reasons and note bodies, in characters.
const MaxTextLength = 1000

const tracerName = "github.com/spec-kit/complaint-service/internal/service"

// Dependencies bundles what the lifecycle services need.
type Dependencies struct {
	Store      repository.Store
	OrgUnits   repository.OrgUnitRepository
	Catalog    *rbac.Catalog
	Recorder   *audit.Recorder
	Dispatcher events.Dispatcher
	Numbers    *TicketNumberGenerator
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Visibility visibility.Options
	Clock      func() time.Time
}

// engine holds the machinery shared by the ticket and assignment services.
type engine struct {
	store      repository.Store
	orgUnits   repository.OrgUnitRepository
	catalog    *rbac.Catalog
	recorder   *audit.Recorder
	dispatcher events.Dispatcher
	numbers    *TicketNumberGenerator
	metrics    *observability.Metrics
	logger     *zap.Logger
	visibility visibility.Options
	now        func() time.Time
	tracer     trace.Tracer
}

func newEngine(deps Dependencies) *engine {
	e := &engine{
		store:      deps.Store,
		orgUnits:   deps.OrgUnits,
		catalog:    deps.Catalog,
		recorder:   deps.Recorder,
		dispatcher: deps.Dispatcher,
		numbers:    deps.Numbers,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		visibility: deps.Visibility,
		now:        deps.Clock,
		tracer:     otel.Tracer(tracerName),
	}
	if e.orgUnits == nil && e.store != nil {
		e.orgUnits = e.store.Repositories().OrgUnits
	}
	if e.catalog == nil {
		e.catalog = rbac.DefaultCatalog()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.recorder == nil {
		e.recorder = audit.NewRecorder(e.now)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.numbers == nil {
		e.numbers = NewTicketNumberGenerator(DefaultTicketPrefix, e.now)
	}
	return e
}

// change is what a mutation reports back to the engine.
type change struct {
	action domain.AuditAction
	old    map[string]any
	new    map[string]any
	notes  *string
	// auditOnly skips the ticket write.
	auditOnly bool
	event     *events.Event
}

// mutation applies one action to a locked ticket. It runs inside the
// transaction after the visibility check.
type mutation func(ctx context.Context, repos repository.Repositories, ticket *domain.Ticket, now time.Time) (*change, error)

// mutate loads and locks the ticket, checks scope and capability, applies fn,
// persists the ticket under a status precondition and appends the audit
// entry, all in one transaction. The event is published after commit.
func (e *engine) mutate(ctx context.Context, authz rbac.AuthorizationContext, op string, perm rbac.Permission, ticketID string, fn mutation) (result *domain.Ticket, entry *domain.AuditEntry, err error) {
	ctx, span := e.tracer.Start(ctx, "lifecycle."+op, trace.WithAttributes(
		attribute.String("ticket.id", ticketID),
		attribute.String("actor.id", authz.ActorID()),
		attribute.String("actor.role", authz.Role.Name),
	))
	start := e.now()
	defer func() { e.finish(span, op, ticketID, authz, start, err) }()

	scope, err := e.scope(ctx, authz)
	if err != nil {
		return nil, nil, err
	}

	var published *events.Event
	err = e.store.WithinTx(ctx, func(repos repository.Repositories) error {
		ticket, err := loadTicket(ctx, repos, ticketID, true)
		if err != nil {
			return err
		}
		if !scope.Matches(ticket) {
			return apperrors.NewForbidden("ticket outside your scope")
		}
		if err := authz.Require(perm); err != nil {
			return err
		}

		now := e.now().UTC()
		expected := ticket.Status
		ch, err := fn(ctx, repos, ticket, now)
		if err != nil {
			return err
		}
		if !ch.auditOnly {
			ticket.UpdatedAt = now
			if err := repos.Tickets.UpdateIfStatus(ctx, ticket, expected); err != nil {
				return err
			}
		}
		actorID := authz.ActorID()
		entry, err = e.recorder.Log(ctx, repos, audit.Entry{
			TicketID: ticket.ID,
			ActorID:  &actorID,
			Action:   ch.action,
			Old:      ch.old,
			New:      ch.new,
			Notes:    ch.notes,
		})
		if err != nil {
			return err
		}
		if ch.event != nil {
			ch.event.TicketID = ticket.ID
			ch.event.TicketNumber = ticket.Number
			ch.event.ActorID = &actorID
			published = ch.event
		}
		result = ticket
		return nil
	})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if published != nil {
		e.publish(ctx, *published)
	}
	return result, entry, nil
}

func (e *engine) finish(span trace.Span, op, ticketID string, authz rbac.AuthorizationContext, start time.Time, err error) {
	defer span.End()
	outcome := "ok"
	if err != nil {
		outcome = apperrors.ToDomainError(err).Code
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	e.metrics.RecordAction(op, outcome, e.now().Sub(start))

	fields := []zap.Field{
		zap.String("action", op),
		zap.String("ticket_id", ticketID),
		zap.String("actor_id", authz.ActorID()),
		zap.String("outcome", outcome),
	}
	switch {
	case err == nil:
		e.logger.Info("lifecycle action applied", fields...)
	case apperrors.ToDomainError(err).HTTPStatus >= 500:
		e.logger.Error("lifecycle action failed", append(fields, zap.Error(err))...)
	default:
		e.logger.Debug("lifecycle action refused", fields...)
	}
}

// scope returns the caller's visibility predicate, loading the org tree only
// for rules that need it.
func (e *engine) scope(ctx context.Context, authz rbac.AuthorizationContext) (ticketfilter.Spec, error) {
	var tree *orgtree.Tree
	if visibility.RuleFor(authz) == visibility.RuleDistrictSubtree {
		units, err := e.orgUnits.ListAll(ctx)
		if err != nil {
			return nil, apperrors.NewPersistenceFailure(err)
		}
		tree, err = orgtree.Build(units)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	return visibility.Scope(authz, tree, e.visibility), nil
}

func (e *engine) publish(ctx context.Context, event events.Event) {
	if e.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now().UTC()
	}
	if err := e.dispatcher.Publish(ctx, event); err != nil {
		e.logger.Warn("event not published", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func loadTicket(ctx context.Context, repos repository.Repositories, id string, lock bool) (*domain.Ticket, error) {
	var (
		ticket *domain.Ticket
		err    error
	)
	if lock {
		ticket, err = repos.Tickets.GetForUpdate(ctx, id)
	} else {
		ticket, err = repos.Tickets.GetByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// validateText enforces presence and the length bound. Whitespace-only text
// counts as absent; the stored value is not trimmed.
func validateText(field string, value *string, required bool) error {
	if value == nil || strings.TrimSpace(*value) == "" {
		if required {
			return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
		}
		return nil
	}
	if n := utf8.RuneCountInString(*value); n > MaxTextLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("%s exceeds %d characters", field, MaxTextLength),
			map[string]any{"field": field, "length": n})
	}
	return nil
}

func strptr(s string) *string { return &s }

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func statusStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func illegal(category rbac.Category, current, target domain.TicketStatus) error {
	return apperrors.NewIllegalTransition(string(current), string(target),
		statusStrings(rbac.AllowedTransitions(category, current)))
}
