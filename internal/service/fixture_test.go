package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/memory"
	"github.com/spec-kit/complaint-service/internal/visibility"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	ctx         context.Context
	store       *memory.Store
	tickets     *TicketService
	assignments *AssignmentService
	events      *recordingDispatcher
	clock       *steppingClock
	actors      map[string]rbac.AuthorizationContext
}

func strp(s string) *string { return &s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()

	for _, unit := range []domain.OrgUnit{
		{ID: "city", Kind: domain.OrgUnitCity, Name: "Kota"},
		{ID: "d1", ParentID: strp("city"), Kind: domain.OrgUnitDistrict, Name: "Kecamatan Utara"},
		{ID: "s11", ParentID: strp("d1"), Kind: domain.OrgUnitSubDistrict, Name: "Kelurahan Satu"},
		{ID: "d2", ParentID: strp("city"), Kind: domain.OrgUnitDistrict, Name: "Kecamatan Selatan"},
	} {
		u := unit
		require.NoError(t, repos.OrgUnits.Create(ctx, &u))
	}
	for _, dept := range []domain.Department{
		{ID: "dpu", OrgUnitID: "city", Name: "Dinas Pekerjaan Umum", IsActive: true},
		{ID: "dlh", OrgUnitID: "city", Name: "Dinas Lingkungan Hidup", IsActive: true},
		{ID: "closed", OrgUnitID: "city", Name: "Dinas Lama", IsActive: false},
	} {
		d := dept
		require.NoError(t, repos.Departments.Create(ctx, &d))
	}

	catalog := rbac.DefaultCatalog()
	actors := map[string]rbac.AuthorizationContext{}
	for _, actor := range []domain.Actor{
		{ID: "admin", Name: "Admin", Email: "admin@kota.go.id", RoleName: rbac.RoleSuperAdmin, Active: true},
		{ID: "verifier", Name: "Vera", Email: "vera@kota.go.id", RoleName: rbac.RoleVerifier, Active: true},
		{ID: "head", Name: "Hadi", Email: "hadi@kota.go.id", RoleName: rbac.RoleDepartmentHead, DepartmentID: strp("dpu"), Active: true},
		{ID: "tech", Name: "Tono", Email: "tono@kota.go.id", RoleName: rbac.RoleFieldTechnician, DepartmentID: strp("dpu"), Active: true},
		{ID: "tech-dlh", Name: "Lina", Email: "lina@kota.go.id", RoleName: rbac.RoleDepartmentStaff, DepartmentID: strp("dlh"), Active: true},
		{ID: "tech-off", Name: "Oki", Email: "oki@kota.go.id", RoleName: rbac.RoleDepartmentStaff, DepartmentID: strp("dpu"), Active: false},
		{ID: "district", Name: "Dedi", Email: "dedi@kota.go.id", RoleName: rbac.RoleDistrictHead, OrgUnitID: strp("d1"), Active: true},
		{ID: "citizen", Name: "Citra", Email: "citra@mail.id", RoleName: rbac.RoleCitizen, OrgUnitID: strp("s11"), Active: true},
		{ID: "citizen2", Name: "Budi", Email: "budi@mail.id", RoleName: rbac.RoleCitizen, OrgUnitID: strp("d2"), Active: true},
	} {
		a := actor
		require.NoError(t, repos.Actors.Create(ctx, &a))
		actors[a.ID] = rbac.NewAuthorizationContext(a, catalog)
	}

	clock := &steppingClock{now: time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)}
	dispatcher := &recordingDispatcher{}
	deps := Dependencies{
		Store:      store,
		Catalog:    catalog,
		Dispatcher: dispatcher,
		Numbers:    NewTicketNumberGenerator("ADU", clock.Now),
		Logger:     zap.NewNop(),
		Visibility: visibility.Options{},
		Clock:      clock.Now,
	}
	return &fixture{
		ctx:         ctx,
		store:       store,
		tickets:     NewTicketService(deps),
		assignments: NewAssignmentService(deps),
		events:      dispatcher,
		clock:       clock,
		actors:      actors,
	}
}

func (f *fixture) as(id string) rbac.AuthorizationContext {
	return f.actors[id]
}

func (f *fixture) createTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, f.as("citizen"), CreateTicketInput{
		CategoryID:  "road",
		Description: "Jalan berlubang di depan sekolah",
		Latitude:    -6.2,
		Longitude:   106.8,
		Address:     strp("Jl. Pemuda 10"),
	})
	require.NoError(t, err)
	return ticket
}

// inProgressTicket walks a fresh ticket to in_progress assigned to tech.
func (f *fixture) inProgressTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket := f.createTicket(t)
	_, err := f.tickets.Verify(f.ctx, f.as("verifier"), ticket.ID, nil)
	require.NoError(t, err)
	_, err = f.assignments.AssignToDepartment(f.ctx, f.as("admin"), ticket.ID, "dpu", nil)
	require.NoError(t, err)
	_, err = f.assignments.AssignToStaff(f.ctx, f.as("head"), ticket.ID, "tech", nil)
	require.NoError(t, err)
	ticket, err = f.tickets.UpdateStatus(f.ctx, f.as("head"), ticket.ID, domain.TicketStatusInProgress, nil)
	require.NoError(t, err)
	return ticket
}

func (f *fixture) history(t *testing.T, ticketID string) []domain.AuditEntry {
	t.Helper()
	entries, err := f.store.Repositories().Audit.ListByTicket(f.ctx, ticketID, repository.OrderAsc)
	require.NoError(t, err)
	return entries
}

func (f *fixture) stored(t *testing.T, ticketID string) *domain.Ticket {
	t.Helper()
	ticket, err := f.store.Repositories().Tickets.GetByID(f.ctx, ticketID)
	require.NoError(t, err)
	return ticket
}
