// Package memory is an in-process Store used when no database is configured
// and by unit tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

type state struct {
	tickets     map[string]domain.Ticket
	numbers     map[string]string
	audit       map[string][]domain.AuditEntry
	departments map[string]domain.Department
	actors      map[string]domain.Actor
	orgUnits    map[string]domain.OrgUnit
	sequences   map[string]int
}

func newState() *state {
	return &state{
		tickets:     map[string]domain.Ticket{},
		numbers:     map[string]string{},
		audit:       map[string][]domain.AuditEntry{},
		departments: map[string]domain.Department{},
		actors:      map[string]domain.Actor{},
		orgUnits:    map[string]domain.OrgUnit{},
		sequences:   map[string]int{},
	}
}

func (s *state) snapshot() *state {
	out := &state{
		tickets:     make(map[string]domain.Ticket, len(s.tickets)),
		numbers:     maps.Clone(s.numbers),
		audit:       make(map[string][]domain.AuditEntry, len(s.audit)),
		departments: maps.Clone(s.departments),
		actors:      maps.Clone(s.actors),
		orgUnits:    maps.Clone(s.orgUnits),
		sequences:   maps.Clone(s.sequences),
	}
	for id, t := range s.tickets {
		out.tickets[id] = t.Clone()
	}
	for id, entries := range s.audit {
		out.audit[id] = append([]domain.AuditEntry(nil), entries...)
	}
	return out
}

// Store keeps every table in maps guarded by one mutex. A transaction holds
// the mutex for its whole duration and restores a snapshot on failure.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Repositories returns repositories that lock per call.
func (s *Store) Repositories() repository.Repositories {
	return s.bind(false)
}

// WithinTx runs fn with exclusive access, rolling back all writes when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.state.snapshot()
	if err := fn(s.bind(true)); err != nil {
		s.state = saved
		return err
	}
	return nil
}

func (s *Store) bind(inTx bool) repository.Repositories {
	return repository.Repositories{
		Tickets:     &ticketRepository{store: s, inTx: inTx},
		Audit:       &auditRepository{store: s, inTx: inTx},
		Departments: &departmentRepository{store: s, inTx: inTx},
		Actors:      &actorRepository{store: s, inTx: inTx},
		OrgUnits:    &orgUnitRepository{store: s, inTx: inTx},
	}
}

// access runs fn against current state, taking the lock unless the caller
// already holds it through WithinTx.
func (s *Store) access(inTx bool, fn func(st *state) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.state)
}

var _ repository.Store = (*Store)(nil)
