package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/complaint-service/internal/repository"
)

// DefaultTicketPrefix is used when no prefix is configured.
const DefaultTicketPrefix = "ADU"

// TicketNumberGenerator allocates PREFIX-YYYYMMDD-NNN numbers from a per-day
// counter kept by the store.
type TicketNumberGenerator struct {
	prefix string
	now    func() time.Time
}

// NewTicketNumberGenerator builds a generator. An empty prefix falls back to DefaultTicketPrefix.
func NewTicketNumberGenerator(prefix string, now func() time.Time) *TicketNumberGenerator {
	if prefix == "" {
		prefix = DefaultTicketPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &TicketNumberGenerator{prefix: prefix, now: now}
}

// Next reserves the next number for the current calendar day in the clock's
// location. The counter advances in its own transaction so a failed creation
// leaves a gap instead of a duplicate.
func (g *TicketNumberGenerator) Next(ctx context.Context, store repository.Store) (string, error) {
	day := g.now()
	var seq int
	err := store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		seq, err = repos.Tickets.NextDailySequence(ctx, g.prefix, day)
		return err
	})
	if err != nil {
		return "", err
	}
	return FormatTicketNumber(g.prefix, day, seq), nil
}

// FormatTicketNumber renders a ticket number. Sequences above 999 widen the suffix.
func FormatTicketNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("20060102"), seq)
}
