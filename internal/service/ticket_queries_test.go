package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func TestGetTicketRespectsScope(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)

	for _, actor := range []string{"citizen", "admin", "verifier", "district"} {
		got, err := f.tickets.GetTicket(f.ctx, f.as(actor), ticket.ID)
		require.NoError(t, err, actor)
		assert.Equal(t, ticket.Number, got.Number)
	}
	for _, actor := range []string{"citizen2", "head", "tech"} {
		_, err := f.tickets.GetTicket(f.ctx, f.as(actor), ticket.ID)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), actor)
	}
}

func TestListTicketsScopedAndFiltered(t *testing.T) {
	f := newFixture(t)
	first := f.createTicket(t)
	second := f.createTicket(t)
	_, err := f.tickets.CreateTicket(f.ctx, f.as("citizen2"), CreateTicketInput{
		CategoryID:  "lamp",
		Description: "Lampu jalan mati",
	})
	require.NoError(t, err)
	_, err = f.tickets.Verify(f.ctx, f.as("verifier"), second.ID, nil)
	require.NoError(t, err)

	page, err := f.tickets.ListTickets(f.ctx, f.as("citizen"), ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID, "newest first by default")
	assert.Equal(t, first.ID, page.Items[1].ID)

	page, err = f.tickets.ListTickets(f.ctx, f.as("admin"), ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	page, err = f.tickets.ListTickets(f.ctx, f.as("verifier"), ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total, "verifier sees only new tickets")

	page, err = f.tickets.ListTickets(f.ctx, f.as("admin"), ListInput{Statuses: []domain.TicketStatus{domain.TicketStatusVerified}})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, second.ID, page.Items[0].ID)

	page, err = f.tickets.ListTickets(f.ctx, f.as("admin"), ListInput{Search: "LAMPU"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = f.tickets.ListTickets(f.ctx, f.as("admin"), ListInput{PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)

	page, err = f.tickets.ListTickets(f.ctx, f.as("district"), ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total, "district head sees its sub-districts")
}

func TestListTicketsValidation(t *testing.T) {
	f := newFixture(t)

	cases := []ListInput{
		{PageSize: MaxPageSize + 1},
		{Sort: "reporter"},
		{Statuses: []domain.TicketStatus{"archived"}},
		{Priorities: []domain.TicketPriority{"critical"}},
	}
	for _, input := range cases {
		_, err := f.tickets.ListTickets(f.ctx, f.as("admin"), input)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "%+v", input)
	}
}

func TestStatisticsReuseScope(t *testing.T) {
	f := newFixture(t)
	a := f.createTicket(t)
	f.createTicket(t)
	c := f.createTicket(t)
	_, err := f.tickets.Verify(f.ctx, f.as("verifier"), a.ID, nil)
	require.NoError(t, err)
	_, err = f.tickets.Reject(f.ctx, f.as("verifier"), c.ID, "di luar kota")
	require.NoError(t, err)

	stats, err := f.tickets.Statistics(f.ctx, f.as("citizen"))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusNew])
	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusVerified])
	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusRejected])
	assert.Equal(t, 0, stats.ByStatus[domain.TicketStatusCompleted])

	stats, err = f.tickets.Statistics(f.ctx, f.as("citizen2"))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Len(t, stats.ByStatus, len(domain.AllTicketStatuses))
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)
	_, err := f.tickets.Verify(f.ctx, f.as("verifier"), ticket.ID, nil)
	require.NoError(t, err)

	asc, err := f.tickets.History(f.ctx, f.as("citizen"), ticket.ID, repository.OrderAsc)
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, domain.AuditCreated, asc[0].Action)

	desc, err := f.tickets.History(f.ctx, f.as("admin"), ticket.ID, repository.OrderDesc)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, domain.AuditVerified, desc[0].Action)

	_, err = f.tickets.History(f.ctx, f.as("citizen2"), ticket.ID, repository.OrderAsc)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.tickets.History(f.ctx, f.as("admin"), ticket.ID, "sideways")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.tickets.History(f.ctx, f.as("admin"), "missing", repository.OrderAsc)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
