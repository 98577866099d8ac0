package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.Now)), clock
}

func createUser(t *testing.T, store repository.Store, name, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, PasswordHash: "hash", Role: role}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func TestUsersRejectDuplicateEmail(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "Ana", "x@y.com", domain.RoleClient)

	err := store.Users().Create(ctx, &domain.User{Name: "Other", Email: "X@Y.com", Role: domain.RoleClient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUsersUnknownRole(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.Users().Create(context.Background(), &domain.User{Name: "A", Email: "a@b.c", Role: "guest"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteReferencedUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	client := createUser(t, store, "Ana", "ana@example.com", domain.RoleClient)
	require.NoError(t, store.Tickets().Create(ctx, &domain.Ticket{Title: "t", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID}))

	assert.ErrorIs(t, store.Users().Delete(ctx, client.ID), repository.ErrReferenced)
	assert.ErrorIs(t, store.Users().Delete(ctx, 999), repository.ErrNotFound)
}

func TestTicketListOrderingAndVisibility(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()
	client := createUser(t, store, "Ana", "ana@example.com", domain.RoleClient)
	agent := createUser(t, store, "Sam", "sam@example.com", domain.RoleSupport)
	other := createUser(t, store, "Kim", "kim@example.com", domain.RoleSupport)

	first := &domain.Ticket{Title: "first", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID}
	require.NoError(t, store.Tickets().Create(ctx, first))
	clock.Advance(time.Minute)
	second := &domain.Ticket{Title: "second", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID, SupportID: &other.ID}
	require.NoError(t, store.Tickets().Create(ctx, second))
	clock.Advance(time.Minute)
	third := &domain.Ticket{Title: "third", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID, SupportID: &agent.ID}
	require.NoError(t, store.Tickets().Create(ctx, third))

	all, err := store.Tickets().List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)
	assert.Equal(t, "first", all[2].Title)
	assert.Equal(t, "Ana", all[0].Client.Name)
	require.NotNil(t, all[0].Support)
	assert.Equal(t, "Sam", all[0].Support.Name)

	visible, err := store.Tickets().List(ctx, repository.TicketFilter{VisibleToSupport: &agent.ID})
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "third", visible[0].Title)
	assert.Equal(t, "first", visible[1].Title)
}

func TestWithinTxRollsBack(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	client := createUser(t, store, "Ana", "ana@example.com", domain.RoleClient)
	ticket := &domain.Ticket{Title: "t", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID}
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		locked, err := tx.Tickets().GetByIDForUpdate(ctx, ticket.ID)
		require.NoError(t, err)
		locked.Status = domain.TicketStatusClosed
		require.NoError(t, tx.Tickets().Update(ctx, locked))
		require.NoError(t, tx.History().Create(ctx, &domain.HistoryEntry{TicketID: ticket.ID, Field: domain.HistoryFieldStatus, AuthorID: client.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reloaded, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, reloaded.Status)

	entries, err := store.History().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryNewestFirst(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()
	client := createUser(t, store, "Ana", "ana@example.com", domain.RoleClient)
	ticket := &domain.Ticket{Title: "t", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID}
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	require.NoError(t, store.History().Create(ctx, &domain.HistoryEntry{TicketID: ticket.ID, Field: domain.HistoryFieldCreation, AuthorID: client.ID}))
	clock.Advance(time.Second)
	require.NoError(t, store.History().Create(ctx, &domain.HistoryEntry{TicketID: ticket.ID, Field: domain.HistoryFieldStatus, AuthorID: client.ID}))
	require.NoError(t, store.History().Create(ctx, &domain.HistoryEntry{TicketID: ticket.ID, Field: domain.HistoryFieldResponse, AuthorID: client.ID}))

	entries, err := store.History().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.HistoryFieldResponse, entries[0].Field)
	assert.Equal(t, domain.HistoryFieldStatus, entries[1].Field)
	assert.Equal(t, domain.HistoryFieldCreation, entries[2].Field)
	assert.Equal(t, "Ana", entries[0].Author.Name)
}

func TestHistoryRequiresTicket(t *testing.T) {
	store, _ := newTestStore(t)
	client := createUser(t, store, "Ana", "ana@example.com", domain.RoleClient)
	err := store.History().Create(context.Background(), &domain.HistoryEntry{TicketID: 42, Field: domain.HistoryFieldStatus, AuthorID: client.ID})
	assert.ErrorIs(t, err, repository.ErrReferenced)
}

func TestReportCounts(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()
	client := createUser(t, store, "Ana", "ana@example.com", domain.RoleClient)
	agent := createUser(t, store, "Sam", "sam@example.com", domain.RoleSupport)
	createUser(t, store, "Kim", "kim@example.com", domain.RoleSupport)

	open := &domain.Ticket{Title: "a", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID}
	require.NoError(t, store.Tickets().Create(ctx, open))
	closed := &domain.Ticket{Title: "b", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID, SupportID: &agent.ID}
	require.NoError(t, store.Tickets().Create(ctx, closed))
	clock.Advance(2 * time.Hour)
	closed.Status = domain.TicketStatusClosed
	require.NoError(t, store.Tickets().Update(ctx, closed))

	reports := store.Reports()
	n, err := reports.CountTickets(ctx, repository.TicketCountFilter{Unassigned: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = reports.CountTickets(ctx, repository.TicketCountFilter{SupportID: &agent.ID, Statuses: []domain.TicketStatus{domain.TicketStatusClosed}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	durations, err := reports.ClosedDurations(ctx, clock.now.Add(-24*time.Hour), 100)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Hour}, durations)

	workload, err := reports.SupportWorkload(ctx, clock.now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, workload, 2)
	assert.Equal(t, "Sam", workload[0].Name)
	assert.Equal(t, 1, workload[0].Tickets)
	assert.Equal(t, 0, workload[1].Tickets)

	top, err := reports.TopClients(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Tickets)

	byRole, err := reports.UsersByRole(ctx)
	require.NoError(t, err)
	require.Len(t, byRole, 3)
	assert.Equal(t, domain.RoleSupport, byRole[1].Role)
	assert.Equal(t, 2, byRole[1].Count)
}

func TestTicketCountByUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	client := createUser(t, store, "Ana", "ana@example.com", domain.RoleClient)
	agent := createUser(t, store, "Sam", "sam@example.com", domain.RoleSupport)

	require.NoError(t, store.Tickets().Create(ctx, &domain.Ticket{Title: "a", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID}))
	require.NoError(t, store.Tickets().Create(ctx, &domain.Ticket{Title: "b", Description: "d", Status: domain.TicketStatusOpen, ClientID: client.ID, SupportID: &agent.ID}))

	owned, err := store.Tickets().CountByUser(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.TicketOwnership{AsClient: 2}, owned)

	owned, err = store.Tickets().CountByUser(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.TicketOwnership{AsSupport: 1}, owned)

	_, err = store.Tickets().CountByUser(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
