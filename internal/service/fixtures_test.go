package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/repository/memory"
)

// recordingDispatcher captures published events instead of delivering them.
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

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event(nil), d.events...)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store      *memory.Store
	clock      *testClock
	dispatcher *recordingDispatcher
	tickets    *TicketService
}

func newFixture(t *testing.T, policy config.TicketPolicy) *fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := memory.New(memory.WithClock(clock.Now))
	dispatcher := &recordingDispatcher{}
	tickets := NewTicketService(TicketDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Policy:     policy,
		Logger:     zap.NewNop(),
	})
	return &fixture{store: store, clock: clock, dispatcher: dispatcher, tickets: tickets}
}

func defaultPolicy() config.TicketPolicy {
	return config.TicketPolicy{AllowClientUpdate: false, AllowReopen: true}
}

func (f *fixture) user(t *testing.T, name string, role domain.Role) domain.Actor {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return domain.Actor{UserID: u.ID, Role: role}
}

func (f *fixture) ticket(t *testing.T, client domain.Actor, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), client, TicketCreateInput{Title: title, Description: "details"})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return ticket
}

func (f *fixture) history(t *testing.T, ticketID int64) []domain.HistoryEntry {
	t.Helper()
	entries, err := f.store.History().ListByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	return entries
}

func statusPtr(s domain.TicketStatus) *domain.TicketStatus { return &s }

func int64Ptr(v int64) *int64 { return &v }

var _ repository.Store = (*memory.Store)(nil)
