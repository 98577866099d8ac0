package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/notification"
	"github.com/spec-kit/support-desk/internal/repository/memory"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockMailer) Verify(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func sentTo(addr string) interface{} {
	return mock.MatchedBy(func(msg notification.Message) bool {
		return len(msg.To) == 1 && msg.To[0] == addr
	})
}

type notifyHarness struct {
	store   *memory.Store
	tickets *TicketService
	mailer  *mockMailer
}

func newNotifyHarness(t *testing.T, cfg config.NotificationConfig) *notifyHarness {
	t.Helper()
	logger := zap.NewNop()
	dispatcher := events.NewSyncDispatcher(logger)
	mailer := &mockMailer{}
	NewNotificationService(dispatcher, mailer, logger, cfg, "Support Desk").RegisterHandlers()

	store := memory.New()
	tickets := NewTicketService(TicketDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Policy:     defaultPolicy(),
		Logger:     logger,
	})
	return &notifyHarness{store: store, tickets: tickets, mailer: mailer}
}

func (h *notifyHarness) user(t *testing.T, name string, role domain.Role) domain.Actor {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, h.store.Users().Create(context.Background(), u))
	return domain.Actor{UserID: u.ID, Role: role}
}

func TestNotifyOnCreate(t *testing.T) {
	h := newNotifyHarness(t, config.NotificationConfig{SupportEmail: "desk@example.com"})
	client := h.user(t, "ana", domain.RoleClient)

	h.mailer.On("Send", mock.Anything, sentTo("ana@example.com")).Return(nil).Once()
	h.mailer.On("Send", mock.Anything, sentTo("desk@example.com")).Return(nil).Once()

	_, err := h.tickets.CreateTicket(context.Background(), client, TicketCreateInput{Title: "VPN", Description: "drops hourly"})
	require.NoError(t, err)

	h.mailer.AssertExpectations(t)
	msg := h.mailer.Calls[0].Arguments.Get(1).(notification.Message)
	assert.Contains(t, msg.Subject, "VPN")
	assert.Contains(t, msg.HTML, "drops hourly")
}

func TestNotifyWithoutSupportMailbox(t *testing.T) {
	h := newNotifyHarness(t, config.NotificationConfig{})
	client := h.user(t, "ana", domain.RoleClient)

	h.mailer.On("Send", mock.Anything, sentTo("ana@example.com")).Return(nil).Once()

	_, err := h.tickets.CreateTicket(context.Background(), client, TicketCreateInput{Title: "VPN", Description: "d"})
	require.NoError(t, err)
	h.mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestNotifyOnUpdateAndClose(t *testing.T) {
	h := newNotifyHarness(t, config.NotificationConfig{})
	client := h.user(t, "ana", domain.RoleClient)
	agent := h.user(t, "sam", domain.RoleSupport)
	ctx := context.Background()

	h.mailer.On("Send", mock.Anything, sentTo("ana@example.com")).Return(nil)

	ticket, err := h.tickets.CreateTicket(ctx, client, TicketCreateInput{Title: "VPN", Description: "d"})
	require.NoError(t, err)
	_, err = h.tickets.UpdateTicket(ctx, agent, ticket.ID, TicketUpdateInput{Response: strPtr("Restart the client")})
	require.NoError(t, err)
	_, err = h.tickets.UpdateTicket(ctx, agent, ticket.ID, TicketUpdateInput{Status: statusPtr(domain.TicketStatusClosed)})
	require.NoError(t, err)

	require.Len(t, h.mailer.Calls, 3)
	updated := h.mailer.Calls[1].Arguments.Get(1).(notification.Message)
	assert.Contains(t, updated.HTML, "Restart the client")
	closed := h.mailer.Calls[2].Arguments.Get(1).(notification.Message)
	assert.NotEqual(t, updated.Subject, closed.Subject)
}

func TestMailFailureDoesNotFailTicketOperation(t *testing.T) {
	h := newNotifyHarness(t, config.NotificationConfig{})
	client := h.user(t, "ana", domain.RoleClient)

	h.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	ticket, err := h.tickets.CreateTicket(context.Background(), client, TicketCreateInput{Title: "VPN", Description: "d"})
	require.NoError(t, err)

	stored, err := h.store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "VPN", stored.Title)
}

func TestCheckMail(t *testing.T) {
	logger := zap.NewNop()

	ok := &mockMailer{}
	ok.On("Verify", mock.Anything).Return(nil)
	assert.Equal(t, MailCheck{Configured: true, OK: true},
		NewNotificationService(nil, ok, logger, config.NotificationConfig{}, "x").CheckMail(context.Background()))

	failing := &mockMailer{}
	failing.On("Verify", mock.Anything).Return(errors.New("535 auth failed"))
	check := NewNotificationService(nil, failing, logger, config.NotificationConfig{}, "x").CheckMail(context.Background())
	assert.True(t, check.Configured)
	assert.False(t, check.OK)
	assert.Contains(t, check.Error, "535")

	check = NewNotificationService(nil, notification.NewLogMailer(logger), logger, config.NotificationConfig{}, "x").CheckMail(context.Background())
	assert.False(t, check.Configured)
	assert.False(t, check.OK)
}
