package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/notification"
)

// NotificationService turns ticket events into emails. Delivery failures are
// returned to the dispatcher, which logs them; they never reach the caller
// that triggered the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notification.Mailer
	logger     *zap.Logger
	cfg        config.NotificationConfig
	appName    string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer notification.Mailer, logger *zap.Logger, cfg config.NotificationConfig, appName string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
		appName:    appName,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	ticket, err := ticketFrom(event)
	if err != nil {
		return err
	}
	n.logger.Info("TicketCreated", zap.Int64("ticket_id", ticket.ID))

	errClient := n.send(ctx, notification.KindCreated, ticket, ticket.Client.Email)
	var errSupport error
	if mailbox := strings.TrimSpace(n.cfg.SupportEmail); mailbox != "" {
		errSupport = n.send(ctx, notification.KindSupportNew, ticket, mailbox)
	}
	return errors.Join(errClient, errSupport)
}

func (n *NotificationService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	ticket, err := ticketFrom(event)
	if err != nil {
		return err
	}
	n.logger.Info("TicketUpdated", zap.Int64("ticket_id", ticket.ID))
	return n.send(ctx, notification.KindUpdated, ticket, ticket.Client.Email)
}

func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	ticket, err := ticketFrom(event)
	if err != nil {
		return err
	}
	n.logger.Info("TicketClosed", zap.Int64("ticket_id", ticket.ID))
	return n.send(ctx, notification.KindClosed, ticket, ticket.Client.Email)
}

func (n *NotificationService) send(ctx context.Context, kind notification.Kind, ticket *domain.Ticket, to string) error {
	if n.mailer == nil {
		return nil
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("ticket %d: no recipient for %s email", ticket.ID, kind)
	}

	subject, body, err := notification.Render(kind, n.view(ticket))
	if err != nil {
		return fmt.Errorf("render %s email: %w", kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout())
	defer cancel()
	if err := n.mailer.Send(ctx, notification.Message{To: []string{to}, Subject: subject, HTML: body}); err != nil {
		return fmt.Errorf("send %s email for ticket %d: %w", kind, ticket.ID, err)
	}
	return nil
}

func (n *NotificationService) view(ticket *domain.Ticket) notification.TicketView {
	view := notification.TicketView{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      string(ticket.Status),
		ClientName:  ticket.Client.Name,
		ClientEmail: ticket.Client.Email,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		AppName:     n.appName,
	}
	if ticket.Response != nil {
		view.Response = *ticket.Response
	}
	if ticket.Support != nil {
		view.SupportName = ticket.Support.Name
	}
	return view
}

// MailCheck reports outbound mail health.
type MailCheck struct {
	Configured bool
	OK         bool
	Error      string
}

// CheckMail probes the mail transport. It never fails; problems are reported
// in the result.
func (n *NotificationService) CheckMail(ctx context.Context) MailCheck {
	if n.mailer == nil {
		return MailCheck{Error: notification.ErrNotConfigured.Error()}
	}
	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout())
	defer cancel()

	err := n.mailer.Verify(ctx)
	switch {
	case err == nil:
		return MailCheck{Configured: true, OK: true}
	case errors.Is(err, notification.ErrNotConfigured):
		return MailCheck{Error: err.Error()}
	default:
		n.logger.Warn("mail check failed", zap.Error(err))
		return MailCheck{Configured: true, Error: err.Error()}
	}
}

func ticketFrom(event events.Event) (*domain.Ticket, error) {
	switch payload := event.Payload.(type) {
	case events.TicketPayload:
		return &payload.Ticket, nil
	case *events.TicketPayload:
		return &payload.Ticket, nil
	}
	return nil, fmt.Errorf("event %s: unexpected payload %T", event.ID, event.Payload)
}
