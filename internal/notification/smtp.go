package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/spec-kit/support-desk/internal/config"
)

const defaultSMTPPort = 587

// SMTPMailer sends email through a gomail dialer. Every session is bounded
// by the configured timeout.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	timeout  time.Duration
}

// NewSMTPMailer builds a mailer from configuration. Port 465 switches the
// dialer to implicit TLS, other ports use STARTTLS when the server offers it.
func NewSMTPMailer(cfg config.NotificationConfig) *SMTPMailer {
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil || port <= 0 {
		port = defaultSMTPPort
	}
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPassword),
		from:     cfg.EmailFrom,
		fromName: cfg.FromName,
		timeout:  cfg.Timeout(),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("send mail: no recipients")
	}
	message := m.newMessage(msg)
	return m.bounded(ctx, "send", func() error {
		return m.dialer.DialAndSend(message)
	})
}

func (m *SMTPMailer) Verify(ctx context.Context) error {
	return m.bounded(ctx, "verify", func() error {
		sc, err := m.dialer.Dial()
		if err != nil {
			return err
		}
		return sc.Close()
	})
}

func (m *SMTPMailer) newMessage(msg Message) *gomail.Message {
	message := gomail.NewMessage()
	message.SetAddressHeader("From", m.from, m.fromName)
	message.SetHeader("To", msg.To...)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/html", msg.HTML)
	return message
}

// bounded runs op until it returns or the earlier of ctx and the mailer
// timeout expires. gomail has no context support, so an abandoned session
// finishes in the background.
func (m *SMTPMailer) bounded(ctx context.Context, action string, op func() error) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp %s: %w", action, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp %s: %w", action, ctx.Err())
	}
}
