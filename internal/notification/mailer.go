package notification

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrNotConfigured is reported by mailers that cannot reach a real server.
var ErrNotConfigured = errors.New("smtp not configured")

// Message is a single outbound email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	// Verify checks that the transport is reachable and accepts our credentials.
	Verify(ctx context.Context) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a mailer for deployments without SMTP.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email (not sent, smtp not configured)",
		zap.String("to", strings.Join(msg.To, ",")),
		zap.String("subject", msg.Subject))
	return nil
}

func (m *LogMailer) Verify(context.Context) error {
	return ErrNotConfigured
}
