package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/notification"
	"github.com/spec-kit/support-desk/internal/service"
)

// NotificationWorker owns the background pool that delivers ticket emails.
type NotificationWorker struct {
	dispatcher *events.AsyncDispatcher
	service    *service.NotificationService
	logger     *zap.Logger
}

// StartNotificationWorker starts the dispatcher workers and registers the
// notification handlers on them.
func StartNotificationWorker(cfg config.NotificationConfig, appName string, mailer notification.Mailer, logger *zap.Logger) *NotificationWorker {
	dispatcher := events.NewAsyncDispatcher(logger, cfg.Workers, cfg.QueueSize)
	notifications := service.NewNotificationService(dispatcher, mailer, logger, cfg, appName)
	notifications.RegisterHandlers()

	logger.Info("notification worker started",
		zap.Int("workers", cfg.Workers),
		zap.Int("queue_size", cfg.QueueSize))
	return &NotificationWorker{dispatcher: dispatcher, service: notifications, logger: logger}
}

// Dispatcher is where services publish ticket events.
func (w *NotificationWorker) Dispatcher() events.Dispatcher {
	return w.dispatcher
}

// Notifications exposes the service for the admin mail check.
func (w *NotificationWorker) Notifications() *service.NotificationService {
	return w.service
}

// Stop drains queued notifications until ctx expires.
func (w *NotificationWorker) Stop(ctx context.Context) {
	if err := w.dispatcher.Close(ctx); err != nil {
		w.logger.Warn("notification queue not fully drained", zap.Error(err))
		return
	}
	w.logger.Info("notification worker stopped")
}
