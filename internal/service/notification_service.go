package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking-service/internal/config"
	"github.com/spec-kit/tour-booking-service/internal/events"
)

// NotificationService forwards auth domain events to the audit log and the
// configured webhook. It is strictly best-effort; failures here never reach
// the auth flows that published the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserSignedUp, n.handleAuthEvent)
	n.dispatcher.Subscribe(events.EventUserLoggedIn, n.handleAuthEvent)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handleAuthEvent)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handleAuthEvent)
	n.dispatcher.Subscribe(events.EventPasswordResetCompleted, n.handleAuthEvent)
	n.dispatcher.Subscribe(events.EventAccountDeactivated, n.handleAuthEvent)
}

func (n *NotificationService) handleAuthEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("auth event",
		zap.String("type", string(event.Type)),
		zap.String("user_id", event.UserID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("user_id", event.UserID),
		zap.String("event_type", string(event.Type)))
}
