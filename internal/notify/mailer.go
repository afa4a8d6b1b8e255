// Package notify owns outbound account email. Delivery transport is a
// collaborator concern; the auth flows only see the Mailer interface and its
// error results.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking-service/internal/config"
	"github.com/spec-kit/tour-booking-service/internal/domain"
)

// Mailer delivers templated account mail. Implementations do their own
// retries and timeouts; callers treat any returned error as delivery failure.
type Mailer interface {
	SendWelcome(ctx context.Context, to *domain.User, loginURL string) error
	SendPasswordReset(ctx context.Context, to *domain.User, resetURL string) error
}

// LogMailer is the development implementation: it writes the mail to the log
// instead of an SMTP relay. Reset URLs are logged because that is the whole
// point of running without a relay; do not use in production.
type LogMailer struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewLogMailer builds the log-backed mailer.
func NewLogMailer(logger *zap.Logger, cfg config.NotificationConfig) *LogMailer {
	return &LogMailer{logger: logger, cfg: cfg}
}

func (m *LogMailer) SendWelcome(ctx context.Context, to *domain.User, loginURL string) error {
	m.logger.Info("welcome email",
		zap.String("from", m.cfg.EmailFrom),
		zap.String("to", to.Email),
		zap.String("login_url", loginURL))
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to *domain.User, resetURL string) error {
	m.logger.Info("password reset email",
		zap.String("from", m.cfg.EmailFrom),
		zap.String("to", to.Email),
		zap.String("reset_url", resetURL))
	return nil
}
