package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking-service/internal/auth"
	"github.com/spec-kit/tour-booking-service/internal/config"
	"github.com/spec-kit/tour-booking-service/internal/domain"
	"github.com/spec-kit/tour-booking-service/internal/events"
	"github.com/spec-kit/tour-booking-service/internal/notify"
	"github.com/spec-kit/tour-booking-service/internal/repository"
	apperrors "github.com/spec-kit/tour-booking-service/pkg/util"
)

// AuthService coordinates signup, login and the password lifecycle. Every
// flow either fully completes (token issued, credential rotated, reset state
// cleared) or fully fails with any transient state rolled back.
type AuthService struct {
	users      repository.UserRepository
	mailer     notify.Mailer
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	baseURL    string
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Mailer     notify.Mailer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		baseURL:    cfg.Notification.PublicBaseURL,
	}
}

// Signup creates a new account, delivers the welcome mail and issues a
// session token. A failed welcome delivery rolls the account back.
func (s *AuthService) Signup(ctx context.Context, name, email, password, passwordConfirm string) (*domain.User, string, time.Time, error) {
	if len(password) < auth.MinPasswordLength {
		return nil, "", time.Time{}, apperrors.NewBadRequest("password must be at least 8 characters", nil)
	}
	if !auth.PasswordsMatch(password, passwordConfirm) {
		return nil, "", time.Time{}, apperrors.NewBadRequest("passwords do not match", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewBadRequest("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user := &domain.User{
		ID:     uuid.NewString(),
		Name:   name,
		Email:  email,
		Photo:  "default.jpg",
		Role:   domain.RoleUser,
		Active: true,
	}
	if err := auth.SetInitialPassword(user, password, s.bcryptCost); err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	if err := s.mailer.SendWelcome(ctx, user, s.baseURL+"/me"); err != nil {
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("signup rollback failed", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		return nil, "", time.Time{}, apperrors.NewDeliveryFailure("could not deliver welcome email", err)
	}

	token, exp, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserSignedUp, user, nil)
	return user, token, exp, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthenticated("incorrect email or password")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrMalformedHash) {
			return nil, "", time.Time{}, apperrors.NewInternalError(err)
		}
		return nil, "", time.Time{}, apperrors.NewUnauthenticated("incorrect email or password")
	}

	token, exp, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserLoggedIn, user, nil)
	return user, token, exp, nil
}

// ForgotPassword mints a reset secret, stores its digest and expiry and
// delivers the plaintext via the mailer. A failed delivery rolls the stored
// reset state back so the record never retains an undeliverable secret.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user with that email address", nil)
		}
		return apperrors.MapError(err)
	}

	secret, digest, err := auth.NewResetSecret()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	expiresAt := auth.ResetExpiry(time.Now(), s.resetTTL)

	if err := s.users.SetResetToken(ctx, user.ID, digest, expiresAt); err != nil {
		return apperrors.MapError(err)
	}

	resetURL := s.baseURL + "/api/v1/auth/reset-password/" + secret
	if err := s.mailer.SendPasswordReset(ctx, user, resetURL); err != nil {
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("reset state rollback failed", zap.String("user_id", user.ID), zap.Error(clearErr))
		}
		return apperrors.NewDeliveryFailure("could not deliver password reset email", err)
	}

	s.publish(ctx, events.EventPasswordResetRequested, user, events.PasswordResetRequestedPayload{ExpiresAt: expiresAt})
	return nil
}

// ResetPassword consumes a reset secret: the digest must match an unexpired
// stored digest, and the credential update clears the reset state in the same
// write, making the secret single-use.
func (s *AuthService) ResetPassword(ctx context.Context, secret, password, passwordConfirm string) (*domain.User, string, time.Time, error) {
	if len(password) < auth.MinPasswordLength {
		return nil, "", time.Time{}, apperrors.NewBadRequest("password must be at least 8 characters", nil)
	}
	if !auth.PasswordsMatch(password, passwordConfirm) {
		return nil, "", time.Time{}, apperrors.NewBadRequest("passwords do not match", nil)
	}

	digest := auth.HashResetSecret(secret)
	user, err := s.users.GetByResetDigest(ctx, digest, time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewBadRequest("reset token is invalid or has expired", nil)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	if err := auth.RotatePassword(user, password, s.bcryptCost, time.Now()); err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	if err := s.users.UpdateCredentials(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventPasswordResetCompleted, user, nil)
	return user, token, exp, nil
}

// UpdatePassword rotates the password of an authenticated user after
// verifying the current one, then re-issues a session token.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, password, passwordConfirm string) (*domain.User, string, time.Time, error) {
	if len(password) < auth.MinPasswordLength {
		return nil, "", time.Time{}, apperrors.NewBadRequest("password must be at least 8 characters", nil)
	}
	if !auth.PasswordsMatch(password, passwordConfirm) {
		return nil, "", time.Time{}, apperrors.NewBadRequest("passwords do not match", nil)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		if errors.Is(err, auth.ErrMalformedHash) {
			return nil, "", time.Time{}, apperrors.NewInternalError(err)
		}
		return nil, "", time.Time{}, apperrors.NewUnauthorized("your current password is wrong")
	}

	if err := auth.RotatePassword(user, password, s.bcryptCost, time.Now()); err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	if err := s.users.UpdateCredentials(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventPasswordChanged, user, nil)
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, user *domain.User, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    user.ID,
		Email:     user.Email,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
