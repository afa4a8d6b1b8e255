package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking-service/internal/domain"
	"github.com/spec-kit/tour-booking-service/internal/repository"
	apperrors "github.com/spec-kit/tour-booking-service/pkg/util"
)

const userKey = "auth_user"

// SessionCookieName is the cookie carrying the session token for browser
// clients.
const SessionCookieName = "session"

// LoggedOutSentinel is the cookie value written on logout. It always reads as
// "no token".
const LoggedOutSentinel = "loggedout"

// loginRedirectHeader hints browser clients where to re-authenticate when the
// mandatory stage rejects them.
const loginRedirectHeader = "X-Login-Redirect"

// AuthMiddleware validates session tokens and loads the subject.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger}
}

// Protect enforces authentication for protected routes. On success the
// subject is attached to the request; on any failure the request is rejected
// before downstream handlers run.
func (m *AuthMiddleware) Protect(c *fiber.Ctx) error {
	user, reason, err := m.resolve(c)
	if err != nil {
		return err
	}
	if user == nil {
		c.Set(loginRedirectHeader, "/login")
		return apperrors.NewUnauthenticated(reason)
	}
	c.Locals(userKey, user)
	return c.Next()
}

// OptionalAuth runs the same checks as Protect but proceeds as anonymous on
// any failure. It never rejects; handlers behind it must tolerate a missing
// user.
func (m *AuthMiddleware) OptionalAuth(c *fiber.Ctx) error {
	user, _, err := m.resolve(c)
	if err == nil && user != nil {
		c.Locals(userKey, user)
	}
	return c.Next()
}

// resolve extracts and verifies the token and loads the subject. A nil user
// with a non-empty reason means the caller is unauthenticated; a non-nil
// error means storage failed.
func (m *AuthMiddleware) resolve(c *fiber.Ctx) (*domain.User, string, error) {
	token := tokenFromRequest(c)
	if token == "" {
		return nil, "you are not logged in, please log in to get access", nil
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		// Expired and tampered tokens reject identically; only the log
		// tells them apart.
		m.logger.Debug("token rejected", zap.Error(err))
		return nil, "invalid or expired token", nil
	}

	user, err := m.users.GetByID(c.UserContext(), claims.SubjectID())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "the user belonging to this token no longer exists", nil
		}
		return nil, "", apperrors.MapError(err)
	}

	if ChangedAfter(user.PasswordChangedAt, claims.IssuedAtTime()) {
		return nil, "password changed recently, please log in again", nil
	}

	return user, "", nil
}

// tokenFromRequest pulls the bearer token from the Authorization header or,
// failing that, the session cookie. The logged-out sentinel reads as absent.
func tokenFromRequest(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie := c.Cookies(SessionCookieName); cookie != "" && cookie != LoggedOutSentinel {
		return cookie
	}
	return ""
}

// UserFromContext retrieves the authenticated subject attached by Protect or
// OptionalAuth.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(userKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
