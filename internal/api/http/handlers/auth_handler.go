package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-booking-service/internal/api/dto"
	"github.com/spec-kit/tour-booking-service/internal/auth"
	"github.com/spec-kit/tour-booking-service/internal/config"
	"github.com/spec-kit/tour-booking-service/internal/service"
	apperrors "github.com/spec-kit/tour-booking-service/pkg/util"
)

// AuthHandler exposes signup, login, logout and the password lifecycle
// endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	secure    bool
	cookieTTL time.Duration
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService, app config.AppConfig, authCfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		auth:      authService,
		secure:    app.IsProduction(),
		cookieTTL: time.Duration(authCfg.SessionCookieTTLHours) * time.Hour,
	}
}

// Signup handles POST /api/v1/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewBadRequest("name, email and password are required", nil)
	}

	user, token, exp, err := h.auth.Signup(c.UserContext(), req.Name, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusCreated, dto.NewUserView(user), token, exp)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewBadRequest("please provide email and password", nil)
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, dto.NewUserView(user), token, exp)
}

// Logout handles POST /api/v1/auth/logout. It overwrites the session cookie
// with the logged-out sentinel and a near-immediate expiry.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    auth.LoggedOutSentinel,
		Expires:  time.Now().Add(time.Second),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"status": "success"})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password. The response is
// a generic acknowledgement; delivery detail stays server-side.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewBadRequest("email is required", nil)
	}

	if err := h.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "reset token sent to email",
	})
}

// ResetPassword handles PATCH /api/v1/auth/reset-password/:token.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	user, token, exp, err := h.auth.ResetPassword(c.UserContext(), c.Params("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, dto.NewUserView(user), token, exp)
}

// UpdatePassword handles PATCH /api/v1/auth/update-password. Requires a
// preceding Protect stage.
func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	current, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("you are not logged in")
	}

	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	user, token, exp, err := h.auth.UpdatePassword(c.UserContext(), current.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, dto.NewUserView(user), token, exp)
}

// Session handles GET /api/v1/auth/session behind OptionalAuth: it reports
// the current identity, or a null user for anonymous callers, never an error.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	if user, ok := auth.UserFromContext(c); ok {
		return c.JSON(fiber.Map{
			"status": "success",
			"data":   fiber.Map{"user": dto.NewUserView(user)},
		})
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"user": nil},
	})
}

// sendSession writes the session cookie and the standard success envelope.
func (h *AuthHandler) sendSession(c *fiber.Ctx, status int, user dto.UserView, token string, tokenExp time.Time) error {
	expires := time.Now().Add(h.cookieTTL)
	if tokenExp.Before(expires) {
		expires = tokenExp
	}
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"token":  token,
		"data":   fiber.Map{"user": user},
	})
}
