package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-booking-service/internal/api/dto"
	"github.com/spec-kit/tour-booking-service/internal/auth"
	"github.com/spec-kit/tour-booking-service/internal/service"
	apperrors "github.com/spec-kit/tour-booking-service/pkg/util"
)

// UsersHandler exposes profile endpoints for authenticated users plus the
// admin-only listing.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Me handles GET /api/v1/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("you are not logged in")
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"user": dto.NewUserView(user)},
	})
}

// UpdateMe handles PATCH /api/v1/users/me. Password changes are rejected
// here; they go through the update-password route.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	current, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("you are not logged in")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.Password != "" || req.PasswordConfirm != "" {
		return apperrors.NewBadRequest("this route is not for password updates, use /auth/update-password", nil)
	}

	user, err := h.users.UpdateProfile(c.UserContext(), current.ID, req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"user": dto.NewUserView(user)},
	})
}

// DeleteMe handles DELETE /api/v1/users/me as a soft-delete.
func (h *UsersHandler) DeleteMe(c *fiber.Ctx) error {
	current, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("you are not logged in")
	}
	if err := h.users.Deactivate(c.UserContext(), current.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// List handles GET /api/v1/users, admin only.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"results": len(users),
		"data":    fiber.Map{"users": dto.NewUserViews(users)},
	})
}
