package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-booking-service/internal/domain"
	apperrors "github.com/spec-kit/tour-booking-service/pkg/util"
)

// RequireRole restricts a route to subjects whose role is in the allow-set.
// The set is built once at route registration. It must be ordered strictly
// after Protect; without a preceding authentication stage there is no subject
// to check and behavior is undefined.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewForbidden("no authenticated subject")
		}
		if _, exists := allowedSet[user.Role]; !exists {
			return apperrors.NewForbidden("you do not have permission to perform this action")
		}
		return c.Next()
	}
}
