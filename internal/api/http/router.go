package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-booking-service/internal/api/http/handlers"
	"github.com/spec-kit/tour-booking-service/internal/auth"
	"github.com/spec-kit/tour-booking-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role-restricted routes always place
// Protect before RequireRole; the role stage assumes an authenticated
// subject.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Patch("/reset-password/:token", cfg.Auth.ResetPassword)
	authGroup.Patch("/update-password", cfg.AuthMiddleware.Protect, cfg.Auth.UpdatePassword)
	authGroup.Get("/session", cfg.AuthMiddleware.OptionalAuth, cfg.Auth.Session)

	users := api.Group("/users")
	users.Get("/me", cfg.AuthMiddleware.Protect, cfg.Users.Me)
	users.Patch("/me", cfg.AuthMiddleware.Protect, cfg.Users.UpdateMe)
	users.Delete("/me", cfg.AuthMiddleware.Protect, cfg.Users.DeleteMe)
	users.Get("/", cfg.AuthMiddleware.Protect, auth.RequireRole(domain.RoleAdmin), cfg.Users.List)
}
