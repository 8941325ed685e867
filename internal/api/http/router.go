package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Account *handlers.AccountHandler
	Gate    *auth.Middleware
}

// RegisterRoutes wires HTTP routes. The gate runs on every request; the
// unauthenticated surface is bypassed inside the gate itself, and the
// protected group enforces authorization afterwards.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api := app.Group("/api/v1")
	api.Get("/me", auth.RequireAuthenticated(), cfg.Account.Me)
	api.Get("/admin", auth.RequirePermission(auth.PermAdminRead), cfg.Account.AdminOverview)
	api.Get("/management",
		auth.RequireRole(domain.RoleManager, domain.RoleAdmin),
		auth.RequirePermission(auth.PermManagementRead),
		cfg.Account.ManagementOverview)
}
