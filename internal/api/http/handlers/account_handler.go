package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/auth"
)

// AccountHandler serves the protected surface downstream of the gate.
type AccountHandler struct{}

// NewAccountHandler constructs handler.
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// Me handles GET /api/v1/me and returns the authenticated principal.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"id":          principal.User.ID,
			"firstname":   principal.User.Firstname,
			"lastname":    principal.User.Lastname,
			"email":       principal.User.Email,
			"role":        principal.User.Role,
			"permissions": auth.PermissionsFor(principal.User.Role),
		},
	})
}

// AdminOverview handles GET /api/v1/admin, admin permission required.
func (h *AccountHandler) AdminOverview(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{"section": "admin"}})
}

// ManagementOverview handles GET /api/v1/management, management permission required.
func (h *AccountHandler) ManagementOverview(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{"section": "management"}})
}
