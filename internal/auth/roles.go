package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/domain"
)

// Permission strings granted to roles. Kept flat: a role is just a key into
// this table, no behavior attached.
const (
	PermAdminRead        = "admin:read"
	PermAdminCreate      = "admin:create"
	PermAdminUpdate      = "admin:update"
	PermAdminDelete      = "admin:delete"
	PermManagementRead   = "management:read"
	PermManagementCreate = "management:create"
	PermManagementUpdate = "management:update"
	PermManagementDelete = "management:delete"
)

var rolePermissions = map[domain.Role][]string{
	domain.RoleUser: {},
	domain.RoleManager: {
		PermManagementRead,
		PermManagementCreate,
		PermManagementUpdate,
		PermManagementDelete,
	},
	domain.RoleAdmin: {
		PermAdminRead,
		PermAdminCreate,
		PermAdminUpdate,
		PermAdminDelete,
		PermManagementRead,
		PermManagementCreate,
		PermManagementUpdate,
		PermManagementDelete,
	},
}

// PermissionsFor resolves the permission set for a role.
func PermissionsFor(role domain.Role) []string {
	return rolePermissions[role]
}

// HasPermission reports whether the role grants the permission.
func HasPermission(role domain.Role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// RequireAuthenticated ensures a principal was established by the gate.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequirePermission ensures the principal's role grants the permission.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !HasPermission(principal.User.Role, permission) {
			return fiber.NewError(http.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
