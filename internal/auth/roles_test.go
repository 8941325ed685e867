package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/domain"
)

func TestPermissionsFor(t *testing.T) {
	require.Empty(t, PermissionsFor(domain.RoleUser))
	require.ElementsMatch(t, []string{
		PermManagementRead, PermManagementCreate, PermManagementUpdate, PermManagementDelete,
	}, PermissionsFor(domain.RoleManager))

	admin := PermissionsFor(domain.RoleAdmin)
	for _, p := range PermissionsFor(domain.RoleManager) {
		require.Contains(t, admin, p)
	}
	require.Contains(t, admin, PermAdminDelete)
}

func TestHasPermission(t *testing.T) {
	require.True(t, HasPermission(domain.RoleAdmin, PermAdminRead))
	require.True(t, HasPermission(domain.RoleManager, PermManagementUpdate))
	require.False(t, HasPermission(domain.RoleManager, PermAdminRead))
	require.False(t, HasPermission(domain.RoleUser, PermManagementRead))
	require.False(t, HasPermission(domain.Role("UNKNOWN"), PermAdminRead))
}
