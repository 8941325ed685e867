package domain

import "time"

// Role labels the coarse authorization level of an account. The permission
// set attached to each role is resolved in the auth package.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User is the domain model for registered accounts. The email doubles as the
// canonical subject identifier embedded in issued tokens.
type User struct {
	ID           string
	Firstname    string
	Lastname     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
