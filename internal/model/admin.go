package model

import "time"

// Admin roles, most to least privileged.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleEditor     = "editor"
)

// Admin represents a staff account as stored in the `admins` table.
// Admins carry the same refresh-token triplet as users so both principal
// types share one token lifecycle.
type Admin struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`

	PasswordHash string `json:"-"`

	RefreshTokenHash      *string    `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	RefreshTokenRevokedAt *time.Time `json:"-"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// ValidAdminRole reports whether role is one of the known admin roles.
func ValidAdminRole(role string) bool {
	switch role {
	case RoleSuperadmin, RoleAdmin, RoleEditor:
		return true
	}
	return false
}
