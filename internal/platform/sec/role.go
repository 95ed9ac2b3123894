// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Superuser: unrestricted access, including other staff accounts
	RoleAdmin UserRole = "admin"

	// Staff: moderation, content administration and user management
	RoleStaff UserRole = "staff"

	// Default role for standard registered users
	RoleMember UserRole = "member"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// IsStaff reports whether the role carries elevated privilege.
func (r UserRole) IsStaff() bool {
	return r.AtLeast(RoleStaff)
}

// IsSuperuser reports whether the role is the top-level administrator.
func (r UserRole) IsSuperuser() bool {
	return r == RoleAdmin
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 40
	case RoleStaff:
		return 30
	case RoleMember:
		return 10
	default:
		return 0
	}
}
