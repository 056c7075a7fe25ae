package model

import "strings"

// Role is the coarse access-control label of a user.
type Role string

const (
	RoleNone     Role = "none"
	RoleClient   Role = "client"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// ParseRole maps unknown or empty names to RoleNone.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleClient:
		return RoleClient
	case RoleEmployee:
		return RoleEmployee
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleNone
	}
}

// IsStaff reports whether the role works at the clinic.
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// Assignable reports whether a user account can hold the role.
func (r Role) Assignable() bool {
	return r == RoleClient || r == RoleEmployee || r == RoleAdmin
}
