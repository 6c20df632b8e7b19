package domain

import "strings"

// Role is the set of roles a delegation can grant within a tenant.
type Role string

const (
	// RoleSystemAdmin is the operator role that manages tenants. It is never
	// granted through invitations; it exists only for the bootstrap account.
	RoleSystemAdmin Role = "system_admin"
	// RoleAdmin is a tenant administrator (manages rooms and employees).
	RoleAdmin Role = "admin"
	// RoleEmployee is a regular tenant member.
	RoleEmployee Role = "employee"
)

// ParseRole normalizes a role string. Returns the zero Role if unknown.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleSystemAdmin:
		return RoleSystemAdmin
	case RoleAdmin:
		return RoleAdmin
	case RoleEmployee:
		return RoleEmployee
	default:
		return ""
	}
}

// IsDelegable reports whether the role may be granted through an invitation.
func (r Role) IsDelegable() bool {
	return r == RoleAdmin || r == RoleEmployee
}

func (r Role) String() string { return string(r) }
