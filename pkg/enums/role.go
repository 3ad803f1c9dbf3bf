package enums

import (
	"fmt"
	"strings"
)

// Role is the coarse authorization tier attached to a user.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

var validRoles = []Role{
	RoleUser,
	RoleAdmin,
	RoleSuperAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the role is above USER.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ParseRole converts raw input into a Role. Matching is case-insensitive.
func ParseRole(value string) (Role, error) {
	normalized := Role(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range validRoles {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// Capability names an action a route guard can require.
type Capability string

const (
	CapUsersManage       Capability = "users:manage"
	CapUsersManageAdmins Capability = "users:manage-admins"
	CapSettingsManage    Capability = "settings:manage"
	CapDashboardView     Capability = "dashboard:view"
	CapSystemView        Capability = "system:view"
	CapMediaDelete       Capability = "media:delete"
)

var adminCapabilities = map[Capability]struct{}{
	CapUsersManage:    {},
	CapSettingsManage: {},
	CapDashboardView:  {},
	CapSystemView:     {},
	CapMediaDelete:    {},
}

// HasCapability is the single authorization predicate used by route guards.
// SUPERADMIN holds every capability; ADMIN holds all but managing other admins.
func HasCapability(role Role, capability Capability) bool {
	switch role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		_, ok := adminCapabilities[capability]
		return ok
	default:
		return false
	}
}
