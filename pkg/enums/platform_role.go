package enums

import "fmt"

// PlatformRole is the platform-wide role carried by an actor, independent of store memberships.
type PlatformRole string

const (
	PlatformRoleUser       PlatformRole = "user"
	PlatformRoleSuperAdmin PlatformRole = "super_admin"
	// PlatformRoleSystem is used for programmatic transitions such as proof auto-confirmation.
	PlatformRoleSystem PlatformRole = "system"
)

var validPlatformRoles = []PlatformRole{
	PlatformRoleUser,
	PlatformRoleSuperAdmin,
	PlatformRoleSystem,
}

// String implements fmt.Stringer.
func (p PlatformRole) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlatformRole.
func (p PlatformRole) IsValid() bool {
	for _, candidate := range validPlatformRoles {
		if candidate == p {
			return true
		}
	}
	return false
}

// BypassesStoreScope reports whether the role skips membership checks.
func (p PlatformRole) BypassesStoreScope() bool {
	return p == PlatformRoleSuperAdmin || p == PlatformRoleSystem
}

// ParsePlatformRole converts raw input into a PlatformRole.
func ParsePlatformRole(value string) (PlatformRole, error) {
	for _, candidate := range validPlatformRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform role %q", value)
}
