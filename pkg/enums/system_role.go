package enums

import "fmt"

// SystemRole is the platform-wide role carried by a user.
type SystemRole string

const (
	SystemRoleAdmin  SystemRole = "admin"
	SystemRoleSeller SystemRole = "seller"
	SystemRoleBuyer  SystemRole = "buyer"
)

var validSystemRoles = []SystemRole{
	SystemRoleAdmin,
	SystemRoleSeller,
	SystemRoleBuyer,
}

// String implements fmt.Stringer.
func (v SystemRole) String() string {
	return string(v)
}

// IsValid reports whether the value is a known SystemRole.
func (v SystemRole) IsValid() bool {
	for _, candidate := range validSystemRoles {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSystemRole converts raw input into a SystemRole.
func ParseSystemRole(value string) (SystemRole, error) {
	for _, candidate := range validSystemRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid system role %q", value)
}
