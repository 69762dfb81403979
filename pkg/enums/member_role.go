package enums

import "fmt"

// MemberRole is a seller-organization membership role.
type MemberRole string

const (
	MemberRoleOwner             MemberRole = "owner"
	MemberRoleAdmin             MemberRole = "admin"
	MemberRoleOperationsManager MemberRole = "operations_manager"
	MemberRoleInventoryManager  MemberRole = "inventory_manager"
	MemberRoleWarehouseStaff    MemberRole = "warehouse_staff"
	MemberRoleCustomerSupport   MemberRole = "customer_support"
	MemberRoleFinance           MemberRole = "finance"
	MemberRoleMarketingManager  MemberRole = "marketing_manager"
	MemberRoleViewer            MemberRole = "viewer"
)

var validMemberRoles = []MemberRole{
	MemberRoleOwner,
	MemberRoleAdmin,
	MemberRoleOperationsManager,
	MemberRoleInventoryManager,
	MemberRoleWarehouseStaff,
	MemberRoleCustomerSupport,
	MemberRoleFinance,
	MemberRoleMarketingManager,
	MemberRoleViewer,
}

// String implements fmt.Stringer.
func (v MemberRole) String() string {
	return string(v)
}

// IsValid reports whether the value is a known MemberRole.
func (v MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}

// MemberRoles returns every known role in declaration order.
func MemberRoles() []MemberRole {
	out := make([]MemberRole, len(validMemberRoles))
	copy(out, validMemberRoles)
	return out
}
