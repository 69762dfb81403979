package permissions

import "github.com/stondral/tsew-sub002/pkg/enums"

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet map[enums.Capability]struct{}

func newSet(caps ...enums.Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c enums.Capability) bool {
	_, ok := s[c]
	return ok
}

var roleCapabilities = map[enums.MemberRole]CapabilitySet{
	enums.MemberRoleOwner: newSet(enums.Capabilities()...),
	enums.MemberRoleAdmin: newSet(
		enums.CapabilityOrderView,
		enums.CapabilityOrderUpdateStatus,
		enums.CapabilityOrderEditAddress,
		enums.CapabilityProductView,
		enums.CapabilityProductEdit,
		enums.CapabilityWarehouseView,
		enums.CapabilityWarehouseEdit,
		enums.CapabilityDiscountManage,
		enums.CapabilityTeamView,
		enums.CapabilityTeamInvite,
		enums.CapabilityTeamAssignRole,
		enums.CapabilityTeamRemove,
		enums.CapabilityBillingView,
	),
	enums.MemberRoleOperationsManager: newSet(
		enums.CapabilityOrderView,
		enums.CapabilityOrderUpdateStatus,
		enums.CapabilityOrderEditAddress,
		enums.CapabilityProductView,
		enums.CapabilityWarehouseView,
		enums.CapabilityWarehouseEdit,
		enums.CapabilityTeamView,
	),
	enums.MemberRoleInventoryManager: newSet(
		enums.CapabilityOrderView,
		enums.CapabilityProductView,
		enums.CapabilityProductEdit,
		enums.CapabilityWarehouseView,
		enums.CapabilityWarehouseEdit,
	),
	enums.MemberRoleWarehouseStaff: newSet(
		enums.CapabilityOrderView,
		enums.CapabilityOrderUpdateStatus,
		enums.CapabilityProductView,
		enums.CapabilityWarehouseView,
	),
	enums.MemberRoleCustomerSupport: newSet(
		enums.CapabilityOrderView,
		enums.CapabilityOrderEditAddress,
		enums.CapabilityProductView,
	),
	enums.MemberRoleFinance: newSet(
		enums.CapabilityOrderView,
		enums.CapabilityBillingView,
		enums.CapabilityTeamView,
	),
	enums.MemberRoleMarketingManager: newSet(
		enums.CapabilityProductView,
		enums.CapabilityDiscountManage,
	),
	enums.MemberRoleViewer: newSet(
		enums.CapabilityOrderView,
		enums.CapabilityProductView,
		enums.CapabilityWarehouseView,
		enums.CapabilityTeamView,
	),
}

// CapabilitiesFor returns the fixed capability set of a role. Unknown roles
// get an empty set.
func CapabilitiesFor(role enums.MemberRole) CapabilitySet {
	if set, ok := roleCapabilities[role]; ok {
		return set
	}
	return CapabilitySet{}
}

// RoleHasCapability reports whether role grants c.
func RoleHasCapability(role enums.MemberRole, c enums.Capability) bool {
	return CapabilitiesFor(role).Has(c)
}
