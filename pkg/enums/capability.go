package enums

import "fmt"

// Capability is an atomic permission gating one kind of seller-side action.
type Capability string

const (
	CapabilityOrderView         Capability = "order.view"
	CapabilityOrderUpdateStatus Capability = "order.update_status"
	CapabilityOrderEditAddress  Capability = "order.edit_address"
	CapabilityProductView       Capability = "product.view"
	CapabilityProductEdit       Capability = "product.edit"
	CapabilityWarehouseView     Capability = "warehouse.view"
	CapabilityWarehouseEdit     Capability = "warehouse.edit"
	CapabilityDiscountManage    Capability = "discount.manage"
	CapabilityTeamView          Capability = "team.view"
	CapabilityTeamInvite        Capability = "team.invite"
	CapabilityTeamAssignRole    Capability = "team.assign_role"
	CapabilityTeamRemove        Capability = "team.remove"
	CapabilitySellerManage      Capability = "seller.manage"
	CapabilityBillingView       Capability = "billing.view"
)

var validCapabilities = []Capability{
	CapabilityOrderView,
	CapabilityOrderUpdateStatus,
	CapabilityOrderEditAddress,
	CapabilityProductView,
	CapabilityProductEdit,
	CapabilityWarehouseView,
	CapabilityWarehouseEdit,
	CapabilityDiscountManage,
	CapabilityTeamView,
	CapabilityTeamInvite,
	CapabilityTeamAssignRole,
	CapabilityTeamRemove,
	CapabilitySellerManage,
	CapabilityBillingView,
}

func (c Capability) String() string {
	return string(c)
}

func (c Capability) IsValid() bool {
	for _, candidate := range validCapabilities {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseCapability(value string) (Capability, error) {
	for _, candidate := range validCapabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid capability %q", value)
}

// Capabilities returns every known capability in declaration order.
func Capabilities() []Capability {
	out := make([]Capability, len(validCapabilities))
	copy(out, validCapabilities)
	return out
}
