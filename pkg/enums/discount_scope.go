package enums

import "fmt"

// DiscountScope is whether a discount applies store-wide or to a single seller.
type DiscountScope string

const (
	DiscountScopeStore  DiscountScope = "store"
	DiscountScopeSeller DiscountScope = "seller"
)

var validDiscountScopes = []DiscountScope{
	DiscountScopeStore,
	DiscountScopeSeller,
}

// String implements fmt.Stringer.
func (v DiscountScope) String() string {
	return string(v)
}

// IsValid reports whether the value is a known DiscountScope.
func (v DiscountScope) IsValid() bool {
	for _, candidate := range validDiscountScopes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseDiscountScope converts raw input into a DiscountScope.
func ParseDiscountScope(value string) (DiscountScope, error) {
	for _, candidate := range validDiscountScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount scope %q", value)
}
