package enums

import "fmt"

// PlanTier is the commercial plan of a seller organization.
type PlanTier string

const (
	PlanTierFree  PlanTier = "free"
	PlanTierBasic PlanTier = "basic"
	PlanTierPro   PlanTier = "pro"
)

var validPlanTiers = []PlanTier{
	PlanTierFree,
	PlanTierBasic,
	PlanTierPro,
}

// String implements fmt.Stringer.
func (v PlanTier) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PlanTier.
func (v PlanTier) IsValid() bool {
	for _, candidate := range validPlanTiers {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePlanTier converts raw input into a PlanTier.
func ParsePlanTier(value string) (PlanTier, error) {
	for _, candidate := range validPlanTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan tier %q", value)
}
