package enums

import "fmt"

// LineItemStatus is the per-item fulfillment state tracked for each seller's items.
type LineItemStatus string

const (
	LineItemStatusPending    LineItemStatus = "pending"
	LineItemStatusProcessing LineItemStatus = "processing"
	LineItemStatusShipped    LineItemStatus = "shipped"
	LineItemStatusDelivered  LineItemStatus = "delivered"
	LineItemStatusCancelled  LineItemStatus = "cancelled"
)

var validLineItemStatuses = []LineItemStatus{
	LineItemStatusPending,
	LineItemStatusProcessing,
	LineItemStatusShipped,
	LineItemStatusDelivered,
	LineItemStatusCancelled,
}

// String implements fmt.Stringer.
func (v LineItemStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known LineItemStatus.
func (v LineItemStatus) IsValid() bool {
	for _, candidate := range validLineItemStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseLineItemStatus converts raw input into a LineItemStatus.
func ParseLineItemStatus(value string) (LineItemStatus, error) {
	for _, candidate := range validLineItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item status %q", value)
}
