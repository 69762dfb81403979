// Package shipments keeps order status in line with courier tracking.
package shipments

import (
	"strings"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

var (
	notDelivered = []string{"undelivered", "not delivered", "delivery failed"}
	inMotion     = []string{"in-transit", "in transit", "out for delivery", "dispatched", "picked up", "shipped"}
)

// MapCourierStatus maps the courier's free-text status onto an order status.
// False means the text carries no status the order tracks.
func MapCourierStatus(text string) (enums.OrderStatus, bool) {
	status := strings.ToLower(strings.TrimSpace(text))
	if status == "" {
		return "", false
	}
	if containsAny(status, notDelivered) {
		return "", false
	}
	if strings.Contains(status, "delivered") {
		return enums.OrderStatusDelivered, true
	}
	if containsAny(status, inMotion) {
		return enums.OrderStatusShipped, true
	}
	return "", false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
