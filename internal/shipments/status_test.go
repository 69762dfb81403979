package shipments

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

func TestMapCourierStatus(t *testing.T) {
	cases := []struct {
		text   string
		want   enums.OrderStatus
		mapped bool
	}{
		{"DELIVERED", enums.OrderStatusDelivered, true},
		{"Delivered to consignee", enums.OrderStatusDelivered, true},
		{"IN-TRANSIT", enums.OrderStatusShipped, true},
		{"Out For Delivery", enums.OrderStatusShipped, true},
		{"Shipment Dispatched", enums.OrderStatusShipped, true},
		{"picked up", enums.OrderStatusShipped, true},
		{"UNDELIVERED", "", false},
		{"Pickup Scheduled", "", false},
		{"  ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := MapCourierStatus(tc.text)
			assert.Equal(t, tc.mapped, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
