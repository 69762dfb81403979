package orders

import (
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
)

type statusSet[T comparable] map[T]struct{}

func setOf[T comparable](values ...T) statusSet[T] {
	out := make(statusSet[T], len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

var orderTransitions = map[enums.OrderStatus]statusSet[enums.OrderStatus]{
	enums.OrderStatusPending:  setOf(enums.OrderStatusAccepted, enums.OrderStatusCancelled),
	enums.OrderStatusAccepted: setOf(enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled),
	enums.OrderStatusShipped:  setOf(enums.OrderStatusDelivered),
}

var itemTransitions = map[enums.LineItemStatus]statusSet[enums.LineItemStatus]{
	enums.LineItemStatusPending:    setOf(enums.LineItemStatusProcessing, enums.LineItemStatusShipped, enums.LineItemStatusCancelled),
	enums.LineItemStatusProcessing: setOf(enums.LineItemStatusShipped, enums.LineItemStatusCancelled),
	enums.LineItemStatusShipped:    setOf(enums.LineItemStatusDelivered),
}

// CanTransition reports whether an order may move from one status to another.
// ACCEPTED may jump to DELIVERED when the courier never reported transit.
func CanTransition(from, to enums.OrderStatus) bool {
	_, ok := orderTransitions[from][to]
	return ok
}

// CanTransitionItem reports whether a line item may move between statuses.
func CanTransitionItem(from, to enums.LineItemStatus) bool {
	_, ok := itemTransitions[from][to]
	return ok
}

// DeriveOrderStatus computes the order status implied by its items once the
// order has been accepted:
//   - every item cancelled: CANCELLED
//   - every remaining item delivered: DELIVERED
//   - every remaining item shipped or delivered: SHIPPED
//
// The second result is false when the order should stay where it is.
func DeriveOrderStatus(current enums.OrderStatus, items []models.OrderItem) (enums.OrderStatus, bool) {
	if current != enums.OrderStatusAccepted && current != enums.OrderStatusShipped {
		return current, false
	}
	if len(items) == 0 {
		return current, false
	}

	live, shipped, delivered := 0, 0, 0
	for _, item := range items {
		switch item.Status {
		case enums.LineItemStatusCancelled:
			continue
		case enums.LineItemStatusDelivered:
			delivered++
			shipped++
		case enums.LineItemStatusShipped:
			shipped++
		}
		live++
	}

	next := current
	switch {
	case live == 0:
		next = enums.OrderStatusCancelled
	case delivered == live:
		next = enums.OrderStatusDelivered
	case shipped == live:
		next = enums.OrderStatusShipped
	}
	if next == current || !CanTransition(current, next) {
		return current, false
	}
	return next, true
}
