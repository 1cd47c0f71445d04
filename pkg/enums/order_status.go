package enums

import "fmt"

// OrderStatus tracks the lifecycle of a storefront order. Values are wire-visible.
type OrderStatus string

const (
	OrderStatusPendingAdmin OrderStatus = "PENDING_ADMIN"
	OrderStatusPaid         OrderStatus = "PAID"
	OrderStatusShipped      OrderStatus = "SHIPPED"
	OrderStatusDelivered    OrderStatus = "DELIVERED"
	OrderStatusRejected     OrderStatus = "REJECTED"
	OrderStatusCancelled    OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingAdmin,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusRejected,
	OrderStatusCancelled,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingAdmin: {OrderStatusPaid, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusPaid:         {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:      {OrderStatusDelivered, OrderStatusCancelled},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
