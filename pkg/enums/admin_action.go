package enums

import "fmt"

// AdminAction names the state-changing action recorded in the admin log.
type AdminAction string

const (
	AdminActionOrderCreated         AdminAction = "ORDER_CREATED"
	AdminActionPaymentConfirmed     AdminAction = "PAYMENT_CONFIRMED"
	AdminActionPaymentProofAttached AdminAction = "PAYMENT_PROOF_ATTACHED"
	AdminActionOrderRejected        AdminAction = "ORDER_REJECTED"
	AdminActionOrderShipped         AdminAction = "ORDER_SHIPPED"
	AdminActionOrderDelivered       AdminAction = "ORDER_DELIVERED"
	AdminActionOrderCancelled       AdminAction = "ORDER_CANCELLED"
)

var validAdminActions = []AdminAction{
	AdminActionOrderCreated,
	AdminActionPaymentConfirmed,
	AdminActionPaymentProofAttached,
	AdminActionOrderRejected,
	AdminActionOrderShipped,
	AdminActionOrderDelivered,
	AdminActionOrderCancelled,
}

// String implements fmt.Stringer.
func (a AdminAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdminAction.
func (a AdminAction) IsValid() bool {
	for _, candidate := range validAdminActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdminAction converts raw input into an AdminAction.
func ParseAdminAction(value string) (AdminAction, error) {
	for _, candidate := range validAdminActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin action %q", value)
}
