package enums

import "fmt"

// OrderState mirrors the order process states shared by aggregate and seller orders.
type OrderState string

const (
	OrderStateDraft             OrderState = "Draft"
	OrderStateAddingItems       OrderState = "AddingItems"
	OrderStateArrangingPayment  OrderState = "ArrangingPayment"
	OrderStatePaymentAuthorized OrderState = "PaymentAuthorized"
	OrderStatePaymentSettled    OrderState = "PaymentSettled"
	OrderStateShipped           OrderState = "Shipped"
	OrderStateDelivered         OrderState = "Delivered"
	OrderStateCancelled         OrderState = "Cancelled"
)

var validOrderStates = []OrderState{
	OrderStateDraft,
	OrderStateAddingItems,
	OrderStateArrangingPayment,
	OrderStatePaymentAuthorized,
	OrderStatePaymentSettled,
	OrderStateShipped,
	OrderStateDelivered,
	OrderStateCancelled,
}

// LedgerExcludedOrderStates never contribute to an offer line item's ordered quantity.
var LedgerExcludedOrderStates = []OrderState{OrderStateCancelled, OrderStateDraft}

// String implements fmt.Stringer.
func (o OrderState) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderState.
func (o OrderState) IsValid() bool {
	for _, candidate := range validOrderStates {
		if candidate == o {
			return true
		}
	}
	return false
}

// AcceptsLineChanges reports whether lines may still be added or adjusted.
func (o OrderState) AcceptsLineChanges() bool {
	return o == OrderStateAddingItems
}

// ParseOrderState converts raw input into an OrderState.
func ParseOrderState(value string) (OrderState, error) {
	for _, candidate := range validOrderStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order state %q", value)
}
