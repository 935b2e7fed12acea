package orders

import "fmt"

// MutationErrorCode identifies why the order-mutation API refused a change.
type MutationErrorCode string

const (
	ErrOrderModification MutationErrorCode = "ORDER_MODIFICATION_ERROR"
	ErrNegativeQuantity  MutationErrorCode = "NEGATIVE_QUANTITY_ERROR"
)

// MutationError is a domain rejection from AddItemToOrder or AdjustOrderLine.
// Callers decide how to surface it; persistence failures are never
// reported this way.
type MutationError struct {
	Code    MutationErrorCode
	Message string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func orderModificationError(state fmt.Stringer) *MutationError {
	return &MutationError{
		Code:    ErrOrderModification,
		Message: fmt.Sprintf("Order contents may only be modified when in the \"AddingItems\" state (current state: %s)", state),
	}
}

func negativeQuantityError() *MutationError {
	return &MutationError{
		Code:    ErrNegativeQuantity,
		Message: "The quantity for an OrderItem must be at least 1",
	}
}
