package enums

import "fmt"

type FulfillmentType string

const (
	FulfillmentTypePickup   FulfillmentType = "pickup"
	FulfillmentTypeDelivery FulfillmentType = "delivery"
)

var validFulfillmentTypes = []FulfillmentType{
	FulfillmentTypePickup,
	FulfillmentTypeDelivery,
}

// String implements fmt.Stringer.
func (f FulfillmentType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentType.
func (f FulfillmentType) IsValid() bool {
	for _, candidate := range validFulfillmentTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentType converts raw input into a FulfillmentType.
func ParseFulfillmentType(value string) (FulfillmentType, error) {
	for _, candidate := range validFulfillmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment type %q", value)
}
