package enums

import "fmt"

// QuantityLimitMode is how ordered quantities are capped for an offer line item.
type QuantityLimitMode string

const (
	QuantityLimitUnlimited       QuantityLimitMode = "unlimited"
	QuantityLimitOfferSpecific   QuantityLimitMode = "offer_specific"
	QuantityLimitInventoryLinked QuantityLimitMode = "inventory_linked"
)

var validQuantityLimitModes = []QuantityLimitMode{
	QuantityLimitUnlimited,
	QuantityLimitOfferSpecific,
	QuantityLimitInventoryLinked,
}

// String implements fmt.Stringer.
func (q QuantityLimitMode) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuantityLimitMode.
func (q QuantityLimitMode) IsValid() bool {
	for _, candidate := range validQuantityLimitModes {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuantityLimitMode converts raw input into a QuantityLimitMode.
func ParseQuantityLimitMode(value string) (QuantityLimitMode, error) {
	for _, candidate := range validQuantityLimitModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quantity limit mode %q", value)
}
