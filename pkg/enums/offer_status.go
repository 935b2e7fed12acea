package enums

import "fmt"

// OfferStatus is lifecycle state of a seller offer.
type OfferStatus string

const (
	OfferStatusDraft   OfferStatus = "draft"
	OfferStatusActive  OfferStatus = "active"
	OfferStatusPaused  OfferStatus = "paused"
	OfferStatusExpired OfferStatus = "expired"
)

var validOfferStatuses = []OfferStatus{
	OfferStatusDraft,
	OfferStatusActive,
	OfferStatusPaused,
	OfferStatusExpired,
}

// String implements fmt.Stringer.
func (o OfferStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OfferStatus.
func (o OfferStatus) IsValid() bool {
	for _, candidate := range validOfferStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOfferStatus converts raw input into a OfferStatus.
func ParseOfferStatus(value string) (OfferStatus, error) {
	for _, candidate := range validOfferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer status %q", value)
}
