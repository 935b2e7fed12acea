package enums

import "fmt"

// LineStatus is the seller-facing state of an order line placed against an offer.
type LineStatus string

const (
	LineStatusPending   LineStatus = "pending"
	LineStatusConfirmed LineStatus = "confirmed"
	LineStatusAdjusted  LineStatus = "adjusted"
	LineStatusCancelled LineStatus = "cancelled"
)

var validLineStatuses = []LineStatus{
	LineStatusPending,
	LineStatusConfirmed,
	LineStatusAdjusted,
	LineStatusCancelled,
}

// String implements fmt.Stringer.
func (l LineStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LineStatus.
func (l LineStatus) IsValid() bool {
	for _, candidate := range validLineStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLineStatus converts raw input into a LineStatus.
func ParseLineStatus(value string) (LineStatus, error) {
	for _, candidate := range validLineStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line status %q", value)
}
