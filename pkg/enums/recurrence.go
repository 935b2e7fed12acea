package enums

import "fmt"

// Recurrence is how often a fulfillment option repeats.
type Recurrence string

const (
	RecurrenceOnce         Recurrence = "once"
	RecurrenceDaily        Recurrence = "daily"
	RecurrenceWeekly       Recurrence = "weekly"
	RecurrenceEvery2Weeks  Recurrence = "every_2_weeks"
	RecurrenceEvery4Weeks  Recurrence = "every_4_weeks"
	RecurrenceEvery8Weeks  Recurrence = "every_8_weeks"
	RecurrenceEvery12Weeks Recurrence = "every_12_weeks"
)

var validRecurrences = []Recurrence{
	RecurrenceOnce,
	RecurrenceDaily,
	RecurrenceWeekly,
	RecurrenceEvery2Weeks,
	RecurrenceEvery4Weeks,
	RecurrenceEvery8Weeks,
	RecurrenceEvery12Weeks,
}

// String implements fmt.Stringer.
func (r Recurrence) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Recurrence.
func (r Recurrence) IsValid() bool {
	for _, candidate := range validRecurrences {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecurrence converts raw input into a Recurrence.
func ParseRecurrence(value string) (Recurrence, error) {
	for _, candidate := range validRecurrences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recurrence %q", value)
}
