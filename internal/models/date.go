package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// NewDate builds a calendar date (midnight UTC). All dates in the engine
// are date-only; time-of-day never participates in comparisons.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// TruncateToDate drops any time-of-day component.
func TruncateToDate(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return NewDate(year, month, day)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return TruncateToDate(a).Equal(TruncateToDate(b))
}

// DaysBetween returns the inclusive day count of the range [from, to].
func DaysBetween(from, to time.Time) int {
	from = TruncateToDate(from)
	to = TruncateToDate(to)
	return int(to.Sub(from).Hours()/24) + 1
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return NewDate(year, month+1, 1).AddDate(0, 0, -1).Day()
}

// FormatDate renders a calendar date in the wire format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
