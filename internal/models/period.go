package models

import (
	"fmt"
	"time"
)

// Period identifies one accounting month. It is always passed explicitly;
// the engine never derives "the current period" from the wall clock.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod creates a Period for the given year and month.
func NewPeriod(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// Validate checks that the period is a real calendar month.
func (p Period) Validate() error {
	if p.Year < 1 {
		return fmt.Errorf("period year must be positive: %d", p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("period month out of range: %d", p.Month)
	}
	return nil
}

// Start returns the first day of the period.
func (p Period) Start() time.Time {
	return NewDate(p.Year, p.Month, 1)
}

// End returns the last day of the period.
func (p Period) End() time.Time {
	return NewDate(p.Year, p.Month+1, 1).AddDate(0, 0, -1)
}

// Prev returns the immediately preceding period.
func (p Period) Prev() Period {
	start := p.Start().AddDate(0, -1, 0)
	return Period{Year: start.Year(), Month: start.Month()}
}

// Next returns the immediately following period.
func (p Period) Next() Period {
	start := p.Start().AddDate(0, 1, 0)
	return Period{Year: start.Year(), Month: start.Month()}
}

// Contains reports whether the date falls inside the period.
func (p Period) Contains(date time.Time) bool {
	d := TruncateToDate(date)
	return !d.Before(p.Start()) && !d.After(p.End())
}

// String returns the period in YYYY-MM form.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
