package models

import (
	"testing"
	"time"
)

func TestPeriodBounds(t *testing.T) {
	tests := []struct {
		period    Period
		wantStart string
		wantEnd   string
	}{
		{NewPeriod(2026, time.February), "2026-02-01", "2026-02-28"},
		{NewPeriod(2024, time.February), "2024-02-01", "2024-02-29"},
		{NewPeriod(2026, time.December), "2026-12-01", "2026-12-31"},
	}

	for _, tt := range tests {
		if got := FormatDate(tt.period.Start()); got != tt.wantStart {
			t.Errorf("%s Start = %s, want %s", tt.period, got, tt.wantStart)
		}
		if got := FormatDate(tt.period.End()); got != tt.wantEnd {
			t.Errorf("%s End = %s, want %s", tt.period, got, tt.wantEnd)
		}
	}
}

func TestPeriodPrevNextAcrossYearBoundary(t *testing.T) {
	january := NewPeriod(2026, time.January)

	if got := january.Prev(); got != NewPeriod(2025, time.December) {
		t.Errorf("Prev = %s, want 2025-12", got)
	}
	if got := NewPeriod(2025, time.December).Next(); got != january {
		t.Errorf("Next = %s, want 2026-01", got)
	}
}

func TestPeriodContains(t *testing.T) {
	period := NewPeriod(2026, time.February)

	if !period.Contains(NewDate(2026, time.February, 1)) {
		t.Error("period should contain its first day")
	}
	if !period.Contains(NewDate(2026, time.February, 28)) {
		t.Error("period should contain its last day")
	}
	if period.Contains(NewDate(2026, time.March, 1)) {
		t.Error("period should not contain the next month")
	}
	// Time-of-day is irrelevant.
	if !period.Contains(time.Date(2026, time.February, 28, 23, 59, 0, 0, time.UTC)) {
		t.Error("time-of-day should not push a date out of the period")
	}
}

func TestPeriodValidate(t *testing.T) {
	if err := NewPeriod(2026, time.March).Validate(); err != nil {
		t.Errorf("valid period rejected: %v", err)
	}
	if err := (Period{Year: 2026, Month: 13}).Validate(); err == nil {
		t.Error("month 13 accepted")
	}
	if err := (Period{Year: 0, Month: time.May}).Validate(); err == nil {
		t.Error("year 0 accepted")
	}
}

func TestDaysBetweenIsInclusive(t *testing.T) {
	from := NewDate(2026, time.February, 1)

	if got := DaysBetween(from, from); got != 1 {
		t.Errorf("single day range = %d, want 1", got)
	}
	if got := DaysBetween(from, NewDate(2026, time.February, 28)); got != 28 {
		t.Errorf("february range = %d, want 28", got)
	}
	if got := DaysBetween(NewDate(2024, time.January, 1), NewDate(2024, time.December, 31)); got != 366 {
		t.Errorf("leap year range = %d, want 366", got)
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(2026, time.February); got != 28 {
		t.Errorf("feb 2026 = %d, want 28", got)
	}
	if got := DaysInMonth(2024, time.February); got != 29 {
		t.Errorf("feb 2024 = %d, want 29", got)
	}
	if got := DaysInMonth(2026, time.December); got != 31 {
		t.Errorf("dec 2026 = %d, want 31", got)
	}
}
