package bankcal

import (
	"testing"
	"time"

	"budget-allocation-engine/internal/models"
	"budget-allocation-engine/pkg/errors"
)

func date(year int, month time.Month, day int) time.Time {
	return models.NewDate(year, month, day)
}

func TestEasterSunday(t *testing.T) {
	tests := []struct {
		year int
		want time.Time
	}{
		{2024, date(2024, time.March, 31)},
		{2025, date(2025, time.April, 20)},
		{2026, date(2026, time.April, 5)},
		{2027, date(2027, time.March, 28)},
	}
	for _, tt := range tests {
		if got := easterSunday(tt.year); !got.Equal(tt.want) {
			t.Errorf("easterSunday(%d) = %s, want %s", tt.year, got, tt.want)
		}
	}
}

func TestIsBankDay(t *testing.T) {
	calendar := NewCalendar()

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"ordinary Monday", date(2026, time.February, 2), true},
		{"Saturday", date(2026, time.February, 7), false},
		{"Sunday", date(2026, time.February, 8), false},
		{"New Year's Day", date(2026, time.January, 1), false},
		{"Maundy Thursday", date(2026, time.April, 2), false},
		{"Good Friday", date(2026, time.April, 3), false},
		{"Easter Monday", date(2026, time.April, 6), false},
		{"Ascension Day", date(2026, time.May, 14), false},
		{"day after Ascension", date(2026, time.May, 15), false},
		{"Whit Monday", date(2026, time.May, 25), false},
		{"Constitution Day", date(2026, time.June, 5), false},
		{"Christmas Eve", date(2026, time.December, 24), false},
		{"New Year's Eve", date(2026, time.December, 31), false},
		{"day before Maundy Thursday", date(2026, time.April, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calendar.IsBankDay(tt.date, "DK")
			if err != nil {
				t.Fatalf("IsBankDay failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsBankDay(%s) = %t, want %t", models.FormatDate(tt.date), got, tt.want)
			}
		})
	}
}

func TestGreatPrayerDayAbolished(t *testing.T) {
	calendar := NewCalendar()

	// Easter 2023 fell on April 9; Great Prayer Day was 2023-05-05.
	before, err := calendar.IsBankDay(easterSunday(2023).AddDate(0, 0, 26), "DK")
	if err != nil {
		t.Fatalf("IsBankDay failed: %v", err)
	}
	if before {
		t.Error("Great Prayer Day 2023 should still be a holiday")
	}

	// From 2024 on, the fourth Friday after Easter is an ordinary banking day.
	after, err := calendar.IsBankDay(easterSunday(2026).AddDate(0, 0, 26), "DK")
	if err != nil {
		t.Fatalf("IsBankDay failed: %v", err)
	}
	if !after {
		t.Error("Great Prayer Day was abolished from 2024 and should be a banking day")
	}
}

func TestCountryCodeNormalization(t *testing.T) {
	calendar := NewCalendar()
	for _, code := range []string{"dk", "DK", " dk "} {
		if _, err := calendar.IsBankDay(date(2026, time.February, 2), code); err != nil {
			t.Errorf("Country code %q should normalize to DK: %v", code, err)
		}
	}

	_, err := calendar.IsBankDay(date(2026, time.February, 2), "SE")
	if !errors.IsCode(err, errors.CodeUnsupportedCountry) {
		t.Errorf("Expected unsupported_country for SE, got %v", err)
	}
}

func TestAdjust(t *testing.T) {
	calendar := NewCalendar()

	tests := []struct {
		name   string
		date   time.Time
		policy models.BankDayAdjustment
		want   time.Time
	}{
		{"none returns input even on a Saturday", date(2026, time.February, 7), models.AdjustNone, date(2026, time.February, 7)},
		{"next from Saturday lands on Monday", date(2026, time.February, 7), models.AdjustNext, date(2026, time.February, 9)},
		{"previous from Sunday lands on Friday", date(2026, time.February, 8), models.AdjustPrevious, date(2026, time.February, 6)},
		{"next skips the whole Easter closure", date(2026, time.April, 2), models.AdjustNext, date(2026, time.April, 7)},
		{"banking day is unchanged", date(2026, time.February, 2), models.AdjustNext, date(2026, time.February, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calendar.Adjust(tt.date, "DK", tt.policy)
			if err != nil {
				t.Fatalf("Adjust failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Adjust(%s, %s) = %s, want %s",
					models.FormatDate(tt.date), tt.policy, models.FormatDate(got), models.FormatDate(tt.want))
			}
		})
	}
}

func TestNonBankDaysFebruary2026(t *testing.T) {
	calendar := NewCalendar()

	days, err := calendar.NonBankDays(date(2026, time.February, 1), date(2026, time.February, 28), "DK")
	if err != nil {
		t.Fatalf("NonBankDays failed: %v", err)
	}

	want := []time.Time{
		date(2026, time.February, 1), date(2026, time.February, 7),
		date(2026, time.February, 8), date(2026, time.February, 14),
		date(2026, time.February, 15), date(2026, time.February, 21),
		date(2026, time.February, 22), date(2026, time.February, 28),
	}
	if len(days) != len(want) {
		t.Fatalf("Expected %d non-bank days, got %d: %v", len(want), len(days), days)
	}
	for i := range want {
		if !days[i].Equal(want[i]) {
			t.Errorf("Day %d: expected %s, got %s", i, models.FormatDate(want[i]), models.FormatDate(days[i]))
		}
	}
}

func TestNonBankDaysRangeLimits(t *testing.T) {
	calendar := NewCalendar()

	// 2024 is a leap year: Jan 1 through Dec 31 is exactly 366 days inclusive.
	if _, err := calendar.NonBankDays(date(2024, time.January, 1), date(2024, time.December, 31), "DK"); err != nil {
		t.Errorf("A full leap year is exactly the maximum range: %v", err)
	}

	_, err := calendar.NonBankDays(date(2024, time.January, 1), date(2025, time.January, 1), "DK")
	if !errors.IsCode(err, errors.CodeRangeTooLarge) {
		t.Errorf("Expected range_too_large for 367 days, got %v", err)
	}

	_, err = calendar.NonBankDays(date(2026, time.March, 1), date(2026, time.February, 1), "DK")
	if !errors.IsCode(err, errors.CodeRangeInverted) {
		t.Errorf("Expected range_inverted, got %v", err)
	}

	// A single-day range is valid.
	days, err := calendar.NonBankDays(date(2026, time.February, 2), date(2026, time.February, 2), "DK")
	if err != nil {
		t.Fatalf("Single-day range failed: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("Monday 2026-02-02 is a banking day, got %v", days)
	}
}

func TestNonBankDaysSpanningYearBoundary(t *testing.T) {
	calendar := NewCalendar()

	days, err := calendar.NonBankDays(date(2025, time.December, 30), date(2026, time.January, 2), "DK")
	if err != nil {
		t.Fatalf("NonBankDays failed: %v", err)
	}

	found := make(map[string]bool, len(days))
	for _, day := range days {
		found[models.FormatDate(day)] = true
	}
	// New Year's Eve and New Year's Day straddle the year boundary.
	for _, want := range []string{"2025-12-31", "2026-01-01"} {
		if !found[want] {
			t.Errorf("Expected %s in %v", want, days)
		}
	}
}
