// Package bankcal decides whether a calendar date is a valid banking day
// for a jurisdiction and shifts nominal dates onto valid banking days.
//
// Weekends are fixed (Saturday and Sunday); public holidays are computed
// per calendar year from a registered holiday function, so movable feasts
// are derived rather than hard-coded per date.
package bankcal

import (
	"sort"
	"strings"
	"time"

	"budget-allocation-engine/internal/models"
	"budget-allocation-engine/pkg/errors"
)

// MaxRangeDays is the inclusive upper bound on NonBankDays range queries.
const MaxRangeDays = 366

// holidayFunc returns every public holiday of one calendar year.
type holidayFunc func(year int) []time.Time

// Calendar answers bank-day questions for a set of registered countries.
// The zero value is not usable; construct with NewCalendar.
type Calendar struct {
	countries map[string]holidayFunc

	// holiday sets are memoized per (country, year)
	cache map[string]map[int]map[time.Time]bool
}

// NewCalendar creates a calendar with the built-in country registry.
func NewCalendar() *Calendar {
	c := &Calendar{
		countries: make(map[string]holidayFunc),
		cache:     make(map[string]map[int]map[time.Time]bool),
	}
	c.register("DK", danishHolidays)
	return c
}

func (c *Calendar) register(country string, fn holidayFunc) {
	c.countries[country] = fn
}

// SupportedCountries lists the registered country codes in sorted order.
func (c *Calendar) SupportedCountries() []string {
	codes := make([]string, 0, len(c.countries))
	for code := range c.countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (c *Calendar) holidaySet(country string, year int) (map[time.Time]bool, error) {
	fn, ok := c.countries[country]
	if !ok {
		return nil, errors.UnsupportedCountryError(country)
	}

	byYear, ok := c.cache[country]
	if !ok {
		byYear = make(map[int]map[time.Time]bool)
		c.cache[country] = byYear
	}
	if set, ok := byYear[year]; ok {
		return set, nil
	}

	set := make(map[time.Time]bool)
	for _, day := range fn(year) {
		set[models.TruncateToDate(day)] = true
	}
	byYear[year] = set
	return set, nil
}

// NormalizeCountry canonicalizes a country code for lookups.
func NormalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

// IsBankDay reports whether the date is a valid banking day in the
// country. Saturdays, Sundays and public holidays are not banking days.
func (c *Calendar) IsBankDay(date time.Time, country string) (bool, error) {
	date = models.TruncateToDate(date)

	holidays, err := c.holidaySet(NormalizeCountry(country), date.Year())
	if err != nil {
		return false, err
	}

	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false, nil
	}
	return !holidays[date], nil
}

// Adjust shifts a date onto a valid banking day per the policy. Policy
// none returns the input unchanged; next and previous walk one day at a
// time until a banking day is found.
func (c *Calendar) Adjust(date time.Time, country string, policy models.BankDayAdjustment) (time.Time, error) {
	date = models.TruncateToDate(date)

	var step int
	switch policy {
	case models.AdjustNone:
		return date, nil
	case models.AdjustNext:
		step = 1
	case models.AdjustPrevious:
		step = -1
	default:
		return time.Time{}, errors.ValidationError(errors.CodeInvalidRule, "bank_day_adjustment", string(policy))
	}

	for {
		ok, err := c.IsBankDay(date, country)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return date, nil
		}
		date = date.AddDate(0, 0, step)
	}
}

// NonBankDays returns every non-banking day in [from, to], ascending and
// deduplicated. Ranges longer than MaxRangeDays inclusive are rejected,
// as are inverted ranges.
func (c *Calendar) NonBankDays(from, to time.Time, country string) ([]time.Time, error) {
	from = models.TruncateToDate(from)
	to = models.TruncateToDate(to)

	if from.After(to) {
		return nil, errors.ValidationError(errors.CodeRangeInverted, "from_date",
			models.FormatDate(from)+" > "+models.FormatDate(to))
	}
	if days := models.DaysBetween(from, to); days > MaxRangeDays {
		return nil, errors.ValidationError(errors.CodeRangeTooLarge, "to_date", days)
	}

	// Fail on an unsupported country before scanning.
	if _, err := c.holidaySet(NormalizeCountry(country), from.Year()); err != nil {
		return nil, err
	}

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		ok, err := c.IsBankDay(d, country)
		if err != nil {
			return nil, err
		}
		if !ok {
			days = append(days, d)
		}
	}
	return days, nil
}
