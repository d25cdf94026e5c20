// Package recurrence expands amount-pattern recurrence rules into concrete
// dated occurrences within an accounting period.
//
// Expansion is deterministic: the same pattern and period always yield the
// same ordered occurrences, with no dependency on the wall clock.
package recurrence

import (
	"time"

	"budget-allocation-engine/internal/bankcal"
	"budget-allocation-engine/internal/models"
	"budget-allocation-engine/pkg/errors"
)

// Occurrence is one expanded expected cash-flow event. Date is nil only
// for "any time in period" rules.
type Occurrence struct {
	Date   *time.Time
	Amount int64
}

// Expander turns recurrence rules into dated occurrences, shifting each
// nominal date onto a valid banking day via the calendar.
type Expander struct {
	calendar *bankcal.Calendar
}

// NewExpander creates an Expander backed by the given calendar.
func NewExpander(calendar *bankcal.Calendar) *Expander {
	if calendar == nil {
		calendar = bankcal.NewCalendar()
	}
	return &Expander{calendar: calendar}
}

// Expand produces the ordered occurrences of a pattern within the period.
// Nominal dates are generated from the pattern's start date and clamped to
// the intersection of the pattern window and the period; each is then
// adjusted per the rule's bank-day policy. An adjustment that would leave
// the period is clamped to the period boundary instead of being dropped —
// an expected amount never silently disappears.
func (e *Expander) Expand(pattern *models.AmountPattern, period models.Period, country string) ([]Occurrence, error) {
	if err := pattern.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidRule, "invalid amount pattern")
	}
	if err := period.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidDate, "period", period.String())
	}

	periodStart := period.Start()
	periodEnd := period.End()

	windowStart := models.TruncateToDate(pattern.StartDate)
	if windowStart.Before(periodStart) {
		windowStart = periodStart
	}
	windowEnd := periodEnd
	if pattern.EndDate != nil && pattern.EndDate.Before(windowEnd) {
		windowEnd = models.TruncateToDate(*pattern.EndDate)
	}
	if windowStart.After(windowEnd) {
		return nil, nil
	}

	if !pattern.Rule.IsDated() {
		// One dateless occurrence per period the window touches.
		return []Occurrence{{Amount: pattern.Amount}}, nil
	}

	nominals := nominalDates(pattern.StartDate, pattern.Rule, windowStart, windowEnd)

	occurrences := make([]Occurrence, 0, len(nominals))
	for _, nominal := range nominals {
		adjusted, err := e.calendar.Adjust(nominal, country, pattern.Rule.BankDayAdjustment)
		if err != nil {
			return nil, err
		}
		if adjusted.Before(periodStart) {
			adjusted = periodStart
		} else if adjusted.After(periodEnd) {
			adjusted = periodEnd
		}
		date := adjusted
		occurrences = append(occurrences, Occurrence{Date: &date, Amount: pattern.Amount})
	}
	return occurrences, nil
}

// nominalDates generates the rule's nominal dates inside [from, to],
// anchored at the pattern start date. Monthly and yearly generation clamp
// the anchor day to the target month's length, so a pattern starting on
// the 31st hits the last day of shorter months.
func nominalDates(start time.Time, rule models.RecurrenceRule, from, to time.Time) []time.Time {
	start = models.TruncateToDate(start)
	var dates []time.Time

	switch rule.Frequency {
	case models.FrequencyDaily, models.FrequencyWeekly:
		stepDays := rule.Interval
		if rule.Frequency == models.FrequencyWeekly {
			stepDays *= 7
		}
		d := start
		if d.Before(from) {
			// Fast-forward to the first step landing in the window.
			gap := int(from.Sub(d).Hours() / 24)
			steps := gap / stepDays
			if gap%stepDays != 0 {
				steps++
			}
			d = d.AddDate(0, 0, steps*stepDays)
		}
		for ; !d.After(to); d = d.AddDate(0, 0, stepDays) {
			dates = append(dates, d)
		}

	case models.FrequencyMonthly:
		anchorDay := start.Day()
		for k := 0; ; k++ {
			base := models.NewDate(start.Year(), start.Month(), 1).AddDate(0, k*rule.Interval, 0)
			day := anchorDay
			if max := models.DaysInMonth(base.Year(), base.Month()); day > max {
				day = max
			}
			d := models.NewDate(base.Year(), base.Month(), day)
			if d.After(to) {
				break
			}
			if !d.Before(from) {
				dates = append(dates, d)
			}
		}

	case models.FrequencyYearly:
		anchorDay := start.Day()
		for k := 0; ; k++ {
			year := start.Year() + k*rule.Interval
			day := anchorDay
			if max := models.DaysInMonth(year, start.Month()); day > max {
				day = max
			}
			d := models.NewDate(year, start.Month(), day)
			if d.After(to) {
				break
			}
			if !d.Before(from) {
				dates = append(dates, d)
			}
		}
	}

	return dates
}
