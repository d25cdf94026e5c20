package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Frequency is the closed set of recognized recurrence frequencies.
// FrequencyNone marks an "any time in period" rule that produces one
// dateless occurrence per archived period.
type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// String returns the string representation of Frequency
func (f Frequency) String() string {
	return string(f)
}

// IsValid checks if the frequency is valid
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// BankDayAdjustment is the policy for shifting a nominal occurrence date
// to the nearest valid banking day.
type BankDayAdjustment string

const (
	AdjustNone     BankDayAdjustment = "none"
	AdjustNext     BankDayAdjustment = "next"
	AdjustPrevious BankDayAdjustment = "previous"
)

// String returns the string representation of BankDayAdjustment
func (a BankDayAdjustment) String() string {
	return string(a)
}

// IsValid checks if the adjustment policy is valid
func (a BankDayAdjustment) IsValid() bool {
	return a == AdjustNone || a == AdjustNext || a == AdjustPrevious
}

// RecurrenceRule is the structured recurrence document attached to an
// amount pattern. It is a closed variant: unrecognized frequencies,
// adjustment policies or document keys are rejected at the boundary
// rather than carried as an open document.
type RecurrenceRule struct {
	Frequency         Frequency         `json:"frequency"`
	Interval          int               `json:"interval,omitempty"`
	BankDayAdjustment BankDayAdjustment `json:"bank_day_adjustment,omitempty"`
}

// Validate performs validation on the RecurrenceRule
func (r RecurrenceRule) Validate() error {
	if !r.Frequency.IsValid() {
		return fmt.Errorf("invalid frequency: %q", r.Frequency)
	}
	if !r.BankDayAdjustment.IsValid() {
		return fmt.Errorf("invalid bank day adjustment: %q", r.BankDayAdjustment)
	}
	if r.Interval < 1 {
		return fmt.Errorf("interval must be at least 1: %d", r.Interval)
	}
	if r.Frequency == FrequencyNone && r.Interval != 1 {
		return fmt.Errorf("interval is not meaningful for frequency none")
	}
	return nil
}

// IsDated reports whether the rule produces concrete dated occurrences.
func (r RecurrenceRule) IsDated() bool {
	return r.Frequency != FrequencyNone
}

// String returns a string representation of the RecurrenceRule
func (r RecurrenceRule) String() string {
	if r.Frequency == FrequencyNone {
		return "RecurrenceRule{none}"
	}
	return fmt.Sprintf("RecurrenceRule{%s, interval %d, adjust %s}",
		r.Frequency, r.Interval, r.BankDayAdjustment)
}

// rawRecurrenceRule mirrors the persisted JSON document. The recognized
// keys are exactly frequency, interval and bank_day_adjustment.
type rawRecurrenceRule struct {
	Frequency         string `json:"frequency"`
	Interval          *int   `json:"interval"`
	BankDayAdjustment string `json:"bank_day_adjustment"`
}

// ParseRecurrenceRule decodes and validates a recurrence document. Unknown
// keys fail the parse; a missing interval defaults to 1 and a missing
// adjustment defaults to none.
func ParseRecurrenceRule(data []byte) (RecurrenceRule, error) {
	var raw rawRecurrenceRule

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return RecurrenceRule{}, fmt.Errorf("malformed recurrence rule: %w", err)
	}

	rule := RecurrenceRule{
		Frequency:         Frequency(strings.ToLower(strings.TrimSpace(raw.Frequency))),
		Interval:          1,
		BankDayAdjustment: AdjustNone,
	}
	if raw.Interval != nil {
		rule.Interval = *raw.Interval
	}
	if raw.BankDayAdjustment != "" {
		rule.BankDayAdjustment = BankDayAdjustment(strings.ToLower(strings.TrimSpace(raw.BankDayAdjustment)))
	}

	if err := rule.Validate(); err != nil {
		return RecurrenceRule{}, err
	}
	return rule, nil
}

// MarshalJSON writes the rule in its persisted document shape.
func (r RecurrenceRule) MarshalJSON() ([]byte, error) {
	raw := rawRecurrenceRule{
		Frequency:         string(r.Frequency),
		Interval:          &r.Interval,
		BankDayAdjustment: string(r.BankDayAdjustment),
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes the rule through the same boundary validation as
// ParseRecurrenceRule.
func (r *RecurrenceRule) UnmarshalJSON(data []byte) error {
	rule, err := ParseRecurrenceRule(data)
	if err != nil {
		return err
	}
	*r = rule
	return nil
}
