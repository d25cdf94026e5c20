package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AmountPattern is one expected-amount rule attached to a budget post.
// Amounts are signed 64-bit integers in minor currency units.
type AmountPattern struct {
	ID           uuid.UUID      `json:"id"`
	BudgetPostID uuid.UUID      `json:"budget_post_id"`
	Amount       int64          `json:"amount"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      *time.Time     `json:"end_date,omitempty"`
	Rule         RecurrenceRule `json:"rule"`
	// ContainerIDs narrows the post's container pool for this pattern.
	// Empty means inherit from the owning post; resolution happens at
	// read time via EffectiveContainerIDs, never by copying state.
	ContainerIDs []uuid.UUID `json:"container_ids,omitempty"`
	Status       PostStatus  `json:"status"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty"`
}

// NewAmountPattern creates an active AmountPattern with a fresh identifier
func NewAmountPattern(postID uuid.UUID, amount int64, start time.Time, rule RecurrenceRule) *AmountPattern {
	return &AmountPattern{
		ID:           uuid.New(),
		BudgetPostID: postID,
		Amount:       amount,
		StartDate:    TruncateToDate(start),
		Rule:         rule,
		Status:       PostActive,
	}
}

// Validate performs basic validation on the AmountPattern
func (ap *AmountPattern) Validate() error {
	if ap.ID == uuid.Nil {
		return fmt.Errorf("amount pattern id cannot be empty")
	}
	if ap.BudgetPostID == uuid.Nil {
		return fmt.Errorf("amount pattern post id cannot be empty")
	}
	if ap.Amount == 0 {
		return fmt.Errorf("amount pattern amount cannot be zero")
	}
	if ap.StartDate.IsZero() {
		return fmt.Errorf("amount pattern start date cannot be zero")
	}
	if ap.EndDate != nil && ap.EndDate.Before(ap.StartDate) {
		return fmt.Errorf("amount pattern end date %s precedes start date %s",
			FormatDate(*ap.EndDate), FormatDate(ap.StartDate))
	}
	if err := ap.Rule.Validate(); err != nil {
		return fmt.Errorf("invalid recurrence rule: %w", err)
	}
	if !ap.Status.IsValid() {
		return fmt.Errorf("invalid pattern status: %s", ap.Status)
	}
	return nil
}

// IsActive reports whether the pattern participates in archival
func (ap *AmountPattern) IsActive() bool {
	return ap.Status == PostActive
}

// OverlapsWindow reports whether the pattern's validity window intersects
// [from, to]. An open-ended pattern overlaps everything after its start.
func (ap *AmountPattern) OverlapsWindow(from, to time.Time) bool {
	from = TruncateToDate(from)
	to = TruncateToDate(to)
	if ap.StartDate.After(to) {
		return false
	}
	if ap.EndDate != nil && ap.EndDate.Before(from) {
		return false
	}
	return true
}

// ClaimsDate reports whether the rule's nominal schedule lands on the
// given date inside the pattern's validity window. Dateless rules claim
// no specific date. At most one pattern of a post may claim any given
// date; archival enforces this.
func (ap *AmountPattern) ClaimsDate(date time.Time) bool {
	date = TruncateToDate(date)
	start := TruncateToDate(ap.StartDate)
	if date.Before(start) {
		return false
	}
	if ap.EndDate != nil && date.After(TruncateToDate(*ap.EndDate)) {
		return false
	}

	switch ap.Rule.Frequency {
	case FrequencyDaily:
		return daysSince(start, date)%ap.Rule.Interval == 0
	case FrequencyWeekly:
		return daysSince(start, date)%(7*ap.Rule.Interval) == 0
	case FrequencyMonthly:
		months := (date.Year()-start.Year())*12 + int(date.Month()) - int(start.Month())
		if months%ap.Rule.Interval != 0 {
			return false
		}
		return date.Day() == clampAnchorDay(start.Day(), date.Year(), date.Month())
	case FrequencyYearly:
		years := date.Year() - start.Year()
		if years%ap.Rule.Interval != 0 || date.Month() != start.Month() {
			return false
		}
		return date.Day() == clampAnchorDay(start.Day(), date.Year(), date.Month())
	}
	return false
}

func daysSince(start, date time.Time) int {
	return int(date.Sub(start).Hours() / 24)
}

// clampAnchorDay pins an anchor day to the target month's length, so a
// pattern anchored on the 31st claims the last day of shorter months.
func clampAnchorDay(day int, year int, month time.Month) int {
	if max := DaysInMonth(year, month); day > max {
		return max
	}
	return day
}

// EffectiveContainerIDs resolves the pattern's container pool against its
// owning post: inherit from the parent when empty. An empty result means
// every container in the budget.
func (ap *AmountPattern) EffectiveContainerIDs(post *BudgetPost) []uuid.UUID {
	if len(ap.ContainerIDs) > 0 {
		return ap.ContainerIDs
	}
	if post == nil {
		return nil
	}
	return post.ContainerIDs
}

// AllowsContainer reports whether a transaction from the given container
// is compatible with the resolved pool. A nil container matches only an
// unrestricted pool.
func (ap *AmountPattern) AllowsContainer(post *BudgetPost, containerID *uuid.UUID) bool {
	pool := ap.EffectiveContainerIDs(post)
	if len(pool) == 0 {
		return true
	}
	if containerID == nil {
		return false
	}
	for _, id := range pool {
		if id == *containerID {
			return true
		}
	}
	return false
}

// String returns a string representation of the AmountPattern
func (ap *AmountPattern) String() string {
	end := "open"
	if ap.EndDate != nil {
		end = FormatDate(*ap.EndDate)
	}
	return fmt.Sprintf("AmountPattern{ID: %s, Amount: %d, Window: %s..%s, %s}",
		ap.ID, ap.Amount, FormatDate(ap.StartDate), end, ap.Rule)
}
