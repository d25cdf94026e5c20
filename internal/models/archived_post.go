package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArchivedBudgetPost is an immutable snapshot of a budget post's shape for
// one accounting period. It is created exactly once per
// (budget, direction, category path, period); the uniqueness constraint on
// that quadruple doubles as the archival mutual-exclusion gate.
type ArchivedBudgetPost struct {
	ID       uuid.UUID `json:"id"`
	BudgetID uuid.UUID `json:"budget_id"`
	// BudgetPostID is nullable so the snapshot survives deletion of the
	// live post.
	BudgetPostID *uuid.UUID `json:"budget_post_id,omitempty"`
	Direction    Direction  `json:"direction"`
	CategoryPath []string   `json:"category_path"`
	Counterparty string     `json:"counterparty,omitempty"`
	Accumulate   bool       `json:"accumulate"`
	Period       Period     `json:"period"`
	ArchivedAt   time.Time  `json:"archived_at"`
}

// SnapshotBudgetPost copies a live post's descriptive attributes into a
// fresh snapshot for the given period.
func SnapshotBudgetPost(post *BudgetPost, period Period, archivedAt time.Time) *ArchivedBudgetPost {
	postID := post.ID
	return &ArchivedBudgetPost{
		ID:           uuid.New(),
		BudgetID:     post.BudgetID,
		BudgetPostID: &postID,
		Direction:    post.Direction,
		CategoryPath: append([]string(nil), post.CategoryPath...),
		Counterparty: post.Counterparty,
		Accumulate:   post.Accumulate,
		Period:       period,
		ArchivedAt:   archivedAt,
	}
}

// Validate performs basic validation on the ArchivedBudgetPost
func (abp *ArchivedBudgetPost) Validate() error {
	if abp.ID == uuid.Nil {
		return fmt.Errorf("archived post id cannot be empty")
	}
	if abp.BudgetID == uuid.Nil {
		return fmt.Errorf("archived post budget id cannot be empty")
	}
	if !abp.Direction.IsValid() {
		return fmt.Errorf("invalid direction: %s", abp.Direction)
	}
	if len(abp.CategoryPath) == 0 {
		return fmt.Errorf("category path cannot be empty")
	}
	if err := abp.Period.Validate(); err != nil {
		return err
	}
	return nil
}

// CategoryKey returns the category path as a single comparable string.
func (abp *ArchivedBudgetPost) CategoryKey() string {
	return strings.Join(abp.CategoryPath, "/")
}

// String returns a string representation of the ArchivedBudgetPost
func (abp *ArchivedBudgetPost) String() string {
	return fmt.Sprintf("ArchivedBudgetPost{ID: %s, Category: %s, Period: %s}",
		abp.ID, abp.CategoryKey(), abp.Period)
}

// AmountOccurrence is one concrete expected cash-flow event belonging to
// exactly one archived post. Occurrences are bulk-created at archival and
// immutable afterwards; they disappear only with their snapshot.
type AmountOccurrence struct {
	ID             uuid.UUID `json:"id"`
	ArchivedPostID uuid.UUID `json:"archived_post_id"`
	// Date is nil only for "any time in period" patterns.
	Date   *time.Time `json:"date,omitempty"`
	Amount int64      `json:"amount"`
}

// NewAmountOccurrence creates an occurrence for an archived post
func NewAmountOccurrence(archivedPostID uuid.UUID, date *time.Time, amount int64) *AmountOccurrence {
	var d *time.Time
	if date != nil {
		t := TruncateToDate(*date)
		d = &t
	}
	return &AmountOccurrence{
		ID:             uuid.New(),
		ArchivedPostID: archivedPostID,
		Date:           d,
		Amount:         amount,
	}
}

// Validate performs basic validation on the AmountOccurrence
func (ao *AmountOccurrence) Validate() error {
	if ao.ID == uuid.Nil {
		return fmt.Errorf("occurrence id cannot be empty")
	}
	if ao.ArchivedPostID == uuid.Nil {
		return fmt.Errorf("occurrence archived post id cannot be empty")
	}
	if ao.Amount == 0 {
		return fmt.Errorf("occurrence amount cannot be zero")
	}
	return nil
}

// String returns a string representation of the AmountOccurrence
func (ao *AmountOccurrence) String() string {
	date := "any"
	if ao.Date != nil {
		date = FormatDate(*ao.Date)
	}
	return fmt.Sprintf("AmountOccurrence{ID: %s, Date: %s, Amount: %d}", ao.ID, date, ao.Amount)
}
