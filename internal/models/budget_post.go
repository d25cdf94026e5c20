package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Direction represents the cash-flow direction of a budget post
type Direction string

const (
	DirectionIncome   Direction = "income"
	DirectionExpense  Direction = "expense"
	DirectionTransfer Direction = "transfer"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionIncome || d == DirectionExpense || d == DirectionTransfer
}

// ParseDirection parses and validates a direction from string
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "in":
		return DirectionIncome, nil
	case "expense", "out":
		return DirectionExpense, nil
	case "transfer":
		return DirectionTransfer, nil
	default:
		return "", fmt.Errorf("invalid direction %q: must be income, expense or transfer", s)
	}
}

// PostStatus is the explicit lifecycle state of a budget post. Uniqueness
// of (budget, direction, category path) is enforced over active posts only.
type PostStatus string

const (
	PostActive  PostStatus = "active"
	PostDeleted PostStatus = "deleted"
)

// IsValid checks if the post status is valid
func (s PostStatus) IsValid() bool {
	return s == PostActive || s == PostDeleted
}

// BudgetPost represents a live, editable budget line item. A post owns
// zero or more amount patterns describing its expected cash flows.
type BudgetPost struct {
	ID           uuid.UUID `json:"id"`
	BudgetID     uuid.UUID `json:"budget_id"`
	Direction    Direction `json:"direction"`
	CategoryPath []string  `json:"category_path"`
	// ContainerIDs is the pool of containers this post may draw on.
	// Empty means every container in the budget.
	ContainerIDs []uuid.UUID `json:"container_ids,omitempty"`
	Counterparty string      `json:"counterparty,omitempty"`
	// Transfer endpoints, set exactly when Direction is transfer.
	TransferFrom *uuid.UUID `json:"transfer_from,omitempty"`
	TransferTo   *uuid.UUID `json:"transfer_to,omitempty"`
	// Accumulate folds unspent amounts into the next period at archival.
	Accumulate bool       `json:"accumulate"`
	Status     PostStatus `json:"status"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// NewBudgetPost creates an active BudgetPost with a fresh identifier
func NewBudgetPost(budgetID uuid.UUID, direction Direction, categoryPath []string) *BudgetPost {
	return &BudgetPost{
		ID:           uuid.New(),
		BudgetID:     budgetID,
		Direction:    direction,
		CategoryPath: categoryPath,
		Status:       PostActive,
	}
}

// Validate performs basic validation on the BudgetPost
func (bp *BudgetPost) Validate() error {
	if bp.ID == uuid.Nil {
		return fmt.Errorf("budget post id cannot be empty")
	}
	if bp.BudgetID == uuid.Nil {
		return fmt.Errorf("budget post budget id cannot be empty")
	}
	if !bp.Direction.IsValid() {
		return fmt.Errorf("invalid direction: %s", bp.Direction)
	}
	if len(bp.CategoryPath) == 0 {
		return fmt.Errorf("category path cannot be empty")
	}
	for i, segment := range bp.CategoryPath {
		if strings.TrimSpace(segment) == "" {
			return fmt.Errorf("category path segment %d cannot be empty", i)
		}
	}
	if !bp.Status.IsValid() {
		return fmt.Errorf("invalid post status: %s", bp.Status)
	}

	if bp.Direction == DirectionTransfer {
		if bp.TransferFrom == nil || bp.TransferTo == nil {
			return fmt.Errorf("transfer posts require both transfer endpoints")
		}
	} else if bp.TransferFrom != nil || bp.TransferTo != nil {
		return fmt.Errorf("transfer endpoints are only valid for transfer posts")
	}

	switch bp.Status {
	case PostDeleted:
		if bp.DeletedAt == nil {
			return fmt.Errorf("deleted posts must carry a deletion timestamp")
		}
	case PostActive:
		if bp.DeletedAt != nil {
			return fmt.Errorf("active posts must not carry a deletion timestamp")
		}
	}

	return nil
}

// IsActive reports whether the post participates in archival and matching
func (bp *BudgetPost) IsActive() bool {
	return bp.Status == PostActive
}

// MarkDeleted transitions the post to the deleted state
func (bp *BudgetPost) MarkDeleted(at time.Time) {
	bp.Status = PostDeleted
	bp.DeletedAt = &at
}

// CategoryKey returns the category path as a single comparable string.
func (bp *BudgetPost) CategoryKey() string {
	return strings.Join(bp.CategoryPath, "/")
}

// String returns a string representation of the BudgetPost
func (bp *BudgetPost) String() string {
	return fmt.Sprintf("BudgetPost{ID: %s, Direction: %s, Category: %s}",
		bp.ID, bp.Direction, bp.CategoryKey())
}
