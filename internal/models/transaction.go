package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transaction represents a real bank transaction supplied to the engine.
// The engine never decides which transactions exist; it only classifies
// and allocates the ones it is handed.
type Transaction struct {
	ID          uuid.UUID  `json:"id"`
	BudgetID    uuid.UUID  `json:"budget_id"`
	Amount      int64      `json:"amount"`
	Direction   Direction  `json:"direction"`
	Date        time.Time  `json:"date"`
	Description string     `json:"description,omitempty"`
	ContainerID *uuid.UUID `json:"container_id,omitempty"`
}

// NewTransaction creates a new Transaction instance
func NewTransaction(budgetID uuid.UUID, amount int64, direction Direction, date time.Time, description string) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		BudgetID:    budgetID,
		Amount:      amount,
		Direction:   direction,
		Date:        TruncateToDate(date),
		Description: strings.TrimSpace(description),
	}
}

// Validate performs basic validation on the Transaction
func (t *Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("transaction id cannot be empty")
	}
	if t.BudgetID == uuid.Nil {
		return fmt.Errorf("transaction budget id cannot be empty")
	}
	if t.Amount == 0 {
		return fmt.Errorf("transaction amount cannot be zero")
	}
	if !t.Direction.IsValid() {
		return fmt.Errorf("invalid transaction direction: %s", t.Direction)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	return nil
}

// AbsAmount returns the magnitude of the transaction amount.
func (t *Transaction) AbsAmount() int64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Amount: %d, Direction: %s, Date: %s}",
		t.ID, t.Amount, t.Direction, FormatDate(t.Date))
}

// TransactionAllocation links one transaction to exactly one amount
// pattern or exactly one amount occurrence, never both and never neither.
// A transaction may carry several allocations as long as each
// (transaction, target) pair is unique.
type TransactionAllocation struct {
	ID            uuid.UUID  `json:"id"`
	TransactionID uuid.UUID  `json:"transaction_id"`
	PatternID     *uuid.UUID `json:"pattern_id,omitempty"`
	OccurrenceID  *uuid.UUID `json:"occurrence_id,omitempty"`
	Amount        int64      `json:"amount"`
	// IsRemainder marks a catch-all allocation absorbing the gap between
	// expected and actual amount.
	IsRemainder bool `json:"is_remainder"`
}

// NewPatternAllocation creates an allocation targeting an amount pattern
func NewPatternAllocation(transactionID, patternID uuid.UUID, amount int64) *TransactionAllocation {
	return &TransactionAllocation{
		ID:            uuid.New(),
		TransactionID: transactionID,
		PatternID:     &patternID,
		Amount:        amount,
	}
}

// NewOccurrenceAllocation creates an allocation targeting an amount occurrence
func NewOccurrenceAllocation(transactionID, occurrenceID uuid.UUID, amount int64) *TransactionAllocation {
	return &TransactionAllocation{
		ID:            uuid.New(),
		TransactionID: transactionID,
		OccurrenceID:  &occurrenceID,
		Amount:        amount,
	}
}

// Validate enforces the mutual-exclusion invariant: exactly one of
// pattern and occurrence is set.
func (ta *TransactionAllocation) Validate() error {
	if ta.ID == uuid.Nil {
		return fmt.Errorf("allocation id cannot be empty")
	}
	if ta.TransactionID == uuid.Nil {
		return fmt.Errorf("allocation transaction id cannot be empty")
	}
	if ta.PatternID == nil && ta.OccurrenceID == nil {
		return fmt.Errorf("allocation must target a pattern or an occurrence")
	}
	if ta.PatternID != nil && ta.OccurrenceID != nil {
		return fmt.Errorf("allocation cannot target both a pattern and an occurrence")
	}
	if ta.Amount == 0 {
		return fmt.Errorf("allocation amount cannot be zero")
	}
	return nil
}

// Target describes the allocation target for logs and conflict messages.
func (ta *TransactionAllocation) Target() string {
	if ta.OccurrenceID != nil {
		return fmt.Sprintf("occurrence %s", *ta.OccurrenceID)
	}
	if ta.PatternID != nil {
		return fmt.Sprintf("pattern %s", *ta.PatternID)
	}
	return "nothing"
}

// String returns a string representation of the TransactionAllocation
func (ta *TransactionAllocation) String() string {
	return fmt.Sprintf("TransactionAllocation{ID: %s, Transaction: %s, Target: %s, Amount: %d, Remainder: %t}",
		ta.ID, ta.TransactionID, ta.Target(), ta.Amount, ta.IsRemainder)
}
