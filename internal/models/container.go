package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ContainerType represents the kind of money pool a container is
type ContainerType string

const (
	// ContainerCashbox is a plain spending pool
	ContainerCashbox ContainerType = "cashbox"
	// ContainerPiggybank is a savings pool that can be locked
	ContainerPiggybank ContainerType = "piggybank"
	// ContainerDebt is a pool tracking owed money
	ContainerDebt ContainerType = "debt"
)

// String returns the string representation of ContainerType
func (t ContainerType) String() string {
	return string(t)
}

// IsValid checks if the container type is valid
func (t ContainerType) IsValid() bool {
	return t == ContainerCashbox || t == ContainerPiggybank || t == ContainerDebt
}

// Container represents an account-like money pool owned by a budget.
type Container struct {
	ID       uuid.UUID     `json:"id"`
	BudgetID uuid.UUID     `json:"budget_id"`
	Name     string        `json:"name"`
	Type     ContainerType `json:"type"`
	// CreditLimit is a signed floor in minor units; negative means the
	// container may go below zero down to the limit. Nil means no limit.
	CreditLimit *int64 `json:"credit_limit,omitempty"`
	// Locked is meaningful only for piggybanks.
	Locked bool `json:"locked"`
}

// Validate performs basic validation on the Container
func (c *Container) Validate() error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("container id cannot be empty")
	}
	if c.BudgetID == uuid.Nil {
		return fmt.Errorf("container budget id cannot be empty")
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid container type: %s", c.Type)
	}
	if c.Locked && c.Type != ContainerPiggybank {
		return fmt.Errorf("locked flag is only meaningful for piggybanks")
	}
	return nil
}
