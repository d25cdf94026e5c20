// Package store defines the engine's persistence contract: a request-scoped
// atomic unit of work over typed repositories.
//
// Two implementations are provided: a Postgres store on pgx for production
// and an in-memory store for tests and dry runs. Both enforce the same
// uniqueness constraints; engines translate the sentinel errors below into
// the caller-facing taxonomy.
package store

import (
	"context"
	"errors"
	"time"

	"budget-allocation-engine/internal/models"

	"github.com/google/uuid"
)

// Sentinel errors at the store boundary.
var (
	// ErrConflict signals a uniqueness violation. It is the
	// mutual-exclusion gate for concurrent archival and allocation.
	ErrConflict = errors.New("store: uniqueness conflict")
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("store: not found")
)

// Store opens atomic units of work.
type Store interface {
	// WithinTx runs fn inside one unit of work. The unit commits when fn
	// returns nil and rolls back on every other exit path.
	WithinTx(ctx context.Context, fn func(UnitOfWork) error) error
	Close()
}

// UnitOfWork exposes the repositories bound to one transaction.
type UnitOfWork interface {
	BudgetPosts() BudgetPostRepository
	Patterns() AmountPatternRepository
	ArchivedPosts() ArchivedPostRepository
	Occurrences() OccurrenceRepository
	Transactions() TransactionRepository
	Allocations() AllocationRepository
}

// BudgetPostRepository owns live budget posts.
type BudgetPostRepository interface {
	Create(ctx context.Context, post *models.BudgetPost) error
	Get(ctx context.Context, id uuid.UUID) (*models.BudgetPost, error)
	// FindActive locates the single active post for a category path and
	// direction within a budget. ErrNotFound when absent.
	FindActive(ctx context.Context, budgetID uuid.UUID, direction models.Direction, categoryKey string) (*models.BudgetPost, error)
	ListActive(ctx context.Context, budgetID uuid.UUID) ([]*models.BudgetPost, error)
}

// AmountPatternRepository owns amount patterns.
type AmountPatternRepository interface {
	Create(ctx context.Context, pattern *models.AmountPattern) error
	Get(ctx context.Context, id uuid.UUID) (*models.AmountPattern, error)
	// ListActiveByPost returns the post's active patterns ordered by
	// start date.
	ListActiveByPost(ctx context.Context, postID uuid.UUID) ([]*models.AmountPattern, error)
	// ListDatelessByBudget returns active frequency-none patterns across
	// a budget's active posts; the matcher's fallback bucket.
	ListDatelessByBudget(ctx context.Context, budgetID uuid.UUID) ([]*models.AmountPattern, error)
}

// ArchivedPostRepository owns per-period snapshots.
type ArchivedPostRepository interface {
	// Create persists a snapshot. ErrConflict when the
	// (budget, direction, category path, period) quadruple exists.
	Create(ctx context.Context, snapshot *models.ArchivedBudgetPost) error
	Find(ctx context.Context, budgetID uuid.UUID, direction models.Direction, categoryKey string, period models.Period) (*models.ArchivedBudgetPost, error)
}

// OccurrenceRepository owns expanded amount occurrences.
type OccurrenceRepository interface {
	CreateBatch(ctx context.Context, occurrences []*models.AmountOccurrence) error
	ListByArchivedPost(ctx context.Context, archivedPostID uuid.UUID) ([]*models.AmountOccurrence, error)
	// ListUnallocated returns occurrences in a budget with no allocation,
	// dated within [from, to], ordered by date.
	ListUnallocated(ctx context.Context, budgetID uuid.UUID, direction models.Direction, from, to time.Time) ([]*models.AmountOccurrence, error)
}

// TransactionRepository owns ingested transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
}

// AllocationRepository owns transaction allocations.
type AllocationRepository interface {
	// Create persists an allocation. ErrConflict when the
	// (transaction, pattern) or (transaction, occurrence) pair exists,
	// or when the occurrence already carries an allocation.
	Create(ctx context.Context, allocation *models.TransactionAllocation) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.TransactionAllocation, error)
	// SumByTransaction returns the total already-allocated minor units.
	SumByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error)
	// SumByOccurrences returns allocated minor units per occurrence.
	SumByOccurrences(ctx context.Context, occurrenceIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}
