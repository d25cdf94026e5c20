package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"budget-allocation-engine/internal/models"

	"github.com/google/uuid"
)

// Memory is an in-memory Store enforcing the same uniqueness constraints
// as the Postgres store. Units of work are serialized under one mutex;
// rollback restores the pre-transaction map state.
type Memory struct {
	mu   sync.Mutex
	data memData
}

type memData struct {
	posts        map[uuid.UUID]*models.BudgetPost
	patterns     map[uuid.UUID]*models.AmountPattern
	archived     map[uuid.UUID]*models.ArchivedBudgetPost
	occurrences  map[uuid.UUID]*models.AmountOccurrence
	transactions map[uuid.UUID]*models.Transaction
	allocations  map[uuid.UUID]*models.TransactionAllocation
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: memData{
		posts:        make(map[uuid.UUID]*models.BudgetPost),
		patterns:     make(map[uuid.UUID]*models.AmountPattern),
		archived:     make(map[uuid.UUID]*models.ArchivedBudgetPost),
		occurrences:  make(map[uuid.UUID]*models.AmountOccurrence),
		transactions: make(map[uuid.UUID]*models.Transaction),
		allocations:  make(map[uuid.UUID]*models.TransactionAllocation),
	}}
}

// WithinTx implements Store.
func (m *Memory) WithinTx(ctx context.Context, fn func(UnitOfWork) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := m.data.clone()
	if err := fn(&memUow{data: &m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// Close implements Store.
func (m *Memory) Close() {}

func (d memData) clone() memData {
	out := memData{
		posts:        make(map[uuid.UUID]*models.BudgetPost, len(d.posts)),
		patterns:     make(map[uuid.UUID]*models.AmountPattern, len(d.patterns)),
		archived:     make(map[uuid.UUID]*models.ArchivedBudgetPost, len(d.archived)),
		occurrences:  make(map[uuid.UUID]*models.AmountOccurrence, len(d.occurrences)),
		transactions: make(map[uuid.UUID]*models.Transaction, len(d.transactions)),
		allocations:  make(map[uuid.UUID]*models.TransactionAllocation, len(d.allocations)),
	}
	for k, v := range d.posts {
		out.posts[k] = v
	}
	for k, v := range d.patterns {
		out.patterns[k] = v
	}
	for k, v := range d.archived {
		out.archived[k] = v
	}
	for k, v := range d.occurrences {
		out.occurrences[k] = v
	}
	for k, v := range d.transactions {
		out.transactions[k] = v
	}
	for k, v := range d.allocations {
		out.allocations[k] = v
	}
	return out
}

type memUow struct {
	data *memData
}

// The copy helpers below also duplicate slice fields, so a caller
// mutating a returned value can never scribble on stored state.

func copyPost(post *models.BudgetPost) *models.BudgetPost {
	copied := *post
	copied.CategoryPath = append([]string(nil), post.CategoryPath...)
	copied.ContainerIDs = append([]uuid.UUID(nil), post.ContainerIDs...)
	return &copied
}

func copyPattern(pattern *models.AmountPattern) *models.AmountPattern {
	copied := *pattern
	copied.ContainerIDs = append([]uuid.UUID(nil), pattern.ContainerIDs...)
	return &copied
}

func copyArchived(snapshot *models.ArchivedBudgetPost) *models.ArchivedBudgetPost {
	copied := *snapshot
	copied.CategoryPath = append([]string(nil), snapshot.CategoryPath...)
	return &copied
}

func copyOccurrence(occurrence *models.AmountOccurrence) *models.AmountOccurrence {
	copied := *occurrence
	if occurrence.Date != nil {
		date := *occurrence.Date
		copied.Date = &date
	}
	return &copied
}

func (u *memUow) BudgetPosts() BudgetPostRepository     { return (*memPosts)(u) }
func (u *memUow) Patterns() AmountPatternRepository     { return (*memPatterns)(u) }
func (u *memUow) ArchivedPosts() ArchivedPostRepository { return (*memArchived)(u) }
func (u *memUow) Occurrences() OccurrenceRepository     { return (*memOccurrences)(u) }
func (u *memUow) Transactions() TransactionRepository   { return (*memTransactions)(u) }
func (u *memUow) Allocations() AllocationRepository     { return (*memAllocations)(u) }

// Budget posts

type memPosts memUow

func (r *memPosts) Create(ctx context.Context, post *models.BudgetPost) error {
	if post.IsActive() {
		for _, existing := range r.data.posts {
			if existing.IsActive() &&
				existing.BudgetID == post.BudgetID &&
				existing.Direction == post.Direction &&
				existing.CategoryKey() == post.CategoryKey() {
				return ErrConflict
			}
		}
	}
	r.data.posts[post.ID] = copyPost(post)
	return nil
}

func (r *memPosts) Get(ctx context.Context, id uuid.UUID) (*models.BudgetPost, error) {
	post, ok := r.data.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPost(post), nil
}

func (r *memPosts) FindActive(ctx context.Context, budgetID uuid.UUID, direction models.Direction, categoryKey string) (*models.BudgetPost, error) {
	for _, post := range r.data.posts {
		if post.IsActive() &&
			post.BudgetID == budgetID &&
			post.Direction == direction &&
			post.CategoryKey() == categoryKey {
			return copyPost(post), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memPosts) ListActive(ctx context.Context, budgetID uuid.UUID) ([]*models.BudgetPost, error) {
	var posts []*models.BudgetPost
	for _, post := range r.data.posts {
		if post.IsActive() && post.BudgetID == budgetID {
			posts = append(posts, copyPost(post))
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CategoryKey() < posts[j].CategoryKey() })
	return posts, nil
}

// Amount patterns

type memPatterns memUow

func (r *memPatterns) Create(ctx context.Context, pattern *models.AmountPattern) error {
	r.data.patterns[pattern.ID] = copyPattern(pattern)
	return nil
}

func (r *memPatterns) Get(ctx context.Context, id uuid.UUID) (*models.AmountPattern, error) {
	pattern, ok := r.data.patterns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPattern(pattern), nil
}

func (r *memPatterns) ListActiveByPost(ctx context.Context, postID uuid.UUID) ([]*models.AmountPattern, error) {
	var patterns []*models.AmountPattern
	for _, pattern := range r.data.patterns {
		if pattern.IsActive() && pattern.BudgetPostID == postID {
			patterns = append(patterns, copyPattern(pattern))
		}
	}
	sort.Slice(patterns, func(i, j int) bool {
		if !patterns[i].StartDate.Equal(patterns[j].StartDate) {
			return patterns[i].StartDate.Before(patterns[j].StartDate)
		}
		return patterns[i].ID.String() < patterns[j].ID.String()
	})
	return patterns, nil
}

func (r *memPatterns) ListDatelessByBudget(ctx context.Context, budgetID uuid.UUID) ([]*models.AmountPattern, error) {
	var patterns []*models.AmountPattern
	for _, pattern := range r.data.patterns {
		if !pattern.IsActive() || pattern.Rule.IsDated() {
			continue
		}
		post, ok := r.data.posts[pattern.BudgetPostID]
		if !ok || !post.IsActive() || post.BudgetID != budgetID {
			continue
		}
		patterns = append(patterns, copyPattern(pattern))
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ID.String() < patterns[j].ID.String() })
	return patterns, nil
}

// Archived posts

type memArchived memUow

func (r *memArchived) Create(ctx context.Context, snapshot *models.ArchivedBudgetPost) error {
	for _, existing := range r.data.archived {
		if existing.BudgetID == snapshot.BudgetID &&
			existing.Direction == snapshot.Direction &&
			existing.CategoryKey() == snapshot.CategoryKey() &&
			existing.Period == snapshot.Period {
			return ErrConflict
		}
	}
	r.data.archived[snapshot.ID] = copyArchived(snapshot)
	return nil
}

func (r *memArchived) Find(ctx context.Context, budgetID uuid.UUID, direction models.Direction, categoryKey string, period models.Period) (*models.ArchivedBudgetPost, error) {
	for _, snapshot := range r.data.archived {
		if snapshot.BudgetID == budgetID &&
			snapshot.Direction == direction &&
			snapshot.CategoryKey() == categoryKey &&
			snapshot.Period == period {
			return copyArchived(snapshot), nil
		}
	}
	return nil, ErrNotFound
}

// Occurrences

type memOccurrences memUow

func (r *memOccurrences) CreateBatch(ctx context.Context, occurrences []*models.AmountOccurrence) error {
	for _, occurrence := range occurrences {
		r.data.occurrences[occurrence.ID] = copyOccurrence(occurrence)
	}
	return nil
}

func (r *memOccurrences) ListByArchivedPost(ctx context.Context, archivedPostID uuid.UUID) ([]*models.AmountOccurrence, error) {
	var occurrences []*models.AmountOccurrence
	for _, occurrence := range r.data.occurrences {
		if occurrence.ArchivedPostID == archivedPostID {
			occurrences = append(occurrences, copyOccurrence(occurrence))
		}
	}
	sortOccurrences(occurrences)
	return occurrences, nil
}

func (r *memOccurrences) ListUnallocated(ctx context.Context, budgetID uuid.UUID, direction models.Direction, from, to time.Time) ([]*models.AmountOccurrence, error) {
	allocated := make(map[uuid.UUID]bool)
	for _, allocation := range r.data.allocations {
		if allocation.OccurrenceID != nil {
			allocated[*allocation.OccurrenceID] = true
		}
	}

	var occurrences []*models.AmountOccurrence
	for _, occurrence := range r.data.occurrences {
		if allocated[occurrence.ID] || occurrence.Date == nil {
			continue
		}
		if occurrence.Date.Before(from) || occurrence.Date.After(to) {
			continue
		}
		snapshot, ok := r.data.archived[occurrence.ArchivedPostID]
		if !ok || snapshot.BudgetID != budgetID || snapshot.Direction != direction {
			continue
		}
		occurrences = append(occurrences, copyOccurrence(occurrence))
	}
	sortOccurrences(occurrences)
	return occurrences, nil
}

func sortOccurrences(occurrences []*models.AmountOccurrence) {
	sort.Slice(occurrences, func(i, j int) bool {
		di, dj := occurrences[i].Date, occurrences[j].Date
		switch {
		case di == nil && dj == nil:
			return occurrences[i].ID.String() < occurrences[j].ID.String()
		case di == nil:
			return true
		case dj == nil:
			return false
		case !di.Equal(*dj):
			return di.Before(*dj)
		default:
			return occurrences[i].ID.String() < occurrences[j].ID.String()
		}
	})
}

// Transactions

type memTransactions memUow

func (r *memTransactions) Create(ctx context.Context, tx *models.Transaction) error {
	copied := *tx
	r.data.transactions[tx.ID] = &copied
	return nil
}

func (r *memTransactions) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, ok := r.data.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

// Allocations

type memAllocations memUow

func (r *memAllocations) Create(ctx context.Context, allocation *models.TransactionAllocation) error {
	// Mirrors the exactly-one-target CHECK the Postgres schema carries.
	if err := allocation.Validate(); err != nil {
		return err
	}
	for _, existing := range r.data.allocations {
		if existing.TransactionID == allocation.TransactionID {
			if existing.PatternID != nil && allocation.PatternID != nil && *existing.PatternID == *allocation.PatternID {
				return ErrConflict
			}
			if existing.OccurrenceID != nil && allocation.OccurrenceID != nil && *existing.OccurrenceID == *allocation.OccurrenceID {
				return ErrConflict
			}
		}
		// An occurrence absorbs at most one allocation overall.
		if existing.OccurrenceID != nil && allocation.OccurrenceID != nil && *existing.OccurrenceID == *allocation.OccurrenceID {
			return ErrConflict
		}
	}
	copied := *allocation
	r.data.allocations[allocation.ID] = &copied
	return nil
}

func (r *memAllocations) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.TransactionAllocation, error) {
	var allocations []*models.TransactionAllocation
	for _, allocation := range r.data.allocations {
		if allocation.TransactionID == transactionID {
			copied := *allocation
			allocations = append(allocations, &copied)
		}
	}
	sort.Slice(allocations, func(i, j int) bool { return allocations[i].ID.String() < allocations[j].ID.String() })
	return allocations, nil
}

func (r *memAllocations) SumByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	var total int64
	for _, allocation := range r.data.allocations {
		if allocation.TransactionID == transactionID {
			total += allocation.Amount
		}
	}
	return total, nil
}

func (r *memAllocations) SumByOccurrences(ctx context.Context, occurrenceIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	wanted := make(map[uuid.UUID]bool, len(occurrenceIDs))
	for _, id := range occurrenceIDs {
		wanted[id] = true
	}
	sums := make(map[uuid.UUID]int64)
	for _, allocation := range r.data.allocations {
		if allocation.OccurrenceID != nil && wanted[*allocation.OccurrenceID] {
			sums[*allocation.OccurrenceID] += allocation.Amount
		}
	}
	return sums, nil
}
