package allocation

import (
	"context"
	"testing"
	"time"

	"budget-allocation-engine/internal/models"
	"budget-allocation-engine/internal/store"
	"budget-allocation-engine/pkg/errors"

	"github.com/google/uuid"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"strict config", StrictConfig(), false},
		{"negative tolerance", &Config{DateToleranceDays: -1, MaxCandidates: 10}, true},
		{"zero candidates", &Config{DateToleranceDays: 3, MaxCandidates: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type fixture struct {
	store    *store.Memory
	matcher  *Matcher
	budgetID uuid.UUID
}

func newFixture(t *testing.T, config *Config) *fixture {
	t.Helper()
	st := store.NewMemory()
	matcher, err := NewMatcher(st, config, nil)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}
	return &fixture{store: st, matcher: matcher, budgetID: uuid.New()}
}

// seedOccurrence archives a minimal snapshot holding one dated occurrence.
func (f *fixture) seedOccurrence(t *testing.T, category string, direction models.Direction, date time.Time, amount int64) *models.AmountOccurrence {
	t.Helper()
	snapshot := &models.ArchivedBudgetPost{
		ID:           uuid.New(),
		BudgetID:     f.budgetID,
		Direction:    direction,
		CategoryPath: []string{category},
		Period:       models.NewPeriod(date.Year(), date.Month()),
		ArchivedAt:   date,
	}
	occurrence := models.NewAmountOccurrence(snapshot.ID, &date, amount)
	err := f.store.WithinTx(context.Background(), func(uow store.UnitOfWork) error {
		if err := uow.ArchivedPosts().Create(context.Background(), snapshot); err != nil {
			return err
		}
		return uow.Occurrences().CreateBatch(context.Background(), []*models.AmountOccurrence{occurrence})
	})
	if err != nil {
		t.Fatalf("Failed to seed occurrence: %v", err)
	}
	return occurrence
}

// seedDatelessPattern creates an active post with a frequency-none pattern.
func (f *fixture) seedDatelessPattern(t *testing.T, category string, direction models.Direction, amount int64) *models.AmountPattern {
	t.Helper()
	post := models.NewBudgetPost(f.budgetID, direction, []string{category})
	pattern := models.NewAmountPattern(post.ID, amount,
		models.NewDate(2026, time.January, 1),
		models.RecurrenceRule{Frequency: models.FrequencyNone, Interval: 1, BankDayAdjustment: models.AdjustNone})
	err := f.store.WithinTx(context.Background(), func(uow store.UnitOfWork) error {
		if err := uow.BudgetPosts().Create(context.Background(), post); err != nil {
			return err
		}
		return uow.Patterns().Create(context.Background(), pattern)
	})
	if err != nil {
		t.Fatalf("Failed to seed dateless pattern: %v", err)
	}
	return pattern
}

func TestAllocateExactOccurrenceMatch(t *testing.T) {
	f := newFixture(t, nil)
	txDate := models.NewDate(2026, time.February, 2)

	far := f.seedOccurrence(t, "rent", models.DirectionExpense, models.NewDate(2026, time.February, 5), 850000)
	near := f.seedOccurrence(t, "rent2", models.DirectionExpense, models.NewDate(2026, time.February, 1), 850000)
	_ = far

	tx := models.NewTransaction(f.budgetID, 850000, models.DirectionExpense, txDate, "rent feb")
	result, err := f.matcher.Allocate(context.Background(), tx, 850000)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if result.Outcome != OutcomeMatchedOccurrence {
		t.Fatalf("Expected matched_occurrence, got %s", result.Outcome)
	}
	if result.Allocation.OccurrenceID == nil || *result.Allocation.OccurrenceID != near.ID {
		t.Errorf("Expected the closest-dated occurrence %s to win, got %v", near.ID, result.Allocation.OccurrenceID)
	}
}

func TestAllocateTieBreaksOnEarlierDate(t *testing.T) {
	f := newFixture(t, nil)
	txDate := models.NewDate(2026, time.February, 10)

	earlier := f.seedOccurrence(t, "a", models.DirectionExpense, models.NewDate(2026, time.February, 8), 10000)
	f.seedOccurrence(t, "b", models.DirectionExpense, models.NewDate(2026, time.February, 12), 10000)

	tx := models.NewTransaction(f.budgetID, 10000, models.DirectionExpense, txDate, "tie")
	result, err := f.matcher.Allocate(context.Background(), tx, 10000)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if result.Allocation.OccurrenceID == nil || *result.Allocation.OccurrenceID != earlier.ID {
		t.Errorf("Equidistant candidates should break toward the earlier date")
	}
}

func TestAllocateIgnoresOccurrencesOutsideTolerance(t *testing.T) {
	f := newFixture(t, &Config{DateToleranceDays: 3, MaxCandidates: 10})
	f.seedOccurrence(t, "rent", models.DirectionExpense, models.NewDate(2026, time.February, 10), 850000)

	tx := models.NewTransaction(f.budgetID, 850000, models.DirectionExpense,
		models.NewDate(2026, time.February, 1), "too early")
	result, err := f.matcher.Allocate(context.Background(), tx, 850000)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if result.Outcome != OutcomeUnallocated {
		t.Errorf("Occurrence 9 days away must not match with tolerance 3, got %s", result.Outcome)
	}
}

func TestAllocateFallsBackToDatelessPattern(t *testing.T) {
	f := newFixture(t, nil)
	// Amount differs from every occurrence, so only the fallback fits.
	f.seedOccurrence(t, "rent", models.DirectionExpense, models.NewDate(2026, time.February, 2), 850000)
	pattern := f.seedDatelessPattern(t, "groceries", models.DirectionExpense, 400000)
	f.seedDatelessPattern(t, "salary", models.DirectionIncome, 3200000)

	tx := models.NewTransaction(f.budgetID, 31250, models.DirectionExpense,
		models.NewDate(2026, time.February, 2), "supermarket")
	result, err := f.matcher.Allocate(context.Background(), tx, 31250)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if result.Outcome != OutcomeMatchedPattern {
		t.Fatalf("Expected matched_pattern, got %s", result.Outcome)
	}
	if result.Allocation.PatternID == nil || *result.Allocation.PatternID != pattern.ID {
		t.Errorf("Expected direction-compatible pattern %s, got %v", pattern.ID, result.Allocation.PatternID)
	}
	if !result.Allocation.IsRemainder {
		t.Errorf("Partial fallback allocations should carry the remainder flag")
	}
}

func TestAllocateRespectsContainerPool(t *testing.T) {
	f := newFixture(t, nil)
	allowed := uuid.New()
	other := uuid.New()

	post := models.NewBudgetPost(f.budgetID, models.DirectionExpense, []string{"restricted"})
	pattern := models.NewAmountPattern(post.ID, 100000,
		models.NewDate(2026, time.January, 1),
		models.RecurrenceRule{Frequency: models.FrequencyNone, Interval: 1, BankDayAdjustment: models.AdjustNone})
	pattern.ContainerIDs = []uuid.UUID{allowed}
	err := f.store.WithinTx(context.Background(), func(uow store.UnitOfWork) error {
		if err := uow.BudgetPosts().Create(context.Background(), post); err != nil {
			return err
		}
		return uow.Patterns().Create(context.Background(), pattern)
	})
	if err != nil {
		t.Fatalf("Failed to seed restricted pattern: %v", err)
	}

	tx := models.NewTransaction(f.budgetID, 5000, models.DirectionExpense,
		models.NewDate(2026, time.February, 2), "wrong container")
	tx.ContainerID = &other
	result, err := f.matcher.Allocate(context.Background(), tx, 5000)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if result.Outcome != OutcomeUnallocated {
		t.Errorf("Pattern outside the container pool must not match, got %s", result.Outcome)
	}

	tx2 := models.NewTransaction(f.budgetID, 5000, models.DirectionExpense,
		models.NewDate(2026, time.February, 2), "right container")
	tx2.ContainerID = &allowed
	result2, err := f.matcher.Allocate(context.Background(), tx2, 5000)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if result2.Outcome != OutcomeMatchedPattern {
		t.Errorf("Pattern inside the container pool should match, got %s", result2.Outcome)
	}
}

func TestAllocateSkipsTakenOccurrence(t *testing.T) {
	f := newFixture(t, nil)
	date := models.NewDate(2026, time.February, 2)
	taken := f.seedOccurrence(t, "a", models.DirectionExpense, date, 10000)
	free := f.seedOccurrence(t, "b", models.DirectionExpense, date.AddDate(0, 0, 1), 10000)

	first := models.NewTransaction(f.budgetID, 10000, models.DirectionExpense, date, "first")
	if _, err := f.matcher.Allocate(context.Background(), first, 10000); err != nil {
		t.Fatalf("First allocation failed: %v", err)
	}

	second := models.NewTransaction(f.budgetID, 10000, models.DirectionExpense, date, "second")
	result, err := f.matcher.Allocate(context.Background(), second, 10000)
	if err != nil {
		t.Fatalf("Second allocation failed: %v", err)
	}
	if result.Outcome != OutcomeMatchedOccurrence {
		t.Fatalf("Expected the free occurrence to match, got %s", result.Outcome)
	}
	if result.Allocation.OccurrenceID == nil || *result.Allocation.OccurrenceID != free.ID {
		t.Errorf("Expected %s (the unallocated occurrence), got %v; taken was %s",
			free.ID, result.Allocation.OccurrenceID, taken.ID)
	}
}

func TestAllocateOverAllocationGuard(t *testing.T) {
	f := newFixture(t, nil)
	f.seedDatelessPattern(t, "groceries", models.DirectionExpense, 400000)
	f.seedDatelessPattern(t, "household", models.DirectionExpense, 200000)

	tx := models.NewTransaction(f.budgetID, 30000, models.DirectionExpense,
		models.NewDate(2026, time.February, 2), "split")
	if _, err := f.matcher.Allocate(context.Background(), tx, 30000); err != nil {
		t.Fatalf("First allocation failed: %v", err)
	}

	// The transaction is fully allocated; one more øre must be refused.
	_, err := f.matcher.Allocate(context.Background(), tx, 1)
	if !errors.IsCode(err, errors.CodeOverAllocation) {
		t.Fatalf("Expected over_allocation, got %v", err)
	}
}

func TestAllocateUnallocatedIsNotAnError(t *testing.T) {
	f := newFixture(t, nil)

	tx := models.NewTransaction(f.budgetID, 9999, models.DirectionExpense,
		models.NewDate(2026, time.February, 2), "mystery charge")
	result, err := f.matcher.Allocate(context.Background(), tx, 9999)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if result.Outcome != OutcomeUnallocated {
		t.Errorf("Expected unallocated, got %s", result.Outcome)
	}
	if result.Allocation != nil {
		t.Errorf("Unallocated results must not carry an allocation")
	}
}

func TestAllocateRemainderDuplicate(t *testing.T) {
	f := newFixture(t, nil)
	pattern := f.seedDatelessPattern(t, "misc", models.DirectionExpense, 100000)

	tx := models.NewTransaction(f.budgetID, 20000, models.DirectionExpense,
		models.NewDate(2026, time.February, 2), "misc")
	allocation, err := f.matcher.AllocateRemainder(context.Background(), tx, pattern.ID, 10000)
	if err != nil {
		t.Fatalf("AllocateRemainder failed: %v", err)
	}
	if !allocation.IsRemainder {
		t.Errorf("Remainder allocations must be flagged")
	}

	_, err = f.matcher.AllocateRemainder(context.Background(), tx, pattern.ID, 5000)
	if !errors.IsCode(err, errors.CodeDuplicateAllocation) {
		t.Fatalf("Expected duplicate_allocation for the same pattern pair, got %v", err)
	}
}
