// Package allocation matches bank transactions against archived amount
// occurrences and dateless fallback patterns.
package allocation

import (
	"context"
	"sort"
	"time"

	"budget-allocation-engine/internal/models"
	"budget-allocation-engine/internal/store"
	"budget-allocation-engine/pkg/errors"
	"budget-allocation-engine/pkg/logger"

	"github.com/google/uuid"
)

// Outcome classifies how one allocation attempt ended.
type Outcome string

const (
	OutcomeMatchedOccurrence Outcome = "matched_occurrence"
	OutcomeMatchedPattern    Outcome = "matched_pattern"
	OutcomeUnallocated       Outcome = "unallocated"
)

// Result reports how a transaction was allocated. An unallocated result
// is an answer, not an error.
type Result struct {
	Transaction *models.Transaction           `json:"transaction"`
	Outcome     Outcome                       `json:"outcome"`
	Allocation  *models.TransactionAllocation `json:"allocation,omitempty"`
	// Candidates counts how many targets were considered.
	Candidates int `json:"candidates"`
}

// Matcher allocates transactions against a budget's expected cash flows.
// It is stateless over the store: every candidate attempt is its own unit
// of work, so a writer that loses an occurrence to a concurrent matcher
// simply moves on to the next candidate.
type Matcher struct {
	store  store.Store
	config *Config
	logger logger.Logger
}

// NewMatcher creates a matcher with the given configuration. A nil config
// gets the defaults.
func NewMatcher(st store.Store, config *Config, log logger.Logger) (*Matcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.WrapIfNeeded(err, errors.CategoryValidation, errors.CodeMissingField,
			"invalid matcher configuration")
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Matcher{
		store:  st,
		config: config,
		logger: log.WithComponent("allocation"),
	}, nil
}

// Allocate finds exactly one target for the given amount of a transaction.
// Priority order: an unallocated occurrence with the exact amount inside
// the date tolerance window, then a direction- and container-compatible
// dateless pattern, then unallocated.
func (m *Matcher) Allocate(ctx context.Context, tx *models.Transaction, amount int64) (*Result, error) {
	if err := tx.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidAmount, "transaction", err.Error())
	}
	if amount <= 0 {
		return nil, errors.ValidationError(errors.CodeInvalidAmount, "amount", amount)
	}

	log := m.logger.WithFields(logger.Fields{
		"transaction_id": tx.ID.String(),
		"amount":         amount,
	})

	if err := m.ensureTransaction(ctx, tx); err != nil {
		return nil, err
	}

	occurrences, patterns, posts, err := m.loadCandidates(ctx, tx, amount)
	if err != nil {
		return nil, err
	}

	result := &Result{Transaction: tx, Outcome: OutcomeUnallocated}
	for _, occurrence := range occurrences {
		if result.Candidates >= m.config.MaxCandidates {
			break
		}
		result.Candidates++

		allocation := models.NewOccurrenceAllocation(tx.ID, occurrence.ID, amount)
		err := m.persist(ctx, tx, allocation)
		if err == store.ErrConflict {
			// Lost the occurrence to a concurrent writer; try the next one.
			log.WithField("occurrence_id", occurrence.ID.String()).
				Debug("Occurrence taken, trying next candidate")
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Outcome = OutcomeMatchedOccurrence
		result.Allocation = allocation
		log.WithField("occurrence_id", occurrence.ID.String()).Info("Allocated to occurrence")
		return result, nil
	}

	for _, pattern := range patterns {
		if result.Candidates >= m.config.MaxCandidates {
			break
		}
		post, ok := posts[pattern.BudgetPostID]
		if !ok || post.Direction != tx.Direction {
			continue
		}
		if !pattern.AllowsContainer(post, tx.ContainerID) {
			continue
		}
		result.Candidates++

		allocation := models.NewPatternAllocation(tx.ID, pattern.ID, amount)
		// The fallback bucket absorbs whatever the dated expectations did
		// not cover.
		allocation.IsRemainder = amount != pattern.Amount
		err := m.persist(ctx, tx, allocation)
		if err == store.ErrConflict {
			log.WithField("pattern_id", pattern.ID.String()).
				Debug("Pattern already allocated for this transaction, trying next")
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Outcome = OutcomeMatchedPattern
		result.Allocation = allocation
		log.WithField("pattern_id", pattern.ID.String()).Info("Allocated to fallback pattern")
		return result, nil
	}

	log.Debug("No allocation target found")
	return result, nil
}

// AllocateRemainder records an explicit catch-all allocation against a
// dateless pattern, bypassing candidate search but not the guards.
func (m *Matcher) AllocateRemainder(ctx context.Context, tx *models.Transaction, patternID uuid.UUID, amount int64) (*models.TransactionAllocation, error) {
	if amount <= 0 {
		return nil, errors.ValidationError(errors.CodeInvalidAmount, "amount", amount)
	}
	if err := m.ensureTransaction(ctx, tx); err != nil {
		return nil, err
	}

	allocation := models.NewPatternAllocation(tx.ID, patternID, amount)
	allocation.IsRemainder = true
	err := m.persist(ctx, tx, allocation)
	if err == store.ErrConflict {
		return nil, errors.DuplicateAllocationError(tx.ID.String(), allocation.Target())
	}
	if err != nil {
		return nil, err
	}
	return allocation, nil
}

// ensureTransaction persists the transaction if the store does not hold
// it yet.
func (m *Matcher) ensureTransaction(ctx context.Context, tx *models.Transaction) error {
	return m.store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		_, err := uow.Transactions().Get(ctx, tx.ID)
		if err == store.ErrNotFound {
			return uow.Transactions().Create(ctx, tx)
		}
		return err
	})
}

// loadCandidates reads the ranked occurrence candidates and the dateless
// fallback patterns in one consistent snapshot.
func (m *Matcher) loadCandidates(ctx context.Context, tx *models.Transaction, amount int64) ([]*models.AmountOccurrence, []*models.AmountPattern, map[uuid.UUID]*models.BudgetPost, error) {
	var (
		occurrences []*models.AmountOccurrence
		patterns    []*models.AmountPattern
		posts       map[uuid.UUID]*models.BudgetPost
	)
	err := m.store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		from := tx.Date.AddDate(0, 0, -m.config.DateToleranceDays)
		to := tx.Date.AddDate(0, 0, m.config.DateToleranceDays)
		all, err := uow.Occurrences().ListUnallocated(ctx, tx.BudgetID, tx.Direction, from, to)
		if err != nil {
			return err
		}
		for _, occurrence := range all {
			if occurrence.Amount == amount {
				occurrences = append(occurrences, occurrence)
			}
		}

		if patterns, err = uow.Patterns().ListDatelessByBudget(ctx, tx.BudgetID); err != nil {
			return err
		}
		posts = make(map[uuid.UUID]*models.BudgetPost, len(patterns))
		for _, pattern := range patterns {
			if _, ok := posts[pattern.BudgetPostID]; ok {
				continue
			}
			post, err := uow.BudgetPosts().Get(ctx, pattern.BudgetPostID)
			if err == store.ErrNotFound {
				continue
			}
			if err != nil {
				return err
			}
			posts[pattern.BudgetPostID] = post
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	rankOccurrences(occurrences, tx.Date)
	return occurrences, patterns, posts, nil
}

// persist writes one allocation inside its own unit of work, running the
// over-allocation guard first. store.ErrConflict passes through untouched
// so the caller can move to the next candidate.
func (m *Matcher) persist(ctx context.Context, tx *models.Transaction, allocation *models.TransactionAllocation) error {
	return m.store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		allocated, err := uow.Allocations().SumByTransaction(ctx, tx.ID)
		if err != nil {
			return err
		}
		if allocated+allocation.Amount > tx.AbsAmount() {
			return errors.OverAllocationError(tx.ID.String(), allocated, allocation.Amount, tx.AbsAmount())
		}
		return uow.Allocations().Create(ctx, allocation)
	})
}

// rankOccurrences orders candidates by distance from the transaction
// date, then by earlier date, then by ID for determinism.
func rankOccurrences(occurrences []*models.AmountOccurrence, txDate time.Time) {
	distance := func(occurrence *models.AmountOccurrence) int {
		d := int(occurrence.Date.Sub(txDate).Hours() / 24)
		if d < 0 {
			return -d
		}
		return d
	}
	sort.SliceStable(occurrences, func(i, j int) bool {
		di, dj := distance(occurrences[i]), distance(occurrences[j])
		if di != dj {
			return di < dj
		}
		if !occurrences[i].Date.Equal(*occurrences[j].Date) {
			return occurrences[i].Date.Before(*occurrences[j].Date)
		}
		return occurrences[i].ID.String() < occurrences[j].ID.String()
	})
}
