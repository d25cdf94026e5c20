// Package archive turns live budget posts into immutable per-period
// snapshots with their expanded amount occurrences.
package archive

import (
	"context"
	"strings"
	"time"

	"budget-allocation-engine/internal/models"
	"budget-allocation-engine/internal/recurrence"
	"budget-allocation-engine/internal/store"
	"budget-allocation-engine/pkg/errors"
	"budget-allocation-engine/pkg/logger"

	"github.com/google/uuid"
)

// Request identifies one post to archive for one period. Country selects
// the bank-day calendar used during expansion and defaults to DK.
type Request struct {
	BudgetID     uuid.UUID
	Direction    models.Direction
	CategoryPath []string
	Period       models.Period
	Country      string
}

// CategoryKey returns the category path as a single comparable string.
func (r *Request) CategoryKey() string {
	return strings.Join(r.CategoryPath, "/")
}

// Validate performs basic validation on the Request
func (r *Request) Validate() error {
	if r.BudgetID == uuid.Nil {
		return errors.ValidationError(errors.CodeMissingField, "budget_id", "")
	}
	if !r.Direction.IsValid() {
		return errors.ValidationError(errors.CodeInvalidDirection, "direction", string(r.Direction))
	}
	if len(r.CategoryPath) == 0 {
		return errors.ValidationError(errors.CodeMissingField, "category_path", "")
	}
	if err := r.Period.Validate(); err != nil {
		return errors.ValidationError(errors.CodeInvalidPeriod, "period", r.Period.String())
	}
	return nil
}

// Result reports what one archival run produced.
type Result struct {
	Snapshot    *models.ArchivedBudgetPost
	Occurrences []*models.AmountOccurrence
	// Rollover is the unallocated remainder carried in from the previous
	// period. Zero unless the post accumulates.
	Rollover int64
	// Patterns counts the amount patterns that intersected the period.
	Patterns int
}

// Total returns the sum of all occurrence amounts, rollover included.
func (r *Result) Total() int64 {
	var total int64
	for _, occurrence := range r.Occurrences {
		total += occurrence.Amount
	}
	return total
}

// Engine archives budget posts period by period. Archival is idempotent
// at the store level: the snapshot uniqueness constraint admits exactly
// one writer per (budget, direction, category, period), so concurrent
// runs for the same post collapse to one winner and one conflict error.
type Engine struct {
	store    store.Store
	expander *recurrence.Expander
	logger   logger.Logger
	// now is swappable for tests.
	now func() time.Time
}

// NewEngine creates an archival engine on the given store and expander.
func NewEngine(st store.Store, expander *recurrence.Expander, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Engine{
		store:    st,
		expander: expander,
		logger:   log.WithComponent("archive"),
		now:      time.Now,
	}
}

// ArchivePeriod snapshots one active post for one period and materializes
// its occurrences, all inside a single unit of work. Re-archiving the
// same quadruple returns an already_archived conflict and writes nothing.
func (e *Engine) ArchivePeriod(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	country := req.Country
	if country == "" {
		country = "DK"
	}

	log := e.logger.WithFields(logger.Fields{
		"budget_id": req.BudgetID.String(),
		"category":  req.CategoryKey(),
		"period":    req.Period.String(),
	})
	log.Debug("Starting archival")

	var result *Result
	err := e.store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		var txErr error
		result, txErr = e.archiveInTx(ctx, uow, req, country)
		return txErr
	})
	if err != nil {
		if engineErr, ok := errors.AsEngineError(err); ok {
			return nil, engineErr
		}
		return nil, errors.StoreError(errors.CodeTxFailed, "archive period", err)
	}

	log.WithFields(logger.Fields{
		"occurrences": len(result.Occurrences),
		"rollover":    result.Rollover,
	}).Info("Archived budget post")
	return result, nil
}

func (e *Engine) archiveInTx(ctx context.Context, uow store.UnitOfWork, req *Request, country string) (*Result, error) {
	post, err := uow.BudgetPosts().FindActive(ctx, req.BudgetID, req.Direction, req.CategoryKey())
	if err == store.ErrNotFound {
		return nil, errors.StoreError(errors.CodeNotFound, "find budget post", err)
	}
	if err != nil {
		return nil, err
	}

	snapshot := models.SnapshotBudgetPost(post, req.Period, e.now().UTC())
	if err := uow.ArchivedPosts().Create(ctx, snapshot); err != nil {
		if err == store.ErrConflict {
			return nil, errors.AlreadyArchivedError(
				req.BudgetID.String(), req.CategoryKey(), req.Period.Year, int(req.Period.Month))
		}
		return nil, err
	}

	patterns, err := uow.Patterns().ListActiveByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	result := &Result{Snapshot: snapshot}
	periodStart, periodEnd := req.Period.Start(), req.Period.End()
	active := make([]*models.AmountPattern, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern.OverlapsWindow(periodStart, periodEnd) {
			active = append(active, pattern)
		}
	}
	if err := checkPatternCollisions(active, periodStart, periodEnd, post.ID); err != nil {
		return nil, err
	}
	for _, pattern := range active {
		result.Patterns++

		expanded, err := e.expander.Expand(pattern, req.Period, country)
		if err != nil {
			return nil, err
		}
		for _, occ := range expanded {
			result.Occurrences = append(result.Occurrences,
				models.NewAmountOccurrence(snapshot.ID, occ.Date, occ.Amount))
		}
	}

	if post.Accumulate {
		rollover, err := e.previousRemainder(ctx, uow, req)
		if err != nil {
			return nil, err
		}
		result.Rollover = rollover
		if rollover != 0 {
			if len(result.Occurrences) > 0 {
				result.Occurrences[0].Amount += rollover
			} else {
				// Nothing expanded this period; the remainder still has
				// to land somewhere allocatable.
				result.Occurrences = append(result.Occurrences,
					models.NewAmountOccurrence(snapshot.ID, nil, rollover))
			}
		}
	}

	if len(result.Occurrences) > 0 {
		if err := uow.Occurrences().CreateBatch(ctx, result.Occurrences); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// checkPatternCollisions rejects archival when two patterns of the post
// claim the same date inside the period. The collision is reported on
// the first offending date.
func checkPatternCollisions(patterns []*models.AmountPattern, from, to time.Time, postID uuid.UUID) error {
	if len(patterns) < 2 {
		return nil
	}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		var claimant *models.AmountPattern
		for _, pattern := range patterns {
			if !pattern.ClaimsDate(day) {
				continue
			}
			if claimant != nil {
				return errors.OverlappingPatternError(postID.String(),
					models.FormatDate(day), claimant.ID.String(), pattern.ID.String())
			}
			claimant = pattern
		}
	}
	return nil
}

// previousRemainder computes the unallocated remainder of the previous
// period's snapshot: expected total minus allocations against its
// occurrences. A missing previous snapshot carries nothing in.
func (e *Engine) previousRemainder(ctx context.Context, uow store.UnitOfWork, req *Request) (int64, error) {
	prev, err := uow.ArchivedPosts().Find(ctx, req.BudgetID, req.Direction, req.CategoryKey(), req.Period.Prev())
	if err == store.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	occurrences, err := uow.Occurrences().ListByArchivedPost(ctx, prev.ID)
	if err != nil {
		return 0, err
	}
	if len(occurrences) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(occurrences))
	var expected int64
	for i, occurrence := range occurrences {
		ids[i] = occurrence.ID
		expected += occurrence.Amount
	}

	allocated, err := uow.Allocations().SumByOccurrences(ctx, ids)
	if err != nil {
		return 0, err
	}
	var spent int64
	for _, sum := range allocated {
		spent += sum
	}
	return expected - spent, nil
}
