package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"budget-allocation-engine/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE pgx reports for uniqueness conflicts.
const uniqueViolation = "23505"

// Postgres is the production Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and verifies the connection.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// WithinTx implements Store.
func (p *Postgres) WithinTx(ctx context.Context, fn func(UnitOfWork) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgUow{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Close implements Store.
func (p *Postgres) Close() {
	p.pool.Close()
}

// EnsureSchema creates the engine's tables and constraints when missing.
// The filtered unique index over active posts and the allocation pair
// indexes are the constraints the engines rely on for serialization.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaDDL)
	return err
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS budget_posts (
	id            uuid PRIMARY KEY,
	budget_id     uuid NOT NULL,
	direction     text NOT NULL,
	category_path text NOT NULL,
	container_ids uuid[] NOT NULL DEFAULT '{}',
	counterparty  text NOT NULL DEFAULT '',
	transfer_from uuid,
	transfer_to   uuid,
	accumulate    boolean NOT NULL DEFAULT false,
	status        text NOT NULL,
	deleted_at    timestamptz
);
CREATE UNIQUE INDEX IF NOT EXISTS budget_posts_active_category
	ON budget_posts (budget_id, direction, category_path)
	WHERE status = 'active';

CREATE TABLE IF NOT EXISTS amount_patterns (
	id             uuid PRIMARY KEY,
	budget_post_id uuid NOT NULL REFERENCES budget_posts (id) ON DELETE CASCADE,
	amount         bigint NOT NULL,
	start_date     date NOT NULL,
	end_date       date,
	rule           jsonb NOT NULL,
	container_ids  uuid[] NOT NULL DEFAULT '{}',
	status         text NOT NULL,
	deleted_at     timestamptz
);

CREATE TABLE IF NOT EXISTS archived_budget_posts (
	id             uuid PRIMARY KEY,
	budget_id      uuid NOT NULL,
	budget_post_id uuid,
	direction      text NOT NULL,
	category_path  text NOT NULL,
	counterparty   text NOT NULL DEFAULT '',
	accumulate     boolean NOT NULL DEFAULT false,
	period_year    int NOT NULL,
	period_month   int NOT NULL,
	archived_at    timestamptz NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS archived_posts_period
	ON archived_budget_posts (budget_id, direction, category_path, period_year, period_month);

CREATE TABLE IF NOT EXISTS amount_occurrences (
	id               uuid PRIMARY KEY,
	archived_post_id uuid NOT NULL REFERENCES archived_budget_posts (id) ON DELETE CASCADE,
	occurs_on        date,
	amount           bigint NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id           uuid PRIMARY KEY,
	budget_id    uuid NOT NULL,
	amount       bigint NOT NULL,
	direction    text NOT NULL,
	occurred_on  date NOT NULL,
	description  text NOT NULL DEFAULT '',
	container_id uuid
);

CREATE TABLE IF NOT EXISTS transaction_allocations (
	id             uuid PRIMARY KEY,
	transaction_id uuid NOT NULL,
	pattern_id     uuid,
	occurrence_id  uuid,
	amount         bigint NOT NULL,
	is_remainder   boolean NOT NULL DEFAULT false,
	CHECK ((pattern_id IS NULL) <> (occurrence_id IS NULL))
);
CREATE UNIQUE INDEX IF NOT EXISTS allocations_tx_pattern
	ON transaction_allocations (transaction_id, pattern_id)
	WHERE pattern_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS allocations_tx_occurrence
	ON transaction_allocations (transaction_id, occurrence_id)
	WHERE occurrence_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS allocations_occurrence
	ON transaction_allocations (occurrence_id)
	WHERE occurrence_id IS NOT NULL;
`

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func optionalUUIDString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type pgUow struct {
	tx pgx.Tx
}

func (u *pgUow) BudgetPosts() BudgetPostRepository     { return (*pgPosts)(u) }
func (u *pgUow) Patterns() AmountPatternRepository     { return (*pgPatterns)(u) }
func (u *pgUow) ArchivedPosts() ArchivedPostRepository { return (*pgArchived)(u) }
func (u *pgUow) Occurrences() OccurrenceRepository     { return (*pgOccurrences)(u) }
func (u *pgUow) Transactions() TransactionRepository   { return (*pgTransactions)(u) }
func (u *pgUow) Allocations() AllocationRepository     { return (*pgAllocations)(u) }

// Budget posts

type pgPosts pgUow

func (r *pgPosts) Create(ctx context.Context, post *models.BudgetPost) error {
	query := `
		INSERT INTO budget_posts
			(id, budget_id, direction, category_path, container_ids, counterparty,
			 transfer_from, transfer_to, accumulate, status, deleted_at)
		VALUES ($1, $2, $3, $4, $5::uuid[], $6, $7, $8, $9, $10, $11)
	`
	_, err := r.tx.Exec(ctx, query,
		post.ID.String(), post.BudgetID.String(), string(post.Direction),
		post.CategoryKey(), uuidStrings(post.ContainerIDs), post.Counterparty,
		optionalUUIDString(post.TransferFrom), optionalUUIDString(post.TransferTo),
		post.Accumulate, string(post.Status), post.DeletedAt)
	return mapPgError(err)
}

const postColumns = `
	id::text, budget_id::text, direction, category_path,
	ARRAY(SELECT unnest(container_ids)::text), counterparty,
	transfer_from::text, transfer_to::text, accumulate, status, deleted_at
`

func scanPost(row pgx.Row) (*models.BudgetPost, error) {
	var (
		id, budgetID, direction, categoryKey string
		containerIDs                         []string
		counterparty, status                 string
		transferFrom, transferTo             *string
		accumulate                           bool
		deletedAt                            *time.Time
	)
	if err := row.Scan(&id, &budgetID, &direction, &categoryKey, &containerIDs,
		&counterparty, &transferFrom, &transferTo, &accumulate, &status, &deletedAt); err != nil {
		return nil, mapPgError(err)
	}

	post := &models.BudgetPost{
		Direction:    models.Direction(direction),
		CategoryPath: strings.Split(categoryKey, "/"),
		Counterparty: counterparty,
		Accumulate:   accumulate,
		Status:       models.PostStatus(status),
		DeletedAt:    deletedAt,
	}
	var err error
	if post.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if post.BudgetID, err = uuid.Parse(budgetID); err != nil {
		return nil, err
	}
	if post.ContainerIDs, err = parseUUIDs(containerIDs); err != nil {
		return nil, err
	}
	if post.TransferFrom, err = parseOptionalUUID(transferFrom); err != nil {
		return nil, err
	}
	if post.TransferTo, err = parseOptionalUUID(transferTo); err != nil {
		return nil, err
	}
	return post, nil
}

func (r *pgPosts) Get(ctx context.Context, id uuid.UUID) (*models.BudgetPost, error) {
	query := `SELECT ` + postColumns + ` FROM budget_posts WHERE id = $1`
	return scanPost(r.tx.QueryRow(ctx, query, id.String()))
}

func (r *pgPosts) FindActive(ctx context.Context, budgetID uuid.UUID, direction models.Direction, categoryKey string) (*models.BudgetPost, error) {
	query := `
		SELECT ` + postColumns + `
		FROM budget_posts
		WHERE budget_id = $1 AND direction = $2 AND category_path = $3 AND status = 'active'
	`
	return scanPost(r.tx.QueryRow(ctx, query, budgetID.String(), string(direction), categoryKey))
}

func (r *pgPosts) ListActive(ctx context.Context, budgetID uuid.UUID) ([]*models.BudgetPost, error) {
	query := `
		SELECT ` + postColumns + `
		FROM budget_posts
		WHERE budget_id = $1 AND status = 'active'
		ORDER BY category_path
	`
	rows, err := r.tx.Query(ctx, query, budgetID.String())
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var posts []*models.BudgetPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Amount patterns

type pgPatterns pgUow

func (r *pgPatterns) Create(ctx context.Context, pattern *models.AmountPattern) error {
	rule, err := json.Marshal(pattern.Rule)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO amount_patterns
			(id, budget_post_id, amount, start_date, end_date, rule, container_ids, status, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::uuid[], $8, $9)
	`
	_, err = r.tx.Exec(ctx, query,
		pattern.ID.String(), pattern.BudgetPostID.String(), pattern.Amount,
		pattern.StartDate, pattern.EndDate, rule,
		uuidStrings(pattern.ContainerIDs), string(pattern.Status), pattern.DeletedAt)
	return mapPgError(err)
}

const patternColumns = `
	id::text, budget_post_id::text, amount, start_date, end_date, rule,
	ARRAY(SELECT unnest(container_ids)::text), status, deleted_at
`

func scanPattern(row pgx.Row) (*models.AmountPattern, error) {
	var (
		id, postID   string
		amount       int64
		startDate    time.Time
		endDate      *time.Time
		ruleRaw      []byte
		containerIDs []string
		status       string
		deletedAt    *time.Time
	)
	if err := row.Scan(&id, &postID, &amount, &startDate, &endDate, &ruleRaw,
		&containerIDs, &status, &deletedAt); err != nil {
		return nil, mapPgError(err)
	}

	pattern := &models.AmountPattern{
		Amount:    amount,
		StartDate: models.TruncateToDate(startDate),
		Status:    models.PostStatus(status),
		DeletedAt: deletedAt,
	}
	if endDate != nil {
		d := models.TruncateToDate(*endDate)
		pattern.EndDate = &d
	}
	var err error
	if pattern.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if pattern.BudgetPostID, err = uuid.Parse(postID); err != nil {
		return nil, err
	}
	if pattern.Rule, err = models.ParseRecurrenceRule(ruleRaw); err != nil {
		return nil, err
	}
	if pattern.ContainerIDs, err = parseUUIDs(containerIDs); err != nil {
		return nil, err
	}
	return pattern, nil
}

func (r *pgPatterns) Get(ctx context.Context, id uuid.UUID) (*models.AmountPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM amount_patterns WHERE id = $1`
	return scanPattern(r.tx.QueryRow(ctx, query, id.String()))
}

func (r *pgPatterns) ListActiveByPost(ctx context.Context, postID uuid.UUID) ([]*models.AmountPattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM amount_patterns
		WHERE budget_post_id = $1 AND status = 'active'
		ORDER BY start_date, id
	`
	return r.queryPatterns(ctx, query, postID.String())
}

func (r *pgPatterns) ListDatelessByBudget(ctx context.Context, budgetID uuid.UUID) ([]*models.AmountPattern, error) {
	query := `
		SELECT ` + strings.ReplaceAll(patternColumns, "id::text", "p.id::text") + `
		FROM amount_patterns p
		JOIN budget_posts bp ON bp.id = p.budget_post_id
		WHERE bp.budget_id = $1
		  AND bp.status = 'active'
		  AND p.status = 'active'
		  AND p.rule->>'frequency' = 'none'
		ORDER BY p.id
	`
	return r.queryPatterns(ctx, query, budgetID.String())
}

func (r *pgPatterns) queryPatterns(ctx context.Context, query string, args ...interface{}) ([]*models.AmountPattern, error) {
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var patterns []*models.AmountPattern
	for rows.Next() {
		pattern, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pattern)
	}
	return patterns, rows.Err()
}

// Archived posts

type pgArchived pgUow

func (r *pgArchived) Create(ctx context.Context, snapshot *models.ArchivedBudgetPost) error {
	query := `
		INSERT INTO archived_budget_posts
			(id, budget_id, budget_post_id, direction, category_path, counterparty,
			 accumulate, period_year, period_month, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.tx.Exec(ctx, query,
		snapshot.ID.String(), snapshot.BudgetID.String(), optionalUUIDString(snapshot.BudgetPostID),
		string(snapshot.Direction), snapshot.CategoryKey(), snapshot.Counterparty,
		snapshot.Accumulate, snapshot.Period.Year, int(snapshot.Period.Month), snapshot.ArchivedAt)
	return mapPgError(err)
}

func (r *pgArchived) Find(ctx context.Context, budgetID uuid.UUID, direction models.Direction, categoryKey string, period models.Period) (*models.ArchivedBudgetPost, error) {
	query := `
		SELECT id::text, budget_id::text, budget_post_id::text, direction, category_path,
		       counterparty, accumulate, period_year, period_month, archived_at
		FROM archived_budget_posts
		WHERE budget_id = $1 AND direction = $2 AND category_path = $3
		  AND period_year = $4 AND period_month = $5
	`
	var (
		id, budget, dir, catKey string
		postID                  *string
		counterparty            string
		accumulate              bool
		year, month             int
		archivedAt              time.Time
	)
	err := r.tx.QueryRow(ctx, query, budgetID.String(), string(direction), categoryKey,
		period.Year, int(period.Month)).
		Scan(&id, &budget, &postID, &dir, &catKey, &counterparty, &accumulate, &year, &month, &archivedAt)
	if err != nil {
		return nil, mapPgError(err)
	}

	snapshot := &models.ArchivedBudgetPost{
		Direction:    models.Direction(dir),
		CategoryPath: strings.Split(catKey, "/"),
		Counterparty: counterparty,
		Accumulate:   accumulate,
		Period:       models.NewPeriod(year, time.Month(month)),
		ArchivedAt:   archivedAt,
	}
	if snapshot.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if snapshot.BudgetID, err = uuid.Parse(budget); err != nil {
		return nil, err
	}
	if snapshot.BudgetPostID, err = parseOptionalUUID(postID); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Occurrences

type pgOccurrences pgUow

func (r *pgOccurrences) CreateBatch(ctx context.Context, occurrences []*models.AmountOccurrence) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO amount_occurrences (id, archived_post_id, occurs_on, amount)
		VALUES ($1, $2, $3, $4)
	`
	for _, occurrence := range occurrences {
		batch.Queue(query, occurrence.ID.String(), occurrence.ArchivedPostID.String(),
			occurrence.Date, occurrence.Amount)
	}
	return mapPgError(r.tx.SendBatch(ctx, batch).Close())
}

func scanOccurrence(row pgx.Row) (*models.AmountOccurrence, error) {
	var (
		id, archivedPostID string
		date               *time.Time
		amount             int64
	)
	if err := row.Scan(&id, &archivedPostID, &date, &amount); err != nil {
		return nil, mapPgError(err)
	}

	occurrence := &models.AmountOccurrence{Amount: amount}
	if date != nil {
		d := models.TruncateToDate(*date)
		occurrence.Date = &d
	}
	var err error
	if occurrence.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if occurrence.ArchivedPostID, err = uuid.Parse(archivedPostID); err != nil {
		return nil, err
	}
	return occurrence, nil
}

func (r *pgOccurrences) ListByArchivedPost(ctx context.Context, archivedPostID uuid.UUID) ([]*models.AmountOccurrence, error) {
	query := `
		SELECT id::text, archived_post_id::text, occurs_on, amount
		FROM amount_occurrences
		WHERE archived_post_id = $1
		ORDER BY occurs_on NULLS FIRST, id
	`
	return r.queryOccurrences(ctx, query, archivedPostID.String())
}

func (r *pgOccurrences) ListUnallocated(ctx context.Context, budgetID uuid.UUID, direction models.Direction, from, to time.Time) ([]*models.AmountOccurrence, error) {
	query := `
		SELECT o.id::text, o.archived_post_id::text, o.occurs_on, o.amount
		FROM amount_occurrences o
		JOIN archived_budget_posts a ON a.id = o.archived_post_id
		WHERE a.budget_id = $1
		  AND a.direction = $2
		  AND o.occurs_on BETWEEN $3 AND $4
		  AND NOT EXISTS (
			SELECT 1 FROM transaction_allocations ta WHERE ta.occurrence_id = o.id
		  )
		ORDER BY o.occurs_on, o.id
	`
	return r.queryOccurrences(ctx, query, budgetID.String(), string(direction), from, to)
}

func (r *pgOccurrences) queryOccurrences(ctx context.Context, query string, args ...interface{}) ([]*models.AmountOccurrence, error) {
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var occurrences []*models.AmountOccurrence
	for rows.Next() {
		occurrence, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, occurrence)
	}
	return occurrences, rows.Err()
}

// Transactions

type pgTransactions pgUow

func (r *pgTransactions) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, budget_id, amount, direction, occurred_on, description, container_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.tx.Exec(ctx, query,
		tx.ID.String(), tx.BudgetID.String(), tx.Amount, string(tx.Direction),
		tx.Date, tx.Description, optionalUUIDString(tx.ContainerID))
	return mapPgError(err)
}

func (r *pgTransactions) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `
		SELECT id::text, budget_id::text, amount, direction, occurred_on, description, container_id::text
		FROM transactions WHERE id = $1
	`
	var (
		txID, budgetID, direction, description string
		amount                                 int64
		date                                   time.Time
		containerID                            *string
	)
	err := r.tx.QueryRow(ctx, query, id.String()).
		Scan(&txID, &budgetID, &amount, &direction, &date, &description, &containerID)
	if err != nil {
		return nil, mapPgError(err)
	}

	tx := &models.Transaction{
		Amount:      amount,
		Direction:   models.Direction(direction),
		Date:        models.TruncateToDate(date),
		Description: description,
	}
	if tx.ID, err = uuid.Parse(txID); err != nil {
		return nil, err
	}
	if tx.BudgetID, err = uuid.Parse(budgetID); err != nil {
		return nil, err
	}
	if tx.ContainerID, err = parseOptionalUUID(containerID); err != nil {
		return nil, err
	}
	return tx, nil
}

// Allocations

type pgAllocations pgUow

func (r *pgAllocations) Create(ctx context.Context, allocation *models.TransactionAllocation) error {
	query := `
		INSERT INTO transaction_allocations
			(id, transaction_id, pattern_id, occurrence_id, amount, is_remainder)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.tx.Exec(ctx, query,
		allocation.ID.String(), allocation.TransactionID.String(),
		optionalUUIDString(allocation.PatternID), optionalUUIDString(allocation.OccurrenceID),
		allocation.Amount, allocation.IsRemainder)
	return mapPgError(err)
}

func (r *pgAllocations) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.TransactionAllocation, error) {
	query := `
		SELECT id::text, transaction_id::text, pattern_id::text, occurrence_id::text, amount, is_remainder
		FROM transaction_allocations
		WHERE transaction_id = $1
		ORDER BY id
	`
	rows, err := r.tx.Query(ctx, query, transactionID.String())
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var allocations []*models.TransactionAllocation
	for rows.Next() {
		var (
			id, txID                string
			patternID, occurrenceID *string
			amount                  int64
			isRemainder             bool
		)
		if err := rows.Scan(&id, &txID, &patternID, &occurrenceID, &amount, &isRemainder); err != nil {
			return nil, mapPgError(err)
		}

		allocation := &models.TransactionAllocation{Amount: amount, IsRemainder: isRemainder}
		if allocation.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if allocation.TransactionID, err = uuid.Parse(txID); err != nil {
			return nil, err
		}
		if allocation.PatternID, err = parseOptionalUUID(patternID); err != nil {
			return nil, err
		}
		if allocation.OccurrenceID, err = parseOptionalUUID(occurrenceID); err != nil {
			return nil, err
		}
		allocations = append(allocations, allocation)
	}
	return allocations, rows.Err()
}

func (r *pgAllocations) SumByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transaction_allocations
		WHERE transaction_id = $1
	`
	var total int64
	if err := r.tx.QueryRow(ctx, query, transactionID.String()).Scan(&total); err != nil {
		return 0, mapPgError(err)
	}
	return total, nil
}

func (r *pgAllocations) SumByOccurrences(ctx context.Context, occurrenceIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(occurrenceIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	query := `
		SELECT occurrence_id::text, COALESCE(SUM(amount), 0)
		FROM transaction_allocations
		WHERE occurrence_id = ANY($1::uuid[])
		GROUP BY occurrence_id
	`
	rows, err := r.tx.Query(ctx, query, uuidStrings(occurrenceIDs))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	sums := make(map[uuid.UUID]int64)
	for rows.Next() {
		var idRaw string
		var total int64
		if err := rows.Scan(&idRaw, &total); err != nil {
			return nil, mapPgError(err)
		}
		id, err := uuid.Parse(idRaw)
		if err != nil {
			return nil, err
		}
		sums[id] = total
	}
	return sums, rows.Err()
}
