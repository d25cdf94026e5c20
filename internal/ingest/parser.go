// Package ingest reads bank transaction CSV exports into domain
// transactions for batch allocation.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"budget-allocation-engine/internal/models"
	"budget-allocation-engine/pkg/errors"
	"budget-allocation-engine/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RowError records one rejected CSV row. Malformed rows are collected,
// never fatal: the rest of the file still parses.
type RowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s=%q): %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Stats summarizes one parsing run.
type Stats struct {
	TotalLines   int
	RecordsValid int
	Errors       []*RowError
}

// HasErrors returns true if any rows were rejected
func (s *Stats) HasErrors() bool {
	return len(s.Errors) > 0
}

// String returns a human-readable summary of the run
func (s *Stats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d valid transactions, %d rejected rows",
		s.TotalLines, s.RecordsValid, len(s.Errors))
}

// Parser reads transaction CSV files.
type Parser struct {
	config *Config
	logger logger.Logger
}

// NewParser creates a Parser with the given configuration. A nil config
// gets the defaults.
func NewParser(config *Config) (*Parser, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.WrapIfNeeded(err, errors.CategoryValidation, errors.CodeMissingField,
			"invalid ingest configuration")
	}
	return &Parser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("ingest"),
	}, nil
}

// ParseFile parses a CSV file of transactions for one budget.
func (p *Parser) ParseFile(ctx context.Context, path string, budgetID uuid.UUID) ([]*models.Transaction, *Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.IngestError(errors.CodeInvalidFormat, path, 0, "", "", err)
	}
	defer file.Close()
	return p.Parse(ctx, file, path, budgetID)
}

// Parse reads transactions from r. The name is used in error messages
// only.
func (p *Parser) Parse(ctx context.Context, r io.Reader, name string, budgetID uuid.UUID) ([]*models.Transaction, *Stats, error) {
	log := p.logger.WithField("file", name)
	log.Info("Starting transaction ingest")

	reader := csv.NewReader(r)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	stats := &Stats{}
	columns, err := p.readHeader(reader, name, stats)
	if err != nil {
		return nil, stats, err
	}

	var transactions []*models.Transaction
	for {
		select {
		case <-ctx.Done():
			return transactions, stats, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		stats.TotalLines++
		if err != nil {
			stats.Errors = append(stats.Errors, &RowError{Line: stats.TotalLines, Field: "record", Err: err})
			continue
		}
		if isEmptyRecord(record) {
			continue
		}

		tx, rowErr := p.parseRecord(record, columns, budgetID, stats.TotalLines)
		if rowErr != nil {
			stats.Errors = append(stats.Errors, rowErr)
			continue
		}
		transactions = append(transactions, tx)
		stats.RecordsValid++
	}

	log.WithFields(logger.Fields{
		"total_lines": stats.TotalLines,
		"valid":       stats.RecordsValid,
		"rejected":    len(stats.Errors),
	}).Info("Transaction ingest completed")
	return transactions, stats, nil
}

// readHeader maps configured column names to indices. Without a header
// row, the configured column order is positional.
func (p *Parser) readHeader(reader *csv.Reader, name string, stats *Stats) (map[string]int, error) {
	standard := []string{"date", "amount", "direction", "description", "container_id"}
	columns := make(map[string]int)

	if !p.config.HasHeader {
		for i, key := range standard {
			columns[key] = i
		}
		return columns, nil
	}

	headers, err := reader.Read()
	if err != nil {
		return nil, errors.IngestError(errors.CodeInvalidFormat, name, 1, "headers", "", err)
	}
	stats.TotalLines++

	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, key := range standard {
		if i, ok := index[strings.ToLower(p.config.GetColumnName(key))]; ok {
			columns[key] = i
		}
	}

	for _, required := range []string{"date", "amount", "direction"} {
		if _, ok := columns[required]; !ok {
			return nil, errors.IngestError(errors.CodeMissingColumn, name, 1,
				p.config.GetColumnName(required), "", nil)
		}
	}
	return columns, nil
}

func (p *Parser) parseRecord(record []string, columns map[string]int, budgetID uuid.UUID, line int) (*models.Transaction, *RowError) {
	field := func(key string) string {
		i, ok := columns[key]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := models.ParseDate(field("date"))
	if err != nil {
		return nil, &RowError{Line: line, Field: "date", Value: field("date"), Err: err}
	}
	amount, err := parseMinorUnits(field("amount"))
	if err != nil {
		return nil, &RowError{Line: line, Field: "amount", Value: field("amount"), Err: err}
	}
	direction, err := models.ParseDirection(field("direction"))
	if err != nil {
		return nil, &RowError{Line: line, Field: "direction", Value: field("direction"), Err: err}
	}

	tx := models.NewTransaction(budgetID, amount, direction, date, field("description"))
	if raw := field("container_id"); raw != "" {
		containerID, err := uuid.Parse(raw)
		if err != nil {
			return nil, &RowError{Line: line, Field: "container_id", Value: raw, Err: err}
		}
		tx.ContainerID = &containerID
	}
	if err := tx.Validate(); err != nil {
		return nil, &RowError{Line: line, Field: "transaction", Err: err}
	}
	return tx, nil
}

// parseMinorUnits converts a major-unit decimal string ("123.45") to
// signed integer minor units. More than two fractional digits is an
// error, not a rounding.
func parseMinorUnits(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %w", err)
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-minor-unit precision", s)
	}
	return minor.IntPart(), nil
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
