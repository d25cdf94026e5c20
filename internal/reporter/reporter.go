// Package reporter renders archival and allocation run reports.
//
// Two output formats are supported:
//   - Console: human-readable tabular output for terminal display
//   - JSON: structured data for programmatic consumption
//
// Amounts are stored as integer minor units throughout the engine; the
// reporter is the one place they are rendered as major-unit decimals.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"budget-allocation-engine/internal/allocation"
	"budget-allocation-engine/internal/archive"

	"github.com/shopspring/decimal"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	return f == FormatConsole || f == FormatJSON
}

// Config holds configuration options for report generation
type Config struct {
	Format OutputFormat `json:"format"`

	// IncludeUnallocated lists every unallocated transaction in the
	// allocation report.
	IncludeUnallocated bool `json:"include_unallocated"`
}

// DefaultConfig returns a default report configuration
func DefaultConfig() *Config {
	return &Config{
		Format:             FormatConsole,
		IncludeUnallocated: true,
	}
}

// Validate validates the report configuration
func (c *Config) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// AllocationRun collects the results of one batch allocation.
type AllocationRun struct {
	ProcessedAt  time.Time            `json:"processed_at"`
	SourceFile   string               `json:"source_file,omitempty"`
	Results      []*allocation.Result `json:"results"`
	RejectedRows int                  `json:"rejected_rows"`
}

// AllocationSummary holds the aggregate counts and amounts for a run.
type AllocationSummary struct {
	Total              int    `json:"total"`
	MatchedOccurrences int    `json:"matched_occurrences"`
	MatchedPatterns    int    `json:"matched_patterns"`
	Unallocated        int    `json:"unallocated"`
	AllocatedAmount    string `json:"allocated_amount"`
	UnallocatedAmount  string `json:"unallocated_amount"`
}

// Summarize computes the aggregate view of the run.
func (r *AllocationRun) Summarize() *AllocationSummary {
	summary := &AllocationSummary{Total: len(r.Results)}
	var allocated, unallocated int64
	for _, result := range r.Results {
		switch result.Outcome {
		case allocation.OutcomeMatchedOccurrence:
			summary.MatchedOccurrences++
			allocated += result.Allocation.Amount
		case allocation.OutcomeMatchedPattern:
			summary.MatchedPatterns++
			allocated += result.Allocation.Amount
		default:
			summary.Unallocated++
			unallocated += result.Transaction.AbsAmount()
		}
	}
	summary.AllocatedAmount = FormatAmount(allocated)
	summary.UnallocatedAmount = FormatAmount(unallocated)
	return summary
}

// ArchiveRun collects the results of one period-close batch.
type ArchiveRun struct {
	ProcessedAt time.Time         `json:"processed_at"`
	Period      string            `json:"period"`
	Results     []*archive.Result `json:"results"`
	Failures    []ArchiveFailure  `json:"failures,omitempty"`
}

// ArchiveFailure records one post that could not be archived.
type ArchiveFailure struct {
	Category string `json:"category"`
	Error    string `json:"error"`
}

// FormatAmount renders integer minor units as a major-unit decimal
// string with two places.
func FormatAmount(minorUnits int64) string {
	return decimal.New(minorUnits, -2).StringFixed(2)
}

// Generator renders run reports in the configured format.
type Generator struct {
	config *Config
}

// NewGenerator creates a report generator with the specified configuration
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &Generator{config: config}, nil
}

// WriteAllocationReport writes an allocation run report to the writer.
func (g *Generator) WriteAllocationReport(run *AllocationRun, writer io.Writer) error {
	if run == nil {
		return fmt.Errorf("allocation run cannot be nil")
	}
	switch g.config.Format {
	case FormatJSON:
		return writeJSON(writer, struct {
			*AllocationRun
			Summary *AllocationSummary `json:"summary"`
		}{run, run.Summarize()})
	default:
		return g.writeAllocationConsole(run, writer)
	}
}

// WriteArchiveReport writes a period-close report to the writer.
func (g *Generator) WriteArchiveReport(run *ArchiveRun, writer io.Writer) error {
	if run == nil {
		return fmt.Errorf("archive run cannot be nil")
	}
	switch g.config.Format {
	case FormatJSON:
		return writeJSON(writer, run)
	default:
		return g.writeArchiveConsole(run, writer)
	}
}

func writeJSON(writer io.Writer, v interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (g *Generator) writeAllocationConsole(run *AllocationRun, writer io.Writer) error {
	summary := run.Summarize()

	fmt.Fprintf(writer, "ALLOCATION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", run.ProcessedAt.Format(time.RFC3339))
	if run.SourceFile != "" {
		fmt.Fprintf(writer, "Source: %s\n", run.SourceFile)
	}
	fmt.Fprintf(writer, "\n=== SUMMARY ===\n")
	fmt.Fprintf(writer, "%-25s %d\n", "Transactions:", summary.Total)
	fmt.Fprintf(writer, "%-25s %d\n", "Matched occurrences:", summary.MatchedOccurrences)
	fmt.Fprintf(writer, "%-25s %d\n", "Matched patterns:", summary.MatchedPatterns)
	fmt.Fprintf(writer, "%-25s %d\n", "Unallocated:", summary.Unallocated)
	fmt.Fprintf(writer, "%-25s %d\n", "Rejected CSV rows:", run.RejectedRows)
	fmt.Fprintf(writer, "%-25s %s\n", "Allocated amount:", summary.AllocatedAmount)
	fmt.Fprintf(writer, "%-25s %s\n", "Unallocated amount:", summary.UnallocatedAmount)

	if g.config.IncludeUnallocated && summary.Unallocated > 0 {
		fmt.Fprintf(writer, "\n=== UNALLOCATED TRANSACTIONS ===\n")
		fmt.Fprintf(writer, "%-12s %12s  %-9s %s\n", "Date", "Amount", "Direction", "Description")
		for _, result := range run.Results {
			if result.Outcome != allocation.OutcomeUnallocated {
				continue
			}
			tx := result.Transaction
			fmt.Fprintf(writer, "%-12s %12s  %-9s %s\n",
				tx.Date.Format("2006-01-02"), FormatAmount(tx.Amount), tx.Direction, tx.Description)
		}
	}
	return nil
}

func (g *Generator) writeArchiveConsole(run *ArchiveRun, writer io.Writer) error {
	fmt.Fprintf(writer, "PERIOD CLOSE REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", run.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Period: %s\n", run.Period)

	fmt.Fprintf(writer, "\n=== ARCHIVED POSTS ===\n")
	fmt.Fprintf(writer, "%-30s %5s %12s %12s\n", "Category", "Occ", "Total", "Rollover")
	for _, result := range run.Results {
		fmt.Fprintf(writer, "%-30s %5d %12s %12s\n",
			result.Snapshot.CategoryKey(),
			len(result.Occurrences),
			FormatAmount(result.Total()),
			FormatAmount(result.Rollover))
	}

	if len(run.Failures) > 0 {
		fmt.Fprintf(writer, "\n=== FAILURES ===\n")
		for _, failure := range run.Failures {
			fmt.Fprintf(writer, "%-30s %s\n", failure.Category, failure.Error)
		}
	}
	return nil
}
