package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"budget-allocation-engine/cmd/budgetd/config"
	"budget-allocation-engine/internal/allocation"
	"budget-allocation-engine/internal/ingest"
	"budget-allocation-engine/internal/reporter"
	"budget-allocation-engine/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the allocate command
var (
	allocateBudgetID  string
	allocateFile      string
	allocateTolerance int
	allocateFormat    string
	allocateOutFile   string
)

// allocateCmd represents the allocate command
var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Allocate a CSV of bank transactions against a budget",
	Long: `Allocate ingests a transaction CSV and matches each transaction
against the budget's archived occurrences and dateless fallback
patterns. Unmatched transactions are reported, never dropped.

Examples:
  budgetd allocate --budget-id 6f1c... --file feb.csv
  budgetd allocate --budget-id 6f1c... --file feb.csv \
    --date-tolerance 1 --output-format json --output-file report.json`,
	PreRunE: validateAllocateFlags,
	RunE:    runAllocate,
}

func init() {
	rootCmd.AddCommand(allocateCmd)

	allocateCmd.Flags().StringVar(&allocateBudgetID, "budget-id", "", "budget identifier (required)")
	allocateCmd.Flags().StringVarP(&allocateFile, "file", "i", "", "transaction CSV file (required)")
	allocateCmd.Flags().IntVarP(&allocateTolerance, "date-tolerance", "d", 3, "occurrence date tolerance in days")
	allocateCmd.Flags().StringVarP(&allocateFormat, "output-format", "f", "console", "output format: console, json")
	allocateCmd.Flags().StringVarP(&allocateOutFile, "output-file", "o", "", "output file path (default: stdout)")

	allocateCmd.MarkFlagRequired("budget-id")
	allocateCmd.MarkFlagRequired("file")
}

func validateAllocateFlags(cmd *cobra.Command, args []string) error {
	if _, err := uuid.Parse(allocateBudgetID); err != nil {
		return fmt.Errorf("invalid budget-id: %w", err)
	}
	if allocateTolerance < 0 {
		return fmt.Errorf("date tolerance cannot be negative")
	}

	info, err := os.Stat(allocateFile)
	if os.IsNotExist(err) {
		return fmt.Errorf("transaction file does not exist: %s", allocateFile)
	}
	if err != nil {
		return fmt.Errorf("error accessing transaction file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("transaction file is a directory: %s", allocateFile)
	}

	if allocateOutFile != "" {
		dir := filepath.Dir(allocateOutFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}
	return nil
}

func runAllocate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	budgetID, _ := uuid.Parse(allocateBudgetID)
	log := logger.GetGlobalLogger().WithComponent("allocate")

	st, err := config.OpenStore(ctx, viper.GetString("database-url"))
	if err != nil {
		return err
	}
	defer st.Close()

	parser, err := ingest.NewParser(config.CreateIngestConfig(nil))
	if err != nil {
		return err
	}
	transactions, stats, err := parser.ParseFile(ctx, allocateFile, budgetID)
	if err != nil {
		return fmt.Errorf("failed to parse transactions: %w", err)
	}
	if stats.HasErrors() {
		log.WithField("rejected", len(stats.Errors)).Warn("Some CSV rows were rejected")
	}

	matcher, err := allocation.NewMatcher(st, config.CreateMatcherConfig(allocateTolerance), logger.GetGlobalLogger())
	if err != nil {
		return err
	}

	run := &reporter.AllocationRun{
		ProcessedAt:  time.Now().UTC(),
		SourceFile:   allocateFile,
		RejectedRows: len(stats.Errors),
	}
	for _, tx := range transactions {
		result, err := matcher.Allocate(ctx, tx, tx.AbsAmount())
		if err != nil {
			return fmt.Errorf("allocation failed for transaction %s: %w", tx.ID, err)
		}
		run.Results = append(run.Results, result)
	}

	reportConfig, err := config.CreateReportConfig(allocateFormat)
	if err != nil {
		return err
	}
	generator, err := reporter.NewGenerator(reportConfig)
	if err != nil {
		return err
	}

	output := os.Stdout
	if allocateOutFile != "" {
		output, err = os.Create(allocateOutFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}
	return generator.WriteAllocationReport(run, output)
}
