package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"budget-allocation-engine/cmd/budgetd/config"
	"budget-allocation-engine/internal/archive"
	"budget-allocation-engine/internal/bankcal"
	"budget-allocation-engine/internal/models"
	"budget-allocation-engine/internal/recurrence"
	"budget-allocation-engine/internal/reporter"
	"budget-allocation-engine/internal/store"
	"budget-allocation-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the archive command
var (
	archiveBudgetID string
	archiveYear     int
	archiveMonth    int
	archiveCategory string
	archiveCountry  string
	archiveFormat   string
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive budget posts for one accounting period",
	Long: `Archive snapshots active budget posts for an explicit period and
materializes their expected amount occurrences. The period is never
derived from the wall clock; --year and --month are required.

Re-archiving an already-archived post fails with a conflict and leaves
the existing snapshot untouched.

Examples:
  # Archive every active post of a budget for February 2026
  budgetd archive --budget-id 6f1c... --year 2026 --month 2

  # Archive a single category
  budgetd archive --budget-id 6f1c... --year 2026 --month 2 \
    --category expense:housing/rent`,
	PreRunE: validateArchiveFlags,
	RunE:    runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().StringVar(&archiveBudgetID, "budget-id", "", "budget identifier (required)")
	archiveCmd.Flags().IntVar(&archiveYear, "year", 0, "period year (required)")
	archiveCmd.Flags().IntVar(&archiveMonth, "month", 0, "period month 1-12 (required)")
	archiveCmd.Flags().StringVar(&archiveCategory, "category", "", "single post as direction:category/path (default: all active posts)")
	archiveCmd.Flags().StringVar(&archiveCountry, "country", "DK", "bank-day calendar country")
	archiveCmd.Flags().StringVarP(&archiveFormat, "output-format", "f", "console", "output format: console, json")

	archiveCmd.MarkFlagRequired("budget-id")
	archiveCmd.MarkFlagRequired("year")
	archiveCmd.MarkFlagRequired("month")

	viper.BindPFlag("archive-budget-id", archiveCmd.Flags().Lookup("budget-id"))
	viper.BindPFlag("archive-country", archiveCmd.Flags().Lookup("country"))
}

func validateArchiveFlags(cmd *cobra.Command, args []string) error {
	if _, err := uuid.Parse(archiveBudgetID); err != nil {
		return fmt.Errorf("invalid budget-id: %w", err)
	}
	if archiveYear < 1 {
		return fmt.Errorf("year must be positive, got %d", archiveYear)
	}
	if archiveMonth < 1 || archiveMonth > 12 {
		return fmt.Errorf("month must be 1-12, got %d", archiveMonth)
	}
	if archiveCategory != "" {
		if _, _, err := parseCategoryFlag(archiveCategory); err != nil {
			return err
		}
	}
	return nil
}

// parseCategoryFlag splits "direction:segment/segment" into its parts.
func parseCategoryFlag(raw string) (models.Direction, []string, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("category must look like direction:path/to/category, got %q", raw)
	}
	direction, err := models.ParseDirection(parts[0])
	if err != nil {
		return "", nil, err
	}
	path := strings.Split(parts[1], "/")
	for _, segment := range path {
		if strings.TrimSpace(segment) == "" {
			return "", nil, fmt.Errorf("category path has an empty segment: %q", raw)
		}
	}
	return direction, path, nil
}

func runArchive(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	budgetID, _ := uuid.Parse(archiveBudgetID)
	period := models.NewPeriod(archiveYear, time.Month(archiveMonth))

	st, err := config.OpenStore(ctx, viper.GetString("database-url"))
	if err != nil {
		return err
	}
	defer st.Close()

	engine := archive.NewEngine(st, recurrence.NewExpander(bankcal.NewCalendar()), nil)

	targets, err := archiveTargets(ctx, st, budgetID)
	if err != nil {
		return err
	}

	run := &reporter.ArchiveRun{
		ProcessedAt: time.Now().UTC(),
		Period:      period.String(),
	}
	for _, target := range targets {
		result, err := engine.ArchivePeriod(ctx, &archive.Request{
			BudgetID:     budgetID,
			Direction:    target.direction,
			CategoryPath: target.path,
			Period:       period,
			Country:      archiveCountry,
		})
		if err != nil {
			if !errors.IsCode(err, errors.CodeAlreadyArchived) && len(targets) == 1 {
				return err
			}
			run.Failures = append(run.Failures, reporter.ArchiveFailure{
				Category: strings.Join(target.path, "/"),
				Error:    err.Error(),
			})
			continue
		}
		run.Results = append(run.Results, result)
	}

	reportConfig, err := config.CreateReportConfig(archiveFormat)
	if err != nil {
		return err
	}
	generator, err := reporter.NewGenerator(reportConfig)
	if err != nil {
		return err
	}
	return generator.WriteArchiveReport(run, os.Stdout)
}

type archiveTarget struct {
	direction models.Direction
	path      []string
}

// archiveTargets resolves the --category flag, or lists every active
// post of the budget when no category is given.
func archiveTargets(ctx context.Context, st store.Store, budgetID uuid.UUID) ([]archiveTarget, error) {
	if archiveCategory != "" {
		direction, path, err := parseCategoryFlag(archiveCategory)
		if err != nil {
			return nil, err
		}
		return []archiveTarget{{direction: direction, path: path}}, nil
	}

	var targets []archiveTarget
	err := st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		posts, err := uow.BudgetPosts().ListActive(ctx, budgetID)
		if err != nil {
			return err
		}
		for _, post := range posts {
			targets = append(targets, archiveTarget{direction: post.Direction, path: post.CategoryPath})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("budget %s has no active posts to archive", budgetID)
	}
	return targets, nil
}
