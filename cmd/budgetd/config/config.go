package config

import (
	"context"
	"fmt"

	"budget-allocation-engine/internal/allocation"
	"budget-allocation-engine/internal/ingest"
	"budget-allocation-engine/internal/reporter"
	"budget-allocation-engine/internal/store"
)

// CreateIngestConfig creates a transaction CSV configuration, applying
// column aliases for differently-labeled exports
func CreateIngestConfig(aliases map[string]string) *ingest.Config {
	config := ingest.DefaultConfig()
	if len(aliases) > 0 {
		config.ColumnAliases = aliases
	}
	return config
}

// CreateMatcherConfig creates a matcher configuration with the specified
// date tolerance
func CreateMatcherConfig(dateTolerance int) *allocation.Config {
	config := allocation.DefaultConfig()
	config.DateToleranceDays = dateTolerance
	return config
}

// CreateReportConfig creates a report configuration for the specified
// output format
func CreateReportConfig(format string) (*reporter.Config, error) {
	config := reporter.DefaultConfig()

	switch format {
	case "console", "":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	default:
		return nil, fmt.Errorf("invalid output format '%s'. Valid formats: console, json", format)
	}
	return config, nil
}

// OpenStore opens the configured store. An empty database URL selects the
// in-memory store, which is only useful for dry runs and tests.
func OpenStore(ctx context.Context, databaseURL string) (store.Store, error) {
	if databaseURL == "" {
		return store.NewMemory(), nil
	}

	pg, err := store.NewPostgres(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres store: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return pg, nil
}
