package ingest

import (
	"fmt"
	"strings"
)

// Config describes the CSV shape of a transaction export. Column aliases
// let one parser read differently-labeled exports of the same data.
type Config struct {
	DateColumn        string            `json:"date_column"`
	AmountColumn      string            `json:"amount_column"`
	DirectionColumn   string            `json:"direction_column"`
	DescriptionColumn string            `json:"description_column"`
	ContainerColumn   string            `json:"container_column"`
	HasHeader         bool              `json:"has_header"`
	Delimiter         rune              `json:"delimiter"`
	ColumnAliases     map[string]string `json:"column_aliases,omitempty"`
}

// DefaultConfig returns a configuration with standard defaults
func DefaultConfig() *Config {
	return &Config{
		DateColumn:        "date",
		AmountColumn:      "amount",
		DirectionColumn:   "direction",
		DescriptionColumn: "description",
		ContainerColumn:   "container_id",
		HasHeader:         true,
		Delimiter:         ',',
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DateColumn) == "" {
		return fmt.Errorf("date column cannot be empty")
	}
	if strings.TrimSpace(c.AmountColumn) == "" {
		return fmt.Errorf("amount column cannot be empty")
	}
	if strings.TrimSpace(c.DirectionColumn) == "" {
		return fmt.Errorf("direction column cannot be empty")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	return nil
}

// GetColumnName returns the actual column name, checking aliases first
func (c *Config) GetColumnName(standardName string) string {
	if alias, exists := c.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "date":
		return c.DateColumn
	case "amount":
		return c.AmountColumn
	case "direction":
		return c.DirectionColumn
	case "description":
		return c.DescriptionColumn
	case "container_id":
		return c.ContainerColumn
	default:
		return standardName
	}
}
