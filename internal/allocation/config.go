package allocation

import "fmt"

// Config holds matching behavior settings for the allocation matcher
type Config struct {
	// DateToleranceDays is how far an occurrence date may sit from the
	// transaction date and still count as a candidate
	DateToleranceDays int `json:"date_tolerance_days"`

	// MaxCandidates caps how many candidates one allocation attempt will
	// try before deferring
	MaxCandidates int `json:"max_candidates"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DateToleranceDays: 3,
		MaxCandidates:     50,
	}
}

// StrictConfig returns a configuration that only accepts same-day matches
func StrictConfig() *Config {
	return &Config{
		DateToleranceDays: 0,
		MaxCandidates:     10,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", c.DateToleranceDays)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("max candidates must be at least 1: %d", c.MaxCandidates)
	}
	return nil
}
