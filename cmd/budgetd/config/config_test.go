package config

import (
	"context"
	"testing"

	"budget-allocation-engine/internal/reporter"
	"budget-allocation-engine/internal/store"
)

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		format     string
		wantFormat reporter.OutputFormat
		wantErr    bool
	}{
		{"console", reporter.FormatConsole, false},
		{"", reporter.FormatConsole, false},
		{"json", reporter.FormatJSON, false},
		{"csv", "", true},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			config, err := CreateReportConfig(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateReportConfig(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err == nil && config.Format != tt.wantFormat {
				t.Errorf("Expected format %s, got %s", tt.wantFormat, config.Format)
			}
		})
	}
}

func TestCreateMatcherConfig(t *testing.T) {
	config := CreateMatcherConfig(1)
	if config.DateToleranceDays != 1 {
		t.Errorf("Expected tolerance override 1, got %d", config.DateToleranceDays)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Factory config should validate: %v", err)
	}
}

func TestCreateIngestConfig(t *testing.T) {
	config := CreateIngestConfig(map[string]string{"date": "Bogført"})
	if config.GetColumnName("date") != "Bogført" {
		t.Errorf("Aliases should override column names, got %s", config.GetColumnName("date"))
	}
	if config.GetColumnName("amount") != "amount" {
		t.Errorf("Unaliased columns keep their defaults, got %s", config.GetColumnName("amount"))
	}
}

func TestOpenStoreDefaultsToMemory(t *testing.T) {
	st, err := OpenStore(context.Background(), "")
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer st.Close()

	if _, ok := st.(*store.Memory); !ok {
		t.Errorf("Empty database URL should select the in-memory store, got %T", st)
	}
}
