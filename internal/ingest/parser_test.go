package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"budget-allocation-engine/internal/models"
	"budget-allocation-engine/pkg/errors"

	"github.com/google/uuid"
)

func TestParseMinorUnits(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"123.45", 12345, false},
		{"0.01", 1, false},
		{"-45.00", -4500, false},
		{"3200", 320000, false},
		{"12.345", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseMinorUnits(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMinorUnits(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseMinorUnits(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTransactions(t *testing.T) {
	csv := `date,amount,direction,description,container_id
2026-02-02,312.50,expense,supermarket,
2026-02-03,-85.00,expense,refund,
2026-02-27,32000.00,income,salary,
`
	parser, err := NewParser(nil)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	budgetID := uuid.New()
	transactions, stats, err := parser.Parse(context.Background(), strings.NewReader(csv), "test.csv", budgetID)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stats.HasErrors() {
		t.Fatalf("Unexpected row errors: %v", stats.Errors)
	}
	if len(transactions) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(transactions))
	}

	first := transactions[0]
	if first.Amount != 31250 {
		t.Errorf("Expected 31250 minor units, got %d", first.Amount)
	}
	if first.Direction != models.DirectionExpense {
		t.Errorf("Expected expense, got %s", first.Direction)
	}
	if !models.SameDay(first.Date, models.NewDate(2026, time.February, 2)) {
		t.Errorf("Expected 2026-02-02, got %s", first.Date)
	}
	if first.BudgetID != budgetID {
		t.Errorf("Transactions must carry the budget they were ingested for")
	}
}

func TestParseCollectsMalformedRows(t *testing.T) {
	csv := `date,amount,direction,description
2026-02-02,312.50,expense,ok
not-a-date,10.00,expense,bad date
2026-02-04,10.001,expense,bad amount
2026-02-05,10.00,sideways,bad direction
2026-02-06,25.00,income,ok too
`
	parser, err := NewParser(nil)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	transactions, stats, err := parser.Parse(context.Background(), strings.NewReader(csv), "test.csv", uuid.New())
	if err != nil {
		t.Fatalf("Malformed rows must not fail the whole parse: %v", err)
	}
	if len(transactions) != 2 {
		t.Errorf("Expected 2 valid transactions, got %d", len(transactions))
	}
	if len(stats.Errors) != 3 {
		t.Fatalf("Expected 3 rejected rows, got %d: %v", len(stats.Errors), stats.Errors)
	}
	for i, field := range []string{"date", "amount", "direction"} {
		if stats.Errors[i].Field != field {
			t.Errorf("Error %d: expected field %s, got %s", i, field, stats.Errors[i].Field)
		}
	}
}

func TestParseMissingRequiredColumn(t *testing.T) {
	csv := `date,description
2026-02-02,no amounts here
`
	parser, err := NewParser(nil)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	_, _, err = parser.Parse(context.Background(), strings.NewReader(csv), "test.csv", uuid.New())
	if !errors.IsCode(err, errors.CodeMissingColumn) {
		t.Fatalf("Expected missing_column, got %v", err)
	}
}

func TestParseWithColumnAliases(t *testing.T) {
	csv := `Bogført,Beløb,Retning
2026-02-02,312.50,expense
`
	config := DefaultConfig()
	config.ColumnAliases = map[string]string{
		"date":      "Bogført",
		"amount":    "Beløb",
		"direction": "Retning",
	}
	parser, err := NewParser(config)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	transactions, stats, err := parser.Parse(context.Background(), strings.NewReader(csv), "dk.csv", uuid.New())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if stats.HasErrors() || len(transactions) != 1 {
		t.Fatalf("Expected 1 transaction via aliases, got %d (errors: %v)", len(transactions), stats.Errors)
	}
}

func TestParseContainerColumn(t *testing.T) {
	containerID := uuid.New()
	csv := "date,amount,direction,description,container_id\n" +
		"2026-02-02,10.00,expense,card," + containerID.String() + "\n"

	parser, err := NewParser(nil)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	transactions, _, err := parser.Parse(context.Background(), strings.NewReader(csv), "test.csv", uuid.New())
	if err != nil || len(transactions) != 1 {
		t.Fatalf("Parse failed: %v (%d transactions)", err, len(transactions))
	}
	if transactions[0].ContainerID == nil || *transactions[0].ContainerID != containerID {
		t.Errorf("Expected container %s, got %v", containerID, transactions[0].ContainerID)
	}
}
