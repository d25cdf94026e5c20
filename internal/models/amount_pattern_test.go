package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func monthlyRule() RecurrenceRule {
	return RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, BankDayAdjustment: AdjustNone}
}

func TestAmountPatternOverlapsWindow(t *testing.T) {
	pattern := NewAmountPattern(uuid.New(), 100000, NewDate(2026, time.March, 10), monthlyRule())

	feb := NewPeriod(2026, time.February)
	mar := NewPeriod(2026, time.March)
	if pattern.OverlapsWindow(feb.Start(), feb.End()) {
		t.Error("pattern starting in March overlaps February")
	}
	if !pattern.OverlapsWindow(mar.Start(), mar.End()) {
		t.Error("pattern should overlap its own start month")
	}

	end := NewDate(2026, time.April, 15)
	pattern.EndDate = &end
	may := NewPeriod(2026, time.May)
	apr := NewPeriod(2026, time.April)
	if pattern.OverlapsWindow(may.Start(), may.End()) {
		t.Error("ended pattern overlaps May")
	}
	if !pattern.OverlapsWindow(apr.Start(), apr.End()) {
		t.Error("pattern ending mid-April should still overlap April")
	}
}

func TestAmountPatternContainerResolution(t *testing.T) {
	postPool := []uuid.UUID{uuid.New(), uuid.New()}
	post := NewBudgetPost(uuid.New(), DirectionExpense, []string{"food"})
	post.ContainerIDs = postPool

	pattern := NewAmountPattern(post.ID, 50000, NewDate(2026, time.January, 1), monthlyRule())

	// Empty pattern pool inherits from the post.
	got := pattern.EffectiveContainerIDs(post)
	if len(got) != 2 || got[0] != postPool[0] || got[1] != postPool[1] {
		t.Errorf("inherited pool = %v, want %v", got, postPool)
	}

	// A non-empty pattern pool narrows, not merges.
	own := uuid.New()
	pattern.ContainerIDs = []uuid.UUID{own}
	got = pattern.EffectiveContainerIDs(post)
	if len(got) != 1 || got[0] != own {
		t.Errorf("narrowed pool = %v, want [%s]", got, own)
	}
}

func TestAmountPatternAllowsContainer(t *testing.T) {
	post := NewBudgetPost(uuid.New(), DirectionExpense, []string{"food"})
	pattern := NewAmountPattern(post.ID, 50000, NewDate(2026, time.January, 1), monthlyRule())

	member := uuid.New()
	stranger := uuid.New()

	// Unrestricted pool accepts anything, including no container.
	if !pattern.AllowsContainer(post, nil) {
		t.Error("unrestricted pool rejected a nil container")
	}
	if !pattern.AllowsContainer(post, &stranger) {
		t.Error("unrestricted pool rejected a container")
	}

	pattern.ContainerIDs = []uuid.UUID{member}
	if !pattern.AllowsContainer(post, &member) {
		t.Error("pool member rejected")
	}
	if pattern.AllowsContainer(post, &stranger) {
		t.Error("non-member accepted")
	}
	if pattern.AllowsContainer(post, nil) {
		t.Error("nil container accepted by a restricted pool")
	}
}

func TestAmountPatternValidate(t *testing.T) {
	valid := NewAmountPattern(uuid.New(), 100000, NewDate(2026, time.January, 1), monthlyRule())
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid pattern rejected: %v", err)
	}

	zeroAmount := NewAmountPattern(uuid.New(), 0, NewDate(2026, time.January, 1), monthlyRule())
	if err := zeroAmount.Validate(); err == nil {
		t.Error("zero amount accepted")
	}

	inverted := NewAmountPattern(uuid.New(), 100000, NewDate(2026, time.June, 1), monthlyRule())
	end := NewDate(2026, time.January, 1)
	inverted.EndDate = &end
	if err := inverted.Validate(); err == nil {
		t.Error("end date before start date accepted")
	}

	badRule := NewAmountPattern(uuid.New(), 100000, NewDate(2026, time.January, 1),
		RecurrenceRule{Frequency: "sometimes", Interval: 1, BankDayAdjustment: AdjustNone})
	if err := badRule.Validate(); err == nil {
		t.Error("invalid rule accepted")
	}
}

func TestAmountPatternClaimsDate(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		rule  RecurrenceRule
		date  time.Time
		want  bool
	}{
		{
			name:  "monthly anchor day",
			start: NewDate(2026, time.January, 1),
			rule:  RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.February, 1),
			want:  true,
		},
		{
			name:  "monthly off-anchor day",
			start: NewDate(2026, time.January, 1),
			rule:  RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.February, 2),
			want:  false,
		},
		{
			name:  "monthly anchor clamps to short month",
			start: NewDate(2026, time.January, 31),
			rule:  RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.February, 28),
			want:  true,
		},
		{
			name:  "monthly interval skips a month",
			start: NewDate(2026, time.January, 10),
			rule:  RecurrenceRule{Frequency: FrequencyMonthly, Interval: 2, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.February, 10),
			want:  false,
		},
		{
			name:  "weekly same weekday",
			start: NewDate(2026, time.January, 5),
			rule:  RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.January, 19),
			want:  true,
		},
		{
			name:  "weekly wrong weekday",
			start: NewDate(2026, time.January, 5),
			rule:  RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.January, 20),
			want:  false,
		},
		{
			name:  "daily with interval",
			start: NewDate(2026, time.January, 1),
			rule:  RecurrenceRule{Frequency: FrequencyDaily, Interval: 10, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.January, 21),
			want:  true,
		},
		{
			name:  "yearly on the anniversary",
			start: NewDate(2024, time.June, 5),
			rule:  RecurrenceRule{Frequency: FrequencyYearly, Interval: 1, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.June, 5),
			want:  true,
		},
		{
			name:  "before the window",
			start: NewDate(2026, time.March, 1),
			rule:  RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.February, 1),
			want:  false,
		},
		{
			name:  "dateless rule claims nothing",
			start: NewDate(2026, time.January, 1),
			rule:  RecurrenceRule{Frequency: FrequencyNone, Interval: 1, BankDayAdjustment: AdjustNone},
			date:  NewDate(2026, time.January, 1),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern := NewAmountPattern(uuid.New(), 10000, tt.start, tt.rule)
			if got := pattern.ClaimsDate(tt.date); got != tt.want {
				t.Errorf("ClaimsDate(%s) = %t, want %t", FormatDate(tt.date), got, tt.want)
			}
		})
	}
}

func TestAmountPatternClaimsDateRespectsEndDate(t *testing.T) {
	pattern := NewAmountPattern(uuid.New(), 10000, NewDate(2026, time.January, 1),
		RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, BankDayAdjustment: AdjustNone})
	end := NewDate(2026, time.March, 31)
	pattern.EndDate = &end

	if !pattern.ClaimsDate(NewDate(2026, time.March, 1)) {
		t.Error("date inside the window rejected")
	}
	if pattern.ClaimsDate(NewDate(2026, time.April, 1)) {
		t.Error("date after the end date claimed")
	}
}
