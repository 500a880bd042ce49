package core

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "wednesday",
			in:   time.Date(2025, 1, 15, 14, 30, 0, 0, time.Local), // Wed
			want: time.Date(2025, 1, 12, 0, 0, 0, 0, time.Local),   // Sun
		},
		{
			name: "sunday is its own week start",
			in:   time.Date(2025, 1, 12, 8, 0, 0, 0, time.Local),
			want: time.Date(2025, 1, 12, 0, 0, 0, 0, time.Local),
		},
		{
			name: "saturday",
			in:   time.Date(2025, 1, 18, 23, 0, 0, 0, time.Local),
			want: time.Date(2025, 1, 12, 0, 0, 0, 0, time.Local),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(tt.in); !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateLimitsWeeklyBoundary(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local) // Wednesday
	settings := Settings{WeeklySpendingLimit: Money{Cents: 100000}}

	spend := func(cents int64) []Transaction {
		return []Transaction{txAt(Outflow, cents, now.Add(-2*time.Hour), "")}
	}

	// 850 of 1000 is 85%, at or past the 80% line.
	if got := EvaluateLimits(spend(85000), settings, now); len(got) != 1 {
		t.Errorf("85%% spend: got %d warnings, want 1", len(got))
	}
	// 750 of 1000 is 75%, under the line.
	if got := EvaluateLimits(spend(75000), settings, now); len(got) != 0 {
		t.Errorf("75%% spend: got %d warnings, want 0", len(got))
	}
	// Exactly 80%.
	if got := EvaluateLimits(spend(80000), settings, now); len(got) != 1 {
		t.Errorf("80%% spend: got %d warnings, want 1", len(got))
	}
}

func TestEvaluateLimitsDaily(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local)
	settings := Settings{DailySpendingLimit: Money{Cents: 50000}}

	txs := []Transaction{
		txAt(Outflow, 30000, now.Add(-10*time.Hour), ""), // today, early morning
		txAt(Outflow, 15000, now.Add(-time.Hour), ""),
		txAt(Outflow, 90000, now.AddDate(0, 0, -1), ""), // yesterday, ignored
	}

	got := EvaluateLimits(txs, settings, now)
	if len(got) != 1 {
		t.Fatalf("got %d warnings, want 1", len(got))
	}
	if got[0].Kind != KindWarning || got[0].TimeLabel != "Today" {
		t.Errorf("unexpected warning: %+v", got[0])
	}
}

// A limit of zero disables its check even when spend is positive.
func TestEvaluateLimitsDisabled(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local)
	txs := []Transaction{txAt(Outflow, 99999, now.Add(-time.Hour), "")}

	if got := EvaluateLimits(txs, Settings{}, now); len(got) != 0 {
		t.Errorf("disabled limits emitted %d warnings", len(got))
	}
}

func TestGoalProgress(t *testing.T) {
	now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.Local)
	txs := []Transaction{
		txAt(Inflow, 60000, now.AddDate(0, 0, -5), ""),
		txAt(Outflow, 10000, now.AddDate(0, 0, -2), ""),
		txAt(Inflow, 99999, now.AddDate(0, -1, 0), ""), // previous month, ignored
	}

	got := GoalProgress(txs, Money{Cents: 100000}, now)
	if got != 50 {
		t.Errorf("got %.1f%%, want 50", got)
	}

	// Clamped at 100 when savings exceed the goal.
	if got := GoalProgress(txs, Money{Cents: 10000}, now); got != 100 {
		t.Errorf("got %.1f%%, want 100", got)
	}

	// Clamped at 0 when the month is net negative.
	spendOnly := []Transaction{txAt(Outflow, 5000, now.Add(-time.Hour), "")}
	if got := GoalProgress(spendOnly, Money{Cents: 100000}, now); got != 0 {
		t.Errorf("got %.1f%%, want 0", got)
	}

	// A zero goal disables the computation.
	if got := GoalProgress(txs, Money{}, now); got != 0 {
		t.Errorf("zero goal: got %.1f%%, want 0", got)
	}
}

func TestComparePatterns(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local) // Wednesday
	thisWeek := now.Add(-time.Hour)
	prevWeek := WeekStart(now).AddDate(0, 0, -3)

	txs := []Transaction{
		txAt(Outflow, 13000, thisWeek, "Food"), // +30% vs 10000
		txAt(Outflow, 10000, prevWeek, "Food"),
		txAt(Outflow, 11000, thisWeek, "Bills"), // +10%, under threshold
		txAt(Outflow, 10000, prevWeek, "Bills"),
		txAt(Outflow, 5000, thisWeek, "Gadgets"), // no prior baseline, skipped
	}

	got := ComparePatterns(txs, now)
	if len(got) != 1 {
		t.Fatalf("got %d changes, want 1: %+v", len(got), got)
	}
	if got[0].Category != "Food" {
		t.Errorf("flagged %s, want Food", got[0].Category)
	}
	if got[0].PctChange != 30 {
		t.Errorf("pct = %.1f, want 30", got[0].PctChange)
	}
}

// Categories absent from, or zero in, the prior window never produce a
// division by zero or an infinite change.
func TestComparePatternsZeroGuard(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local)
	txs := []Transaction{
		txAt(Outflow, 50000, now.Add(-time.Hour), "NewCategory"),
	}

	got := ComparePatterns(txs, now)
	if len(got) != 0 {
		t.Errorf("category without baseline was flagged: %+v", got)
	}
}

func TestComparePatternsDecrease(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local)
	prevWeek := WeekStart(now).AddDate(0, 0, -3)
	txs := []Transaction{
		txAt(Outflow, 4000, now.Add(-time.Hour), "Transport"), // -60% vs 10000
		txAt(Outflow, 10000, prevWeek, "Transport"),
	}

	got := ComparePatterns(txs, now)
	if len(got) != 1 || got[0].PctChange != -60 {
		t.Fatalf("got %+v, want one -60%% change", got)
	}
}

func TestNotificationsDailyReminder(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local)
	stale := []Transaction{txAt(Inflow, 1000, now.AddDate(0, 0, -3), "")}

	got := Notifications(stale, Settings{DailyReminder: true}, now)
	if len(got) != 1 || got[0].Title != "Tracking reminder" {
		t.Fatalf("got %+v, want one reminder", got)
	}

	// Fresh entry, no reminder.
	fresh := []Transaction{txAt(Inflow, 1000, now.Add(-2*time.Hour), "")}
	if got := Notifications(fresh, Settings{DailyReminder: true}, now); len(got) != 0 {
		t.Errorf("fresh ledger produced %+v", got)
	}

	// Reminder disabled.
	if got := Notifications(stale, Settings{}, now); len(got) != 0 {
		t.Errorf("disabled reminder produced %+v", got)
	}
}
