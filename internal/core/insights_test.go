package core

import (
	"testing"
	"time"
)

func TestComputeInsights(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local) // Wednesday
	thisWeek := now.Add(-time.Hour)
	prevWeek := WeekStart(now).AddDate(0, 0, -3)

	txs := []Transaction{
		txAt(Inflow, 20000, thisWeek, ""),
		txAt(Outflow, 5000, thisWeek, "Food"),
		txAt(Inflow, 10000, prevWeek, ""),
	}

	ins := ComputeInsights(txs, now)
	if ins.WeekSavings.Cents != 15000 {
		t.Errorf("week savings = %d, want 15000", ins.WeekSavings.Cents)
	}
	if ins.PrevWeekSavings.Cents != 10000 {
		t.Errorf("prev week savings = %d, want 10000", ins.PrevWeekSavings.Cents)
	}
	if ins.PctChange == nil || *ins.PctChange != 50 {
		t.Errorf("pct change = %v, want 50", ins.PctChange)
	}
	// Wednesday is the 4th day of a Sunday-start week: 15000/4*30.
	if want := int64(15000/4) * 30; ins.Projection30d.Cents != want {
		t.Errorf("projection = %d, want %d", ins.Projection30d.Cents, want)
	}
	if len(ins.TopCategories) != 1 || ins.TopCategories[0].Name != "Food" {
		t.Errorf("top categories = %+v", ins.TopCategories)
	}
}

// No percent change is reported when the previous week's savings are zero.
func TestComputeInsightsZeroPrevWeek(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local)
	txs := []Transaction{txAt(Inflow, 5000, now.Add(-time.Hour), "")}

	ins := ComputeInsights(txs, now)
	if ins.PctChange != nil {
		t.Errorf("pct change = %v, want nil", *ins.PctChange)
	}
}

// A swing from negative to positive reads as an increase because the
// denominator is the absolute prior value.
func TestComputeInsightsNegativePrevWeek(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.Local)
	prevWeek := WeekStart(now).AddDate(0, 0, -3)
	txs := []Transaction{
		txAt(Inflow, 5000, now.Add(-time.Hour), ""),
		txAt(Outflow, 10000, prevWeek, ""),
	}

	ins := ComputeInsights(txs, now)
	if ins.PctChange == nil || *ins.PctChange <= 0 {
		t.Errorf("pct change = %v, want positive", ins.PctChange)
	}
}
