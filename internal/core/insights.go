package core

import (
	"math"
	"time"
)

type (
	// Insights summarizes recent saving behavior for the dashboard.
	Insights struct {
		WeekSavings     Money            `json:"weekSavings"`
		PrevWeekSavings Money            `json:"prevWeekSavings"`
		PctChange       *float64         `json:"pctChange,omitempty"` // nil when the previous week is zero
		Projection30d   Money            `json:"projection30d"`
		TopCategories   []CategoryAmount `json:"topCategories"`
	}
)

// ComputeInsights derives the weekly savings comparison, a 30-day projection
// from the current week's daily rate, and the top three outflow categories of
// the current week.
//
// The percent change is omitted when the previous week's savings are zero.
// Its denominator is the absolute prior value, so a swing from negative to
// positive still reads as an increase.
func ComputeInsights(txs []Transaction, now time.Time) Insights {
	weekStart := WeekStart(now)
	prevStart := weekStart.AddDate(0, 0, -7)
	prevEnd := weekStart.Add(-time.Nanosecond)

	week := SavingsBetween(txs, weekStart, now)
	prev := SavingsBetween(txs, prevStart, prevEnd)

	ins := Insights{
		WeekSavings:     week,
		PrevWeekSavings: prev,
		TopCategories:   TopCategories(OutflowByCategory(txs, weekStart, now), 3),
	}

	if prev.Cents != 0 {
		pct := float64(week.Cents-prev.Cents) / math.Abs(float64(prev.Cents)) * 100
		ins.PctChange = &pct
	}

	// Days elapsed this week, counting today as a full day.
	days := int(now.Sub(weekStart).Hours()/24) + 1
	if days > 0 {
		ins.Projection30d = Money{Cents: week.Cents / int64(days) * 30}
	}

	return ins
}
