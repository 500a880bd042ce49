package core

import (
	"fmt"
	"math"
	"time"
)

const (
	KindWarning NotificationKind = "warning"
	KindInfo    NotificationKind = "info"
)

// limitWarnRatio is the fraction of a spending limit at which a warning
// fires.
const limitWarnRatio = 0.8

// patternChangeThreshold is the percent change in a category's weekly
// outflow that gets flagged.
const patternChangeThreshold = 20.0

type (
	NotificationKind string

	// Notification is a derived alert. It is recomputed from the ledger on
	// every read and never stored.
	Notification struct {
		Kind      NotificationKind `json:"kind"`
		Title     string           `json:"title"`
		Message   string           `json:"message"`
		TimeLabel string           `json:"timeLabel"`
	}

	// PatternChange describes a week-over-week shift in one category's
	// outflow.
	PatternChange struct {
		Category  string  `json:"category"`
		ThisWeek  Money   `json:"thisWeek"`
		PrevWeek  Money   `json:"prevWeek"`
		PctChange float64 `json:"pctChange"`
	}
)

// WeekStart returns midnight of the Sunday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// MonthStart returns midnight of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EvaluateLimits checks the daily and weekly spending limits against today's
// and this week's outflow. A limit of zero or less disables its check; a
// warning fires when spend reaches 80% of the limit.
func EvaluateLimits(txs []Transaction, s Settings, now time.Time) []Notification {
	var out []Notification

	if s.DailySpendingLimit.Cents > 0 {
		spent := OutflowBetween(txs, now, now)
		if ratio(spent, s.DailySpendingLimit) >= limitWarnRatio {
			out = append(out, Notification{
				Kind:      KindWarning,
				Title:     "Daily limit alert",
				Message:   fmt.Sprintf("You've spent %s of your %s daily limit", spent, s.DailySpendingLimit),
				TimeLabel: "Today",
			})
		}
	}

	if s.WeeklySpendingLimit.Cents > 0 {
		spent := OutflowBetween(txs, WeekStart(now), now)
		if ratio(spent, s.WeeklySpendingLimit) >= limitWarnRatio {
			out = append(out, Notification{
				Kind:      KindWarning,
				Title:     "Weekly limit alert",
				Message:   fmt.Sprintf("You've spent %s of your %s weekly limit", spent, s.WeeklySpendingLimit),
				TimeLabel: "This week",
			})
		}
	}

	return out
}

func ratio(spent, limit Money) float64 {
	return float64(spent.Cents) / float64(limit.Cents)
}

// GoalProgress returns the month-to-date net savings as a percentage of the
// savings goal, clamped to [0, 100]. A goal of zero or less yields 0.
func GoalProgress(txs []Transaction, goal Money, now time.Time) float64 {
	if goal.Cents <= 0 {
		return 0
	}
	saved := SavingsBetween(txs, MonthStart(now), now)
	pct := float64(saved.Cents) / float64(goal.Cents) * 100
	return math.Min(100, math.Max(0, pct))
}

// ComparePatterns contrasts per-category outflow of the current week (week
// start through now) against the trailing seven days before the week start.
// Categories absent from the prior window, or with zero prior spend, are
// skipped: there is no baseline to compare against. A change is flagged when
// its absolute percent value exceeds 20.
func ComparePatterns(txs []Transaction, now time.Time) []PatternChange {
	weekStart := WeekStart(now)
	thisWeek := OutflowByCategory(txs, weekStart, now)
	prevWeek := OutflowByCategory(txs, weekStart.AddDate(0, 0, -7), weekStart.Add(-time.Nanosecond))

	var changes []PatternChange
	for _, c := range TopCategories(thisWeek, 0) {
		prev, ok := prevWeek[c.Name]
		if !ok || prev.Cents == 0 {
			continue
		}
		pct := float64(c.Amount.Cents-prev.Cents) / float64(prev.Cents) * 100
		if math.Abs(pct) > patternChangeThreshold {
			changes = append(changes, PatternChange{
				Category:  c.Name,
				ThisWeek:  c.Amount,
				PrevWeek:  prev,
				PctChange: pct,
			})
		}
	}
	return changes
}

// Notifications assembles the full derived alert list: limit warnings,
// pattern-change notices, and the daily tracking reminder when enabled and
// the most recent entry is more than a day old.
func Notifications(txs []Transaction, s Settings, now time.Time) []Notification {
	out := EvaluateLimits(txs, s, now)

	for _, c := range ComparePatterns(txs, now) {
		direction := "increased"
		if c.PctChange < 0 {
			direction = "decreased"
		}
		out = append(out, Notification{
			Kind:      KindInfo,
			Title:     "Spending pattern change",
			Message:   fmt.Sprintf("%s spending %s %.0f%% vs last week", c.Category, direction, math.Abs(c.PctChange)),
			TimeLabel: "This week",
		})
	}

	if s.DailyReminder {
		if last, ok := lastEntry(txs); ok && now.Sub(last) > 24*time.Hour {
			out = append(out, Notification{
				Kind:      KindInfo,
				Title:     "Tracking reminder",
				Message:   "You haven't recorded anything since " + NewTimestamp(last).Date,
				TimeLabel: "Reminder",
			})
		}
	}

	return out
}

func lastEntry(txs []Transaction) (time.Time, bool) {
	var last time.Time
	for _, tx := range txs {
		if at := tx.CreatedAt.Instant(); at.After(last) {
			last = at
		}
	}
	return last, !last.IsZero()
}
