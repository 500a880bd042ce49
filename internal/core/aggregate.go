package core

import (
	"sort"
	"time"
)

type (
	// Totals are the headline numbers for a (filtered) record set.
	Totals struct {
		Inflow  Money `json:"inflow"`
		Outflow Money `json:"outflow"`
		Net     Money `json:"net"`
		Count   int   `json:"count"`
	}

	// CategoryAmount is an outflow amount aggregated by category name.
	CategoryAmount struct {
		Name   string `json:"name"`
		Amount Money  `json:"amount"`
	}

	// DaySummary carries one display date's flows plus the cumulative
	// savings up to and including that date.
	DaySummary struct {
		Date    string `json:"date"` // MM/DD/YY
		Inflow  Money  `json:"inflow"`
		Outflow Money  `json:"outflow"`
		Net     Money  `json:"net"`
		Savings Money  `json:"savings"` // running balance in ascending date order
	}
)

// Aggregate computes the headline totals of a record set. Empty input yields
// all zeros. Re-running on an unmodified set yields identical results.
func Aggregate(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Inflow:
			t.Inflow = t.Inflow.Add(tx.Amount)
		case Outflow:
			t.Outflow = t.Outflow.Add(tx.Amount)
		}
		t.Count++
	}
	t.Net = t.Inflow.Sub(t.Outflow)
	return t
}

// OutflowByCategory sums outflow amounts per category for records whose
// creation instant lies in [from, to], both bounds inclusive. Grouping is a
// case-sensitive literal match; records without a category fall under
// "Other".
func OutflowByCategory(txs []Transaction, from, to time.Time) map[string]Money {
	byCategory := make(map[string]Money)
	for _, tx := range txs {
		if tx.Type != Outflow {
			continue
		}
		at := tx.CreatedAt.Instant()
		if at.Before(from) || at.After(to) {
			continue
		}
		cat := tx.CategoryOrDefault()
		byCategory[cat] = byCategory[cat].Add(tx.Amount)
	}
	return byCategory
}

// CategoryTotals sums outflow amounts per category over the whole record
// set, with the same grouping rules as OutflowByCategory.
func CategoryTotals(txs []Transaction) map[string]Money {
	byCategory := make(map[string]Money)
	for _, tx := range txs {
		if tx.Type != Outflow {
			continue
		}
		cat := tx.CategoryOrDefault()
		byCategory[cat] = byCategory[cat].Add(tx.Amount)
	}
	return byCategory
}

// SavingsBetween returns inflow minus outflow for records whose creation
// instant lies in [from, to], both bounds inclusive.
func SavingsBetween(txs []Transaction, from, to time.Time) Money {
	var savings Money
	for _, tx := range txs {
		at := tx.CreatedAt.Instant()
		if at.Before(from) || at.After(to) {
			continue
		}
		if tx.Type == Inflow {
			savings = savings.Add(tx.Amount)
		} else {
			savings = savings.Sub(tx.Amount)
		}
	}
	return savings
}

// OutflowBetween returns the outflow total for [from, to]. When both bounds
// fall on the same calendar day the match is by day, so any time-of-day on
// that date counts.
func OutflowBetween(txs []Transaction, from, to time.Time) Money {
	sameDay := sameCalendarDay(from, to)
	var spent Money
	for _, tx := range txs {
		if tx.Type != Outflow {
			continue
		}
		at := tx.CreatedAt.Instant()
		if sameDay {
			if sameCalendarDay(at, from) {
				spent = spent.Add(tx.Amount)
			}
			continue
		}
		if at.Before(from) || at.After(to) {
			continue
		}
		spent = spent.Add(tx.Amount)
	}
	return spent
}

func sameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DailySummaries groups records by display date and accumulates the running
// balance in ascending calendar order. Dates are compared by their parsed
// calendar value, never as strings. The result is ascending; callers that
// display newest-first reverse it without recomputing, which leaves the
// per-date savings values unchanged.
func DailySummaries(txs []Transaction) []DaySummary {
	type flows struct{ inflow, outflow Money }
	byDate := make(map[string]*flows)
	for _, tx := range txs {
		f := byDate[tx.Date]
		if f == nil {
			f = &flows{}
			byDate[tx.Date] = f
		}
		if tx.Type == Inflow {
			f.inflow = f.inflow.Add(tx.Amount)
		} else {
			f.outflow = f.outflow.Add(tx.Amount)
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		di, erri := ParseDisplayDate(dates[i])
		dj, errj := ParseDisplayDate(dates[j])
		if erri != nil || errj != nil {
			return dates[i] < dates[j]
		}
		return di.Before(dj)
	})

	var running Money
	out := make([]DaySummary, 0, len(dates))
	for _, d := range dates {
		f := byDate[d]
		net := f.inflow.Sub(f.outflow)
		running = running.Add(net)
		out = append(out, DaySummary{
			Date:    d,
			Inflow:  f.inflow,
			Outflow: f.outflow,
			Net:     net,
			Savings: running,
		})
	}
	return out
}

// MonthlySavings returns the net savings per calendar month of the given
// year, indexed 0-11, based on the display dates of the records.
func MonthlySavings(txs []Transaction, year int) [12]Money {
	var months [12]Money
	for _, tx := range txs {
		d, err := ParseDisplayDate(tx.Date)
		if err != nil || d.Year() != year {
			continue
		}
		i := int(d.Month()) - 1
		if tx.Type == Inflow {
			months[i] = months[i].Add(tx.Amount)
		} else {
			months[i] = months[i].Sub(tx.Amount)
		}
	}
	return months
}

// TopCategories returns the n largest categories by amount, descending. Ties
// break by name to keep the order stable.
func TopCategories(byCategory map[string]Money, n int) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(byCategory))
	for name, amount := range byCategory {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
