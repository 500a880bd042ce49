package core

import "time"

// Period is an inclusive date range used to scope aggregation. A nil bound
// imposes no limit on that side. End is inclusive through the end of its
// calendar day.
type Period struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether the instant falls inside the period. The end
// bound is the start of the day after End, so any time-of-day on the End
// date is included.
func (p Period) Contains(t time.Time) bool {
	if p.Start != nil && t.Before(*p.Start) {
		return false
	}
	if p.End != nil {
		e := *p.End
		bound := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, e.Location()).AddDate(0, 0, 1)
		if !t.Before(bound) {
			return false
		}
	}
	return true
}

// FilterPeriod returns the transactions whose creation instant falls inside
// the period, preserving input order. Pure: the input slice is not modified.
func FilterPeriod(txs []Transaction, p Period) []Transaction {
	if p.Start == nil && p.End == nil {
		out := make([]Transaction, len(txs))
		copy(out, txs)
		return out
	}
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if p.Contains(tx.CreatedAt.Instant()) {
			out = append(out, tx)
		}
	}
	return out
}
