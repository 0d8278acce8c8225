// Package budget computes per-category spending against limits. It is pure:
// every call recomputes from the snapshot it is given.
package budget

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cashorganizer/internal/core"
	"cashorganizer/internal/period"
)

var hundred = decimal.NewFromInt(100)

// Input is the part of the record snapshot the computation reads.
type Input struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Limits       []core.Limit
}

// Row is the display model of one expense category.
type Row struct {
	Category core.Category
	// Limit is nil when no limit is set for the current month.
	Limit       *core.Limit
	LimitAmount decimal.Decimal
	Spent       decimal.Decimal
	Percent     int
	OverLimit   bool
	// PeriodStart is the first instant counted towards Spent.
	PeriodStart time.Time
}

// Overage is how far spending exceeds the limit, or zero.
func (r Row) Overage() decimal.Decimal {
	if !r.OverLimit {
		return decimal.Zero
	}
	return r.Spent.Sub(r.LimitAmount)
}

// Remaining is what is left of the limit, or zero.
func (r Row) Remaining() decimal.Decimal {
	return decimal.Max(r.LimitAmount.Sub(r.Spent), decimal.Zero)
}

// HasLimit reports whether a limit applies to the row.
func (r Row) HasLimit() bool {
	return r.Limit != nil
}

// Compute returns one row per expense category, sorted by name.
func Compute(in Input, now time.Time, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	month := period.MonthKey(now, loc)

	limits := make(map[int64]core.Limit)
	for _, l := range in.Limits {
		if l.Month == month {
			limits[l.CategoryID] = l
		}
	}

	rows := make([]Row, 0, len(in.Categories))
	for _, cat := range in.Categories {
		if !cat.IsExpense() {
			continue
		}

		l, ok := limits[cat.ID]
		if !ok {
			start := period.StartOfMonth(now, loc)
			rows = append(rows, Row{
				Category:    cat,
				LimitAmount: decimal.Zero,
				Spent:       spent(in.Transactions, cat.Name, start, now),
				PeriodStart: start,
			})
			continue
		}

		start := period.CadenceStart(l.Period, now, loc)
		if l.CreatedAt.After(start) {
			start = l.CreatedAt
		}
		s := spent(in.Transactions, cat.Name, start, time.Time{})
		limit := l
		rows = append(rows, Row{
			Category:    cat,
			Limit:       &limit,
			LimitAmount: l.LimitAmount,
			Spent:       s,
			Percent:     Percent(s, l.LimitAmount),
			OverLimit:   l.LimitAmount.IsPositive() && s.GreaterThan(l.LimitAmount),
			PeriodStart: start,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if a, b := rows[i].Category.Name, rows[j].Category.Name; a != b {
			return a < b
		}
		return rows[i].Category.ID < rows[j].Category.ID
	})
	return rows
}

// spent sums expense transactions of the named category dated at or after
// from, and at or before to when to is set.
func spent(txs []core.Transaction, category string, from, to time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Type != core.Expense || !tx.MatchesCategory(category) {
			continue
		}
		if tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && tx.Date.After(to) {
			continue
		}
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// Percent is spent as a whole percentage of limit, clamped to [0, 100].
// A non-positive limit yields 0.
func Percent(spent, limit decimal.Decimal) int {
	if !limit.IsPositive() {
		return 0
	}
	p := spent.Div(limit).Mul(hundred).Round(0).IntPart()
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return int(p)
	}
}

// ValidateLimitTarget rejects categories a limit cannot be set on.
func ValidateLimitTarget(c core.Category) error {
	if !c.IsExpense() {
		return core.ErrNotExpenseCategory
	}
	return nil
}
