// Package analytics summarizes transactions over a calendar window for
// charting: totals, time buckets and an expense breakdown by category.
package analytics

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"cashorganizer/internal/core"
	"cashorganizer/internal/period"
)

// ErrUnsupportedPeriod is returned for display periods analytics has no
// bucketing for.
var ErrUnsupportedPeriod = errors.New("analytics supports MONTH, YEAR and ALL only")

const (
	dayKey   = "02"
	monthKey = "Jan"
	yearKey  = "2006"
)

// Bucket holds the sums of one day, month or year.
type Bucket struct {
	Key     string
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Slice is one category's share of expenses.
type Slice struct {
	Category string
	Total    decimal.Decimal
	// Share is the percentage of all expenses, one decimal place.
	Share decimal.Decimal
	// Color is "#rrggbb", stable for a given name.
	Color string
}

type Report struct {
	Period     period.DisplayPeriod
	Count      int
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Balance    decimal.Decimal
	Buckets    []Bucket
	Categories []Slice
}

// ValidatePeriod accepts MONTH, YEAR and ALL.
func ValidatePeriod(p period.DisplayPeriod) error {
	switch p {
	case period.Month, period.Year, period.All:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPeriod, p)
	}
}

// Build aggregates txs falling in the window p around now. Unsupported
// periods are treated as ALL.
func Build(txs []core.Transaction, p period.DisplayPeriod, now time.Time, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	if ValidatePeriod(p) != nil {
		p = period.All
	}
	now = now.In(loc)

	r := Report{
		Period:  p,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	buckets := make(map[string]*Bucket)
	byCategory := make(map[string]decimal.Decimal)

	for _, tx := range txs {
		d := tx.Date.In(loc)
		if !inWindow(d, p, now) {
			continue
		}
		r.Count++

		key := d.Format(layout(p))
		b, ok := buckets[key]
		if !ok {
			b = &Bucket{Key: key, Income: decimal.Zero, Expense: decimal.Zero}
			buckets[key] = b
		}

		switch tx.Type {
		case core.Income:
			r.Income = r.Income.Add(tx.Amount)
			b.Income = b.Income.Add(tx.Amount)
		case core.Expense:
			r.Expense = r.Expense.Add(tx.Amount)
			b.Expense = b.Expense.Add(tx.Amount)
			byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		}
	}
	r.Balance = r.Income.Sub(r.Expense)

	r.Buckets = make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		r.Buckets = append(r.Buckets, *b)
	}
	sort.Slice(r.Buckets, func(i, j int) bool {
		return bucketTime(r.Buckets[i].Key, p, now).Before(bucketTime(r.Buckets[j].Key, p, now))
	})

	r.Categories = make([]Slice, 0, len(byCategory))
	for name, total := range byCategory {
		r.Categories = append(r.Categories, Slice{
			Category: name,
			Total:    total,
			Share:    share(total, r.Expense),
			Color:    Color(name),
		})
	}
	sort.Slice(r.Categories, func(i, j int) bool {
		a, b := r.Categories[i], r.Categories[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.Category < b.Category
	})

	return r
}

func inWindow(d time.Time, p period.DisplayPeriod, now time.Time) bool {
	switch p {
	case period.Month:
		return d.Year() == now.Year() && d.Month() == now.Month()
	case period.Year:
		return d.Year() == now.Year()
	default:
		return true
	}
}

func layout(p period.DisplayPeriod) string {
	switch p {
	case period.Month:
		return dayKey
	case period.Year:
		return monthKey
	default:
		return yearKey
	}
}

// bucketTime turns a bucket key back into a date, borrowing the missing
// year and month from now.
func bucketTime(key string, p period.DisplayPeriod, now time.Time) time.Time {
	loc := now.Location()
	switch p {
	case period.Month:
		day, err := strconv.Atoi(key)
		if err != nil {
			return time.Time{}
		}
		return time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, loc)
	case period.Year:
		m, err := time.Parse(monthKey, key)
		if err != nil {
			return time.Time{}
		}
		return time.Date(now.Year(), m.Month(), 1, 0, 0, 0, 0, loc)
	default:
		year, err := strconv.Atoi(key)
		if err != nil {
			return time.Time{}
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	}
}

func share(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(1)
}

// Color derives a display color from a category name.
func Color(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprintf("#%06x", h.Sum32()&0xffffff)
}
