package storage

import (
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"cashorganizer/internal/core"
)

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Kind describes how one record type is laid out, identified and ordered.
// SQL backends use Table/Columns/OrderBy/Values/Scan; in-memory backends
// use Less. Both orders must agree.
type Kind[T any] struct {
	Table     string
	Columns   []string // without id
	OrderBy   string
	Less      func(a, b T) bool
	ID        func(T) int64
	WithID    func(T, int64) T
	Values    func(T) []any // in Columns order
	Scan      func(Scanner) (T, error)
	Normalize func(T) T
}

var Transactions = Kind[core.Transaction]{
	Table:   "transactions",
	Columns: []string{"amount", "type", "category", "category_id", "date", "note", "created_at"},
	OrderBy: "date DESC, id DESC",
	Less: func(a, b core.Transaction) bool {
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID > b.ID
	},
	ID:     func(t core.Transaction) int64 { return t.ID },
	WithID: func(t core.Transaction, id int64) core.Transaction { t.ID = id; return t },
	Values: func(t core.Transaction) []any {
		return []any{
			t.Amount.String(),
			string(t.Type),
			t.Category,
			nullInt(t.CategoryID),
			t.Date.UnixMilli(),
			nullString(t.Note),
			t.CreatedAt.UnixMilli(),
		}
	},
	Scan: func(s Scanner) (core.Transaction, error) {
		var (
			t       core.Transaction
			amount  string
			typ     string
			catID   sql.NullInt64
			date    int64
			note    sql.NullString
			created int64
		)
		if err := s.Scan(&t.ID, &amount, &typ, &t.Category, &catID, &date, &note, &created); err != nil {
			return t, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return t, err
		}
		t.Amount = d
		t.Type = core.TransactionType(typ)
		if catID.Valid {
			id := catID.Int64
			t.CategoryID = &id
		}
		t.Date = core.FromMillis(date)
		t.Note = note.String
		t.CreatedAt = core.FromMillis(created)
		return t, nil
	},
	Normalize: core.Transaction.Normalize,
}

var Categories = Kind[core.Category]{
	Table:   "categories",
	Columns: []string{"name", "type"},
	OrderBy: "name ASC, id ASC",
	Less: func(a, b core.Category) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	},
	ID:     func(c core.Category) int64 { return c.ID },
	WithID: func(c core.Category, id int64) core.Category { c.ID = id; return c },
	Values: func(c core.Category) []any {
		return []any{c.Name, string(c.Type)}
	},
	Scan: func(s Scanner) (core.Category, error) {
		var (
			c   core.Category
			typ string
		)
		if err := s.Scan(&c.ID, &c.Name, &typ); err != nil {
			return c, err
		}
		c.Type = core.TransactionType(typ)
		return c, nil
	},
	Normalize: func(c core.Category) core.Category { return c },
}

var Limits = Kind[core.Limit]{
	Table:   "limits",
	Columns: []string{"category_id", "month", "limit_amount", "period_type", "created_at", "updated_at"},
	OrderBy: "month DESC, id ASC",
	Less: func(a, b core.Limit) bool {
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.ID < b.ID
	},
	ID:     func(l core.Limit) int64 { return l.ID },
	WithID: func(l core.Limit, id int64) core.Limit { l.ID = id; return l },
	Values: func(l core.Limit) []any {
		return []any{
			l.CategoryID,
			l.Month,
			l.LimitAmount.String(),
			string(l.Period),
			l.CreatedAt.UnixMilli(),
			l.UpdatedAt.UnixMilli(),
		}
	},
	Scan: func(s Scanner) (core.Limit, error) {
		var (
			l       core.Limit
			amount  string
			period  string
			created int64
			updated int64
		)
		if err := s.Scan(&l.ID, &l.CategoryID, &l.Month, &amount, &period, &created, &updated); err != nil {
			return l, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return l, err
		}
		l.LimitAmount = d
		l.Period = core.LimitPeriod(period)
		l.CreatedAt = core.FromMillis(created)
		l.UpdatedAt = core.FromMillis(updated)
		return l, nil
	},
	Normalize: core.Limit.Normalize,
}

var Goals = Kind[core.Goal]{
	Table:   "goals",
	Columns: []string{"name", "target_amount", "current_amount", "target_date", "created_at", "updated_at"},
	OrderBy: "created_at DESC, id DESC",
	Less: func(a, b core.Goal) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	},
	ID:     func(g core.Goal) int64 { return g.ID },
	WithID: func(g core.Goal, id int64) core.Goal { g.ID = id; return g },
	Values: func(g core.Goal) []any {
		var target sql.NullInt64
		if g.TargetDate != nil {
			target = sql.NullInt64{Int64: g.TargetDate.UnixMilli(), Valid: true}
		}
		return []any{
			g.Name,
			g.TargetAmount.String(),
			g.CurrentAmount.String(),
			target,
			g.CreatedAt.UnixMilli(),
			g.UpdatedAt.UnixMilli(),
		}
	},
	Scan: func(s Scanner) (core.Goal, error) {
		var (
			g       core.Goal
			target  string
			current string
			date    sql.NullInt64
			created int64
			updated int64
		)
		if err := s.Scan(&g.ID, &g.Name, &target, &current, &date, &created, &updated); err != nil {
			return g, err
		}
		var err error
		if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
			return g, err
		}
		if g.CurrentAmount, err = decimal.NewFromString(current); err != nil {
			return g, err
		}
		if date.Valid {
			d := core.FromMillis(date.Int64)
			g.TargetDate = &d
		}
		g.CreatedAt = core.FromMillis(created)
		g.UpdatedAt = core.FromMillis(updated)
		return g, nil
	},
	Normalize: core.Goal.Normalize,
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
