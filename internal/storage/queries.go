package storage

import (
	"time"

	"cashorganizer/internal/core"
)

// TransactionsBetween selects transactions dated within [start, end].
func TransactionsBetween(start, end time.Time) Query[core.Transaction] {
	from, to := start.UnixMilli(), end.UnixMilli()
	return Query[core.Transaction]{
		Where: "date >= ? AND date <= ?",
		Args:  []any{from, to},
		Match: func(t core.Transaction) bool {
			ms := t.Date.UnixMilli()
			return ms >= from && ms <= to
		},
	}
}

func CategoriesOfType(tt core.TransactionType) Query[core.Category] {
	return Query[core.Category]{
		Where: "type = ?",
		Args:  []any{string(tt)},
		Match: func(c core.Category) bool { return c.Type == tt },
	}
}

func LimitsForMonth(month string) Query[core.Limit] {
	return Query[core.Limit]{
		Where: "month = ?",
		Args:  []any{month},
		Match: func(l core.Limit) bool { return l.Month == month },
	}
}

// LimitForCategoryMonth selects the limit keyed by (categoryID, month).
func LimitForCategoryMonth(categoryID int64, month string) Query[core.Limit] {
	return Query[core.Limit]{
		Where: "category_id = ? AND month = ?",
		Args:  []any{categoryID, month},
		Match: func(l core.Limit) bool { return l.CategoryID == categoryID && l.Month == month },
	}
}
