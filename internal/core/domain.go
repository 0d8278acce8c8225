package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Daily   LimitPeriod = "DAILY"
	Weekly  LimitPeriod = "WEEKLY"
	Monthly LimitPeriod = "MONTHLY"
)

// MonthLayout is the layout of Limit.Month keys.
const MonthLayout = "2006-01"

type (
	TransactionType string

	// LimitPeriod is the reset cadence used when summing spending against a limit.
	LimitPeriod string

	Transaction struct {
		ID         int64
		Amount     decimal.Decimal
		Type       TransactionType
		Category   string // matched against Category.Name, case-insensitive
		CategoryID *int64 // informational only
		Date       time.Time
		Note       string
		CreatedAt  time.Time
	}

	Category struct {
		ID   int64
		Name string
		Type TransactionType
	}

	Limit struct {
		ID          int64
		CategoryID  int64
		Month       string // YYYY-MM
		LimitAmount decimal.Decimal
		Period      LimitPeriod
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Goal struct {
		ID            int64
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		TargetDate    *time.Time
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidPeriod      = errors.New("invalid limit period")
	ErrInvalidMonth       = errors.New("invalid month key")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyCategory      = errors.New("empty category")
	ErrNotExpenseCategory = errors.New("limits apply to expense categories only")
)

// Timestamp truncates t to millisecond precision in UTC, the resolution
// records are persisted with.
func Timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.UnixMilli(t.UnixMilli()).UTC()
}

// FromMillis converts a persisted epoch-millisecond value back to a time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// ParseTransactionType accepts any letter case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (p LimitPeriod) Validate() error {
	switch p {
	case Daily, Weekly, Monthly:
		return nil
	default:
		return ErrInvalidPeriod
	}
}

// ParseLimitPeriod accepts any letter case; an empty string means Monthly.
func ParseLimitPeriod(s string) (LimitPeriod, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Monthly, nil
	}
	p := LimitPeriod(strings.ToUpper(s))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// ValidateMonth checks a YYYY-MM key.
func ValidateMonth(month string) error {
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return ErrInvalidMonth
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Normalize returns a copy with timestamps at persisted precision.
func (t Transaction) Normalize() Transaction {
	t.Date = Timestamp(t.Date)
	t.CreatedAt = Timestamp(t.CreatedAt)
	return t
}

// MatchesCategory reports whether the transaction belongs to the named
// category. Names are compared case-insensitively; ids are ignored.
func (t Transaction) MatchesCategory(name string) bool {
	return strings.EqualFold(t.Category, name)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Type.Validate()
}

func (c Category) IsExpense() bool {
	return c.Type == Expense
}

func (l Limit) Validate() error {
	if !l.LimitAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := ValidateMonth(l.Month); err != nil {
		return err
	}
	return l.Period.Validate()
}

func (l Limit) Normalize() Limit {
	l.CreatedAt = Timestamp(l.CreatedAt)
	l.UpdatedAt = Timestamp(l.UpdatedAt)
	return l
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (g Goal) Normalize() Goal {
	if g.TargetDate != nil {
		d := Timestamp(*g.TargetDate)
		g.TargetDate = &d
	}
	g.CreatedAt = Timestamp(g.CreatedAt)
	g.UpdatedAt = Timestamp(g.UpdatedAt)
	return g
}

// Contribute adds amount (which may be negative) to the current amount.
// The result never drops below zero and is not capped at the target.
func (g Goal) Contribute(amount decimal.Decimal, now time.Time) Goal {
	g.CurrentAmount = decimal.Max(g.CurrentAmount.Add(amount), decimal.Zero)
	g.UpdatedAt = Timestamp(now)
	return g
}

// Reached reports whether the current amount has met the target.
func (g Goal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
