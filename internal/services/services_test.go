package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashorganizer/internal/core"
	"cashorganizer/internal/period"
	"cashorganizer/internal/records"
	"cashorganizer/internal/seed"
	"cashorganizer/internal/storage"
	"cashorganizer/internal/storage/memory"
)

var now = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		Now:          func() time.Time { return now },
		Location:     time.UTC,
		Seed:         seed.Default(),
		SeedExamples: false,
	}
}

func newStore(t *testing.T, b *storage.Backend) *records.Store {
	t.Helper()
	if b == nil {
		b = memory.New()
	}
	s, err := records.Open(context.Background(), b)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func flush(t *testing.T, f interface{ Flush(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.Flush(ctx))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func addCategory(t *testing.T, store *records.Store, name string, typ core.TransactionType) int64 {
	t.Helper()
	id, err := store.Categories.Insert(context.Background(), core.Category{Name: name, Type: typ})
	require.NoError(t, err)
	return id
}

func TestTransactionServiceAdd(t *testing.T) {
	store := newStore(t, nil)
	svc := NewTransactionService(store, testOptions())
	defer svc.Close()

	svc.Add(dec("1500"), core.Income, "Salary", now.Add(-time.Hour), "pay")
	svc.Add(dec("200.50"), core.Expense, "Groceries", now, "")
	flush(t, svc)

	st := svc.Current()
	require.Len(t, st.All, 2)
	assert.Equal(t, "Groceries", st.All[0].Category, "newest first")
	assert.True(t, dec("1299.50").Equal(st.Balance))
	assert.Equal(t, period.All, st.Period)
	assert.Len(t, st.Filtered, 2)
	assert.NoError(t, st.Err)
}

func TestTransactionServiceRejectsInvalid(t *testing.T) {
	store := newStore(t, nil)
	svc := NewTransactionService(store, testOptions())
	defer svc.Close()

	tests := []struct {
		name     string
		amount   decimal.Decimal
		typ      core.TransactionType
		category string
	}{
		{"zero amount", decimal.Zero, core.Expense, "Groceries"},
		{"negative amount", dec("-5"), core.Expense, "Groceries"},
		{"blank category", dec("5"), core.Expense, "  "},
		{"bad type", dec("5"), core.TransactionType("LOAN"), "Groceries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.Add(tt.amount, tt.typ, tt.category, now, "")
			flush(t, svc)
			st := svc.Current()
			assert.Empty(t, st.All)
			assert.NoError(t, st.Err)
		})
	}
}

func TestTransactionServicePeriodFilter(t *testing.T) {
	store := newStore(t, nil)
	svc := NewTransactionService(store, testOptions())
	defer svc.Close()

	svc.Add(dec("10"), core.Expense, "A", now, "")
	svc.Add(dec("20"), core.Expense, "A", now.AddDate(0, 0, -1), "")
	svc.Add(dec("40"), core.Income, "B", now.AddDate(0, -1, 0), "")
	svc.SetPeriod(period.Today)
	flush(t, svc)

	st := svc.Current()
	assert.Equal(t, period.Today, st.Period)
	require.Len(t, st.Filtered, 1)
	assert.True(t, dec("-10").Equal(st.FilteredBalance))
	assert.True(t, dec("10").Equal(st.Balance))

	svc.SetPeriod(period.Month)
	flush(t, svc)
	assert.Len(t, svc.Current().Filtered, 2)

	svc.SetPeriod(period.DisplayPeriod("FORTNIGHT"))
	flush(t, svc)
	assert.Equal(t, period.Month, svc.Current().Period)
}

func TestTransactionServiceUpdateAndDelete(t *testing.T) {
	store := newStore(t, nil)
	svc := NewTransactionService(store, testOptions())
	defer svc.Close()

	svc.Add(dec("10"), core.Expense, "A", now, "")
	flush(t, svc)
	tx := svc.Current().All[0]

	tx.Amount = dec("12")
	tx.Note = "fixed"
	tx.CreatedAt = time.Time{}
	svc.Update(tx)
	flush(t, svc)

	got := svc.Current().All[0]
	assert.True(t, dec("12").Equal(got.Amount))
	assert.Equal(t, "fixed", got.Note)
	assert.True(t, now.Equal(got.CreatedAt))

	missing := tx
	missing.ID = 999
	svc.Update(missing)
	svc.Delete(999)
	flush(t, svc)
	assert.Len(t, svc.Current().All, 1)
	assert.NoError(t, svc.Current().Err)

	svc.Delete(tx.ID)
	flush(t, svc)
	assert.Empty(t, svc.Current().All)
}

type brokenInserts struct {
	storage.Collection[core.Transaction]
}

func (brokenInserts) Insert(context.Context, core.Transaction) (int64, error) {
	return 0, &storage.Error{Op: "insert transactions", Err: errors.New("disk full")}
}

func TestTransactionServiceStorageFailureKeepsState(t *testing.T) {
	b := memory.New()
	_, err := b.Transactions.Insert(context.Background(), core.Transaction{
		Amount: dec("5"), Type: core.Income, Category: "X", Date: now, CreatedAt: now,
	})
	require.NoError(t, err)
	b.Transactions = brokenInserts{Collection: b.Transactions}

	store := newStore(t, b)
	svc := NewTransactionService(store, testOptions())
	defer svc.Close()

	svc.Add(dec("1"), core.Expense, "Y", now, "")
	flush(t, svc)

	st := svc.Current()
	assert.Len(t, st.All, 1)
	require.Error(t, st.Err)
	assert.ErrorIs(t, st.Err, storage.ErrStorage)

	svc.Delete(st.All[0].ID)
	flush(t, svc)
	assert.NoError(t, svc.Current().Err, "a successful intent clears the error")
}

func TestStorageErrorClearedByMissingTarget(t *testing.T) {
	b := memory.New()
	b.Transactions = brokenInserts{Collection: b.Transactions}

	store := newStore(t, b)
	svc := NewTransactionService(store, testOptions())
	defer svc.Close()

	svc.Add(dec("1"), core.Expense, "Y", now, "")
	flush(t, svc)
	require.Error(t, svc.Current().Err)

	svc.Add(decimal.Zero, core.Expense, "Y", now, "")
	flush(t, svc)
	assert.Error(t, svc.Current().Err, "a rejected intent keeps the error")

	svc.Update(core.Transaction{ID: 99, Amount: dec("2"), Type: core.Expense, Category: "Y", Date: now})
	flush(t, svc)
	assert.NoError(t, svc.Current().Err)
}

func TestCategoryService(t *testing.T) {
	store := newStore(t, nil)
	svc := NewCategoryService(store, testOptions())
	defer svc.Close()

	svc.Add("Pets", core.Expense)
	svc.Add("Bonus", core.Income)
	svc.Add("Pets", core.Expense)
	svc.Add("   ", core.Expense)
	flush(t, svc)

	st := svc.Current()
	assert.Len(t, st.Categories, 3, "duplicates tolerated, blank rejected")
	assert.Len(t, st.Expense, 2)
	require.Len(t, st.Income, 1)
	assert.Equal(t, "Bonus", st.Income[0].Name)

	svc.ResetDefaults()
	flush(t, svc)
	st = svc.Current()
	assert.Len(t, st.Categories, 10)
	assert.Len(t, st.Income, 3)
	assert.Len(t, st.Expense, 7)
}

func TestGoalService(t *testing.T) {
	store := newStore(t, nil)
	svc := NewGoalService(store, testOptions())
	defer svc.Close()

	svc.Add("Bike", dec("400"), nil)
	svc.Add("", dec("400"), nil)
	svc.Add("Nothing", decimal.Zero, nil)
	flush(t, svc)

	st := svc.Current()
	require.Len(t, st.Goals, 1)
	v := st.Goals[0]
	assert.True(t, v.Goal.CurrentAmount.IsZero())
	assert.Equal(t, 0, v.Progress)
	assert.True(t, dec("400").Equal(v.Remaining))
	assert.False(t, v.Reached)

	id := v.Goal.ID
	svc.Contribute(id, dec("100"))
	flush(t, svc)
	v = svc.Current().Goals[0]
	assert.Equal(t, 25, v.Progress)
	assert.True(t, dec("300").Equal(v.Remaining))

	svc.Contribute(id, dec("-250"))
	flush(t, svc)
	assert.True(t, svc.Current().Goals[0].Goal.CurrentAmount.IsZero(), "clamped at zero")

	svc.Contribute(id, dec("500"))
	flush(t, svc)
	v = svc.Current().Goals[0]
	assert.True(t, dec("500").Equal(v.Goal.CurrentAmount), "not capped at target")
	assert.Equal(t, 100, v.Progress)
	assert.True(t, v.Reached)
	assert.True(t, v.Remaining.IsZero())

	svc.Contribute(404, dec("1"))
	svc.Contribute(id, decimal.Zero)
	flush(t, svc)
	assert.NoError(t, svc.Current().Err)

	g := v.Goal
	g.Name = "Road bike"
	svc.Update(g)
	flush(t, svc)
	assert.Equal(t, "Road bike", svc.Current().Goals[0].Goal.Name)

	svc.Delete(id)
	flush(t, svc)
	assert.Empty(t, svc.Current().Goals)
}

func TestGoalContributionsFromManyHolders(t *testing.T) {
	store := newStore(t, nil)
	first := NewGoalService(store, testOptions())
	defer first.Close()
	first.Add("Trip", dec("1000"), nil)
	flush(t, first)
	id := first.Current().Goals[0].Goal.ID

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc := NewGoalService(store, testOptions())
			defer svc.Close()
			for j := 0; j < 10; j++ {
				svc.Contribute(id, dec("1"))
			}
			assert.NoError(t, svc.Flush(context.Background()))
		}()
	}
	wg.Wait()

	g, err := store.Goals.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(g.CurrentAmount), "got %s", g.CurrentAmount)
}

func TestLimitServiceSetLimit(t *testing.T) {
	store := newStore(t, nil)
	groceries := addCategory(t, store, "Groceries", core.Expense)
	svc := NewLimitService(store, testOptions())
	defer svc.Close()
	ctx := context.Background()

	svc.SetLimit(groceries, "2025-03", dec("80"), core.Monthly)
	flush(t, svc)
	l, err := svc.Limit(ctx, groceries, "2025-03")
	require.NoError(t, err)
	assert.True(t, dec("80").Equal(l.LimitAmount))
	created := l.CreatedAt

	later := now.Add(time.Hour)
	opts := testOptions()
	opts.Now = func() time.Time { return later }
	other := NewLimitService(store, opts)
	defer other.Close()
	other.SetLimit(groceries, "2025-03", dec("120"), core.Weekly)
	flush(t, other)

	all := store.Limits.Current()
	require.Len(t, all, 1, "one limit per category and month")
	assert.True(t, dec("120").Equal(all[0].LimitAmount))
	assert.Equal(t, core.Weekly, all[0].Period)
	assert.True(t, created.Equal(all[0].CreatedAt))
	assert.True(t, later.Equal(all[0].UpdatedAt))

	svc.SetLimit(groceries, "2025-03", decimal.Zero, core.Monthly)
	flush(t, svc)
	_, err = svc.Limit(ctx, groceries, "2025-03")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLimitServiceNonPositiveNeverStores(t *testing.T) {
	store := newStore(t, nil)
	groceries := addCategory(t, store, "Groceries", core.Expense)
	svc := NewLimitService(store, testOptions())
	defer svc.Close()

	for _, amount := range []string{"0", "-1", "-0.01"} {
		svc.SetLimit(groceries, "2025-03", dec(amount), core.Monthly)
	}
	flush(t, svc)
	assert.Empty(t, store.Limits.Current())
}

func TestLimitServiceRejects(t *testing.T) {
	store := newStore(t, nil)
	salary := addCategory(t, store, "Salary", core.Income)
	groceries := addCategory(t, store, "Groceries", core.Expense)
	svc := NewLimitService(store, testOptions())
	defer svc.Close()

	svc.SetLimit(salary, "2025-03", dec("50"), core.Monthly)
	svc.SetLimit(groceries, "March", dec("50"), core.Monthly)
	svc.SetLimit(groceries, "2025-03", dec("50"), core.LimitPeriod("YEARLY"))
	svc.SetLimit(999, "2025-03", dec("50"), core.Monthly)
	flush(t, svc)

	assert.Empty(t, store.Limits.Current())
	assert.NoError(t, svc.Current().Err)
}

func TestLimitServiceEndToEnd(t *testing.T) {
	store := newStore(t, nil)
	addCategory(t, store, "Salary", core.Income)
	groceries := addCategory(t, store, "Groceries", core.Expense)

	when := now.Add(-48 * time.Hour)
	opts := testOptions()
	opts.Now = func() time.Time { return when.Add(-time.Millisecond) }
	setter := NewLimitService(store, opts)
	setter.SetLimit(groceries, "2025-03", dec("80"), core.Monthly)
	flush(t, setter)
	require.NoError(t, setter.Close())

	txs := NewTransactionService(store, testOptions())
	defer txs.Close()
	limits := NewLimitService(store, testOptions())
	defer limits.Close()

	txs.Add(dec("100"), core.Expense, "groceries", when, "")
	flush(t, txs)

	require.Eventually(t, func() bool {
		rows := limits.Current().Rows
		return len(rows) == 1 && rows[0].Spent.Equal(dec("100"))
	}, 2*time.Second, 10*time.Millisecond)

	st := limits.Current()
	assert.Equal(t, "2025-03", st.Month)
	row := st.Rows[0]
	assert.Equal(t, "Groceries", row.Category.Name)
	assert.True(t, dec("80").Equal(row.LimitAmount))
	assert.Equal(t, 100, row.Percent)
	assert.True(t, row.OverLimit)
	assert.True(t, dec("20").Equal(row.Overage()))
}

func TestAnalyticsService(t *testing.T) {
	store := newStore(t, nil)
	ctx := context.Background()
	for _, tx := range []core.Transaction{
		{Amount: dec("100"), Type: core.Expense, Category: "A", Date: now, CreatedAt: now},
		{Amount: dec("50"), Type: core.Expense, Category: "B", Date: now.AddDate(0, -1, 0), CreatedAt: now},
		{Amount: dec("10"), Type: core.Income, Category: "C", Date: now.AddDate(-1, 0, 0), CreatedAt: now},
	} {
		_, err := store.Transactions.Insert(ctx, tx)
		require.NoError(t, err)
	}

	svc := NewAnalyticsService(store, testOptions())
	defer svc.Close()

	r := svc.Current()
	assert.Equal(t, period.Month, r.Period)
	assert.Equal(t, 1, r.Count)

	svc.SetPeriod(period.Year)
	flush(t, svc)
	r = svc.Current()
	assert.Equal(t, 2, r.Count)
	require.Len(t, r.Categories, 2)
	assert.Equal(t, "A", r.Categories[0].Category)

	svc.SetPeriod(period.Week)
	flush(t, svc)
	assert.Equal(t, period.Year, svc.Current().Period)

	svc.SetPeriod(period.All)
	flush(t, svc)
	assert.Equal(t, 3, svc.Current().Count)
}

func TestCloseStopsHolder(t *testing.T) {
	store := newStore(t, nil)
	svc := NewCategoryService(store, testOptions())

	sub := svc.Subscribe()
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())

	closed := make(chan struct{})
	go func() {
		for range sub.C() {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("subscription still open after Close")
	}

	svc.Add("Late", core.Expense)
	assert.Empty(t, store.Categories.Current())
}
