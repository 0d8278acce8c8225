package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashorganizer/internal/core"
	"cashorganizer/internal/storage"
	"cashorganizer/internal/storage/memory"
)

// backends runs fn against every backend implementation.
func backends(t *testing.T, fn func(t *testing.T, b *storage.Backend)) {
	t.Run("sqlite", func(t *testing.T) {
		b, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		t.Cleanup(func() { b.Close() })
		fn(t, b)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, memory.New())
	})
}

func at(day, hour int) time.Time {
	return time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestTransactionRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, b *storage.Backend) {
		ctx := context.Background()
		catID := int64(7)
		in := core.Transaction{
			Amount:     decimal.RequireFromString("12.34"),
			Type:       core.Expense,
			Category:   "Groceries",
			CategoryID: &catID,
			Date:       time.Date(2025, 3, 10, 9, 15, 30, 123_456_789, time.UTC),
			Note:       "market",
			CreatedAt:  at(10, 10),
		}

		id, err := b.Transactions.Insert(ctx, in)
		require.NoError(t, err)
		require.Positive(t, id)

		got, err := b.Transactions.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.True(t, in.Amount.Equal(got.Amount))
		assert.Equal(t, in.Type, got.Type)
		assert.Equal(t, in.Category, got.Category)
		require.NotNil(t, got.CategoryID)
		assert.Equal(t, catID, *got.CategoryID)
		assert.True(t, core.Timestamp(in.Date).Equal(got.Date))
		assert.Equal(t, in.Note, got.Note)
		assert.True(t, in.CreatedAt.Equal(got.CreatedAt))

		again, err := b.Transactions.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, got.ID, again.ID, "id must be stable")
	})
}

func TestInsertWithExistingIDReplaces(t *testing.T) {
	backends(t, func(t *testing.T, b *storage.Backend) {
		ctx := context.Background()
		id, err := b.Categories.Insert(ctx, core.Category{Name: "Food", Type: core.Expense})
		require.NoError(t, err)

		got, err := b.Categories.Insert(ctx, core.Category{ID: id, Name: "Groceries", Type: core.Expense})
		require.NoError(t, err)
		assert.Equal(t, id, got)

		all, err := b.Categories.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Groceries", all[0].Name)
	})
}

func TestUpdateMissingIDInserts(t *testing.T) {
	backends(t, func(t *testing.T, b *storage.Backend) {
		ctx := context.Background()
		g := core.Goal{
			ID:            42,
			Name:          "Bike",
			TargetAmount:  decimal.NewFromInt(500),
			CurrentAmount: decimal.Zero,
			CreatedAt:     at(1, 0),
			UpdatedAt:     at(1, 0),
		}
		require.NoError(t, b.Goals.Update(ctx, g))

		got, err := b.Goals.Get(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "Bike", got.Name)
		assert.Nil(t, got.TargetDate)

		assert.ErrorIs(t, b.Goals.Update(ctx, core.Goal{Name: "no id"}), storage.ErrNotFound)
	})
}

func TestDeleteMissingIsNoop(t *testing.T) {
	backends(t, func(t *testing.T, b *storage.Backend) {
		ctx := context.Background()
		_, err := b.Categories.Insert(ctx, core.Category{Name: "Salary", Type: core.Income})
		require.NoError(t, err)

		require.NoError(t, b.Categories.Delete(ctx, 9999))

		all, err := b.Categories.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	backends(t, func(t *testing.T, b *storage.Backend) {
		_, err := b.Limits.Get(context.Background(), 1)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.False(t, errors.Is(err, storage.ErrStorage))
	})
}

func TestDefaultOrdering(t *testing.T) {
	backends(t, func(t *testing.T, b *storage.Backend) {
		ctx := context.Background()

		for _, d := range []int{5, 20, 1} {
			_, err := b.Transactions.Insert(ctx, core.Transaction{
				Amount: decimal.NewFromInt(int64(d)), Type: core.Expense, Category: "X",
				Date: at(d, 0), CreatedAt: at(d, 0),
			})
			require.NoError(t, err)
		}
		txs, err := b.Transactions.List(ctx)
		require.NoError(t, err)
		require.Len(t, txs, 3)
		assert.Equal(t, 20, txs[0].Date.Day())
		assert.Equal(t, 1, txs[2].Date.Day())

		for _, n := range []string{"Travel", "Education", "Salary"} {
			_, err := b.Categories.Insert(ctx, core.Category{Name: n, Type: core.Expense})
			require.NoError(t, err)
		}
		cats, err := b.Categories.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Education", "Salary", "Travel"}, []string{cats[0].Name, cats[1].Name, cats[2].Name})

		for _, m := range []string{"2025-01", "2025-03", "2025-02"} {
			_, err := b.Limits.Insert(ctx, core.Limit{
				CategoryID: 1, Month: m, LimitAmount: decimal.NewFromInt(10), Period: core.Monthly,
				CreatedAt: at(1, 0), UpdatedAt: at(1, 0),
			})
			require.NoError(t, err)
		}
		limits, err := b.Limits.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2025-03", limits[0].Month)
		assert.Equal(t, "2025-01", limits[2].Month)

		for _, d := range []int{3, 9, 6} {
			_, err := b.Goals.Insert(ctx, core.Goal{
				Name: "g", TargetAmount: decimal.NewFromInt(1), CreatedAt: at(d, 0), UpdatedAt: at(d, 0),
			})
			require.NoError(t, err)
		}
		goals, err := b.Goals.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, 9, goals[0].CreatedAt.Day())
		assert.Equal(t, 3, goals[2].CreatedAt.Day())
	})
}

func TestFindQueries(t *testing.T) {
	backends(t, func(t *testing.T, b *storage.Backend) {
		ctx := context.Background()

		for _, d := range []int{1, 10, 31} {
			_, err := b.Transactions.Insert(ctx, core.Transaction{
				Amount: decimal.NewFromInt(1), Type: core.Expense, Category: "X",
				Date: at(d, 0), CreatedAt: at(d, 0),
			})
			require.NoError(t, err)
		}
		in, err := b.Transactions.Find(ctx, storage.TransactionsBetween(at(1, 0), at(10, 0)))
		require.NoError(t, err)
		assert.Len(t, in, 2, "both boundaries are inclusive")

		_, err = b.Categories.Insert(ctx, core.Category{Name: "Salary", Type: core.Income})
		require.NoError(t, err)
		_, err = b.Categories.Insert(ctx, core.Category{Name: "Groceries", Type: core.Expense})
		require.NoError(t, err)
		expense, err := b.Categories.Find(ctx, storage.CategoriesOfType(core.Expense))
		require.NoError(t, err)
		require.Len(t, expense, 1)
		assert.Equal(t, "Groceries", expense[0].Name)

		_, err = b.Limits.Insert(ctx, core.Limit{
			CategoryID: 3, Month: "2025-03", LimitAmount: decimal.NewFromInt(80), Period: core.Weekly,
			CreatedAt: at(2, 0), UpdatedAt: at(2, 0),
		})
		require.NoError(t, err)
		found, err := b.Limits.Find(ctx, storage.LimitForCategoryMonth(3, "2025-03"))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, core.Weekly, found[0].Period)

		none, err := b.Limits.Find(ctx, storage.LimitForCategoryMonth(3, "2025-04"))
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestClear(t *testing.T) {
	backends(t, func(t *testing.T, b *storage.Backend) {
		ctx := context.Background()
		_, err := b.Categories.Insert(ctx, core.Category{Name: "Salary", Type: core.Income})
		require.NoError(t, err)
		require.NoError(t, b.Categories.Clear(ctx))
		all, err := b.Categories.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestSchemaMismatchDropsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// Build a database in the first schema revision and put a row in it.
	require.NoError(t, storage.MigrateTo(path, 1))
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec("INSERT INTO categories (name, type) VALUES ('Old', 'EXPENSE')")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	b, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	defer b.Close()

	assert.True(t, b.SchemaReset)
	cats, err := b.Categories.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cats)

	// Limits table exists in the current schema.
	_, err = b.Limits.List(context.Background())
	require.NoError(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.db")
	b, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	assert.False(t, b.SchemaReset)
	_, err = b.Categories.Insert(context.Background(), core.Category{Name: "Salary", Type: core.Income})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b, err = storage.OpenSQLite(path)
	require.NoError(t, err)
	defer b.Close()
	assert.False(t, b.SchemaReset)
	cats, err := b.Categories.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestErrorMatchesErrStorage(t *testing.T) {
	cause := errors.New("disk full")
	var err error = &storage.Error{Op: "insert transactions", Err: cause}
	assert.ErrorIs(t, err, storage.ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert transactions: disk full", err.Error())
}
