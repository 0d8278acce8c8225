package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashorganizer/internal/analytics"
	"cashorganizer/internal/core"
	"cashorganizer/internal/storage"
)

// setupEnv points every command at a fresh SQLite file so state carries
// over between runs within one test.
func setupEnv(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SEED_EXAMPLES", "false")
	t.Setenv("SEED_FILE", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestRootCommand_Metadata(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "cashorganizer", cmd.Use)
	assert.Contains(t, cmd.Short, "spending limits")
	assert.NotNil(t, cmd.PersistentPreRunE)

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"summary", "tx", "category", "limit", "goal", "analytics"} {
		assert.Contains(t, names, want)
	}
}

func TestTxAddCommand_Flags(t *testing.T) {
	cmd := newRootCmd()
	add, _, err := cmd.Find([]string{"tx", "add"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"amount", "a", ""},
		{"type", "t", "EXPENSE"},
		{"category", "c", ""},
		{"date", "d", ""},
		{"note", "n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := add.Flags().Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestCategoryCommands(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "category", "list")
	assert.Contains(t, out, "Salary")
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "Household")

	out = mustRun(t, "category", "add", "Pets")
	assert.Contains(t, out, "Pets")

	_, err := run(t, "category", "reset")
	assert.Error(t, err, "reset needs confirmation")

	out = mustRun(t, "category", "reset", "--yes")
	assert.NotContains(t, out, "Pets")
	assert.Contains(t, out, "Groceries")
}

func TestTransactionCommands(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "tx", "add", "-a", "12,50", "-c", "Groceries", "-d", "2025-03-10", "-n", "market")
	assert.Contains(t, out, "Added EXPENSE 12.50 Groceries")
	assert.Contains(t, out, "Balance: -12.50")

	out = mustRun(t, "tx", "add", "--amount", "100", "--type", "income", "--category", "Salary", "--date", "2025-03-01")
	assert.Contains(t, out, "Balance: 87.50")

	out = mustRun(t, "tx", "list")
	assert.Contains(t, out, "2025-03-10")
	assert.Contains(t, out, "market")
	assert.Contains(t, out, "2 transactions, period ALL, balance 87.50")

	out = mustRun(t, "tx", "list", "--period", "today")
	assert.Contains(t, out, "0 transactions, period TODAY")

	mustRun(t, "tx", "delete", "1")
	out = mustRun(t, "tx", "list")
	assert.NotContains(t, out, "market")
	assert.Contains(t, out, "1 transactions")
}

func TestTransactionAddRejectsBadInput(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"amount", []string{"tx", "add", "--amount=abc", "-c", "Groceries"}, core.ErrInvalidAmount},
		{"zero amount", []string{"tx", "add", "--amount=0", "-c", "Groceries"}, core.ErrInvalidAmount},
		{"type", []string{"tx", "add", "-a", "5", "-t", "transfer", "-c", "Groceries"}, core.ErrInvalidType},
		{"category", []string{"tx", "add", "-a", "5", "-c", " "}, core.ErrEmptyCategory},
		{"date", []string{"tx", "add", "-a", "5", "-c", "Groceries", "-d", "10/03/2025"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	out := mustRun(t, "tx", "list")
	assert.Contains(t, out, "0 transactions")
}

func TestLimitCommands(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "limit", "set", "Groceries", "100", "--cadence", "weekly")
	assert.Contains(t, out, "WEEKLY")
	assert.Contains(t, out, "0%")

	// Spending before the limit was created does not count against it.
	mustRun(t, "tx", "add", "-a", "30", "-c", "groceries")

	out = mustRun(t, "limit", "list")
	assert.Contains(t, out, "WEEKLY")
	assert.Contains(t, out, "30.00")
	assert.Contains(t, out, "100.00")
	assert.Contains(t, out, "30%")
	assert.Contains(t, out, "70.00 left")

	out = mustRun(t, "limit", "set", "Groceries", "20")
	assert.Contains(t, out, "MONTHLY")
	assert.Contains(t, out, "over by 10.00")
	assert.Contains(t, out, "100%")

	mustRun(t, "limit", "set", "Household", "75", "--month", "2024-12", "--cadence", "daily")
	out = mustRun(t, "limit", "list", "--month", "2024-12")
	assert.Contains(t, out, "Limits stored for 2024-12")
	assert.Contains(t, out, "Household")
	assert.Contains(t, out, "DAILY")
	assert.Contains(t, out, "75.00")
	assert.NotContains(t, out, "Groceries")

	_, err := run(t, "limit", "set", "Salary", "10")
	assert.ErrorIs(t, err, core.ErrNotExpenseCategory)

	_, err = run(t, "limit", "set", "Groceries", "10", "--month", "March")
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = run(t, "limit", "set", "Nope", "10")
	assert.Error(t, err)

	out = mustRun(t, "limit", "set", "Groceries", "0")
	assert.NotContains(t, out, "MONTHLY")
	assert.NotContains(t, out, "over by")
}

func TestGoalCommands(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "goal", "add", "Bike", "500", "--date", "2026-12-31")
	assert.Contains(t, out, "Bike")
	assert.Contains(t, out, "2026-12-31")
	assert.Contains(t, out, "0%")

	out = mustRun(t, "goal", "contribute", "1", "125")
	assert.Contains(t, out, "125.00")
	assert.Contains(t, out, "25%")

	out = mustRun(t, "goal", "contribute", "--", "1", "-200")
	assert.Contains(t, out, "0.00")
	assert.Contains(t, out, "0%")

	_, err := run(t, "goal", "contribute", "99", "5")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = run(t, "goal", "contribute", "1", "0")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	out = mustRun(t, "goal", "contribute", "1", "600")
	assert.Contains(t, out, "100% reached")

	out = mustRun(t, "goal", "delete", "1")
	assert.NotContains(t, out, "Bike")
}

func TestAnalyticsCommand(t *testing.T) {
	setupEnv(t)

	mustRun(t, "tx", "add", "-a", "100", "-t", "income", "-c", "Salary")
	mustRun(t, "tx", "add", "-a", "40", "-c", "Groceries")

	out := mustRun(t, "analytics")
	assert.Contains(t, out, "Period MONTH: 2 transactions, income 100.00, expense 40.00, balance 60.00")
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, analytics.Color("Groceries"))

	_, err := run(t, "analytics", "--period", "today")
	assert.ErrorIs(t, err, analytics.ErrUnsupportedPeriod)
}

func TestSummaryCommand(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "summary")
	assert.Contains(t, out, "Balance: 0.00 (0 transactions)")
	assert.Contains(t, out, "no limits set")
	assert.Contains(t, out, "no open goals")

	mustRun(t, "limit", "set", "transport", "40")
	mustRun(t, "tx", "add", "-a", "50", "-c", "Transport")
	mustRun(t, "goal", "add", "Holiday", "1000")

	out = mustRun(t, "summary")
	assert.Contains(t, out, "Balance: -50.00 (1 transactions)")
	assert.Contains(t, out, "Transport")
	assert.Contains(t, out, "OVER")
	assert.Contains(t, out, "Holiday")
}
