// Package root contains the root command and the helpers shared by every
// subcommand.
package root

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cashorganizer/internal/cli"
	"cashorganizer/internal/config"
	"cashorganizer/internal/core"
	"cashorganizer/internal/log"
)

// DateLayout is the layout accepted by --date flags.
const DateLayout = "2006-01-02"

// Runtime is filled in by the root command before any subcommand runs.
type Runtime struct {
	Config *config.Config
	Logger *log.Logger
}

// NewCmd returns the root command. Subcommands are added by the caller.
func NewCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cashorganizer",
		Short: "Track income, expenses, spending limits and savings goals.",
		Long: `cashorganizer keeps a local record of income and expense transactions.
It checks spending against per-category limits, tracks savings goals and
summarises where the money went.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			rt.Config = cfg
			rt.Logger = cli.SetupLogger(cfg)
			cmd.SetContext(log.IntoContext(cmd.Context(), rt.Logger))
			return nil
		},
	}
}

// WithApp opens the store, runs fn and closes the store again.
func (rt *Runtime) WithApp(cmd *cobra.Command, fn func(ctx context.Context, app *cli.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.FromContext(ctx)
	app, err := cli.InitStore(ctx, rt.Config, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Failed to close store", log.FieldError, err)
		}
	}()
	return fn(ctx, app)
}

// Flusher is implemented by every state holder.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Settle waits for queued intents and returns the error the holder
// recorded, if any.
func Settle(ctx context.Context, h Flusher, stateErr func() error) error {
	if err := h.Flush(ctx); err != nil {
		return err
	}
	return stateErr()
}

// NewTable returns a writer for column aligned output.
func NewTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// ParseID parses a positive record id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ParseDate reads a calendar date in loc. An empty string means now.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Now(), nil
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, want %s", core.ErrInvalidDate, s, DateLayout)
	}
	return d, nil
}

// ParseLimitAmount is ParseAmount that also accepts zero, which clears a
// limit.
func ParseLimitAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	return core.ParseAmount(s)
}

// FindCategory resolves a category by id or, case-insensitively, by name.
func FindCategory(cats []core.Category, ref string) (core.Category, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, c := range cats {
			if c.ID == id {
				return c, nil
			}
		}
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, strings.TrimSpace(ref)) {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("unknown category %q", ref)
}
