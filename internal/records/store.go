// Package records is the single source of truth for persisted records. It
// serializes writes per kind and broadcasts the full list of a kind after
// every committed write.
package records

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"cashorganizer/internal/core"
	"cashorganizer/internal/log"
	"cashorganizer/internal/seed"
	"cashorganizer/internal/storage"
)

// Store groups the four record kinds over one storage backend.
type Store struct {
	Transactions *Table[core.Transaction]
	Categories   *Table[core.Category]
	Limits       *Table[core.Limit]
	Goals        *Table[core.Goal]

	backend *storage.Backend
	logger  *log.Logger
	now     func() time.Time
}

// Snapshot is every record of every kind, read at one point in time per kind.
type Snapshot struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Limits       []core.Limit
	Goals        []core.Goal
}

type Option func(*Store)

// WithClock overrides the time source used when seeding.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger.WithComponent(log.ComponentStore) }
}

// Open loads the current contents of b and returns a store over it.
func Open(ctx context.Context, b *storage.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: b,
		logger:  log.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := loadSnapshot(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	s.Transactions = newTable("transactions", b.Transactions, snap.Transactions)
	s.Categories = newTable("categories", b.Categories, snap.Categories)
	s.Limits = newTable("limits", b.Limits, snap.Limits)
	s.Goals = newTable("goals", b.Goals, snap.Goals)

	s.logger.Info("Record store opened",
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories),
		"limits", len(snap.Limits),
		"goals", len(snap.Goals))
	return s, nil
}

// SchemaReset reports whether opening the backend discarded old data.
func (s *Store) SchemaReset() bool {
	return s.backend.SchemaReset
}

// Snapshot reads all four kinds concurrently.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	return loadSnapshot(ctx, s.backend)
}

func loadSnapshot(ctx context.Context, b *storage.Backend) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Transactions, err = b.Transactions.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Categories, err = b.Categories.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Limits, err = b.Limits.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Goals, err = b.Goals.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Seed writes default categories when there are none, and example
// transactions when there are none and examples is true.
func (s *Store) Seed(ctx context.Context, d seed.Data, examples bool) error {
	err := s.Categories.Mutate(ctx, func(ctx context.Context, c storage.Collection[core.Category]) error {
		existing, err := c.List(ctx)
		if err != nil || len(existing) > 0 {
			return err
		}
		for _, cat := range d.Categories {
			if _, err := c.Insert(ctx, cat); err != nil {
				return err
			}
		}
		s.logger.Info("Seeded default categories", log.FieldCount, len(d.Categories))
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	if !examples || len(d.Examples) == 0 {
		return nil
	}
	err = s.Transactions.Mutate(ctx, func(ctx context.Context, c storage.Collection[core.Transaction]) error {
		existing, err := c.List(ctx)
		if err != nil || len(existing) > 0 {
			return err
		}
		now := s.now()
		for _, ex := range d.Examples {
			if _, err := c.Insert(ctx, ex.Transaction(now)); err != nil {
				return err
			}
		}
		s.logger.Info("Seeded example transactions", log.FieldCount, len(d.Examples))
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed transactions: %w", err)
	}
	return nil
}

// Reset deletes every record of every kind and seeds again.
func (s *Store) Reset(ctx context.Context, d seed.Data, examples bool) error {
	steps := []struct {
		name  string
		clear func(context.Context) error
	}{
		{"transactions", s.Transactions.clear},
		{"limits", s.Limits.clear},
		{"goals", s.Goals.clear},
		{"categories", s.Categories.clear},
	}
	for _, step := range steps {
		if err := step.clear(ctx); err != nil {
			return fmt.Errorf("reset %s: %w", step.name, err)
		}
	}
	s.logger.Warn("All records deleted", log.FieldOperation, log.OpReset)
	return s.Seed(ctx, d, examples)
}

// Close stops every subscription and releases the backend.
func (s *Store) Close() error {
	s.Transactions.close()
	s.Categories.close()
	s.Limits.close()
	s.Goals.close()
	if s.backend.Close == nil {
		return nil
	}
	return s.backend.Close()
}
