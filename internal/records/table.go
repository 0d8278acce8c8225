package records

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cashorganizer/internal/broadcast"
	"cashorganizer/internal/storage"
)

// Table is the store's view of one record kind. Writes are serialized and
// each committed write publishes the full, ordered list to subscribers.
type Table[T any] struct {
	name  string
	coll  storage.Collection[T]
	topic *broadcast.Topic[[]T]

	// held across write, reload and publish
	mu sync.Mutex
}

func newTable[T any](name string, coll storage.Collection[T], initial []T) *Table[T] {
	return &Table[T]{
		name:  name,
		coll:  coll,
		topic: broadcast.NewTopic(initial),
	}
}

// Insert stores rec and returns its id. A non-zero id replaces the row
// with that id.
func (t *Table[T]) Insert(ctx context.Context, rec T) (int64, error) {
	var id int64
	err := t.Mutate(ctx, func(ctx context.Context, c storage.Collection[T]) error {
		var err error
		id, err = c.Insert(ctx, rec)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", t.name, err)
	}
	return id, nil
}

// Update replaces the row with rec's id, inserting it when absent.
func (t *Table[T]) Update(ctx context.Context, rec T) error {
	err := t.Mutate(ctx, func(ctx context.Context, c storage.Collection[T]) error {
		return c.Update(ctx, rec)
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	return nil
}

// Delete removes the row with id. A missing id still succeeds.
func (t *Table[T]) Delete(ctx context.Context, id int64) error {
	err := t.Mutate(ctx, func(ctx context.Context, c storage.Collection[T]) error {
		return c.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", t.name, id, err)
	}
	return nil
}

// Get returns storage.ErrNotFound when no row has id.
func (t *Table[T]) Get(ctx context.Context, id int64) (T, error) {
	rec, err := t.coll.Get(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return rec, fmt.Errorf("get %s %d: %w", t.name, id, err)
	}
	return rec, err
}

func (t *Table[T]) List(ctx context.Context) ([]T, error) {
	all, err := t.coll.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	return all, nil
}

func (t *Table[T]) Find(ctx context.Context, q storage.Query[T]) ([]T, error) {
	found, err := t.coll.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.name, err)
	}
	return found, nil
}

// Subscribe delivers the current list, then the list after every committed
// write. A subscriber that falls behind only sees the latest list.
func (t *Table[T]) Subscribe() *broadcast.Subscription[[]T] {
	return t.topic.Subscribe()
}

// Current returns the last published list.
func (t *Table[T]) Current() []T {
	return t.topic.Current()
}

// Mutate runs fn with exclusive write access to the kind and publishes
// once afterwards. Writes made by fn before a failure are still published.
func (t *Table[T]) Mutate(ctx context.Context, fn func(ctx context.Context, c storage.Collection[T]) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return errors.Join(fn(ctx, t.coll), t.publish(ctx))
}

// publish must be called with mu held.
func (t *Table[T]) publish(ctx context.Context) error {
	all, err := t.coll.List(ctx)
	if err != nil {
		return fmt.Errorf("reload %s: %w", t.name, err)
	}
	t.topic.Publish(all)
	return nil
}

func (t *Table[T]) clear(ctx context.Context) error {
	return t.Mutate(ctx, func(ctx context.Context, c storage.Collection[T]) error {
		return c.Clear(ctx)
	})
}

func (t *Table[T]) close() {
	t.topic.Close()
}
