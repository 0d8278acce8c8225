// Package memory is a process-local storage backend. Nothing survives a
// restart; it backs DATA_BACKEND=memory and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"cashorganizer/internal/storage"
)

// New returns an empty backend.
func New() *storage.Backend {
	return &storage.Backend{
		Transactions: NewCollection(storage.Transactions),
		Categories:   NewCollection(storage.Categories),
		Limits:       NewCollection(storage.Limits),
		Goals:        NewCollection(storage.Goals),
		Close:        func() error { return nil },
	}
}

// Collection keeps rows of one kind in a map keyed by id.
type Collection[T any] struct {
	mu     sync.RWMutex
	kind   storage.Kind[T]
	rows   map[int64]T
	nextID int64
}

func NewCollection[T any](kind storage.Kind[T]) *Collection[T] {
	return &Collection[T]{
		kind:   kind,
		rows:   make(map[int64]T),
		nextID: 1,
	}
}

func (c *Collection[T]) Insert(_ context.Context, rec T) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.kind.ID(rec)
	if id <= 0 {
		id = c.nextID
	}
	c.put(id, rec)
	return id, nil
}

func (c *Collection[T]) Update(_ context.Context, rec T) error {
	id := c.kind.ID(rec)
	if id <= 0 {
		return storage.ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(id, rec)
	return nil
}

func (c *Collection[T]) put(id int64, rec T) {
	c.rows[id] = c.kind.WithID(c.kind.Normalize(rec), id)
	if id >= c.nextID {
		c.nextID = id + 1
	}
}

func (c *Collection[T]) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rows, id)
	return nil
}

func (c *Collection[T]) Get(_ context.Context, id int64) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.rows[id]
	if !ok {
		var zero T
		return zero, storage.ErrNotFound
	}
	return rec, nil
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	return c.Find(ctx, storage.Query[T]{})
}

func (c *Collection[T]) Find(_ context.Context, q storage.Query[T]) ([]T, error) {
	c.mu.RLock()
	out := make([]T, 0, len(c.rows))
	for _, rec := range c.rows {
		if q.Match == nil || q.Match(rec) {
			out = append(out, rec)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return c.kind.Less(out[i], out[j]) })
	return out, nil
}

// Clear drops every row. Ids keep counting up.
func (c *Collection[T]) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = make(map[int64]T)
	return nil
}
