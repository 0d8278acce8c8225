// Package storage holds the persistence contract shared by every backend
// and the SQLite implementation of it.
package storage

import (
	"context"
	"errors"
	"fmt"

	"cashorganizer/internal/core"
)

var (
	// ErrNotFound is returned by Get when no row has the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrStorage matches every failure of the underlying medium.
	ErrStorage = errors.New("storage failure")
)

// Error wraps a failure of the storage medium with the operation that
// triggered it. errors.Is(err, ErrStorage) holds for every *Error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrStorage
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Collection is durable CRUD over one record kind.
type Collection[T any] interface {
	// Insert stores rec. A zero id allocates a new one; a non-zero id
	// replaces any existing row with that id.
	Insert(ctx context.Context, rec T) (int64, error)
	// Update replaces the row with rec's id, inserting it when absent.
	Update(ctx context.Context, rec T) error
	// Delete removes the row with id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (T, error)
	// List returns every row in the kind's default order.
	List(ctx context.Context) ([]T, error)
	Find(ctx context.Context, q Query[T]) ([]T, error)
	Clear(ctx context.Context) error
}

// Query is a filter expressed once for SQL backends (Where/Args) and once
// for in-memory backends (Match). Both forms must select the same rows.
type Query[T any] struct {
	Where string
	Args  []any
	Match func(T) bool
}

// Backend bundles the four collections of the application.
type Backend struct {
	Transactions Collection[core.Transaction]
	Categories   Collection[core.Category]
	Limits       Collection[core.Limit]
	Goals        Collection[core.Goal]

	// SchemaReset is set when opening dropped an incompatible schema, so
	// the caller knows to re-seed.
	SchemaReset bool

	// Close releases the underlying medium. May be nil.
	Close func() error
}
