// Package services holds per-screen display state derived from the record
// store and exposes the intents that change it. Intents return immediately
// and run in submission order on a per-holder queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cashorganizer/internal/broadcast"
	"cashorganizer/internal/log"
	"cashorganizer/internal/records"
	"cashorganizer/internal/seed"
	"cashorganizer/internal/storage"
	"cashorganizer/internal/worker"
)

// ErrInvalidIntent marks intents rejected by validation. Such intents
// change nothing and are only logged.
var ErrInvalidIntent = errors.New("invalid intent")

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidIntent, err)
}

// Options carries what every holder needs besides the store.
type Options struct {
	Logger   *log.Logger
	Now      func() time.Time
	Location *time.Location

	// Seed and SeedExamples are used by CategoryService.ResetDefaults.
	Seed         seed.Data
	SeedExamples bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.Discard()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

type closer interface{ Close() }

// holder is the machinery shared by every service: a state topic, an
// intent queue and the store subscriptions that trigger recomputation.
type holder[S any] struct {
	store   *records.Store
	opts    Options
	logger  *log.Logger
	queue   *worker.Queue
	topic   *broadcast.Topic[S]
	compute func(err error) S

	// guards err and the state computed from it
	mu  sync.Mutex
	err error

	subs      []closer
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// newHolder publishes the zero state until the caller's first refresh.
func newHolder[S any](store *records.Store, component string, opts Options, compute func(err error) S) *holder[S] {
	opts = opts.withDefaults()
	logger := opts.Logger.WithComponent(component)
	var zero S
	return &holder[S]{
		store:   store,
		opts:    opts,
		logger:  logger,
		queue:   worker.NewQueue(component, opts.Logger),
		topic:   broadcast.NewTopic(zero),
		compute: compute,
	}
}

// follow recomputes the state whenever the subscription delivers.
func follow[T, S any](h *holder[S], sub *broadcast.Subscription[[]T]) {
	h.subs = append(h.subs, sub)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for range sub.C() {
			h.refresh()
		}
	}()
}

func (h *holder[S]) refresh() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topic.Publish(h.compute(h.err))
}

// submit queues an intent. Its outcome is logged and folded into the state.
func (h *holder[S]) submit(op string, fn func(ctx context.Context) error) {
	err := h.queue.Submit(func(ctx context.Context) {
		h.settle(ctx, op, fn(ctx))
		h.refresh()
	})
	if err != nil {
		h.logger.Warn("Intent dropped", log.FieldOperation, op, log.FieldError, err)
	}
}

func (h *holder[S]) settle(ctx context.Context, op string, err error) {
	switch {
	case err == nil:
		h.mu.Lock()
		h.err = nil
		h.mu.Unlock()
	case errors.Is(err, ErrInvalidIntent):
		h.logger.WarnContext(ctx, "Intent rejected", log.FieldOperation, op, log.FieldError, err)
	case errors.Is(err, storage.ErrNotFound):
		// A missing target is a completed no-op.
		h.logger.DebugContext(ctx, "Intent target not found", log.FieldOperation, op)
		h.mu.Lock()
		h.err = nil
		h.mu.Unlock()
	default:
		h.logger.LogError(ctx, "Intent failed", err, op, nil)
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
	}
}

func (h *holder[S]) Current() S {
	return h.topic.Current()
}

// Subscribe delivers the current state, then every recomputed state. A slow
// subscriber only sees the latest.
func (h *holder[S]) Subscribe() *broadcast.Subscription[S] {
	return h.topic.Subscribe()
}

// Flush waits until every intent submitted so far has been applied.
func (h *holder[S]) Flush(ctx context.Context) error {
	return h.queue.Flush(ctx)
}

// Close stops the holder. Queued intents still run; later ones are dropped.
func (h *holder[S]) Close() error {
	var err error
	h.closeOnce.Do(func() {
		err = h.queue.Close(context.Background())
		for _, s := range h.subs {
			s.Close()
		}
		h.wg.Wait()
		h.topic.Close()
	})
	return err
}
