// Package worker runs submitted tasks one at a time, in submission order,
// on a background goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cashorganizer/internal/log"
)

// ErrClosed is returned when work is submitted to a closed queue.
var ErrClosed = errors.New("queue closed")

// Task is one unit of work. ctx is cancelled when the queue is forced to
// stop before draining.
type Task func(ctx context.Context)

// Queue is an unbounded FIFO executor with a single worker goroutine.
// Submit never blocks.
type Queue struct {
	name   string
	logger *log.Logger

	mu     sync.Mutex
	tasks  []Task
	closed bool
	wake   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewQueue starts a queue. name identifies it in logs.
func NewQueue(name string, logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		name:   name,
		logger: logger.WithComponent(log.ComponentWorker).With("queue", name),
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		doneCh: make(chan struct{}),
	}
	go q.runLoop()
	return q
}

// Submit enqueues task. It returns ErrClosed once Close has been called.
func (q *Queue) Submit(task Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.tasks = append(q.tasks, task)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	q.mu.Unlock()
	return nil
}

// Flush waits until every task submitted before the call has run.
func (q *Queue) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := q.Submit(func(context.Context) { close(done) }); err != nil {
		// Close drains the queue; waiting for the worker is enough.
		return q.wait(ctx)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued tasks not yet started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close stops accepting tasks and waits for queued ones to finish. If ctx
// ends first, running tasks see their context cancelled and the rest are
// dropped.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.wake)
	}
	q.mu.Unlock()

	if err := q.wait(ctx); err != nil {
		q.cancel()
		q.logger.Warn("Queue stop timed out", log.FieldCount, q.Pending())
		return err
	}
	q.cancel()
	return nil
}

func (q *Queue) wait(ctx context.Context) error {
	select {
	case <-q.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) runLoop() {
	defer close(q.doneCh)

	for {
		task, ok := q.next()
		if ok {
			q.run(task)
			continue
		}
		if _, open := <-q.wake; !open {
			// drain whatever was queued before Close
			for {
				task, ok := q.next()
				if !ok || q.ctx.Err() != nil {
					return
				}
				q.run(task)
			}
		}
	}
}

func (q *Queue) next() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return task, true
}

func (q *Queue) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Task panicked", log.FieldError, fmt.Sprint(r))
		}
	}()
	task(q.ctx)
}
