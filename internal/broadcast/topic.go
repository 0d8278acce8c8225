// Package broadcast fans a single latest value out to any number of
// subscribers. A slow subscriber never blocks the publisher: undelivered
// values are replaced by newer ones.
package broadcast

import "sync"

// Topic holds the latest published value of type T.
type Topic[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// Subscription receives values published to a Topic. Only the most recent
// undelivered value is kept.
type Subscription[T any] struct {
	topic *Topic[T]
	ch    chan T
	once  sync.Once
}

// NewTopic returns a topic whose current value is initial.
func NewTopic[T any](initial T) *Topic[T] {
	return &Topic[T]{
		value: initial,
		subs:  make(map[*Subscription[T]]struct{}),
	}
}

// Publish replaces the current value and offers it to every subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.value = v
	for s := range t.subs {
		s.offer(v)
	}
}

// Current returns the latest published value.
func (t *Topic[T]) Current() T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Subscribe registers a subscriber. The current value is delivered first.
// Subscribing to a closed topic returns a subscription whose channel is
// already closed.
func (t *Topic[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{topic: t, ch: make(chan T, 1)}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		s.once.Do(func() { close(s.ch) })
		return s
	}
	s.ch <- t.value
	t.subs[s] = struct{}{}
	return s
}

// Close closes every subscriber channel. Later publishes are dropped.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for s := range t.subs {
		delete(t.subs, s)
		s.once.Do(func() { close(s.ch) })
	}
}

// Subscribers reports how many subscriptions are active.
func (t *Topic[T]) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// offer must be called with the topic lock held.
func (s *Subscription[T]) offer(v T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}

// C returns the channel values are delivered on. It is closed when the
// subscription or its topic is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	t := s.topic
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, s)
	s.once.Do(func() { close(s.ch) })
}
