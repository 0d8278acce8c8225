package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, s *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-s.C():
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("no value received")
	}
	panic("unreachable")
}

func TestSubscribeReplaysCurrent(t *testing.T) {
	topic := NewTopic(1)
	topic.Publish(2)

	sub := topic.Subscribe()
	defer sub.Close()
	assert.Equal(t, 2, receive(t, sub))
}

func TestSlowSubscriberSeesLatest(t *testing.T) {
	topic := NewTopic(0)
	sub := topic.Subscribe()
	defer sub.Close()

	for i := 1; i <= 10; i++ {
		topic.Publish(i)
	}
	assert.Equal(t, 10, receive(t, sub))

	select {
	case v := <-sub.C():
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestSubscribersAreIndependent(t *testing.T) {
	topic := NewTopic("a")
	first := topic.Subscribe()
	second := topic.Subscribe()
	require.Equal(t, 2, topic.Subscribers())

	assert.Equal(t, "a", receive(t, first))
	topic.Publish("b")
	assert.Equal(t, "b", receive(t, first))

	// second never drained "a", it only keeps the latest
	assert.Equal(t, "b", receive(t, second))

	first.Close()
	topic.Publish("c")
	assert.Equal(t, "c", receive(t, second))
	assert.Equal(t, 1, topic.Subscribers())
	second.Close()
}

func TestCloseSubscription(t *testing.T) {
	topic := NewTopic(0)
	sub := topic.Subscribe()
	<-sub.C()

	sub.Close()
	sub.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.Equal(t, 0, topic.Subscribers())

	topic.Publish(1)
	assert.Equal(t, 1, topic.Current())
}

func TestCloseTopic(t *testing.T) {
	topic := NewTopic(0)
	sub := topic.Subscribe()
	<-sub.C()

	topic.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)

	late := topic.Subscribe()
	_, ok = <-late.C()
	assert.False(t, ok)

	topic.Publish(5)
	assert.Equal(t, 0, topic.Current())
	sub.Close()
}

func TestConcurrentPublish(t *testing.T) {
	topic := NewTopic(0)
	sub := topic.Subscribe()
	defer sub.Close()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			topic.Publish(v)
		}(i)
	}
	wg.Wait()

	got := receive(t, sub)
	assert.Equal(t, topic.Current(), got)
}
