package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaonuvem/entitlements/pkg/broadcast"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	t.Parallel()
	b := broadcast.New[string](4)
	t.Cleanup(func() { _ = b.Close() })

	a := b.Subscribe(context.Background())
	c := b.Subscribe(context.Background())
	require.Equal(t, 2, b.Len())

	assert.Equal(t, 2, b.Publish("upgrade"))
	assert.Equal(t, "upgrade", <-a)
	assert.Equal(t, "upgrade", <-c)
}

func TestSlowSubscriberDropsWithoutBlocking(t *testing.T) {
	t.Parallel()
	b := broadcast.New[int](1)
	t.Cleanup(func() { _ = b.Close() })

	slow := b.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 10 {
			b.Publish(i)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, 0, <-slow)
	assert.EqualValues(t, 9, b.Dropped())
	assert.Equal(t, 1, b.Len(), "slow subscribers stay subscribed")

	b.Publish(42)
	assert.Equal(t, 42, <-slow)
}

func TestContextCancelUnsubscribes(t *testing.T) {
	t.Parallel()
	b := broadcast.New[int](1)
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestClose(t *testing.T) {
	t.Parallel()
	b := broadcast.New[int](1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := b.Subscribe(ctx)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, b.Publish(1))

	late := b.Subscribe(context.Background())
	_, ok = <-late
	assert.False(t, ok)
}

func TestCloseDoesNotWaitForSubscriberContext(t *testing.T) {
	t.Parallel()
	b := broadcast.New[int](1)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	chs := []<-chan int{b.Subscribe(ctx), b.Subscribe(ctx)}

	done := make(chan error, 1)
	go func() { done <- b.Close() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("close blocked while subscriber context is live")
	}
	for _, ch := range chs {
		_, ok := <-ch
		assert.False(t, ok)
	}
	assert.Zero(t, b.Len())

	// cancelling after close must not double-close a channel
	cancel()
}
