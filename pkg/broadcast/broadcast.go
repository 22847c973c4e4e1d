package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// Broadcaster fans values out to every subscriber without ever blocking the
// publisher. A subscriber whose buffer is full misses the value and stays subscribed.
// All methods are safe for concurrent use.
type Broadcaster[T any] struct {
	subs    map[chan T]struct{}
	buffer  int
	closed  bool
	done    chan struct{}
	dropped atomic.Uint64
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// New creates a broadcaster. Each subscriber gets a buffer of at least one value.
func New[T any](buffer int) *Broadcaster[T] {
	return &Broadcaster[T]{
		subs:   make(map[chan T]struct{}),
		buffer: max(buffer, 1),
		done:   make(chan struct{}),
	}
}

// Subscribe returns a channel that receives every value published after the
// call. The channel is closed when ctx is done or the broadcaster is closed.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}

	if ctx.Done() != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(ch)
			case <-b.done:
			}
		}()
	}
	return ch
}

// Publish delivers v to every subscriber with buffer room and returns how many got it.
func (b *Broadcaster[T]) Publish(v T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}

	delivered := 0
	for ch := range b.subs {
		select {
		case ch <- v:
			delivered++
		default:
			b.dropped.Add(1)
		}
	}
	return delivered
}

// Len returns the number of active subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *Broadcaster[T]) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel and waits for the context watchers to
// exit. It does not wait for subscriber contexts. It is idempotent.
func (b *Broadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for ch := range b.subs {
		close(ch)
	}
	clear(b.subs)
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

func (b *Broadcaster[T]) unsubscribe(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}
