package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Stop may be returned by a task function to end the loop without an error.
var Stop = errors.New("task: stop")

// Func is the unit of work run by a task.
type Func func(ctx context.Context) error

// Handle controls a running task. It is safe for concurrent use.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

func newHandle(ctx context.Context) (*Handle, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &Handle{cancel: cancel, done: make(chan struct{})}, ctx
}

func (h *Handle) finish(err error) {
	h.once.Do(func() {
		if errors.Is(err, Stop) || errors.Is(err, context.Canceled) {
			err = nil
		}
		h.err = err
		h.cancel()
		close(h.done)
	})
}

// Cancel stops the task. It is idempotent and does not wait for a running
// invocation of the task function to return; use Wait for that.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the task has fully stopped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Stopped reports whether the task has fully stopped without blocking.
func (h *Handle) Stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task stops and returns the error that ended it.
// Cancellation and Stop end a task cleanly and yield nil.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Every runs fn on every tick of interval until ctx is canceled, the handle is
// canceled, or fn returns an error. The first run happens after one interval.
func Every(ctx context.Context, clock clockwork.Clock, interval time.Duration, fn Func) *Handle {
	h, ctx := newHandle(ctx)
	if interval <= 0 {
		h.finish(ErrInvalidInterval)
		return h
	}

	ticker := clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				h.finish(ctx.Err())
				return
			case <-ticker.Chan():
				// A tick racing with cancellation must not run fn.
				if ctx.Err() != nil {
					h.finish(ctx.Err())
					return
				}
				if err := fn(ctx); err != nil {
					h.finish(err)
					return
				}
			}
		}
	}()
	return h
}

// At runs fn once at the given wall time. Times in the past run immediately.
func At(ctx context.Context, clock clockwork.Clock, when time.Time, fn Func) *Handle {
	return After(ctx, clock, when.Sub(clock.Now()), fn)
}

// After runs fn once after d.
func After(ctx context.Context, clock clockwork.Clock, d time.Duration, fn Func) *Handle {
	h, ctx := newHandle(ctx)

	if d <= 0 {
		go func() {
			if ctx.Err() != nil {
				h.finish(ctx.Err())
				return
			}
			h.finish(fn(ctx))
		}()
		return h
	}

	timer := clock.NewTimer(d)
	go func() {
		defer timer.Stop()
		select {
		case <-ctx.Done():
			h.finish(ctx.Err())
		case <-timer.Chan():
			if ctx.Err() != nil {
				h.finish(ctx.Err())
				return
			}
			h.finish(fn(ctx))
		}
	}()
	return h
}

// Group tracks several handles so they can be canceled together.
type Group struct {
	mu      sync.Mutex
	handles []*Handle
}

// Add registers handles with the group and drops the ones already stopped.
func (g *Group) Add(hs ...*Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()

	live := g.handles[:0]
	for _, h := range g.handles {
		if !h.Stopped() {
			live = append(live, h)
		}
	}
	g.handles = append(live, hs...)
}

// Cancel cancels every registered handle.
func (g *Group) Cancel() {
	g.mu.Lock()
	hs := append([]*Handle(nil), g.handles...)
	g.mu.Unlock()

	for _, h := range hs {
		h.Cancel()
	}
}

// Wait blocks until every registered handle has stopped.
func (g *Group) Wait() {
	g.mu.Lock()
	hs := append([]*Handle(nil), g.handles...)
	g.mu.Unlock()

	for _, h := range hs {
		<-h.Done()
	}
}
