package payment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("every event leaves watching exactly once", func(t *testing.T) {
		t.Parallel()
		cases := map[watchEvent]WatchState{
			eventConfirm: WatchSucceeded,
			eventExpire:  WatchExpired,
			eventFail:    WatchFailed,
			eventClose:   WatchClosed,
		}
		for ev, want := range cases {
			l := newLifecycle()
			got, err := l.fire(ev)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.True(t, got.Terminal())

			for other := range cases {
				_, err := l.fire(other)
				assert.True(t, IsTransitionError(err), "%s after %s", other, ev)
			}
			assert.Equal(t, want, l.current())
		}
	})

	t.Run("concurrent events have one winner", func(t *testing.T) {
		t.Parallel()
		l := newLifecycle()

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for _, ev := range []watchEvent{eventConfirm, eventExpire, eventClose, eventConfirm, eventFail} {
			wg.Add(1)
			go func(ev watchEvent) {
				defer wg.Done()
				if _, err := l.fire(ev); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(ev)
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("transition error names state and event", func(t *testing.T) {
		t.Parallel()
		l := newLifecycle()
		_, _ = l.fire(eventClose)
		_, err := l.fire(eventConfirm)

		var terr *TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, WatchClosed, terr.State)
		assert.Equal(t, "confirm", terr.Event)
	})
}
