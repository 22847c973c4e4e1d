package payment

import "sync"

// WatchState is the client-side state of a payment watch.
type WatchState string

const (
	WatchWatching  WatchState = "watching"
	WatchSucceeded WatchState = "succeeded"
	WatchExpired   WatchState = "expired"
	WatchFailed    WatchState = "failed"
	WatchClosed    WatchState = "closed"
)

// Terminal reports whether the watch has stopped for good.
func (s WatchState) Terminal() bool {
	return s != WatchWatching
}

type watchEvent string

const (
	eventConfirm watchEvent = "confirm"
	eventExpire  watchEvent = "expire"
	eventFail    watchEvent = "fail"
	eventClose   watchEvent = "close"
)

// transitions maps [from][event] to the next state. Every terminal state is a sink.
var transitions = map[WatchState]map[watchEvent]WatchState{
	WatchWatching: {
		eventConfirm: WatchSucceeded,
		eventExpire:  WatchExpired,
		eventFail:    WatchFailed,
		eventClose:   WatchClosed,
	},
}

type lifecycle struct {
	mu    sync.RWMutex
	state WatchState
}

func newLifecycle() *lifecycle {
	return &lifecycle{state: WatchWatching}
}

func (l *lifecycle) current() WatchState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// fire applies the event and returns the new state. Exactly one caller wins
// the move out of watching; every later event gets a *TransitionError.
func (l *lifecycle) fire(ev watchEvent) (WatchState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, ok := transitions[l.state][ev]
	if !ok {
		return l.state, &TransitionError{State: l.state, Event: string(ev)}
	}
	l.state = next
	return next, nil
}
