// Package broadcast provides a typed, non-blocking, in-process fan-out.
//
// Publish never waits on a subscriber: a value that does not fit in a
// subscriber's buffer is dropped for that subscriber and counted in Dropped.
// Subscriptions end when their context is done or when the broadcaster is closed.
//
//	b := broadcast.New[Prompt](8)
//	for p := range b.Subscribe(ctx) {
//		show(p)
//	}
package broadcast
