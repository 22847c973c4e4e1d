// Package task runs cancellable repeating and one-shot work on a clockwork.Clock.
//
// Every timer is paired with a Handle, and cancelling the handle releases the
// timer and its goroutine:
//
//	h := task.Every(ctx, clock, 5*time.Second, func(ctx context.Context) error {
//		done, err := poll(ctx)
//		if done {
//			return task.Stop
//		}
//		return err
//	})
//	defer h.Cancel()
//
// Tests drive time with clockwork.NewFakeClock and Advance instead of sleeping.
package task
