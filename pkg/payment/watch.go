package payment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/task"
)

// Watch follows one PIX or boleto intent until it is paid, expires, fails or
// is closed. A status poll and a local countdown run side by side; the
// countdown is computed from the intent's expiry and never waits on the poll.
type Watch struct {
	mu     sync.RWMutex
	intent Intent

	life   *lifecycle
	obs    Observer
	emitMu sync.Mutex

	clock         clockwork.Clock
	gateway       Gateway
	reconciler    Reconciler
	logger        *slog.Logger
	pollInterval  time.Duration
	tickInterval  time.Duration
	statusTimeout time.Duration

	confirmed atomic.Bool
	tasks     task.Group
	cancel    context.CancelFunc
	done      chan struct{}
	onFinish  func(*Watch, WatchState)
}

func (w *Watch) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel

	now := w.clock.Now()
	intent := w.Intent()
	if intent.ExpiredAt(now) {
		w.end(eventExpire, StatusExpired)
		return
	}

	w.emitTick(countdownAt(intent, now))

	w.tasks.Add(
		task.Every(ctx, w.clock, w.pollInterval, w.poll),
		task.Every(ctx, w.clock, w.tickInterval, w.countdown),
	)

	go func() {
		<-ctx.Done()
		w.end(eventClose, "")
	}()
}

// Intent returns a snapshot of the watched intent.
func (w *Watch) Intent() Intent {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.intent
}

// Countdown returns the time left on the intent right now.
func (w *Watch) Countdown() Countdown {
	return countdownAt(w.Intent(), w.clock.Now())
}

// State returns the current watch state.
func (w *Watch) State() WatchState {
	return w.life.current()
}

// Done is closed once the watch reached a terminal state and its final
// callback returned.
func (w *Watch) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the watch and both of its timers have stopped.
func (w *Watch) Wait() WatchState {
	<-w.done
	w.tasks.Wait()
	return w.State()
}

// Close stops both timers. The intent itself is left untouched on the
// gateway and can be resumed later.
func (w *Watch) Close() {
	w.end(eventClose, "")
}

func (w *Watch) poll(ctx context.Context) error {
	if w.State().Terminal() {
		return task.Stop
	}
	intent := w.Intent()
	if intent.ExpiredAt(w.clock.Now()) {
		w.end(eventExpire, StatusExpired)
		return task.Stop
	}

	reqCtx, cancel := context.WithTimeout(ctx, w.statusTimeout)
	status, err := w.gateway.CheckPaymentStatus(reqCtx, intent.ID)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.WarnContext(ctx, "payment status check failed", logger.Error(err))
		w.emitError(err)
		return nil
	}

	switch status {
	case StatusSucceeded:
		w.confirm(ctx)
		return task.Stop
	case StatusExpired:
		w.end(eventExpire, StatusExpired)
		return task.Stop
	case StatusCanceled, StatusFailed:
		w.end(eventFail, status)
		return task.Stop
	default:
		return nil
	}
}

func (w *Watch) countdown(context.Context) error {
	cd := countdownAt(w.Intent(), w.clock.Now())
	if cd.Expired() {
		w.end(eventExpire, StatusExpired)
		return task.Stop
	}
	w.emitTick(cd)
	return nil
}

// confirm runs the success side effect at most once, however many polls
// report success.
func (w *Watch) confirm(ctx context.Context) {
	if !w.confirmed.CompareAndSwap(false, true) {
		return
	}
	if _, err := w.life.fire(eventConfirm); err != nil {
		return
	}
	w.stop()
	intent := w.setStatus(StatusSucceeded)

	w.logger.InfoContext(ctx, "payment confirmed", logger.Amount(intent.Amount))

	// The timers' context is already canceled; the refresh must still run.
	var rerr error
	if err := w.reconciler.Reload(context.WithoutCancel(ctx)); err != nil {
		w.logger.ErrorContext(ctx, "failed to refresh subscription after payment", logger.Error(err))
		rerr = errors.Join(ErrReconcile, err)
	}

	w.emitMu.Lock()
	w.obs.OnConfirmed(intent, rerr)
	w.emitMu.Unlock()

	w.finish(WatchSucceeded)
}

func (w *Watch) end(ev watchEvent, status IntentStatus) {
	state, err := w.life.fire(ev)
	if err != nil {
		return
	}
	w.stop()

	intent := w.Intent()
	if status != "" {
		intent = w.setStatus(status)
	}

	switch state {
	case WatchExpired:
		w.logger.Info("payment window expired")
		w.emitMu.Lock()
		w.obs.OnExpired(intent)
		w.emitMu.Unlock()
	case WatchFailed:
		w.logger.Warn("payment failed", logger.Status(status))
		w.emitMu.Lock()
		w.obs.OnFailed(intent, status)
		w.emitMu.Unlock()
	case WatchClosed:
		w.logger.Debug("payment watch closed")
	}

	w.finish(state)
}

func (w *Watch) stop() {
	w.tasks.Cancel()
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Watch) finish(state WatchState) {
	close(w.done)
	if w.onFinish != nil {
		w.onFinish(w, state)
	}
}

func (w *Watch) setStatus(s IntentStatus) Intent {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.intent.Status = s
	return w.intent
}

func (w *Watch) emitTick(cd Countdown) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	if w.State() != WatchWatching {
		return
	}
	w.obs.OnTick(cd)
}

func (w *Watch) emitError(err error) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	if w.State() != WatchWatching {
		return
	}
	w.obs.OnError(err)
}
