package payment

import (
	"errors"
	"fmt"
)

var (
	ErrPaymentWindowExpired = errors.New("payment window expired")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrValidation           = errors.New("invalid billing details")
	ErrUnknownChannel       = errors.New("unknown payment channel")
	ErrNoCheckout           = errors.New("checkout returned neither an upgrade nor a checkout URL")
	ErrInvalidIntent        = errors.New("invalid payment intent")
	ErrInvalidRequest       = errors.New("invalid payment request")
	ErrReconcile            = errors.New("payment confirmed but subscription refresh failed")
)

// TransitionError reports an event that is not allowed in the watch's current state.
type TransitionError struct {
	State WatchState
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("no transition from watch state %q for event %q", e.State, e.Event)
}

func IsTransitionError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e)
}
