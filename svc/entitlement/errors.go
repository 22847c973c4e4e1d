package entitlement

import "errors"

var (
	ErrNotADowngrade   = errors.New("target plan is not a downgrade")
	ErrInvalidTarget   = errors.New("invalid target plan or billing cycle")
	ErrInvalidAmount   = errors.New("usage amount must be positive")
	ErrEmptyRecord     = errors.New("backend returned an empty subscription")
	ErrServiceClosed   = errors.New("entitlement service closed")
	ErrNoActivePayment = errors.New("no payment in progress on this channel")
)
