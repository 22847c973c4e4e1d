package subscription

import "errors"

var (
	ErrNoSubscription   = errors.New("no subscription")
	ErrLimitReached     = errors.New("subscription limit reached")
	ErrFeatureGated     = errors.New("feature not included in plan")
	ErrFileTooLarge     = errors.New("file exceeds plan upload limit")
	ErrStorageExhausted = errors.New("plan storage exhausted")
	ErrUnknownResource  = errors.New("unknown subscription resource")
)
