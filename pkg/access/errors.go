package access

import "errors"

var (
	ErrTrialExpired = errors.New("trial period has expired")
	ErrPlanExpired  = errors.New("plan period has expired")
	ErrCanceled     = errors.New("subscription is canceled")
	ErrModuleLocked = errors.New("module not included in plan")
	ErrNotLoaded    = errors.New("subscription not loaded")
)
