package access

import (
	"time"
)

// State is the coarse access verdict for a tenant.
type State string

const (
	StateUnknown             State = "unknown"
	StateAllowed             State = "allowed"
	StateBlockedTrialExpired State = "blocked_trial_expired"
	StateBlockedPlanExpired  State = "blocked_plan_expired"
	StateBlockedCanceled     State = "blocked_canceled"
)

// Blocked reports whether the state denies access.
func (s State) Blocked() bool {
	switch s {
	case StateBlockedTrialExpired, StateBlockedPlanExpired, StateBlockedCanceled:
		return true
	default:
		return false
	}
}

// Verdict is the outcome of an access check for a single view.
type Verdict struct {
	State        State      `json:"state"`
	Allowed      bool       `json:"allowed"`
	Reason       string     `json:"reason,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CallToAction string     `json:"callToAction,omitempty"`
	CTAView      View       `json:"ctaView,omitempty"`
}

// Dismissible reports whether the caller may hide the verdict.
// Blocked verdicts can only be left by navigating to an always-allowed view.
func (v Verdict) Dismissible() bool {
	return !v.State.Blocked()
}

// Err returns nil when access is allowed and the matching sentinel error otherwise.
func (v Verdict) Err() error {
	switch v.State {
	case StateBlockedTrialExpired:
		return ErrTrialExpired
	case StateBlockedPlanExpired:
		return ErrPlanExpired
	case StateBlockedCanceled:
		return ErrCanceled
	default:
		return nil
	}
}
