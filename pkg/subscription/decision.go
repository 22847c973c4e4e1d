package subscription

import (
	"fmt"

	"github.com/gestaonuvem/entitlements/pkg/plan"
)

// Kind classifies the outcome of an entitlement check.
type Kind string

const (
	KindAllowed          Kind = "allowed"
	KindNoSubscription   Kind = "no_subscription"
	KindLimitReached     Kind = "limit_reached"
	KindFeatureGated     Kind = "feature_gated"
	KindFileTooLarge     Kind = "file_too_large"
	KindStorageExhausted Kind = "storage_exhausted"
	KindUnknownResource  Kind = "unknown_resource"
)

// Decision is the structured result of an entitlement check. A blocked decision
// carries enough context for the caller to present an upsell.
type Decision struct {
	Allowed      bool          `json:"allowed"`
	Kind         Kind          `json:"kind"`
	Reason       string        `json:"reason,omitempty"`
	Resource     plan.Resource `json:"resource,omitempty"`
	Feature      plan.Feature  `json:"feature,omitempty"`
	Current      float64       `json:"current,omitempty"`
	Max          int64         `json:"max,omitempty"`
	RequiredPlan plan.Tier     `json:"requiredPlan,omitempty"`
}

func allow(res plan.Resource) Decision {
	return Decision{Allowed: true, Kind: KindAllowed, Resource: res}
}

func noSubscription() Decision {
	return Decision{Kind: KindNoSubscription, Reason: "no subscription"}
}

// Err returns nil for allowed decisions and a sentinel-wrapped error otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	var sentinel error
	switch d.Kind {
	case KindNoSubscription:
		return ErrNoSubscription
	case KindLimitReached:
		sentinel = ErrLimitReached
	case KindFeatureGated:
		sentinel = ErrFeatureGated
	case KindFileTooLarge:
		sentinel = ErrFileTooLarge
	case KindStorageExhausted:
		sentinel = ErrStorageExhausted
	default:
		sentinel = ErrUnknownResource
	}
	return fmt.Errorf("%w: %s", sentinel, d.Reason)
}

// IsUpsell reports whether the decision is an expected business outcome that
// an upgrade would resolve.
func (d Decision) IsUpsell() bool {
	switch d.Kind {
	case KindLimitReached, KindFeatureGated, KindFileTooLarge, KindStorageExhausted:
		return true
	default:
		return false
	}
}
