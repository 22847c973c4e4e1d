package access

import (
	"fmt"
	"time"

	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

// ModuleAccess is the outcome of the per-module gate.
type ModuleAccess struct {
	Allowed         bool         `json:"allowed"`
	Reason          string       `json:"reason,omitempty"`
	RequiresUpgrade bool         `json:"requiresUpgrade"`
	RequiredPlan    plan.Tier    `json:"requiredPlan,omitempty"`
	Feature         plan.Feature `json:"feature,omitempty"`
}

// Err returns nil when the module is reachable.
func (m ModuleAccess) Err() error {
	switch {
	case m.Allowed:
		return nil
	case m.RequiresUpgrade:
		return fmt.Errorf("%w: %s", ErrModuleLocked, m.Reason)
	default:
		return ErrNotLoaded
	}
}

// IsGatedModule reports whether a view has a module rule.
func IsGatedModule(view View) bool {
	_, ok := moduleRules[view.Normalize()]
	return ok
}

// CheckModule applies the per-module rules on top of the coarse verdict.
// Feature modules need the plan flag and financial modules need at least the
// avancado tier. The effective plan is used, so trials reach every module.
func CheckModule(catalog *plan.Catalog, rec *subscription.Record, now time.Time, view View) ModuleAccess {
	rule, gated := moduleRules[view.Normalize()]
	if !gated {
		return ModuleAccess{Allowed: true}
	}
	if rec == nil {
		return ModuleAccess{Reason: "no subscription"}
	}

	p := catalog.Plan(rec.EffectivePlan(now))

	if rule.feature != "" {
		if p.HasFeature(rule.feature) {
			return ModuleAccess{Allowed: true, Feature: rule.feature}
		}
		required, _ := catalog.LowestTierWith(rule.feature)
		return ModuleAccess{
			Reason:          fmt.Sprintf("The %s is not included in the %s plan.", rule.name, p.Name),
			RequiresUpgrade: true,
			RequiredPlan:    required,
			Feature:         rule.feature,
		}
	}

	if p.ID.Rank() >= rule.minTier.Rank() {
		return ModuleAccess{Allowed: true}
	}
	return ModuleAccess{
		Reason:          fmt.Sprintf("The %s module requires the %s plan or higher.", rule.name, catalog.Plan(rule.minTier).Name),
		RequiresUpgrade: true,
		RequiredPlan:    rule.minTier,
	}
}
