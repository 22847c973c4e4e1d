// Package subscription models the per-tenant subscription record and evaluates
// entitlements against the plan catalog.
//
// A Record is the backend's view of a tenant: tier, billing cycle, status, the
// key dates and the usage counters of the current period. The Evaluator is a
// read-only view over whatever record its RecordSource returns:
//
//	eval := subscription.NewEvaluator(plan.Default(), svc.Current)
//	if d := eval.CanCreateSalesOrder(); !d.Allowed {
//		return d.Err() // wraps ErrLimitReached
//	}
//
// # Resource checks
//
// One more instance of a resource may be created while usage is strictly below
// the plan ceiling. Invoices are additionally gated by the fiscal module flag and
// are blocked without it whatever the numeric limit says. Ceilings at or above
// plan.Unlimited always allow.
//
// # Fail closed
//
// When no record is loaded every check returns Allowed=false with the
// "no subscription" reason. Nothing in this package panics on missing data.
//
// # Effective plan
//
// Trials run on the top tier. A ScheduledChange whose EffectiveAt has passed is
// applied before the backend rewrites PlanID, so a downgrade takes effect exactly
// at the period boundary.
package subscription
