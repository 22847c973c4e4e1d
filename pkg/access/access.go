package access

import (
	"fmt"
	"time"

	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

const dateLayout = "02/01/2006"

// Evaluate derives the access verdict for a view. It is a pure function of its
// arguments and keeps no state between calls.
//
// Rules are applied in order: always-allowed views, trial expiry, expiry of a
// non-recurring period, expired or canceled status. A missing record yields
// StateUnknown, which is permissive until the caller resolves it.
func Evaluate(rec *subscription.Record, now time.Time, view View) Verdict {
	if view.AlwaysAllowed() {
		return Verdict{State: StateAllowed, Allowed: true}
	}

	if rec == nil {
		return Verdict{State: StateUnknown, Allowed: true}
	}

	if rec.IsTrialExpiredAt(now) {
		end := *rec.TrialEndDate
		return Verdict{
			State:        StateBlockedTrialExpired,
			Reason:       fmt.Sprintf("Your free trial ended on %s. Choose a plan to keep using the system.", end.Format(dateLayout)),
			ExpiresAt:    &end,
			CallToAction: "Choose a plan",
			CTAView:      ViewPlans,
		}
	}

	// Recurring subscriptions lapse through a server-side status change instead.
	if !rec.IsRecurring && rec.IsPeriodOverAt(now) {
		end := rec.CurrentPeriodEnd
		return Verdict{
			State:        StateBlockedPlanExpired,
			Reason:       fmt.Sprintf("Your plan expired on %s. Renew it to regain access.", end.Format(dateLayout)),
			ExpiresAt:    &end,
			CallToAction: "Renew plan",
			CTAView:      ViewBilling,
		}
	}

	switch rec.Status {
	case subscription.StatusExpired:
		return blockedCanceled(rec)
	case subscription.StatusCanceled:
		// A canceled recurring subscription keeps access for the period already paid.
		if rec.IsRecurring && !rec.CurrentPeriodEnd.IsZero() && !rec.IsPeriodOverAt(now) {
			end := rec.CurrentPeriodEnd
			return Verdict{State: StateAllowed, Allowed: true, ExpiresAt: &end}
		}
		return blockedCanceled(rec)
	}

	return Verdict{State: StateAllowed, Allowed: true}
}

func blockedCanceled(rec *subscription.Record) Verdict {
	v := Verdict{
		State:        StateBlockedCanceled,
		Reason:       "Your subscription is no longer active. Subscribe again to regain access.",
		CallToAction: "Subscribe",
		CTAView:      ViewBilling,
	}
	if !rec.CurrentPeriodEnd.IsZero() {
		end := rec.CurrentPeriodEnd
		v.ExpiresAt = &end
		v.Reason = fmt.Sprintf("Your subscription ended on %s. Subscribe again to regain access.", end.Format(dateLayout))
	}
	return v
}
