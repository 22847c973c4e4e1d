// Package access decides whether a tenant may open an application view.
//
// Evaluate is the coarse state machine. It is recomputed from the record and the
// current time on every call:
//
//	v := access.Evaluate(rec, clock.Now(), "inventory")
//	if !v.Allowed {
//		// show v.Reason with a link to v.CTAView; v.Dismissible() is false
//	}
//
// Billing, plans, profile, checkout and subscription views are always allowed,
// so a blocked tenant can still pay.
//
// CheckModule is the narrower gate for tenants who are allowed in. It reports
// the lowest tier that unlocks a module so the caller can offer an upgrade.
package access
