// Package entitlement is the entitlement engine of a tenant session.
//
// A Service holds the tenant's single subscription record, loaded from the
// backend of record through an optional TTL read-through cache, and answers
// every entitlement question from it: resource quotas, feature flags, the
// coarse access verdict and per-module gates. It also previews plan changes,
// schedules downgrades at the period boundary and runs the card, PIX and
// boleto payment flows, reloading the record once a payment is confirmed.
//
// Loading modes:
//
//   - Load is the initial fetch. Loading reports true while it runs.
//   - Revalidate refreshes silently, bypassing the cache.
//   - Reload invalidates the cache first; payments use it after confirmation.
//
// Whichever response completes last wins the slot. Limit and feature outcomes
// are not errors to alert on: Require and friends publish an UpgradePrompt to
// subscribers and Classify ranks them as SeverityUpsell.
//
//	svc := entitlement.New(plan.Default(), client,
//		entitlement.WithCache(store, 5*time.Minute),
//		entitlement.WithLogger(log),
//	)
//	defer svc.Close()
//
//	if _, err := svc.Load(ctx); err != nil {
//		return err
//	}
//	if err := svc.Require(plan.ResourceSalesOrders); err != nil {
//		// show the upgrade prompt delivered on svc.Subscribe(ctx)
//	}
package entitlement
