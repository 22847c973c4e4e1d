// Package plan holds the fixed catalog of subscription tiers: their prices per
// billing cycle, resource ceilings and feature flags.
//
// The catalog is static data. Every lookup is pure and safe for concurrent use.
//
//	cat := plan.Default()
//	p := cat.Plan(plan.TierIntermediario)
//	price := p.PriceFor(plan.CycleYearly) // 671.04
//
// Unknown tiers resolve to the most restrictive plan, so a corrupted record
// never grants more than the basic tier.
//
// Money is represented with github.com/shopspring/decimal and rendered for
// display with FormatBRL.
package plan
