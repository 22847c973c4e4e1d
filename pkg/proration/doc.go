// Package proration previews the cost of changing plan or billing cycle in the
// middle of a paid period.
//
// The unused part of the current period is the only credit: the daily rate of
// the current plan times the whole days left. The new period starts today, and
// leftover days are never carried over. Money math uses shopspring/decimal.
//
//	calc := proration.New(plan.Default(), proration.WithClock(clock))
//	q, err := calc.QuoteRecord(rec, proration.Target{Plan: plan.TierAvancado, Cycle: plan.CycleMonthly})
//	fmt.Println(q) // avancado/monthly: R$ 109,90 - credit R$ 23,30 (10 days) = R$ 86,60 due, ...
package proration
