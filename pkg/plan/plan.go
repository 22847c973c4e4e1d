package plan

import (
	"github.com/shopspring/decimal"
)

// Prices holds the amount charged per billing cycle, in BRL.
type Prices struct {
	Monthly    decimal.Decimal `json:"monthly" yaml:"monthly"`
	Quarterly  decimal.Decimal `json:"quarterly" yaml:"quarterly"`
	Semiannual decimal.Decimal `json:"semiannual" yaml:"semiannual"`
	Yearly     decimal.Decimal `json:"yearly" yaml:"yearly"`
}

// For returns the price of a cycle. Unknown cycles cost zero.
func (p Prices) For(c Cycle) decimal.Decimal {
	switch c {
	case CycleMonthly:
		return p.Monthly
	case CycleQuarterly:
		return p.Quarterly
	case CycleSemiannual:
		return p.Semiannual
	case CycleYearly:
		return p.Yearly
	default:
		return decimal.Zero
	}
}

// Discounts holds the percentage discount of each prepaid cycle relative to
// paying monthly for the same period.
type Discounts struct {
	Quarterly  decimal.Decimal `json:"quarterly" yaml:"quarterly"`
	Semiannual decimal.Decimal `json:"semiannual" yaml:"semiannual"`
	Yearly     decimal.Decimal `json:"yearly" yaml:"yearly"`
}

// For returns the discount percentage of a cycle (0 for monthly).
func (d Discounts) For(c Cycle) decimal.Decimal {
	switch c {
	case CycleQuarterly:
		return d.Quarterly
	case CycleSemiannual:
		return d.Semiannual
	case CycleYearly:
		return d.Yearly
	default:
		return decimal.Zero
	}
}

// Plan describes a subscription tier, its prices and its resource/feature constraints.
type Plan struct {
	ID        Tier      `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Price     Prices    `json:"price" yaml:"price"`
	Discount  Discounts `json:"discountPct" yaml:"discount_pct"`
	Limits    Limits    `json:"limits" yaml:"limits"`
	TrialDays int       `json:"trialDays,omitempty" yaml:"trial_days"`
}

// PriceFor returns the price of the plan for the given cycle.
func (p Plan) PriceFor(c Cycle) decimal.Decimal {
	return p.Price.For(c)
}

// MonthlyEquivalent returns the per-month cost of a prepaid cycle.
func (p Plan) MonthlyEquivalent(c Cycle) decimal.Decimal {
	months := c.Months()
	if months == 0 {
		return decimal.Zero
	}
	return p.PriceFor(c).DivRound(decimal.NewFromInt(int64(months)), 2)
}

// HasFeature reports whether the plan grants the feature.
func (p Plan) HasFeature(f Feature) bool {
	return p.Limits.Features.Has(f)
}

// Comparison contains the differences between two plans.
// Used to warn tenants about what a downgrade takes away.
type Comparison struct {
	NewFeatures     []Feature
	LostFeatures    []Feature
	IncreasedLimits map[Resource]LimitChange
	DecreasedLimits map[Resource]LimitChange
}

// LimitChange represents a change in a resource ceiling.
type LimitChange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// HasDecreases returns true if any limit or feature is lost.
func (c Comparison) HasDecreases() bool {
	return len(c.DecreasedLimits) > 0 || len(c.LostFeatures) > 0
}

// Compare returns the differences between the current and the target plan.
func Compare(current, target Plan) Comparison {
	cmp := Comparison{
		NewFeatures:     make([]Feature, 0),
		LostFeatures:    make([]Feature, 0),
		IncreasedLimits: make(map[Resource]LimitChange),
		DecreasedLimits: make(map[Resource]LimitChange),
	}

	for _, f := range AllFeatures {
		had, has := current.HasFeature(f), target.HasFeature(f)
		switch {
		case has && !had:
			cmp.NewFeatures = append(cmp.NewFeatures, f)
		case had && !has:
			cmp.LostFeatures = append(cmp.LostFeatures, f)
		}
	}

	resources := append(append([]Resource{}, CountableResources...), ResourceStorageMB, ResourceFileUploadMB)
	for _, res := range resources {
		from, _ := current.Limits.Limit(res)
		to, _ := target.Limits.Limit(res)
		if from == to || (IsUnlimited(from) && IsUnlimited(to)) {
			continue
		}
		change := LimitChange{From: from, To: to}

		// Unlimited-to-limited is always a decrease, whatever the sentinel value.
		switch {
		case IsUnlimited(from):
			cmp.DecreasedLimits[res] = change
		case IsUnlimited(to), to > from:
			cmp.IncreasedLimits[res] = change
		default:
			cmp.DecreasedLimits[res] = change
		}
	}

	return cmp
}
