package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/proration"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

// Overage is a resource whose current usage exceeds the target plan's limit.
type Overage struct {
	Resource plan.Resource `json:"resource"`
	Current  float64       `json:"current"`
	Max      int64         `json:"max"`
}

// Downgrade describes an accepted downgrade.
type Downgrade struct {
	From         plan.Tier      `json:"from"`
	To           plan.Tier      `json:"to"`
	Cycle        plan.Cycle     `json:"billingCycle"`
	EffectiveAt  time.Time      `json:"effectiveAt"`
	Overages     []Overage      `json:"overages,omitempty"`
	LostFeatures []plan.Feature `json:"lostFeatures,omitempty"`
}

// QuotePlanChange previews the cost of moving to target today.
// The quote is advisory; the gateway computes the actual charge.
func (s *Service) QuotePlanChange(target proration.Target) (proration.Quote, error) {
	rec := s.current()
	if rec == nil {
		return proration.Quote{}, subscription.ErrNoSubscription
	}
	return s.prorator.QuoteRecord(rec, target)
}

// IncrementUsage records amount more of res on the backend and stores the
// returned record.
func (s *Service) IncrementUsage(ctx context.Context, res plan.Resource, amount float64) (*subscription.Record, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	epoch := s.currentEpoch()
	rec, err := s.backend.IncrementUsage(ctx, res, amount)
	if err != nil {
		s.report(ctx, "increment usage", err)
		return nil, err
	}
	if rec == nil {
		return nil, ErrEmptyRecord
	}
	rec = s.carryScheduledChange(rec)
	if s.store(ctx, epoch, rec) {
		s.cacheRecord(ctx, rec)
	}
	return rec.Clone(), nil
}

// RequestDowngrade schedules a move to a lower tier at the end of the current
// period. The current plan stays in force until then; at the boundary the
// service revalidates from the backend. Usage above the target limits is
// reported, not blocked.
func (s *Service) RequestDowngrade(ctx context.Context, tier plan.Tier, cycle plan.Cycle) (Downgrade, error) {
	if !tier.Valid() || !cycle.Valid() {
		return Downgrade{}, fmt.Errorf("%w: plan %q cycle %q", ErrInvalidTarget, tier, cycle)
	}

	epoch := s.currentEpoch()
	rec := s.current()
	if rec == nil {
		return Downgrade{}, subscription.ErrNoSubscription
	}

	now := s.clock.Now()
	from := rec.EffectivePlan(now)
	if !s.catalog.IsUpgrade(tier, from) {
		return Downgrade{}, fmt.Errorf("%w: %s to %s", ErrNotADowngrade, from, tier)
	}

	if err := s.backend.Downgrade(ctx, tier, cycle); err != nil {
		s.report(ctx, "request downgrade", err)
		return Downgrade{}, err
	}

	effectiveAt := rec.CurrentPeriodEnd
	if effectiveAt.IsZero() {
		effectiveAt = now
	}
	out := Downgrade{
		From:         from,
		To:           tier,
		Cycle:        cycle,
		EffectiveAt:  effectiveAt,
		Overages:     s.overages(rec, tier),
		LostFeatures: s.catalog.Compare(from, tier).LostFeatures,
	}

	updated := rec.Clone()
	updated.ScheduledChange = &subscription.ScheduledChange{
		PlanID:       tier,
		BillingCycle: cycle,
		EffectiveAt:  effectiveAt,
	}
	if s.store(ctx, epoch, updated) {
		s.cacheRecord(ctx, updated)
	}

	s.logger.InfoContext(ctx, "downgrade scheduled",
		logger.Plan(tier),
		logger.Cycle(cycle),
		logger.Duration(effectiveAt.Sub(now)),
	)
	return out, nil
}

func (s *Service) overages(rec *subscription.Record, target plan.Tier) []Overage {
	p := s.catalog.Plan(target)
	var out []Overage
	for _, res := range append(append([]plan.Resource{}, plan.CountableResources...), plan.ResourceStorageMB) {
		limit, ok := p.Limits.Limit(res)
		if !ok || plan.IsUnlimited(limit) {
			continue
		}
		if current := rec.Usage.Count(res); current > float64(limit) {
			out = append(out, Overage{Resource: res, Current: current, Max: limit})
		}
	}
	return out
}
