package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/gestaonuvem/entitlements/pkg/access"
	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

// UpgradePrompt asks the UI to offer a plan upgrade. How it is shown is up to the subscriber.
type UpgradePrompt struct {
	Reason       string        `json:"reason"`
	CurrentPlan  plan.Tier     `json:"currentPlan,omitempty"`
	RequiredPlan plan.Tier     `json:"requiredPlan,omitempty"`
	Resource     plan.Resource `json:"resource,omitempty"`
	Feature      plan.Feature  `json:"feature,omitempty"`
	At           time.Time     `json:"at"`
}

// Subscribe streams upgrade prompts until ctx is done or the service closes.
// A subscriber that falls behind misses prompts instead of blocking the service.
func (s *Service) Subscribe(ctx context.Context) <-chan UpgradePrompt {
	return s.prompts.Subscribe(ctx)
}

// TriggerUpgrade publishes an upgrade prompt. An empty requiredPlan defaults to
// the tier above the current one.
func (s *Service) TriggerUpgrade(reason string, requiredPlan plan.Tier) UpgradePrompt {
	return s.publish(UpgradePrompt{Reason: reason, RequiredPlan: requiredPlan})
}

// Require checks res and publishes an upgrade prompt when an upgrade would
// unblock it. It returns the decision's error.
func (s *Service) Require(res plan.Resource) error {
	d := s.CanCreate(res)
	s.upsell(d)
	return d.Err()
}

// RequireFeature is Require for a feature flag.
func (s *Service) RequireFeature(f plan.Feature) error {
	d := s.HasFeature(f)
	s.upsell(d)
	return d.Err()
}

// RequireModule checks a module view and prompts for the tier it needs.
func (s *Service) RequireModule(view access.View) error {
	m := s.CheckModuleAccess(view)
	if m.RequiresUpgrade {
		s.publish(UpgradePrompt{Reason: m.Reason, RequiredPlan: m.RequiredPlan, Feature: m.Feature})
	}
	return m.Err()
}

func (s *Service) upsell(d subscription.Decision) {
	if !d.IsUpsell() {
		return
	}
	s.logger.Debug("entitlement blocked",
		logger.Resource(d.Resource),
		slog.String("kind", string(d.Kind)),
		slog.String("feature", string(d.Feature)),
		logger.Plan(d.RequiredPlan),
	)
	s.publish(UpgradePrompt{
		Reason:       d.Reason,
		RequiredPlan: d.RequiredPlan,
		Resource:     d.Resource,
		Feature:      d.Feature,
	})
}

func (s *Service) publish(p UpgradePrompt) UpgradePrompt {
	p.At = s.clock.Now()
	if rec := s.current(); rec != nil {
		p.CurrentPlan = rec.EffectivePlan(p.At)
	}
	if p.RequiredPlan == "" && p.CurrentPlan != "" {
		if next, ok := s.catalog.NextTier(p.CurrentPlan); ok {
			p.RequiredPlan = next
		}
	}
	s.prompts.Publish(p)
	return p
}
