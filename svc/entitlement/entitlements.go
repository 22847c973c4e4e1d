package entitlement

import (
	"github.com/gestaonuvem/entitlements/pkg/access"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

// CanCreate reports whether one more unit of res may be created.
func (s *Service) CanCreate(res plan.Resource) subscription.Decision {
	return s.evaluator.CanCreate(res)
}

func (s *Service) CanCreateSalesOrder() subscription.Decision {
	return s.evaluator.CanCreateSalesOrder()
}
func (s *Service) CanCreatePurchaseOrder() subscription.Decision {
	return s.evaluator.CanCreatePurchaseOrder()
}
func (s *Service) CanCreateInvoice() subscription.Decision { return s.evaluator.CanCreateInvoice() }
func (s *Service) CanCreateTransaction() subscription.Decision {
	return s.evaluator.CanCreateTransaction()
}
func (s *Service) CanCreateProduct() subscription.Decision  { return s.evaluator.CanCreateProduct() }
func (s *Service) CanCreateCustomer() subscription.Decision { return s.evaluator.CanCreateCustomer() }
func (s *Service) CanCreateSupplier() subscription.Decision { return s.evaluator.CanCreateSupplier() }
func (s *Service) CanCreateUser() subscription.Decision     { return s.evaluator.CanCreateUser() }

// CanUploadFile checks the per-file limit and the remaining storage.
func (s *Service) CanUploadFile(sizeMB float64) subscription.Decision {
	return s.evaluator.CanUploadFile(sizeMB)
}

func (s *Service) HasFeature(f plan.Feature) subscription.Decision {
	return s.evaluator.HasFeature(f)
}

func (s *Service) UsageOverview() map[plan.Resource]subscription.UsageStat {
	return s.evaluator.UsageOverview()
}

func (s *Service) UsageWarnings() []string {
	return s.evaluator.UsageWarnings()
}

// CheckAccess returns the coarse access verdict for a view at the current time.
func (s *Service) CheckAccess(view access.View) access.Verdict {
	return access.Evaluate(s.current(), s.clock.Now(), view)
}

// CheckModuleAccess applies the coarse verdict first, then the per-module rules.
// A blocked tenant is reported as blocked, not as needing an upgrade.
func (s *Service) CheckModuleAccess(view access.View) access.ModuleAccess {
	rec, now := s.current(), s.clock.Now()
	if v := access.Evaluate(rec, now, view); v.State.Blocked() {
		return access.ModuleAccess{Reason: v.Reason}
	}
	return access.CheckModule(s.catalog, rec, now, view)
}

// EffectivePlan returns the plan whose entitlements apply now.
func (s *Service) EffectivePlan() (plan.Plan, bool) {
	return s.evaluator.EffectivePlan()
}
