package access

import (
	"strings"

	"github.com/gestaonuvem/entitlements/pkg/plan"
)

// View identifies an application screen, e.g. "inventory" or "billing".
type View string

// Views that stay reachable whatever the subscription state, so a blocked tenant can still pay.
const (
	ViewBilling      View = "billing"
	ViewPlans        View = "plans"
	ViewProfile      View = "profile"
	ViewCheckout     View = "checkout"
	ViewSubscription View = "subscription"
)

var allowlist = map[View]struct{}{
	ViewBilling:      {},
	ViewPlans:        {},
	ViewProfile:      {},
	ViewCheckout:     {},
	ViewSubscription: {},
}

// Normalize lowercases the view and strips surrounding slashes, so "/Billing/" and "billing" match.
func (v View) Normalize() View {
	return View(strings.ToLower(strings.Trim(strings.TrimSpace(string(v)), "/")))
}

// AlwaysAllowed reports whether the view is reachable regardless of subscription state.
func (v View) AlwaysAllowed() bool {
	_, ok := allowlist[v.Normalize()]
	return ok
}

// Module views gated by a feature flag or by a minimum tier.
const (
	ViewFiscal             View = "fiscal"
	ViewInvoices           View = "invoices"
	ViewWarehouses         View = "warehouses"
	ViewAdvancedReports    View = "advanced-reports"
	ViewAPI                View = "api"
	ViewIntegrations       View = "integrations"
	ViewAuditLog           View = "audit-log"
	ViewAccountsPayable    View = "accounts-payable"
	ViewAccountsReceivable View = "accounts-receivable"
	ViewReconciliation     View = "bank-reconciliation"
	ViewCashFlow           View = "cash-flow"
)

type moduleRule struct {
	name    string
	feature plan.Feature
	minTier plan.Tier
}

var moduleRules = map[View]moduleRule{
	ViewFiscal:             {name: "fiscal module", feature: plan.FeatureFiscalModule},
	ViewInvoices:           {name: "invoicing", feature: plan.FeatureFiscalModule},
	ViewWarehouses:         {name: "multiple warehouses", feature: plan.FeatureMultipleWarehouses},
	ViewAdvancedReports:    {name: "advanced reports", feature: plan.FeatureAdvancedReports},
	ViewAPI:                {name: "API access", feature: plan.FeatureAPIAccess},
	ViewIntegrations:       {name: "custom integrations", feature: plan.FeatureCustomIntegrations},
	ViewAuditLog:           {name: "audit log", feature: plan.FeatureAuditLog},
	ViewAccountsPayable:    {name: "accounts payable", minTier: plan.TierAvancado},
	ViewAccountsReceivable: {name: "accounts receivable", minTier: plan.TierAvancado},
	ViewReconciliation:     {name: "bank reconciliation", minTier: plan.TierAvancado},
	ViewCashFlow:           {name: "cash flow", minTier: plan.TierAvancado},
}
