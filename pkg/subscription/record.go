package subscription

import (
	"time"

	"github.com/gestaonuvem/entitlements/pkg/plan"
)

// Status represents the lifecycle state of a subscription as reported by the backend.
type Status string

const (
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
	StatusPaused   Status = "paused"
)

// PaymentMethod is the channel the subscription was last paid with.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentPix        PaymentMethod = "pix"
	PaymentBoleto     PaymentMethod = "boleto"
)

// Usage holds the per-period counters of a tenant. Counters only grow within a
// period and are reset by the backend between periods.
type Usage struct {
	Users          int64   `json:"users,omitempty"`
	Products       int64   `json:"products,omitempty"`
	Customers      int64   `json:"customers,omitempty"`
	Suppliers      int64   `json:"suppliers,omitempty"`
	SalesOrders    int64   `json:"salesOrders"`
	PurchaseOrders int64   `json:"purchaseOrders"`
	Invoices       int64   `json:"invoices"`
	Transactions   int64   `json:"transactions"`
	StorageMB      float64 `json:"storageMB"`
}

// Count returns the counter of a resource. Unknown resources count as zero.
func (u Usage) Count(res plan.Resource) float64 {
	switch res {
	case plan.ResourceUsers:
		return float64(u.Users)
	case plan.ResourceProducts:
		return float64(u.Products)
	case plan.ResourceCustomers:
		return float64(u.Customers)
	case plan.ResourceSuppliers:
		return float64(u.Suppliers)
	case plan.ResourceSalesOrders:
		return float64(u.SalesOrders)
	case plan.ResourcePurchaseOrders:
		return float64(u.PurchaseOrders)
	case plan.ResourceInvoices:
		return float64(u.Invoices)
	case plan.ResourceTransactions:
		return float64(u.Transactions)
	case plan.ResourceStorageMB:
		return u.StorageMB
	default:
		return 0
	}
}

// ScheduledChange is a plan change accepted by the backend that takes effect at
// a period boundary.
type ScheduledChange struct {
	PlanID       plan.Tier  `json:"planId"`
	BillingCycle plan.Cycle `json:"billingCycle"`
	EffectiveAt  time.Time  `json:"effectiveAt"`
}

// Record is the per-tenant subscription state held by the backend of record.
type Record struct {
	ID                 string           `json:"id"`
	TenantID           string           `json:"tenantId"`
	PlanID             plan.Tier        `json:"planId"`
	Status             Status           `json:"status"`
	BillingCycle       plan.Cycle       `json:"billingCycle"`
	TrialStartDate     *time.Time       `json:"trialStartDate,omitempty"`
	TrialEndDate       *time.Time       `json:"trialEndDate,omitempty"`
	StartDate          time.Time        `json:"startDate"`
	CurrentPeriodStart time.Time        `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time        `json:"currentPeriodEnd"`
	CanceledAt         *time.Time       `json:"canceledAt,omitempty"`
	PaymentMethod      *PaymentMethod   `json:"paymentMethod,omitempty"`
	IsRecurring        bool             `json:"isRecurring"`
	Usage              Usage            `json:"usage"`
	ScheduledChange    *ScheduledChange `json:"scheduledChange,omitempty"`
}

// IsTrialing returns true if the subscription is in trial status.
func (r *Record) IsTrialing() bool {
	return r.Status == StatusTrial
}

// IsTrialExpiredAt reports whether a trialing subscription has passed its trial end.
func (r *Record) IsTrialExpiredAt(now time.Time) bool {
	if !r.IsTrialing() || r.TrialEndDate == nil {
		return false
	}
	return now.After(*r.TrialEndDate)
}

// IsPeriodOverAt reports whether the current paid period has ended.
func (r *Record) IsPeriodOverAt(now time.Time) bool {
	if r.CurrentPeriodEnd.IsZero() {
		return false
	}
	return now.After(r.CurrentPeriodEnd)
}

// TrialDaysRemainingAt returns the number of days remaining in the trial at a given time.
// Returns 0 if not in trial or trial has expired.
func (r *Record) TrialDaysRemainingAt(now time.Time) int {
	if !r.IsTrialing() || r.TrialEndDate == nil {
		return 0
	}

	remaining := r.TrialEndDate.Sub(now)
	if remaining <= 0 {
		return 0
	}

	// Round up partial days to be user-friendly
	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// EffectivePlan returns the tier whose entitlements apply at now.
// A trial always runs on the top tier. A scheduled change applies once its boundary passes,
// even before the backend has rewritten PlanID.
func (r *Record) EffectivePlan(now time.Time) plan.Tier {
	if r.IsTrialing() {
		return plan.TierIlimitado
	}
	if c := r.ScheduledChange; c != nil && !c.EffectiveAt.After(now) {
		return c.PlanID
	}
	return r.PlanID
}

// EffectiveCycle returns the billing cycle that applies at now.
func (r *Record) EffectiveCycle(now time.Time) plan.Cycle {
	if c := r.ScheduledChange; c != nil && !c.EffectiveAt.After(now) && c.BillingCycle != "" {
		return c.BillingCycle
	}
	return r.BillingCycle
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.TrialStartDate = clonePtr(r.TrialStartDate)
	c.TrialEndDate = clonePtr(r.TrialEndDate)
	c.CanceledAt = clonePtr(r.CanceledAt)
	c.PaymentMethod = clonePtr(r.PaymentMethod)
	c.ScheduledChange = clonePtr(r.ScheduledChange)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
