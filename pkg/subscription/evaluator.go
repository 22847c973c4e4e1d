package subscription

import (
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"

	"github.com/gestaonuvem/entitlements/pkg/plan"
)

// NearLimitRatio is the share of a limit from which a resource is reported as near its limit.
const NearLimitRatio = 0.8

// RecordSource returns the currently loaded record, or nil when none is loaded.
type RecordSource func() *Record

// Static returns a RecordSource that always yields rec.
func Static(rec *Record) RecordSource {
	return func() *Record { return rec }
}

// UsageStat is the dashboard view of a single resource.
type UsageStat struct {
	Current    float64 `json:"current"`
	Max        int64   `json:"max"`
	Percentage float64 `json:"percentage"`
	NearLimit  bool    `json:"nearLimit"`
	Unlimited  bool    `json:"unlimited"`
}

// Evaluator answers entitlement questions for the record returned by its source.
// It never mutates the record.
type Evaluator struct {
	catalog *plan.Catalog
	source  RecordSource
	clock   clockwork.Clock
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithClock sets the clock used to resolve trial and scheduled-change boundaries.
func WithClock(clock clockwork.Clock) EvaluatorOption {
	return func(e *Evaluator) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewEvaluator creates an Evaluator.
// Panics if catalog or source is nil to fail fast during initialization.
func NewEvaluator(catalog *plan.Catalog, source RecordSource, opts ...EvaluatorOption) *Evaluator {
	if catalog == nil {
		panic("subscription: plan catalog is required")
	}
	if source == nil {
		panic("subscription: record source is required")
	}

	e := &Evaluator{
		catalog: catalog,
		source:  source,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// current resolves the record and its effective plan. Unknown tiers resolve to
// the most restrictive plan.
func (e *Evaluator) current() (*Record, plan.Plan, bool) {
	rec := e.source()
	if rec == nil {
		return nil, plan.Plan{}, false
	}
	return rec, e.catalog.Plan(rec.EffectivePlan(e.clock.Now())), true
}

// EffectivePlan returns the plan whose entitlements currently apply.
func (e *Evaluator) EffectivePlan() (plan.Plan, bool) {
	_, p, ok := e.current()
	return p, ok
}

// CanCreate checks whether one more instance of a countable resource may be created.
func (e *Evaluator) CanCreate(res plan.Resource) Decision {
	rec, p, ok := e.current()
	if !ok {
		return noSubscription()
	}

	if f, gated := plan.GatingFeature(res); gated && !p.HasFeature(f) {
		required, _ := e.catalog.LowestTierWith(f)
		return Decision{
			Kind:         KindFeatureGated,
			Reason:       fmt.Sprintf("%s require the %s, which is not included in the %s plan", res.Label(), f.Label(), p.Name),
			Resource:     res,
			Feature:      f,
			RequiredPlan: required,
		}
	}

	limit, known := p.Limits.Limit(res)
	if !known {
		return Decision{Kind: KindUnknownResource, Reason: fmt.Sprintf("unknown resource %q", res), Resource: res}
	}
	if plan.IsUnlimited(limit) {
		return allow(res)
	}

	current := rec.Usage.Count(res)
	if current < float64(limit) {
		return allow(res)
	}

	required, _ := e.catalog.LowestTierFor(res, int64(current))
	return Decision{
		Kind:         KindLimitReached,
		Reason:       fmt.Sprintf("%s limit reached: %d of %d on the %s plan", res.Label(), int64(current), limit, p.Name),
		Resource:     res,
		Current:      current,
		Max:          limit,
		RequiredPlan: required,
	}
}

func (e *Evaluator) CanCreateSalesOrder() Decision { return e.CanCreate(plan.ResourceSalesOrders) }

func (e *Evaluator) CanCreatePurchaseOrder() Decision {
	return e.CanCreate(plan.ResourcePurchaseOrders)
}

func (e *Evaluator) CanCreateInvoice() Decision     { return e.CanCreate(plan.ResourceInvoices) }
func (e *Evaluator) CanCreateTransaction() Decision { return e.CanCreate(plan.ResourceTransactions) }
func (e *Evaluator) CanCreateProduct() Decision     { return e.CanCreate(plan.ResourceProducts) }
func (e *Evaluator) CanCreateCustomer() Decision    { return e.CanCreate(plan.ResourceCustomers) }
func (e *Evaluator) CanCreateSupplier() Decision    { return e.CanCreate(plan.ResourceSuppliers) }
func (e *Evaluator) CanCreateUser() Decision        { return e.CanCreate(plan.ResourceUsers) }

// CanUploadFile checks the per-file size limit and then the storage quota.
// Both must pass; the decision names the first check that failed.
func (e *Evaluator) CanUploadFile(sizeMB float64) Decision {
	rec, p, ok := e.current()
	if !ok {
		return noSubscription()
	}
	sizeMB = math.Max(0, sizeMB)

	maxFile := p.Limits.MaxFileUploadMB
	if !plan.IsUnlimited(maxFile) && sizeMB > float64(maxFile) {
		return Decision{
			Kind:         KindFileTooLarge,
			Reason:       fmt.Sprintf("file of %.1f MB exceeds the %d MB per-file limit of the %s plan", sizeMB, maxFile, p.Name),
			Resource:     plan.ResourceFileUploadMB,
			Current:      sizeMB,
			Max:          maxFile,
			RequiredPlan: e.lowestTierCovering(plan.ResourceFileUploadMB, sizeMB),
		}
	}

	maxStorage := p.Limits.MaxStorageMB
	used := rec.Usage.StorageMB
	if !plan.IsUnlimited(maxStorage) && used+sizeMB > float64(maxStorage) {
		return Decision{
			Kind:         KindStorageExhausted,
			Reason:       fmt.Sprintf("storage limit reached: %.1f MB used, %.1f MB requested, %d MB available on the %s plan", used, sizeMB, maxStorage, p.Name),
			Resource:     plan.ResourceStorageMB,
			Current:      used,
			Max:          maxStorage,
			RequiredPlan: e.lowestTierCovering(plan.ResourceStorageMB, used+sizeMB),
		}
	}

	return allow(plan.ResourceFileUploadMB)
}

// HasFeature checks whether the effective plan grants a feature.
// Fails closed when no subscription is loaded.
func (e *Evaluator) HasFeature(f plan.Feature) Decision {
	_, p, ok := e.current()
	if !ok {
		return noSubscription()
	}
	if p.HasFeature(f) {
		return Decision{Allowed: true, Kind: KindAllowed, Feature: f}
	}
	required, _ := e.catalog.LowestTierWith(f)
	return Decision{
		Kind:         KindFeatureGated,
		Reason:       fmt.Sprintf("%s is not included in the %s plan", f.Label(), p.Name),
		Feature:      f,
		RequiredPlan: required,
	}
}

// UsageOverview returns the usage of every countable resource and of storage.
// Unlimited resources always report 0% and are never near their limit.
func (e *Evaluator) UsageOverview() map[plan.Resource]UsageStat {
	rec, p, ok := e.current()
	if !ok {
		return map[plan.Resource]UsageStat{}
	}

	out := make(map[plan.Resource]UsageStat, len(overviewResources))
	for _, res := range overviewResources {
		limit, _ := p.Limits.Limit(res)
		out[res] = usageStat(rec.Usage.Count(res), limit)
	}
	return out
}

// UsageWarnings returns one message per resource near its limit, in dashboard order.
func (e *Evaluator) UsageWarnings() []string {
	overview := e.UsageOverview()
	warnings := make([]string, 0)
	for _, res := range overviewResources {
		stat, ok := overview[res]
		if !ok || !stat.NearLimit {
			continue
		}
		if res == plan.ResourceStorageMB {
			warnings = append(warnings, fmt.Sprintf("%s: %.1f of %d used (%.0f%%)", res.Label(), stat.Current, stat.Max, stat.Percentage))
			continue
		}
		warnings = append(warnings, fmt.Sprintf("%s: %d of %d used (%.0f%%)", res.Label(), int64(stat.Current), stat.Max, stat.Percentage))
	}
	return warnings
}

var overviewResources = append(append([]plan.Resource{}, plan.CountableResources...), plan.ResourceStorageMB)

func usageStat(current float64, limit int64) UsageStat {
	if plan.IsUnlimited(limit) {
		return UsageStat{Current: current, Max: limit, Unlimited: true}
	}
	stat := UsageStat{Current: current, Max: limit}
	if limit <= 0 {
		stat.Percentage = 100
		stat.NearLimit = true
		return stat
	}
	stat.Percentage = current / float64(limit) * 100
	stat.NearLimit = current >= float64(limit)*NearLimitRatio
	return stat
}

// lowestTierCovering returns the lowest tier whose ceiling for res is at least amount.
func (e *Evaluator) lowestTierCovering(res plan.Resource, amount float64) plan.Tier {
	for _, p := range e.catalog.All() {
		limit, _ := p.Limits.Limit(res)
		if plan.IsUnlimited(limit) || amount <= float64(limit) {
			return p.ID
		}
	}
	return ""
}
