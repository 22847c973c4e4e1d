package plan

// Tier identifies one of the four fixed subscription levels.
type Tier string

const (
	TierBasico        Tier = "basico"
	TierIntermediario Tier = "intermediario"
	TierAvancado      Tier = "avancado"
	TierIlimitado     Tier = "ilimitado"
)

// tierOrder is the display order and the upgrade order.
var tierOrder = []Tier{TierBasico, TierIntermediario, TierAvancado, TierIlimitado}

// Tiers returns all tiers in display order.
func Tiers() []Tier {
	out := make([]Tier, len(tierOrder))
	copy(out, tierOrder)
	return out
}

// Rank returns the position of the tier in the upgrade order, or -1 for unknown tiers.
func (t Tier) Rank() int {
	for i, v := range tierOrder {
		if v == t {
			return i
		}
	}
	return -1
}

func (t Tier) Valid() bool { return t.Rank() >= 0 }

func (t Tier) String() string { return string(t) }

// Cycle is the prepayment period of a subscription.
type Cycle string

const (
	CycleMonthly    Cycle = "monthly"
	CycleQuarterly  Cycle = "quarterly"
	CycleSemiannual Cycle = "semiannual"
	CycleYearly     Cycle = "yearly"
)

var cycleOrder = []Cycle{CycleMonthly, CycleQuarterly, CycleSemiannual, CycleYearly}

// Cycles returns all billing cycles from shortest to longest.
func Cycles() []Cycle {
	out := make([]Cycle, len(cycleOrder))
	copy(out, cycleOrder)
	return out
}

// Days returns the nominal length of the cycle. The lengths are fixed and not
// calendar-accurate. Unknown cycles return 0.
func (c Cycle) Days() int {
	switch c {
	case CycleMonthly:
		return 30
	case CycleQuarterly:
		return 90
	case CycleSemiannual:
		return 180
	case CycleYearly:
		return 365
	default:
		return 0
	}
}

// Months returns how many monthly prices the cycle prepays.
func (c Cycle) Months() int {
	switch c {
	case CycleMonthly:
		return 1
	case CycleQuarterly:
		return 3
	case CycleSemiannual:
		return 6
	case CycleYearly:
		return 12
	default:
		return 0
	}
}

func (c Cycle) Valid() bool { return c.Days() > 0 }

func (c Cycle) String() string { return string(c) }

// Resource represents a countable tenant resource type.
type Resource string

const (
	ResourceUsers          Resource = "users"
	ResourceProducts       Resource = "products"
	ResourceCustomers      Resource = "customers"
	ResourceSuppliers      Resource = "suppliers"
	ResourceSalesOrders    Resource = "sales_orders"
	ResourcePurchaseOrders Resource = "purchase_orders"
	ResourceInvoices       Resource = "invoices"
	ResourceTransactions   Resource = "transactions"
	ResourceStorageMB      Resource = "storage_mb"
	ResourceFileUploadMB   Resource = "file_upload_mb"
)

// CountableResources lists the resources guarded by a "can create one more" check,
// in the order dashboards present them.
var CountableResources = []Resource{
	ResourceSalesOrders,
	ResourcePurchaseOrders,
	ResourceInvoices,
	ResourceTransactions,
	ResourceProducts,
	ResourceCustomers,
	ResourceSuppliers,
	ResourceUsers,
}

// Label returns a human-readable name for the resource.
func (r Resource) Label() string {
	switch r {
	case ResourceUsers:
		return "users"
	case ResourceProducts:
		return "products"
	case ResourceCustomers:
		return "customers"
	case ResourceSuppliers:
		return "suppliers"
	case ResourceSalesOrders:
		return "sales orders"
	case ResourcePurchaseOrders:
		return "purchase orders"
	case ResourceInvoices:
		return "invoices"
	case ResourceTransactions:
		return "financial transactions"
	case ResourceStorageMB:
		return "storage (MB)"
	case ResourceFileUploadMB:
		return "file upload size (MB)"
	default:
		return string(r)
	}
}

// Feature represents a plan-specific capability that can be enabled or disabled.
type Feature string

const (
	FeatureFiscalModule       Feature = "fiscal_module"
	FeatureMultipleWarehouses Feature = "multiple_warehouses"
	FeatureAdvancedReports    Feature = "advanced_reports"
	FeatureAPIAccess          Feature = "api_access"
	FeatureWhiteLabel         Feature = "white_label"
	FeaturePrioritySupport    Feature = "priority_support"
	FeatureCustomIntegrations Feature = "custom_integrations"
	FeatureAuditLog           Feature = "audit_log"
	FeatureBulkImport         Feature = "bulk_import"
	FeatureCustomFields       Feature = "custom_fields"
)

// AllFeatures lists every feature flag in a stable order.
var AllFeatures = []Feature{
	FeatureFiscalModule,
	FeatureMultipleWarehouses,
	FeatureAdvancedReports,
	FeatureAPIAccess,
	FeatureWhiteLabel,
	FeaturePrioritySupport,
	FeatureCustomIntegrations,
	FeatureAuditLog,
	FeatureBulkImport,
	FeatureCustomFields,
}

// Label returns a human-readable name for the feature.
func (f Feature) Label() string {
	switch f {
	case FeatureFiscalModule:
		return "fiscal module"
	case FeatureMultipleWarehouses:
		return "multiple warehouses"
	case FeatureAdvancedReports:
		return "advanced reports"
	case FeatureAPIAccess:
		return "API access"
	case FeatureWhiteLabel:
		return "white label"
	case FeaturePrioritySupport:
		return "priority support"
	case FeatureCustomIntegrations:
		return "custom integrations"
	case FeatureAuditLog:
		return "audit log"
	case FeatureBulkImport:
		return "bulk import"
	case FeatureCustomFields:
		return "custom fields"
	default:
		return string(f)
	}
}
