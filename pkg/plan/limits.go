package plan

// Unlimited is the sentinel ceiling for "no limit". Any limit at or above it is
// treated as unlimited and excluded from percentage and near-limit math.
const Unlimited int64 = 99999

// IsUnlimited reports whether a limit value means "no limit".
func IsUnlimited(limit int64) bool {
	return limit >= Unlimited
}

// Features is the boolean capability set granted by a plan.
type Features struct {
	FiscalModule       bool `json:"fiscalModule" yaml:"fiscal_module"`
	MultipleWarehouses bool `json:"multipleWarehouses" yaml:"multiple_warehouses"`
	AdvancedReports    bool `json:"advancedReports" yaml:"advanced_reports"`
	APIAccess          bool `json:"apiAccess" yaml:"api_access"`
	WhiteLabel         bool `json:"whiteLabel" yaml:"white_label"`
	PrioritySupport    bool `json:"prioritySupport" yaml:"priority_support"`
	CustomIntegrations bool `json:"customIntegrations" yaml:"custom_integrations"`
	AuditLog           bool `json:"auditLog" yaml:"audit_log"`
	BulkImport         bool `json:"bulkImport" yaml:"bulk_import"`
	CustomFields       bool `json:"customFields" yaml:"custom_fields"`
}

// Has reports whether the feature is enabled. Unknown features are disabled.
func (f Features) Has(feature Feature) bool {
	switch feature {
	case FeatureFiscalModule:
		return f.FiscalModule
	case FeatureMultipleWarehouses:
		return f.MultipleWarehouses
	case FeatureAdvancedReports:
		return f.AdvancedReports
	case FeatureAPIAccess:
		return f.APIAccess
	case FeatureWhiteLabel:
		return f.WhiteLabel
	case FeaturePrioritySupport:
		return f.PrioritySupport
	case FeatureCustomIntegrations:
		return f.CustomIntegrations
	case FeatureAuditLog:
		return f.AuditLog
	case FeatureBulkImport:
		return f.BulkImport
	case FeatureCustomFields:
		return f.CustomFields
	default:
		return false
	}
}

// Enabled returns the enabled features in AllFeatures order.
func (f Features) Enabled() []Feature {
	out := make([]Feature, 0, len(AllFeatures))
	for _, feature := range AllFeatures {
		if f.Has(feature) {
			out = append(out, feature)
		}
	}
	return out
}

// Limits holds the integer ceilings and feature flags of a plan.
type Limits struct {
	MaxUsers          int64    `json:"maxUsers" yaml:"max_users"`
	MaxProducts       int64    `json:"maxProducts" yaml:"max_products"`
	MaxCustomers      int64    `json:"maxCustomers" yaml:"max_customers"`
	MaxSuppliers      int64    `json:"maxSuppliers" yaml:"max_suppliers"`
	MaxSalesOrders    int64    `json:"maxSalesOrders" yaml:"max_sales_orders"`
	MaxPurchaseOrders int64    `json:"maxPurchaseOrders" yaml:"max_purchase_orders"`
	MaxInvoices       int64    `json:"maxInvoices" yaml:"max_invoices"`
	MaxTransactions   int64    `json:"maxTransactions" yaml:"max_transactions"`
	MaxStorageMB      int64    `json:"maxStorageMB" yaml:"max_storage_mb"`
	MaxFileUploadMB   int64    `json:"maxFileUploadMB" yaml:"max_file_upload_mb"`
	Features          Features `json:"features" yaml:"features"`
}

// Limit returns the ceiling for a resource. The second value is false for
// resources the plan does not describe.
func (l Limits) Limit(res Resource) (int64, bool) {
	switch res {
	case ResourceUsers:
		return l.MaxUsers, true
	case ResourceProducts:
		return l.MaxProducts, true
	case ResourceCustomers:
		return l.MaxCustomers, true
	case ResourceSuppliers:
		return l.MaxSuppliers, true
	case ResourceSalesOrders:
		return l.MaxSalesOrders, true
	case ResourcePurchaseOrders:
		return l.MaxPurchaseOrders, true
	case ResourceInvoices:
		return l.MaxInvoices, true
	case ResourceTransactions:
		return l.MaxTransactions, true
	case ResourceStorageMB:
		return l.MaxStorageMB, true
	case ResourceFileUploadMB:
		return l.MaxFileUploadMB, true
	default:
		return 0, false
	}
}

// GatingFeature returns the feature a resource requires, if any.
// Invoices cannot be issued without the fiscal module, whatever the numeric limit says.
func GatingFeature(res Resource) (Feature, bool) {
	switch res {
	case ResourceInvoices:
		return FeatureFiscalModule, true
	default:
		return "", false
	}
}
