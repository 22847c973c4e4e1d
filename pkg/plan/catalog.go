package plan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Catalog is the immutable registry of plan tiers.
// All methods are safe for concurrent use because the catalog never changes after construction.
type Catalog struct {
	plans map[Tier]Plan
}

// NewCatalog builds a catalog from the given plans.
// Every tier must be present exactly once and prices must be non-negative.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	m := make(map[Tier]Plan, len(plans))
	for _, p := range plans {
		if !p.ID.Valid() {
			return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidCatalog, p.ID)
		}
		if _, dup := m[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %q", ErrInvalidCatalog, p.ID)
		}
		for _, c := range cycleOrder {
			if p.PriceFor(c).IsNegative() {
				return nil, fmt.Errorf("%w: tier %q has a negative %s price", ErrInvalidCatalog, p.ID, c)
			}
		}
		m[p.ID] = p
	}
	for _, t := range tierOrder {
		if _, ok := m[t]; !ok {
			return nil, fmt.Errorf("%w: missing tier %q", ErrInvalidCatalog, t)
		}
	}
	return &Catalog{plans: m}, nil
}

// MustCatalog is like NewCatalog but panics on invalid input.
func MustCatalog(plans ...Plan) *Catalog {
	c, err := NewCatalog(plans...)
	if err != nil {
		panic(err)
	}
	return c
}

// Plan returns the plan of a tier. Unknown tiers fall back to the most
// restrictive plan so that callers fail safe.
func (c *Catalog) Plan(t Tier) Plan {
	if p, ok := c.plans[t]; ok {
		return p
	}
	return c.plans[TierBasico]
}

// Lookup returns the plan of a tier and whether the tier is known.
func (c *Catalog) Lookup(t Tier) (Plan, bool) {
	p, ok := c.plans[t]
	return p, ok
}

// All returns the plans in display order.
func (c *Catalog) All() []Plan {
	out := make([]Plan, 0, len(tierOrder))
	for _, t := range tierOrder {
		out = append(out, c.plans[t])
	}
	return out
}

// PriceFor returns the price of a tier for the given cycle.
func (c *Catalog) PriceFor(t Tier, cycle Cycle) decimal.Decimal {
	return c.Plan(t).PriceFor(cycle)
}

// IsUpgrade reports whether moving from one tier to another is an upgrade.
// Only the position in the tier order matters, never the price.
func (c *Catalog) IsUpgrade(from, to Tier) bool {
	return to.Rank() > from.Rank()
}

// Compare returns the differences between two tiers.
func (c *Catalog) Compare(from, to Tier) Comparison {
	return Compare(c.Plan(from), c.Plan(to))
}

// LowestTierWith returns the cheapest tier that grants the feature.
func (c *Catalog) LowestTierWith(f Feature) (Tier, bool) {
	for _, t := range tierOrder {
		if c.plans[t].HasFeature(f) {
			return t, true
		}
	}
	return "", false
}

// LowestTierFor returns the lowest tier whose limit for the resource exceeds current usage.
func (c *Catalog) LowestTierFor(res Resource, current int64) (Tier, bool) {
	for _, t := range tierOrder {
		limit, ok := c.plans[t].Limits.Limit(res)
		if !ok {
			continue
		}
		if IsUnlimited(limit) || current < limit {
			if f, gated := GatingFeature(res); gated && !c.plans[t].HasFeature(f) {
				continue
			}
			return t, true
		}
	}
	return "", false
}

// NextTier returns the tier right above t, if any.
func (c *Catalog) NextTier(t Tier) (Tier, bool) {
	r := t.Rank()
	if r < 0 || r+1 >= len(tierOrder) {
		return "", false
	}
	return tierOrder[r+1], true
}

var defaultCatalog = MustCatalog(
	Plan{
		ID:   TierBasico,
		Name: "Básico",
		Price: Prices{
			Monthly:    decimal.RequireFromString("39.90"),
			Quarterly:  decimal.RequireFromString("113.72"),
			Semiannual: decimal.RequireFromString("215.46"),
			Yearly:     decimal.RequireFromString("406.98"),
		},
		Discount: Discounts{
			Quarterly:  decimal.NewFromInt(5),
			Semiannual: decimal.NewFromInt(10),
			Yearly:     decimal.NewFromInt(15),
		},
		Limits: Limits{
			MaxUsers:          2,
			MaxProducts:       500,
			MaxCustomers:      500,
			MaxSuppliers:      100,
			MaxSalesOrders:    100,
			MaxPurchaseOrders: 50,
			MaxInvoices:       50,
			MaxTransactions:   500,
			MaxStorageMB:      1024,
			MaxFileUploadMB:   5,
		},
	},
	Plan{
		ID:   TierIntermediario,
		Name: "Intermediário",
		Price: Prices{
			Monthly:    decimal.RequireFromString("69.90"),
			Quarterly:  decimal.RequireFromString("199.22"),
			Semiannual: decimal.RequireFromString("377.46"),
			Yearly:     decimal.RequireFromString("671.04"),
		},
		Discount: Discounts{
			Quarterly:  decimal.NewFromInt(5),
			Semiannual: decimal.NewFromInt(10),
			Yearly:     decimal.NewFromInt(20),
		},
		Limits: Limits{
			MaxUsers:          5,
			MaxProducts:       2000,
			MaxCustomers:      2000,
			MaxSuppliers:      500,
			MaxSalesOrders:    500,
			MaxPurchaseOrders: 250,
			MaxInvoices:       200,
			MaxTransactions:   2000,
			MaxStorageMB:      5120,
			MaxFileUploadMB:   10,
			Features: Features{
				FiscalModule: true,
				BulkImport:   true,
				CustomFields: true,
			},
		},
	},
	Plan{
		ID:   TierAvancado,
		Name: "Avançado",
		Price: Prices{
			Monthly:    decimal.RequireFromString("109.90"),
			Quarterly:  decimal.RequireFromString("313.22"),
			Semiannual: decimal.RequireFromString("580.27"),
			Yearly:     decimal.RequireFromString("1055.04"),
		},
		Discount: Discounts{
			Quarterly:  decimal.NewFromInt(5),
			Semiannual: decimal.NewFromInt(12),
			Yearly:     decimal.NewFromInt(20),
		},
		Limits: Limits{
			MaxUsers:          15,
			MaxProducts:       10000,
			MaxCustomers:      10000,
			MaxSuppliers:      2000,
			MaxSalesOrders:    2500,
			MaxPurchaseOrders: 1000,
			MaxInvoices:       1000,
			MaxTransactions:   10000,
			MaxStorageMB:      20480,
			MaxFileUploadMB:   25,
			Features: Features{
				FiscalModule:       true,
				MultipleWarehouses: true,
				AdvancedReports:    true,
				APIAccess:          true,
				AuditLog:           true,
				BulkImport:         true,
				CustomFields:       true,
			},
		},
	},
	Plan{
		ID:        TierIlimitado,
		Name:      "Ilimitado",
		TrialDays: 14,
		Price: Prices{
			Monthly:    decimal.RequireFromString("199.90"),
			Quarterly:  decimal.RequireFromString("569.72"),
			Semiannual: decimal.RequireFromString("1019.49"),
			Yearly:     decimal.RequireFromString("1799.10"),
		},
		Discount: Discounts{
			Quarterly:  decimal.NewFromInt(5),
			Semiannual: decimal.NewFromInt(15),
			Yearly:     decimal.NewFromInt(25),
		},
		Limits: Limits{
			MaxUsers:          Unlimited,
			MaxProducts:       Unlimited,
			MaxCustomers:      Unlimited,
			MaxSuppliers:      Unlimited,
			MaxSalesOrders:    Unlimited,
			MaxPurchaseOrders: Unlimited,
			MaxInvoices:       Unlimited,
			MaxTransactions:   Unlimited,
			MaxStorageMB:      Unlimited,
			MaxFileUploadMB:   100,
			Features: Features{
				FiscalModule:       true,
				MultipleWarehouses: true,
				AdvancedReports:    true,
				APIAccess:          true,
				WhiteLabel:         true,
				PrioritySupport:    true,
				CustomIntegrations: true,
				AuditLog:           true,
				BulkImport:         true,
				CustomFields:       true,
			},
		},
	},
)

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}
