package plan_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaonuvem/entitlements/pkg/plan"
)

const catalogYAML = `
plans:
  - id: basico
    price: {monthly: "49.90", quarterly: "142.22", semiannual: "269.46", yearly: "508.98"}
    discount_pct: {quarterly: 5, semiannual: 10, yearly: 15}
    limits: {max_users: 3, max_sales_orders: 150}
  - id: intermediario
    name: Intermediário
    price: {monthly: "79.90"}
    limits:
      max_users: 6
      features: {fiscal_module: true}
  - id: avancado
    price: {monthly: "119.90"}
  - id: ilimitado
    price: {monthly: "209.90"}
    limits: {max_users: 99999}
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()

		cat, err := plan.LoadYAML(strings.NewReader(catalogYAML))
		require.NoError(t, err)

		basico := cat.Plan(plan.TierBasico)
		assert.Equal(t, "49.9", basico.Price.Monthly.String())
		assert.Equal(t, "508.98", basico.Price.Yearly.String())
		assert.Equal(t, int64(150), basico.Limits.MaxSalesOrders)
		assert.Equal(t, "basico", basico.Name)

		inter := cat.Plan(plan.TierIntermediario)
		assert.Equal(t, "Intermediário", inter.Name)
		assert.True(t, inter.HasFeature(plan.FeatureFiscalModule))

		assert.True(t, plan.IsUnlimited(cat.Plan(plan.TierIlimitado).Limits.MaxUsers))
	})

	t.Run("missing tier", func(t *testing.T) {
		t.Parallel()

		doc := "plans:\n  - id: basico\n    price: {monthly: \"1\"}\n"
		_, err := plan.LoadYAML(strings.NewReader(doc))
		require.ErrorIs(t, err, plan.ErrInvalidCatalog)
	})

	t.Run("negative price", func(t *testing.T) {
		t.Parallel()

		doc := strings.Replace(catalogYAML, `"119.90"`, `"-1"`, 1)
		_, err := plan.LoadYAML(strings.NewReader(doc))
		require.ErrorIs(t, err, plan.ErrInvalidCatalog)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		doc := "plans:\n  - id: basico\n    colour: blue\n"
		_, err := plan.LoadYAML(strings.NewReader(doc))
		require.ErrorIs(t, err, plan.ErrDecodeCatalog)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		_, err := plan.LoadYAML(strings.NewReader(""))
		require.ErrorIs(t, err, plan.ErrDecodeCatalog)
	})
}
