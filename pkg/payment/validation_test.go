package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaonuvem/entitlements/pkg/payment"
)

func TestBillingDetailsValidate(t *testing.T) {
	t.Parallel()

	t.Run("complete details pass", func(t *testing.T) {
		t.Parallel()
		d := payment.BillingDetails{Name: "Maria Souza", Email: "maria@example.com.br", TaxID: "123.456.789-09"}
		require.NoError(t, d.Validate())
	})

	t.Run("missing fields are listed by json name", func(t *testing.T) {
		t.Parallel()
		err := payment.BillingDetails{TaxID: "12345678909"}.Validate()
		require.ErrorIs(t, err, payment.ErrValidation)
		assert.EqualError(t, err, "invalid billing details: missing name, email")
	})

	t.Run("whitespace counts as missing", func(t *testing.T) {
		t.Parallel()
		err := payment.BillingDetails{Name: "Maria", Email: "maria@example.com", TaxID: "   "}.Validate()
		require.ErrorIs(t, err, payment.ErrValidation)
		assert.Contains(t, err.Error(), "tax_id")
	})

	t.Run("tax id format is left to the gateway", func(t *testing.T) {
		t.Parallel()
		d := payment.BillingDetails{Name: "Maria", Email: "maria@example.com", TaxID: "not-a-cpf"}
		assert.NoError(t, d.Validate())
	})

	t.Run("normalize trims every field", func(t *testing.T) {
		t.Parallel()
		d := payment.BillingDetails{Name: " Maria ", Email: "\tm@example.com", TaxID: "123 "}.Normalize()
		assert.Equal(t, payment.BillingDetails{Name: "Maria", Email: "m@example.com", TaxID: "123"}, d)
	})
}
