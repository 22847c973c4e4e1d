package payment

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BillingDetails identifies the payer of a boleto. Only presence is checked
// locally; the gateway is the authority on tax ID format.
type BillingDetails struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	TaxID string `json:"tax_id" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Normalize returns a copy with surrounding whitespace removed from every field.
func (d BillingDetails) Normalize() BillingDetails {
	return BillingDetails{
		Name:  strings.TrimSpace(d.Name),
		Email: strings.TrimSpace(d.Email),
		TaxID: strings.TrimSpace(d.TaxID),
	}
}

// Validate reports the missing fields as an error wrapping ErrValidation.
// Whitespace-only values count as missing.
func (d BillingDetails) Validate() error {
	err := validate.Struct(d.Normalize())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Join(ErrValidation, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(fields, ", "))
}
