package plan

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatBRL renders an amount as Brazilian reais, e.g. "R$ 69,90".
func FormatBRL(amount decimal.Decimal) string {
	v := amount.Round(2).InexactFloat64()
	p := message.NewPrinter(language.BrazilianPortuguese)
	return p.Sprintf("R$ %v", number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
