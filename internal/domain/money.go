package domain

import "github.com/shopspring/decimal"

// DefaultMaxDiscount is the fixed peso amount of every discount type.
var DefaultMaxDiscount = decimal.NewFromInt(20)

func init() {
	// Amounts travel as JSON numbers, the browser clients do arithmetic on them.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundMoney rounds to centavos.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal is quantity × unit price before any discount.
func LineTotal(qty int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// IsCentavos reports whether d has no precision below one centavo.
func IsCentavos(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
