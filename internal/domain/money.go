package domain

import "github.com/shopspring/decimal"

func init() {
	// Clients send and expect plain JSON numbers for prices and totals.
	decimal.MarshalJSONWithoutQuotes = true
}

// LineSubtotal returns price × quantity.
func LineSubtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
