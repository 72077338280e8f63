package models

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied to a cart subtotal.
var TaxRate = decimal.RequireFromString("0.10")

// Totals is the money breakdown of a cart or order.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals derives tax and total from a subtotal. Shipping is free.
func ComputeTotals(subtotal decimal.Decimal) Totals {
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(TaxRate).Round(2)
	shipping := decimal.Zero
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
