// Package money rounds and formats currency amounts for display documents.
package money

import "github.com/shopspring/decimal"

// Round returns amount rounded half away from zero to two decimal places.
func Round(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// Format renders amount with exactly two decimals, e.g. "10000.00".
func Format(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// Sum adds amounts without accumulating binary floating point drift.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}
