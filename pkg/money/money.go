// Package money holds the rounding rules shared by pricing, discounts and orders.
// Amounts are decimal rupees with two fractional digits.
package money

import "github.com/shopspring/decimal"

const places = 2

var Zero = decimal.Zero

// Round rounds half away from zero to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(places)
}

// FromInt builds a whole-rupee amount.
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// MustParse parses a literal amount and panics on malformed input. Intended
// for constants and tests.
func MustParse(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// Line returns unit * qty rounded.
func Line(unit decimal.Decimal, qty int) decimal.Decimal {
	return Round(unit.Mul(decimal.NewFromInt(int64(qty))))
}

// ClampNonNegative returns zero for negative amounts.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return Zero
	}
	return d
}
