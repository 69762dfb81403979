package discounts

import (
	"github.com/shopspring/decimal"

	"github.com/stondral/tsew-sub002/pkg/enums"
	"github.com/stondral/tsew-sub002/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// ComputeAmount returns the discount for subtotal. Percentage discounts are
// capped at maxDiscount when set; fixed discounts never exceed the subtotal.
// The result is rounded to two places and never negative.
func ComputeAmount(kind enums.DiscountType, value, subtotal decimal.Decimal, maxDiscount *decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || !value.IsPositive() {
		return money.Zero
	}

	var amount decimal.Decimal
	switch kind {
	case enums.DiscountTypePercentage:
		amount = subtotal.Mul(value).Div(hundred)
		if maxDiscount != nil && amount.GreaterThan(*maxDiscount) {
			amount = *maxDiscount
		}
		amount = decimal.Min(amount, subtotal)
	case enums.DiscountTypeFixed:
		amount = decimal.Min(value, subtotal)
	default:
		return money.Zero
	}
	return money.ClampNonNegative(money.Round(amount))
}
