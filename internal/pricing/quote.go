package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stondral/tsew-sub002/internal/discounts"
	"github.com/stondral/tsew-sub002/pkg/money"
)

// DiscountChecker revalidates a code against the priced cart.
type DiscountChecker interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal, items []discounts.ScopedItem) (discounts.Validation, error)
}

// Quote is a priced cart with an optional discount applied.
type Quote struct {
	Pricing        Result             `json:"pricing"`
	Discount       *discounts.Applied `json:"discount,omitempty"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	// DiscountError is set when a code was supplied and rejected.
	DiscountError  string           `json:"discount_error,omitempty"`
	DiscountReason discounts.Reason `json:"discount_reason,omitempty"`
	Total          decimal.Decimal  `json:"total"`
}

// Quoter combines the calculator with server-side discount validation.
type Quoter struct {
	calc      *Calculator
	discounts DiscountChecker
}

func NewQuoter(calc *Calculator, checker DiscountChecker) (*Quoter, error) {
	if calc == nil {
		return nil, fmt.Errorf("calculator required")
	}
	if checker == nil {
		return nil, fmt.Errorf("discount checker required")
	}
	return &Quoter{calc: calc, discounts: checker}, nil
}

// Quote prices lines and, when code is non-empty, validates it against the
// authoritative subtotal with per-line seller ownership. A rejected code is
// reported on the quote and contributes nothing.
func (q *Quoter) Quote(ctx context.Context, lines []CartLine, code string) (Quote, error) {
	result, err := q.calc.Calculate(ctx, lines)
	if err != nil {
		return Quote{}, err
	}

	out := Quote{Pricing: result, DiscountAmount: money.Zero}
	if discounts.NormalizeCode(code) != "" && len(result.Lines) > 0 {
		validation, err := q.discounts.Validate(ctx, code, result.Subtotal, result.ScopedItems())
		if err != nil {
			return Quote{}, err
		}
		if validation.Valid {
			out.Discount = validation.Discount
			out.DiscountAmount = validation.Discount.Amount
		} else {
			out.DiscountError = validation.Message
			out.DiscountReason = validation.Reason
		}
	}

	out.Total = money.ClampNonNegative(money.Round(
		result.Subtotal.Sub(out.DiscountAmount).Add(result.Shipping).Add(result.Tax).Add(result.PlatformFee),
	))
	return out, nil
}
