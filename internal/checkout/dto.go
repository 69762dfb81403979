package checkout

import (
	"strings"

	"github.com/stondral/tsew-sub002/internal/pricing"
	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/gateway"
	"github.com/stondral/tsew-sub002/pkg/types"
)

// Request is a checkout submission. Prices are never taken from the client.
type Request struct {
	Lines      []pricing.CartLine `json:"lines" validate:"required,min=1,dive"`
	Code       string             `json:"discount_code,omitempty"`
	Address    types.Address      `json:"shipping_address" validate:"required"`
	GuestEmail string             `json:"guest_email,omitempty" validate:"omitempty,email"`
	GuestPhone string             `json:"guest_phone,omitempty"`
}

// Result is the created order and the gateway charge the client pays against.
type Result struct {
	Order   *models.Order  `json:"order"`
	Quote   pricing.Quote  `json:"quote"`
	Payment *gateway.Order `json:"payment"`
}

// validateRequest normalizes the request in place. Guests must leave an email
// for order updates.
func validateRequest(principal auth.Principal, req *Request) error {
	if len(req.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
	}
	req.Address = req.Address.Normalized()
	if err := req.Address.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	req.GuestEmail = strings.ToLower(strings.TrimSpace(req.GuestEmail))
	req.GuestPhone = strings.TrimSpace(req.GuestPhone)
	if principal.IsZero() && req.GuestEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest email is required")
	}
	return nil
}
