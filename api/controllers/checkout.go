package controllers

import (
	"context"
	"net/http"

	"github.com/stondral/tsew-sub002/api/middleware"
	"github.com/stondral/tsew-sub002/api/responses"
	"github.com/stondral/tsew-sub002/api/validators"
	checkoutsvc "github.com/stondral/tsew-sub002/internal/checkout"
	"github.com/stondral/tsew-sub002/internal/pricing"
	"github.com/stondral/tsew-sub002/pkg/logger"
)

type cartQuoter interface {
	Quote(ctx context.Context, lines []pricing.CartLine, code string) (pricing.Quote, error)
}

type quoteRequest struct {
	Lines []pricing.CartLine `json:"lines" validate:"required,min=1,dive"`
	Code  string             `json:"discount_code,omitempty" validate:"max=64"`
}

// Quote prices a cart without reserving anything. A rejected discount code is
// reported inside the quote rather than as an error.
func Quote(quoter cartQuoter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload quoteRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		quote, err := quoter.Quote(ctx, payload.Lines, payload.Code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// Checkout places an order from the submitted cart. Guests are allowed when
// they leave an email.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload checkoutsvc.Request
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Confirm(ctx, middleware.PrincipalFromContext(ctx), payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
