package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stondral/tsew-sub002/api/middleware"
	"github.com/stondral/tsew-sub002/api/responses"
	"github.com/stondral/tsew-sub002/api/validators"
	"github.com/stondral/tsew-sub002/internal/discounts"
	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	"github.com/stondral/tsew-sub002/pkg/logger"
)

type discountValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal, items []discounts.ScopedItem) (discounts.Validation, error)
}

type discountCreator interface {
	Create(ctx context.Context, principal auth.Principal, input discounts.CreateInput) (*models.DiscountCode, error)
}

type previewRequest struct {
	Code     string          `json:"code" validate:"required,max=64"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type previewResponse struct {
	Valid          bool                `json:"valid"`
	Reason         discounts.Reason    `json:"reason,omitempty"`
	Message        string              `json:"message,omitempty"`
	Code           string              `json:"code,omitempty"`
	Type           enums.DiscountType  `json:"type,omitempty"`
	Scope          enums.DiscountScope `json:"scope,omitempty"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	ScopeDeferred  bool                `json:"scope_deferred"`
}

// PreviewDiscount checks a code against a subtotal without cart context.
// Seller-scoped codes come back with scope_deferred set because ownership is
// only resolved at checkout.
func PreviewDiscount(validator discountValidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload previewRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := validator.Validate(ctx, payload.Code, payload.Subtotal, nil)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		resp := previewResponse{
			Valid:          result.Valid,
			Reason:         result.Reason,
			Message:        result.Message,
			DiscountAmount: decimal.Zero,
		}
		if applied := result.Discount; applied != nil {
			resp.Code = applied.Code
			resp.Type = applied.Type
			resp.Scope = applied.Scope
			resp.DiscountAmount = applied.Amount
			resp.ScopeDeferred = applied.ScopeDeferred
		}
		responses.WriteSuccess(w, resp)
	}
}

type createDiscountRequest struct {
	Code          string              `json:"code" validate:"required,min=3,max=64"`
	Type          enums.DiscountType  `json:"type" validate:"required,enum"`
	Value         decimal.Decimal     `json:"value"`
	MinOrderValue *decimal.Decimal    `json:"min_order_value,omitempty"`
	MaxDiscount   *decimal.Decimal    `json:"max_discount,omitempty"`
	UsageLimit    *int                `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
	Scope         enums.DiscountScope `json:"scope,omitempty" validate:"omitempty,enum"`
	SellerOrgID   *uuid.UUID          `json:"seller_org_id,omitempty"`
}

// CreateDiscount registers a code. Store-wide codes need a platform admin,
// seller codes need discount.manage on the seller organization.
func CreateDiscount(creator discountCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		code, err := creator.Create(ctx, middleware.PrincipalFromContext(ctx), discounts.CreateInput{
			Code:          payload.Code,
			Type:          payload.Type,
			Value:         payload.Value,
			MinOrderValue: payload.MinOrderValue,
			MaxDiscount:   payload.MaxDiscount,
			UsageLimit:    payload.UsageLimit,
			ExpiresAt:     payload.ExpiresAt,
			Scope:         payload.Scope,
			SellerOrgID:   payload.SellerOrgID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, code)
	}
}
