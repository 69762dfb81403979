package discounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/internal/permissions"
	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/money"
)

// Reason names why a code was rejected.
type Reason string

const (
	ReasonInvalid       Reason = "invalid"
	ReasonExpired       Reason = "expired"
	ReasonUsageExceeded Reason = "usage_limit_reached"
	ReasonNotApplicable Reason = "not_applicable"
	ReasonMinOrderValue Reason = "min_order_value"
)

// ScopedItem is one priced cart line reduced to what scope resolution needs.
type ScopedItem struct {
	SellerOrgID uuid.UUID
	Subtotal    decimal.Decimal
}

// Validation is the outcome of checking a code. Rejections are values, not errors.
type Validation struct {
	Valid    bool
	Reason   Reason
	Message  string
	Discount *Applied
}

// Applied describes an accepted code and the amount it takes off.
type Applied struct {
	CodeID             uuid.UUID
	Code               string
	Type               enums.DiscountType
	Value              decimal.Decimal
	Scope              enums.DiscountScope
	SellerOrgID        *uuid.UUID
	ApplicableSubtotal decimal.Decimal
	Amount             decimal.Decimal
	// ScopeDeferred is set when a seller-specific code was checked without
	// per-item ownership; the scoped check still has to run at checkout.
	ScopeDeferred bool
}

// CreateInput describes a new discount code.
type CreateInput struct {
	Code          string
	Type          enums.DiscountType
	Value         decimal.Decimal
	MinOrderValue *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	UsageLimit    *int
	ExpiresAt     *time.Time
	Scope         enums.DiscountScope
	SellerOrgID   *uuid.UUID
}

type ValidatorParams struct {
	Repo        Repository
	Permissions permissions.Checker
	Clock       func() time.Time
}

// Validator checks discount codes against an authoritative subtotal and
// consumes their usage at checkout.
type Validator struct {
	repo  Repository
	perms permissions.Checker
	now   func() time.Time
}

func NewValidator(params ValidatorParams) (*Validator, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if params.Permissions == nil {
		return nil, fmt.Errorf("permission checker required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Validator{repo: params.Repo, perms: params.Permissions, now: clock}, nil
}

// Validate runs the checks in order and stops at the first failure:
// existence and active flag, expiry, usage limit, seller scope, minimum order
// value. Pass items as nil when ownership is unknown; seller scoping is then
// deferred. Only storage failures return an error.
func (v *Validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal, items []ScopedItem) (Validation, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return reject(ReasonInvalid, "Invalid or inactive discount code"), nil
	}

	record, err := v.repo.FindByCode(ctx, normalized)
	if err != nil {
		if db.IsNotFound(err) {
			return reject(ReasonInvalid, "Invalid or inactive discount code"), nil
		}
		return Validation{}, db.WrapStorage(err, "load discount code")
	}
	return v.check(record, subtotal, items), nil
}

func (v *Validator) check(record *models.DiscountCode, subtotal decimal.Decimal, items []ScopedItem) Validation {
	if !record.IsActive {
		return reject(ReasonInvalid, "Invalid or inactive discount code")
	}
	if record.ExpiresAt != nil && !v.now().Before(*record.ExpiresAt) {
		return reject(ReasonExpired, "Discount code has expired")
	}
	if record.UsageLimit != nil && record.UsedCount >= *record.UsageLimit {
		return reject(ReasonUsageExceeded, "Discount code usage limit reached")
	}

	applicable := subtotal
	deferred := false
	if record.Scope == enums.DiscountScopeSeller && record.SellerOrgID != nil {
		if items == nil {
			deferred = true
		} else {
			sum, matched := sellerSubtotal(items, *record.SellerOrgID)
			if !matched {
				return reject(ReasonNotApplicable, "Discount code does not apply to any item in your cart")
			}
			applicable = sum
		}
	}

	if record.MinOrderValue != nil && applicable.LessThan(*record.MinOrderValue) {
		return reject(ReasonMinOrderValue,
			fmt.Sprintf("Minimum order value of %s required", record.MinOrderValue.StringFixed(2)))
	}

	return Validation{
		Valid: true,
		Discount: &Applied{
			CodeID:             record.ID,
			Code:               record.Code,
			Type:               record.Type,
			Value:              record.Value,
			Scope:              record.Scope,
			SellerOrgID:        record.SellerOrgID,
			ApplicableSubtotal: money.Round(applicable),
			Amount:             ComputeAmount(record.Type, record.Value, applicable, record.MaxDiscount),
			ScopeDeferred:      deferred,
		},
	}
}

// Consume records one use of an applied code inside the caller's transaction.
// Losing the race for the last use is a business rule failure.
func (v *Validator) Consume(ctx context.Context, tx *gorm.DB, applied *Applied) error {
	if applied == nil {
		return nil
	}
	ok, err := v.repo.WithTx(tx).Consume(ctx, applied.CodeID)
	if err != nil {
		return db.WrapStorage(err, "consume discount code")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "Discount code usage limit reached").
			WithDetails(map[string]any{"code": applied.Code, "reason": ReasonUsageExceeded})
	}
	return nil
}

// Release hands a use back when an order is cancelled.
func (v *Validator) Release(ctx context.Context, tx *gorm.DB, code string) error {
	if err := v.repo.WithTx(tx).Release(ctx, code); err != nil {
		return db.WrapStorage(err, "release discount code")
	}
	return nil
}

// Create stores a new code. Store-wide codes are reserved for platform admins;
// seller codes need discount.manage on that seller.
func (v *Validator) Create(ctx context.Context, principal auth.Principal, input CreateInput) (*models.DiscountCode, error) {
	if principal.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.Scope == "" {
		input.Scope = enums.DiscountScopeStore
		if input.SellerOrgID != nil {
			input.Scope = enums.DiscountScopeSeller
		}
	}
	if err := v.validateCreate(input); err != nil {
		return nil, err
	}
	switch input.Scope {
	case enums.DiscountScopeSeller:
		if err := v.perms.Require(ctx, principal, *input.SellerOrgID, enums.CapabilityDiscountManage); err != nil {
			return nil, err
		}
	default:
		if !principal.IsPlatformAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
		}
	}

	record := &models.DiscountCode{
		Code:          NormalizeCode(input.Code),
		Type:          input.Type,
		Value:         money.Round(input.Value),
		MinOrderValue: input.MinOrderValue,
		MaxDiscount:   input.MaxDiscount,
		UsageLimit:    input.UsageLimit,
		ExpiresAt:     input.ExpiresAt,
		IsActive:      true,
		Scope:         input.Scope,
		SellerOrgID:   input.SellerOrgID,
	}
	if err := v.repo.Create(ctx, record); err != nil {
		return nil, db.WrapStorage(err, "create discount code")
	}
	return record, nil
}

func (v *Validator) validateCreate(input CreateInput) error {
	invalid := func(msg string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	}
	if NormalizeCode(input.Code) == "" {
		return invalid("code is required")
	}
	if !input.Type.IsValid() {
		return invalid("invalid discount type")
	}
	if !input.Value.IsPositive() {
		return invalid("value must be positive")
	}
	if input.Type == enums.DiscountTypePercentage && input.Value.GreaterThan(hundred) {
		return invalid("percentage cannot exceed 100")
	}
	if input.MaxDiscount != nil && input.Type != enums.DiscountTypePercentage {
		return invalid("max discount applies to percentage codes only")
	}
	if input.UsageLimit != nil && *input.UsageLimit <= 0 {
		return invalid("usage limit must be positive")
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(v.now()) {
		return invalid("expiry must be in the future")
	}
	if !input.Scope.IsValid() {
		return invalid("invalid discount scope")
	}
	if input.Scope == enums.DiscountScopeSeller && (input.SellerOrgID == nil || *input.SellerOrgID == uuid.Nil) {
		return invalid("seller id is required for seller codes")
	}
	if input.Scope == enums.DiscountScopeStore && input.SellerOrgID != nil {
		return invalid("store codes cannot name a seller")
	}
	return nil
}

func reject(reason Reason, message string) Validation {
	return Validation{Reason: reason, Message: message}
}

func sellerSubtotal(items []ScopedItem, sellerID uuid.UUID) (decimal.Decimal, bool) {
	sum := money.Zero
	matched := false
	for _, item := range items {
		if item.SellerOrgID != sellerID {
			continue
		}
		matched = true
		sum = sum.Add(item.Subtotal)
	}
	return sum, matched
}
