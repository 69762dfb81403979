package discounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/internal/permissions"
	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/db/dbtest"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/money"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type membershipsStub map[uuid.UUID][]models.Membership

func (s membershipsStub) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Membership, error) {
	return s[userID], nil
}

type fixture struct {
	validator *Validator
	conn      *gorm.DB
	members   membershipsStub
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	members := membershipsStub{}
	resolver, err := permissions.NewResolver(members)
	require.NoError(t, err)
	v, err := NewValidator(ValidatorParams{
		Repo:        NewRepository(conn),
		Permissions: resolver,
		Clock:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fixture{validator: v, conn: conn, members: members}
}

func (f fixture) seed(t *testing.T, code models.DiscountCode) models.DiscountCode {
	t.Helper()
	if code.Type == "" {
		code.Type = enums.DiscountTypePercentage
	}
	if code.Scope == "" {
		code.Scope = enums.DiscountScopeStore
	}
	code.IsActive = true
	require.NoError(t, f.conn.Create(&code).Error)
	return code
}

func dec(v string) *decimal.Decimal {
	d := money.MustParse(v)
	return &d
}

func intPtr(v int) *int { return &v }

func TestValidateLooksUpCaseInsensitively(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.DiscountCode{Code: "SAVE10", Value: money.FromInt(10)})

	res, err := f.validator.Validate(context.Background(), "  save10 ", money.FromInt(400), nil)
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, "SAVE10", res.Discount.Code)
	assert.True(t, res.Discount.Amount.Equal(money.FromInt(40)))
	assert.False(t, res.Discount.ScopeDeferred)
}

func TestValidateRejectionOrder(t *testing.T) {
	f := newFixture(t)
	past := fixedNow.Add(-time.Hour)
	f.seed(t, models.DiscountCode{Code: "GONE", Value: money.FromInt(10), ExpiresAt: &past, UsageLimit: intPtr(1), UsedCount: 1})
	f.seed(t, models.DiscountCode{Code: "USEDUP", Value: money.FromInt(10), UsageLimit: intPtr(2), UsedCount: 2})
	off := f.seed(t, models.DiscountCode{Code: "OFF", Value: money.FromInt(10)})
	require.NoError(t, f.conn.Model(&off).Update("is_active", false).Error)

	cases := map[string]Reason{
		"GONE":    ReasonExpired,
		"USEDUP":  ReasonUsageExceeded,
		"OFF":     ReasonInvalid,
		"MISSING": ReasonInvalid,
		"":        ReasonInvalid,
	}
	for code, want := range cases {
		res, err := f.validator.Validate(context.Background(), code, money.FromInt(1000), nil)
		require.NoError(t, err, code)
		assert.False(t, res.Valid, code)
		assert.Equal(t, want, res.Reason, code)
		assert.NotEmpty(t, res.Message, code)
	}
}

func TestValidateSellerScopedMinOrderUsesApplicableSubtotal(t *testing.T) {
	f := newFixture(t)
	sellerA, sellerB := uuid.New(), uuid.New()
	f.seed(t, models.DiscountCode{
		Code:          "SELLERA",
		Type:          enums.DiscountTypeFixed,
		Value:         money.FromInt(50),
		MinOrderValue: dec("500"),
		Scope:         enums.DiscountScopeSeller,
		SellerOrgID:   &sellerA,
	})

	items := []ScopedItem{
		{SellerOrgID: sellerA, Subtotal: money.FromInt(300)},
		{SellerOrgID: sellerB, Subtotal: money.FromInt(900)},
	}
	res, err := f.validator.Validate(context.Background(), "SELLERA", money.FromInt(1200), items)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonMinOrderValue, res.Reason)
	assert.Equal(t, "Minimum order value of 500.00 required", res.Message)

	items[0].Subtotal = money.FromInt(600)
	res, err = f.validator.Validate(context.Background(), "SELLERA", money.FromInt(1500), items)
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.True(t, res.Discount.ApplicableSubtotal.Equal(money.FromInt(600)))
	assert.True(t, res.Discount.Amount.Equal(money.FromInt(50)))
}

func TestValidateSellerScopeWithoutMatchingItems(t *testing.T) {
	f := newFixture(t)
	sellerA := uuid.New()
	f.seed(t, models.DiscountCode{Code: "ONLYA", Value: money.FromInt(10), Scope: enums.DiscountScopeSeller, SellerOrgID: &sellerA})

	res, err := f.validator.Validate(context.Background(), "ONLYA", money.FromInt(300),
		[]ScopedItem{{SellerOrgID: uuid.New(), Subtotal: money.FromInt(300)}})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonNotApplicable, res.Reason)

	res, err = f.validator.Validate(context.Background(), "ONLYA", money.FromInt(300), nil)
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.True(t, res.Discount.ScopeDeferred)
	assert.True(t, res.Discount.Amount.Equal(money.FromInt(30)))
}

func TestValidateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.DiscountCode{Code: "TWICE", Value: money.FromInt(20), MaxDiscount: dec("100"), UsageLimit: intPtr(1)})

	first, err := f.validator.Validate(context.Background(), "TWICE", money.FromInt(1000), nil)
	require.NoError(t, err)
	second, err := f.validator.Validate(context.Background(), "TWICE", money.FromInt(1000), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, first.Discount.Amount.Equal(money.FromInt(100)))
}

func TestConsumeStopsAtUsageLimit(t *testing.T) {
	f := newFixture(t)
	code := f.seed(t, models.DiscountCode{Code: "ONCE", Value: money.FromInt(10), UsageLimit: intPtr(1)})
	applied := &Applied{CodeID: code.ID, Code: code.Code}

	require.NoError(t, f.validator.Consume(context.Background(), f.conn, applied))
	err := f.validator.Consume(context.Background(), f.conn, applied)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeBusinessRule))

	require.NoError(t, f.validator.Release(context.Background(), f.conn, "once"))
	var stored models.DiscountCode
	require.NoError(t, f.conn.First(&stored, "id = ?", code.ID).Error)
	assert.Equal(t, 0, stored.UsedCount)
}

func TestCreateRequiresDiscountManageForSellerCodes(t *testing.T) {
	f := newFixture(t)
	seller := uuid.New()
	manager := auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleSeller}
	packer := auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleSeller}
	f.members[manager.UserID] = []models.Membership{{SellerOrgID: seller, UserID: manager.UserID, Role: enums.MemberRoleOwner}}
	f.members[packer.UserID] = []models.Membership{{SellerOrgID: seller, UserID: packer.UserID, Role: enums.MemberRoleWarehouseStaff}}

	input := CreateInput{Code: "tea15", Type: enums.DiscountTypePercentage, Value: money.FromInt(15), SellerOrgID: &seller}

	_, err := f.validator.Create(context.Background(), packer, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	created, err := f.validator.Create(context.Background(), manager, input)
	require.NoError(t, err)
	assert.Equal(t, "TEA15", created.Code)
	assert.Equal(t, enums.DiscountScopeSeller, created.Scope)

	_, err = f.validator.Create(context.Background(), manager, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestCreateStoreCodeIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	input := CreateInput{Code: "SITE", Type: enums.DiscountTypeFixed, Value: money.FromInt(25)}

	_, err := f.validator.Create(context.Background(), auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleSeller}, input)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = f.validator.Create(context.Background(), auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleAdmin}, input)
	require.NoError(t, err)

	input.Type = enums.DiscountTypePercentage
	input.Value = money.FromInt(120)
	_, err = f.validator.Create(context.Background(), auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleAdmin}, input)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
