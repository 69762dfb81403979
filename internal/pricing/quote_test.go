package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stondral/tsew-sub002/internal/catalog"
	"github.com/stondral/tsew-sub002/internal/discounts"
	"github.com/stondral/tsew-sub002/internal/permissions"
	"github.com/stondral/tsew-sub002/pkg/db/dbtest"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	"github.com/stondral/tsew-sub002/pkg/money"
)

type noMemberships struct{}

func (noMemberships) ListByUser(context.Context, uuid.UUID) ([]models.Membership, error) {
	return nil, nil
}

func newQuoter(t *testing.T) (*Quoter, *models.Product) {
	t.Helper()
	conn := dbtest.Open(t)

	product := &models.Product{
		SellerOrgID: uuid.New(),
		Name:        "P1",
		Status:      enums.ProductStatusLive,
		IsActive:    true,
		Price:       money.FromInt(400),
		Stock:       5,
	}
	require.NoError(t, conn.Create(product).Error)
	require.NoError(t, conn.Create(&models.DiscountCode{
		Code:     "SAVE10",
		Type:     enums.DiscountTypePercentage,
		Value:    money.FromInt(10),
		IsActive: true,
		Scope:    enums.DiscountScopeStore,
	}).Error)

	calc, err := NewCalculator(catalog.NewRepository(conn), DefaultRules())
	require.NoError(t, err)
	resolver, err := permissions.NewResolver(noMemberships{})
	require.NoError(t, err)
	validator, err := discounts.NewValidator(discounts.ValidatorParams{
		Repo:        discounts.NewRepository(conn),
		Permissions: resolver,
		Clock:       func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	quoter, err := NewQuoter(calc, validator)
	require.NoError(t, err)
	return quoter, product
}

func TestQuoteEndToEnd(t *testing.T) {
	quoter, product := newQuoter(t)

	q, err := quoter.Quote(context.Background(), []CartLine{{ProductID: product.ID, Quantity: 1}}, "save10")
	require.NoError(t, err)

	assert.True(t, q.Pricing.Subtotal.Equal(money.FromInt(400)))
	assert.True(t, q.DiscountAmount.Equal(money.FromInt(40)))
	assert.True(t, q.Pricing.Shipping.Equal(money.FromInt(40)))
	assert.True(t, q.Pricing.PlatformFee.Equal(money.FromInt(15)))
	assert.True(t, q.Total.Equal(money.FromInt(415)), "total %s", q.Total)
	require.NotNil(t, q.Discount)
	assert.Equal(t, "SAVE10", q.Discount.Code)
	assert.Empty(t, q.DiscountError)
}

func TestQuoteReportsRejectedCode(t *testing.T) {
	quoter, product := newQuoter(t)

	q, err := quoter.Quote(context.Background(), []CartLine{{ProductID: product.ID, Quantity: 1}}, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, q.Discount)
	assert.Equal(t, discounts.ReasonInvalid, q.DiscountReason)
	assert.NotEmpty(t, q.DiscountError)
	assert.True(t, q.Total.Equal(money.FromInt(455)))
}
