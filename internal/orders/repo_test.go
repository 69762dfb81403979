package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stondral/tsew-sub002/pkg/db/dbtest"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	"github.com/stondral/tsew-sub002/pkg/money"
)

func newOrder(seller uuid.UUID, status enums.OrderStatus, tracking string) *models.Order {
	return &models.Order{
		ShippingAddress: address(),
		PaymentStatus:   enums.PaymentStatusPending,
		Status:          status,
		Subtotal:        money.FromInt(100),
		Shipping:        money.FromInt(40),
		Tax:             money.Zero,
		PlatformFee:     money.FromInt(15),
		DiscountAmount:  money.Zero,
		Total:           money.FromInt(155),
		Delivery:        models.Delivery{TrackingID: tracking},
		Items: []models.OrderItem{{
			ProductID:   uuid.New(),
			SellerOrgID: seller,
			Name:        "Tea",
			UnitPrice:   money.FromInt(100),
			Quantity:    1,
			LineTotal:   money.FromInt(100),
			Status:      enums.LineItemStatusPending,
		}},
	}
}

func TestMarkPaymentCapturedOnlyOnce(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	order := newOrder(uuid.New(), enums.OrderStatusPending, "")
	require.NoError(t, repo.Create(ctx, order))

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ok, err := repo.MarkPaymentCaptured(ctx, order.ID, "pay_1", at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkPaymentCaptured(ctx, order.ID, "pay_2", at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	failed, err := repo.MarkPaymentFailed(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, failed)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCaptured, stored.PaymentStatus)
	require.NotNil(t, stored.PaymentRef)
	assert.Equal(t, "pay_1", *stored.PaymentRef)
}

func TestTransitionStatusIsGuarded(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	order := newOrder(uuid.New(), enums.OrderStatusPending, "")
	require.NoError(t, repo.Create(ctx, order))

	ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusAccepted,
		map[string]any{"delivery_tracking_id": "AWB1"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusAccepted, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "AWB1", stored.Delivery.TrackingID)
}

func TestListFiltersBySeller(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	sellerA, sellerB := uuid.New(), uuid.New()
	require.NoError(t, repo.Create(ctx, newOrder(sellerA, enums.OrderStatusPending, "")))
	require.NoError(t, repo.Create(ctx, newOrder(sellerB, enums.OrderStatusPending, "")))

	rows, err := repo.List(ctx, ListQuery{RestrictSellers: true, SellerIDs: []uuid.UUID{sellerA}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sellerA, rows[0].Items[0].SellerOrgID)

	rows, err = repo.List(ctx, ListQuery{RestrictSellers: true})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = repo.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestListForSyncSkipsUntrackedAndFinished(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	seller := uuid.New()
	tracked := newOrder(seller, enums.OrderStatusAccepted, "AWB1")
	require.NoError(t, repo.Create(ctx, tracked))
	require.NoError(t, repo.Create(ctx, newOrder(seller, enums.OrderStatusAccepted, "")))
	require.NoError(t, repo.Create(ctx, newOrder(seller, enums.OrderStatusDelivered, "AWB2")))

	rows, err := repo.ListForSync(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, tracked.ID, rows[0].ID)
}
