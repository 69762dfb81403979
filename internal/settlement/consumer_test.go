package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/internal/orders"
	"github.com/stondral/tsew-sub002/internal/subscriptions"
	"github.com/stondral/tsew-sub002/pkg/db/dbtest"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/gateway"
	"github.com/stondral/tsew-sub002/pkg/metrics"
	"github.com/stondral/tsew-sub002/pkg/money"
	"github.com/stondral/tsew-sub002/pkg/types"
)

const secret = "whsec_test"

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type memoryStore struct {
	keys map[string]string
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = "1"
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

type fixture struct {
	consumer *Consumer
	conn     *gorm.DB
	store    *memoryStore
	order    models.Order
	user     models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	ref := "order_gw_1"
	order := models.Order{
		ShippingAddress: types.Address{Line1: "1 Main Rd", City: "Pune", State: "MH", PostalCode: "411001"},
		PaymentStatus:   enums.PaymentStatusPending,
		Status:          enums.OrderStatusPending,
		CheckoutRef:     &ref,
		Subtotal:        money.FromInt(400),
		Shipping:        money.FromInt(40),
		Tax:             money.Zero,
		PlatformFee:     money.FromInt(15),
		DiscountAmount:  money.Zero,
		Total:           money.FromInt(455),
	}
	require.NoError(t, conn.Create(&order).Error)
	user := models.User{Email: "seller@example.com", SystemRole: enums.SystemRoleSeller}
	require.NoError(t, conn.Create(&user).Error)

	subs, err := subscriptions.NewService(subscriptions.ServiceParams{Repo: subscriptions.NewRepository(conn), Tx: client})
	require.NoError(t, err)
	store := &memoryStore{keys: map[string]string{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "payments")
	require.NoError(t, err)
	consumer, err := NewConsumer(ConsumerParams{
		Secret:        secret,
		Orders:        orders.NewRepository(conn),
		Subscriptions: subs,
		Guard:         guard,
		Clock:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &fixture{consumer: consumer, conn: conn, store: store, order: order, user: user}
}

func event(t *testing.T, id, name string, payload map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"id": id, "event": name, "created_at": fixedNow.Unix(), "payload": payload})
	require.NoError(t, err)
	return body
}

func capturedPayload(orderRef string) map[string]any {
	return map[string]any{"payment": map[string]any{"entity": map[string]any{
		"id": "pay_1", "order_id": orderRef, "amount": 45500, "status": "captured",
	}}}
}

func (f *fixture) reloadOrder(t *testing.T) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.conn.First(&order, "id = ?", f.order.ID).Error)
	return order
}

func TestHandleRejectsBadSignatureBeforeParsing(t *testing.T) {
	f := newFixture(t)
	body := event(t, "evt_1", EventPaymentCaptured, capturedPayload("order_gw_1"))

	err := f.consumer.Handle(context.Background(), body, gateway.Sign("wrong", body))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidSignature, pkgerrors.CodeOf(err))
	assert.Equal(t, enums.PaymentStatusPending, f.reloadOrder(t).PaymentStatus)
	assert.Empty(t, f.store.keys)

	err = f.consumer.Handle(context.Background(), []byte("not json"), "zz")
	assert.Equal(t, pkgerrors.CodeInvalidSignature, pkgerrors.CodeOf(err))
}

func TestHandleBadSignatureLeavesSubscriptionAlone(t *testing.T) {
	f := newFixture(t)
	body := event(t, "evt_s0", EventSubscriptionCharged, map[string]any{
		"subscription": map[string]any{"entity": map[string]any{
			"id":        "sub_forged",
			"status":    "active",
			"charge_at": fixedNow.AddDate(0, 1, 0).Unix(),
			"notes":     map[string]string{"user_id": f.user.ID.String(), "plan": "pro_monthly"},
		}},
	})

	err := f.consumer.Handle(context.Background(), body, gateway.Sign("wrong", body))
	assert.Equal(t, pkgerrors.CodeInvalidSignature, pkgerrors.CodeOf(err))

	var user models.User
	require.NoError(t, f.conn.First(&user, "id = ?", f.user.ID).Error)
	assert.NotEqual(t, enums.SubscriptionStatusActive, user.SubscriptionStatus)
	assert.Nil(t, user.SubscriptionPlan)
	assert.Nil(t, user.NextBillingDate)
	assert.Empty(t, f.store.keys)
}

func TestHandleCapturesPaymentOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	body := event(t, "evt_1", EventPaymentCaptured, capturedPayload("order_gw_1"))

	require.NoError(t, f.consumer.Handle(ctx, body, gateway.Sign(secret, body)))
	order := f.reloadOrder(t)
	assert.Equal(t, enums.PaymentStatusCaptured, order.PaymentStatus)
	require.NotNil(t, order.PaymentRef)
	assert.Equal(t, "pay_1", *order.PaymentRef)
	require.NotNil(t, order.PaidAt)
	assert.True(t, order.PaidAt.Equal(fixedNow))

	require.NoError(t, f.consumer.Handle(ctx, body, gateway.Sign(secret, body)))

	again := event(t, "evt_2", EventOrderPaid, map[string]any{
		"order":   map[string]any{"entity": map[string]any{"id": "order_gw_1", "status": "paid"}},
		"payment": map[string]any{"entity": map[string]any{"id": "pay_other", "order_id": "order_gw_1"}},
	})
	require.NoError(t, f.consumer.Handle(ctx, again, gateway.Sign(secret, again)))
	assert.Equal(t, "pay_1", *f.reloadOrder(t).PaymentRef)
}

func TestHandleUnknownCheckoutRefIsNotFoundAndRetriable(t *testing.T) {
	f := newFixture(t)
	body := event(t, "evt_9", EventPaymentCaptured, capturedPayload("order_missing"))

	err := f.consumer.Handle(context.Background(), body, gateway.Sign(secret, body))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Empty(t, f.store.keys, "failed events must be redeliverable")
	assert.Equal(t, enums.PaymentStatusPending, f.reloadOrder(t).PaymentStatus)
}

func TestHandleSubscriptionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chargeAt := fixedNow.AddDate(0, 1, 0)

	charged := event(t, "evt_s1", EventSubscriptionCharged, map[string]any{
		"subscription": map[string]any{"entity": map[string]any{
			"id":        "sub_1",
			"plan_id":   "plan_x",
			"status":    "active",
			"charge_at": chargeAt.Unix(),
			"notes":     map[string]string{"user_id": f.user.ID.String(), "plan": "pro_monthly", "billing_cycle": "monthly"},
		}},
	})
	require.NoError(t, f.consumer.Handle(ctx, charged, gateway.Sign(secret, charged)))

	var user models.User
	require.NoError(t, f.conn.First(&user, "id = ?", f.user.ID).Error)
	assert.Equal(t, enums.SubscriptionStatusActive, user.SubscriptionStatus)
	require.NotNil(t, user.SubscriptionPlan)
	assert.Equal(t, "pro_monthly", *user.SubscriptionPlan)
	require.NotNil(t, user.NextBillingDate)
	assert.True(t, user.NextBillingDate.Equal(chargeAt))

	halted := event(t, "evt_s2", EventSubscriptionHalted, map[string]any{
		"subscription": map[string]any{"entity": map[string]any{"id": "sub_1", "status": "halted"}},
	})
	require.NoError(t, f.consumer.Handle(ctx, halted, gateway.Sign(secret, halted)))
	require.NoError(t, f.conn.First(&user, "id = ?", f.user.ID).Error)
	assert.Equal(t, enums.SubscriptionStatusCancelled, user.SubscriptionStatus)
}

func TestHandleAcknowledgesUnknownEvents(t *testing.T) {
	f := newFixture(t)
	body := event(t, "evt_x", "refund.processed", map[string]any{})

	require.NoError(t, f.consumer.Handle(context.Background(), body, gateway.Sign(secret, body)))
}

type brokenGuard struct{}

func (brokenGuard) CheckAndMark(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenGuard) Forget(context.Context, string) error { return nil }

func TestHandleWrapsInfrastructureFailures(t *testing.T) {
	f := newFixture(t)
	f.consumer.guard = brokenGuard{}
	body := event(t, "evt_1", EventPaymentCaptured, capturedPayload("order_gw_1"))

	err := f.consumer.Handle(context.Background(), body, gateway.Sign(secret, body))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.True(t, pkgerrors.IsRetryable(err))
}

func TestParseEnvelopeDerivesIDFromBody(t *testing.T) {
	env, err := parseEnvelope([]byte(`{"event":"payment.captured","payload":{}}`))
	require.NoError(t, err)
	assert.Contains(t, env.ID, "body_")

	sub := SubscriptionEntity{Notes: map[string]string{"user_id": "nope"}}
	assert.Equal(t, uuid.Nil, sub.userID())
}

// interruptingOrders cancels the delivery context on the first lookup, the
// way a gateway timeout or client disconnect would.
type interruptingOrders struct {
	paymentOrders
	cancel      context.CancelFunc
	interrupted bool
}

func (o *interruptingOrders) FindByCheckoutRef(ctx context.Context, ref string) (*models.Order, error) {
	if !o.interrupted {
		o.interrupted = true
		o.cancel()
		return nil, ctx.Err()
	}
	return o.paymentOrders.FindByCheckoutRef(ctx, ref)
}

func TestHandleRedeliveryAfterCancelledDeliveryIsApplied(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.consumer.orders = &interruptingOrders{paymentOrders: f.consumer.orders, cancel: cancel}
	body := event(t, "evt_1", EventPaymentCaptured, capturedPayload("order_gw_1"))

	err := f.consumer.Handle(ctx, body, gateway.Sign(secret, body))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsRetryable(err))
	assert.Empty(t, f.store.keys, "interrupted delivery must not leave its marker behind")

	require.NoError(t, f.consumer.Handle(context.Background(), body, gateway.Sign(secret, body)))
	assert.Equal(t, enums.PaymentStatusCaptured, f.reloadOrder(t).PaymentStatus)
}

func TestHandleCaptureOnCancelledOrderFlagsRefund(t *testing.T) {
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	f.consumer.metrics = metrics.NewWebhookMetrics(reg)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("status", enums.OrderStatusCancelled).Error)
	body := event(t, "evt_late", EventPaymentCaptured, capturedPayload("order_gw_1"))

	require.NoError(t, f.consumer.Handle(context.Background(), body, gateway.Sign(secret, body)))

	order := f.reloadOrder(t)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	assert.Equal(t, enums.PaymentStatusCaptured, order.PaymentStatus)
	assert.Equal(t, 1.0, webhookCount(t, reg, EventPaymentCaptured, metrics.OutcomeRefundRequired))
	assert.Zero(t, webhookCount(t, reg, EventPaymentCaptured, metrics.OutcomeProcessed))
}

func webhookCount(t *testing.T, reg *prometheus.Registry, event, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "payment_webhook_events_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range m.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["event"] == event && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
