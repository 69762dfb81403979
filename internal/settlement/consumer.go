// Package settlement consumes signed payment gateway webhooks.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stondral/tsew-sub002/internal/subscriptions"
	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/gateway"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/metrics"
)

type paymentOrders interface {
	FindByCheckoutRef(ctx context.Context, ref string) (*models.Order, error)
	MarkPaymentCaptured(ctx context.Context, id uuid.UUID, paymentRef string, at time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error)
}

type idempotencyGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type ConsumerParams struct {
	Secret        string
	Orders        paymentOrders
	Subscriptions subscriptions.Service
	Guard         idempotencyGuard
	Metrics       *metrics.WebhookMetrics
	Logger        *logger.Logger
	Clock         func() time.Time
}

// Consumer verifies and applies gateway events.
type Consumer struct {
	secret        string
	orders        paymentOrders
	subscriptions subscriptions.Service
	guard         idempotencyGuard
	metrics       *metrics.WebhookMetrics
	logg          *logger.Logger
	now           func() time.Time
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Secret == "" {
		return nil, fmt.Errorf("webhook secret required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Consumer{
		secret:        params.Secret,
		orders:        params.Orders,
		subscriptions: params.Subscriptions,
		guard:         params.Guard,
		metrics:       params.Metrics,
		logg:          params.Logger,
		now:           clock,
	}, nil
}

// Handle verifies the signature over the raw body before anything is parsed,
// then applies the event at most once. Failures other than typed domain errors
// come back as DEPENDENCY_ERROR so the gateway redelivers.
func (c *Consumer) Handle(ctx context.Context, body []byte, signature string) error {
	if !gateway.Verify(c.secret, body, signature) {
		c.metrics.Observe("", metrics.OutcomeInvalidSignature)
		return pkgerrors.New(pkgerrors.CodeInvalidSignature, "invalid webhook signature")
	}

	env, err := parseEnvelope(body)
	if err != nil {
		c.metrics.Observe("", metrics.OutcomeFailed)
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	ctx = c.logg.WithFields(ctx, map[string]any{"event_id": env.ID, "event": env.Event})

	seen, err := c.guard.CheckAndMark(ctx, env.ID)
	if err != nil {
		c.metrics.Observe(env.Event, metrics.OutcomeFailed)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency")
	}
	if seen {
		c.metrics.Observe(env.Event, metrics.OutcomeDuplicate)
		c.logg.Info(ctx, "duplicate webhook ignored")
		return nil
	}

	outcome, err := c.dispatch(ctx, env)
	if err != nil {
		// The delivery context may already be dead; the marker must still go
		// or the redelivery is swallowed as a duplicate.
		if ferr := c.guard.Forget(context.WithoutCancel(ctx), env.ID); ferr != nil {
			c.logg.Error(ctx, "forget webhook idempotency key", ferr)
		}
		c.metrics.Observe(env.Event, metrics.OutcomeFailed)
		c.logg.Error(ctx, "webhook processing failed", err)
		return classify(err)
	}
	if outcome == metrics.OutcomeIgnored {
		c.logg.Info(ctx, "unhandled webhook event acknowledged")
	}
	c.metrics.Observe(env.Event, outcome)
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, env Envelope) (string, error) {
	switch env.Event {
	case EventPaymentCaptured, EventOrderPaid:
		return c.capture(ctx, env)
	case EventPaymentFailed:
		return metrics.OutcomeProcessed, c.fail(ctx, env)
	case EventSubscriptionCharged, EventSubscriptionActivated:
		sub, err := subscriptionOf(env)
		if err != nil {
			return "", err
		}
		return metrics.OutcomeProcessed, c.subscriptions.Activate(ctx, subscriptions.Activation{
			UserID:         sub.userID(),
			SubscriptionID: sub.ID,
			Plan:           sub.plan(),
			Cycle:          sub.Notes["billing_cycle"],
			ChargeAt:       sub.chargeAt(),
		})
	case EventSubscriptionCancelled, EventSubscriptionHalted, EventSubscriptionCompleted, EventSubscriptionExpired:
		sub, err := subscriptionOf(env)
		if err != nil {
			return "", err
		}
		return metrics.OutcomeProcessed, c.subscriptions.Cancel(ctx, sub.ID)
	}
	return metrics.OutcomeIgnored, nil
}

// capture marks the order paid. A second capture for the same order is a
// no-op. Money arriving for an order that was already cancelled is still
// recorded, but flagged for a refund.
func (c *Consumer) capture(ctx context.Context, env Envelope) (string, error) {
	order, err := c.orderFor(ctx, env)
	if err != nil {
		return "", err
	}
	ctx = c.logg.WithOrderID(ctx, order.ID.String())

	applied, err := c.orders.MarkPaymentCaptured(ctx, order.ID, env.paymentRef(), c.now().UTC())
	if err != nil {
		return "", db.WrapStorage(err, "mark payment captured")
	}
	if !applied {
		c.logg.Info(ctx, "payment already captured")
		return metrics.OutcomeProcessed, nil
	}

	status := order.Status
	if current, err := c.orders.FindByCheckoutRef(ctx, env.checkoutRef()); err == nil {
		status = current.Status
	}
	if status == enums.OrderStatusCancelled {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
			"refund_required": true,
			"payment_ref":     env.paymentRef(),
		}), "payment captured for cancelled order; refund must be issued")
		return metrics.OutcomeRefundRequired, nil
	}
	c.logg.Info(ctx, "payment captured")
	return metrics.OutcomeProcessed, nil
}

func (c *Consumer) fail(ctx context.Context, env Envelope) error {
	order, err := c.orderFor(ctx, env)
	if err != nil {
		return err
	}
	if _, err := c.orders.MarkPaymentFailed(ctx, order.ID); err != nil {
		return db.WrapStorage(err, "mark payment failed")
	}
	c.logg.Warn(c.logg.WithOrderID(ctx, order.ID.String()), "payment failed")
	return nil
}

func (c *Consumer) orderFor(ctx context.Context, env Envelope) (*models.Order, error) {
	ref := env.checkoutRef()
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment event carries no order reference")
	}
	order, err := c.orders.FindByCheckoutRef(ctx, ref)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for checkout reference").
				WithDetails(map[string]any{"checkout_ref": ref})
		}
		return nil, db.WrapStorage(err, "load order by checkout reference")
	}
	return order, nil
}

func subscriptionOf(env Envelope) (SubscriptionEntity, error) {
	if env.Payload.Subscription == nil || env.Payload.Subscription.Entity.ID == "" {
		return SubscriptionEntity{}, pkgerrors.New(pkgerrors.CodeValidation, "subscription event carries no subscription")
	}
	return env.Payload.Subscription.Entity, nil
}

// classify keeps typed domain errors and turns everything else into a
// retryable dependency failure.
func classify(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook processing interrupted")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook processing failed")
}
