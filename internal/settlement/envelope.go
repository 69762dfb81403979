package settlement

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types the consumer acts on.
const (
	EventPaymentCaptured       = "payment.captured"
	EventOrderPaid             = "order.paid"
	EventPaymentFailed         = "payment.failed"
	EventSubscriptionCharged   = "subscription.charged"
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventSubscriptionHalted    = "subscription.halted"
	EventSubscriptionCompleted = "subscription.completed"
	EventSubscriptionExpired   = "subscription.expired"
)

// Envelope is the outer shape of every gateway event.
type Envelope struct {
	ID        string  `json:"id"`
	Event     string  `json:"event"`
	CreatedAt int64   `json:"created_at"`
	Payload   Payload `json:"payload"`
}

type Payload struct {
	Payment      *entityOf[PaymentEntity]      `json:"payment,omitempty"`
	Order        *entityOf[OrderEntity]        `json:"order,omitempty"`
	Subscription *entityOf[SubscriptionEntity] `json:"subscription,omitempty"`
}

type entityOf[T any] struct {
	Entity T `json:"entity"`
}

type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

type OrderEntity struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

type SubscriptionEntity struct {
	ID       string            `json:"id"`
	PlanID   string            `json:"plan_id"`
	Status   string            `json:"status"`
	ChargeAt int64             `json:"charge_at"`
	Notes    map[string]string `json:"notes"`
}

func parseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, err
	}
	env.Event = strings.TrimSpace(env.Event)
	if env.ID == "" {
		sum := sha256.Sum256(body)
		env.ID = "body_" + hex.EncodeToString(sum[:])
	}
	return env, nil
}

// checkoutRef is the gateway order the payment settles.
func (e Envelope) checkoutRef() string {
	if e.Payload.Payment != nil && e.Payload.Payment.Entity.OrderID != "" {
		return e.Payload.Payment.Entity.OrderID
	}
	if e.Payload.Order != nil {
		return e.Payload.Order.Entity.ID
	}
	return ""
}

func (e Envelope) paymentRef() string {
	if e.Payload.Payment != nil {
		return e.Payload.Payment.Entity.ID
	}
	return ""
}

func (s SubscriptionEntity) userID() uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(s.Notes["user_id"]))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (s SubscriptionEntity) plan() string {
	if plan := strings.TrimSpace(s.Notes["plan"]); plan != "" {
		return plan
	}
	return s.PlanID
}

func (s SubscriptionEntity) chargeAt() *time.Time {
	if s.ChargeAt <= 0 {
		return nil
	}
	at := time.Unix(s.ChargeAt, 0).UTC()
	return &at
}
