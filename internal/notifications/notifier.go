package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/logger"
)

// UserLookup resolves registered buyers to their email address.
type UserLookup interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type NotifierParams struct {
	Renderer *Renderer
	Sender   Sender
	Users    UserLookup
	From     string
	Logger   *logger.Logger
	Clock    func() time.Time
}

// Notifier renders and sends buyer notifications. Delivery is best effort:
// failures are logged and never returned.
type Notifier struct {
	renderer *Renderer
	sender   Sender
	users    UserLookup
	from     string
	logg     *logger.Logger
	now      func() time.Time
}

func NewNotifier(params NotifierParams) (*Notifier, error) {
	if params.Renderer == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("sender required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Notifier{
		renderer: params.Renderer,
		sender:   params.Sender,
		users:    params.Users,
		from:     params.From,
		logg:     params.Logger,
		now:      clock,
	}, nil
}

// Notify renders template with vars and sends it to the recipient.
func (n *Notifier) Notify(ctx context.Context, to string, tmpl Template, vars map[string]string) {
	logCtx := n.logg.WithFields(ctx, map[string]any{"template": string(tmpl)})
	if strings.TrimSpace(to) == "" {
		n.logg.Warn(logCtx, "notification skipped: no recipient")
		return
	}
	content, err := n.renderer.Render(tmpl, vars)
	if err != nil {
		n.logg.Error(logCtx, "render notification", err)
		return
	}
	err = n.sender.Send(ctx, Email{
		From:     n.from,
		To:       to,
		Subject:  content.Subject,
		HTML:     content.HTML,
		Text:     content.Text,
		Template: tmpl,
		QueuedAt: n.now().UTC(),
	})
	if err != nil {
		n.logg.Error(logCtx, "send notification", err)
		return
	}
	n.logg.Info(logCtx, "notification queued")
}

// NotifyOrder sends tmpl to the order's buyer, guest or registered.
func (n *Notifier) NotifyOrder(ctx context.Context, tmpl Template, order *models.Order) {
	if order == nil {
		return
	}
	ctx = n.logg.WithOrderID(ctx, order.ID.String())

	to := ""
	if order.GuestEmail != nil {
		to = *order.GuestEmail
	}
	if to == "" && order.BuyerUserID != nil {
		user, err := n.users.FindUser(ctx, *order.BuyerUserID)
		if err != nil {
			n.logg.Error(ctx, "resolve notification recipient", err)
			return
		}
		to = user.Email
	}
	n.Notify(ctx, to, tmpl, OrderVars(order))
}

// OrderVars is the substitution map shared by the order templates.
func OrderVars(order *models.Order) map[string]string {
	name := strings.TrimSpace(order.ShippingAddress.Name)
	if name == "" {
		name = "there"
	}
	return map[string]string{
		"order_ref":   OrderRef(order.ID),
		"name":        name,
		"provider":    order.Delivery.Provider,
		"tracking_id": order.Delivery.TrackingID,
	}
}

// OrderRef is the short reference shown to buyers.
func OrderRef(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
