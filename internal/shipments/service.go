package shipments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stondral/tsew-sub002/internal/orders"
	"github.com/stondral/tsew-sub002/pkg/courier"
	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/metrics"
)

type orderReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error
}

type statusWriter interface {
	SetStatusFromSync(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
}

type tracker interface {
	Tracking(ctx context.Context, trackingID string) (*courier.Tracking, error)
}

// Outcome describes one sync of an order against the courier.
type Outcome struct {
	OrderID       uuid.UUID         `json:"order_id"`
	TrackingID    string            `json:"tracking_id"`
	CourierStatus string            `json:"courier_status"`
	Previous      enums.OrderStatus `json:"previous_status"`
	Status        enums.OrderStatus `json:"status"`
	Changed       bool              `json:"changed"`
	Scans         []courier.Scan    `json:"scans,omitempty"`
}

type Service interface {
	Sync(ctx context.Context, orderID uuid.UUID) (*Outcome, error)
}

type ServiceParams struct {
	Orders  orderReader
	Status  statusWriter
	Courier tracker
	Metrics *metrics.ShipmentSyncMetrics
	Logger  *logger.Logger
	Clock   func() time.Time
}

type service struct {
	orders  orderReader
	status  statusWriter
	courier tracker
	metrics *metrics.ShipmentSyncMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Status == nil {
		return nil, fmt.Errorf("order status writer required")
	}
	if params.Courier == nil {
		return nil, fmt.Errorf("courier client required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		orders:  params.Orders,
		status:  params.Status,
		courier: params.Courier,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     clock,
	}, nil
}

// Sync pulls the courier's view of the order and writes it only when it
// differs from the stored status, so repeated polls notify once.
func (s *service) Sync(ctx context.Context, orderID uuid.UUID) (*Outcome, error) {
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		s.metrics.Observe(metrics.SyncFailed)
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, db.WrapStorage(err, "load order for sync")
	}
	trackingID := order.Delivery.TrackingID
	if trackingID == "" {
		s.metrics.Observe(metrics.SyncFailed)
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "order has no shipment to track")
	}

	tracking, err := s.courier.Tracking(ctx, trackingID)
	if err != nil {
		s.metrics.Observe(metrics.SyncFailed)
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch courier tracking")
	}

	out := &Outcome{
		OrderID:       order.ID,
		TrackingID:    trackingID,
		CourierStatus: tracking.Status,
		Previous:      order.Status,
		Status:        order.Status,
		Scans:         tracking.Scans,
	}
	mapped, ok := MapCourierStatus(tracking.Status)
	if !ok {
		s.metrics.Observe(metrics.SyncUnmapped)
		s.touch(ctx, order.ID)
		return out, nil
	}
	if mapped == order.Status {
		s.metrics.Observe(metrics.SyncUnchanged)
		s.touch(ctx, order.ID)
		return out, nil
	}
	if !orders.CanTransition(order.Status, mapped) {
		warnCtx := s.logg.WithFields(ctx, map[string]any{"courier_status": tracking.Status, "stored_status": order.Status})
		s.logg.Warn(warnCtx, "courier status ignored for order state")
		s.metrics.Observe(metrics.SyncUnchanged)
		return out, nil
	}

	applied, err := s.status.SetStatusFromSync(ctx, order.ID, order.Status, mapped)
	if err != nil {
		s.metrics.Observe(metrics.SyncFailed)
		return nil, err
	}
	if !applied {
		s.metrics.Observe(metrics.SyncUnchanged)
		return out, nil
	}
	out.Status = mapped
	out.Changed = true
	s.metrics.Observe(metrics.SyncChanged)
	s.logg.Info(ctx, "order status synced from courier")
	return out, nil
}

// touch records the poll time. It never fails the sync.
func (s *service) touch(ctx context.Context, orderID uuid.UUID) {
	if err := s.orders.MarkSynced(ctx, orderID, s.now().UTC()); err != nil {
		s.logg.Error(ctx, "record shipment sync time", err)
	}
}
