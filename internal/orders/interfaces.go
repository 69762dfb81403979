package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/internal/notifications"
	"github.com/stondral/tsew-sub002/pkg/courier"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	"github.com/stondral/tsew-sub002/pkg/pagination"
	"github.com/stondral/tsew-sub002/pkg/types"
)

// Repository persists orders and their items. Status writes are guarded by the
// expected current status and report whether a row changed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCheckoutRef(ctx context.Context, ref string) (*models.Order, error)
	SetCheckoutRef(ctx context.Context, id uuid.UUID, ref string) error
	MarkPaymentCaptured(ctx context.Context, id uuid.UUID, paymentRef string, at time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	UpdateItemStatus(ctx context.Context, itemID uuid.UUID, from, to enums.LineItemStatus) (bool, error)
	UpdateItemsStatus(ctx context.Context, orderID uuid.UUID, from []enums.LineItemStatus, to enums.LineItemStatus) error
	UpdateSellerItemsStatus(ctx context.Context, orderID uuid.UUID, sellerIDs []uuid.UUID, from []enums.LineItemStatus, to enums.LineItemStatus) error
	UpdateShippingAddress(ctx context.Context, id uuid.UUID, address types.Address) error
	UpdateWarehouse(ctx context.Context, id, warehouseID uuid.UUID) error
	MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, query ListQuery) ([]models.Order, error)
	ListForSync(ctx context.Context, after *pagination.Cursor, limit int) ([]models.Order, error)
	ListUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type courierClient interface {
	RegisterPickup(ctx context.Context, loc courier.PickupLocation) (string, error)
	CreateShipment(ctx context.Context, req courier.ShipmentRequest) (*courier.Shipment, error)
}

type usageReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, code string) error
}

type orderNotifier interface {
	NotifyOrder(ctx context.Context, tmpl notifications.Template, order *models.Order)
}
