package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	"github.com/stondral/tsew-sub002/pkg/pagination"
	"github.com/stondral/tsew-sub002/pkg/types"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.withItems(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByCheckoutRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := r.withItems(ctx).Where("checkout_ref = ?", ref).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) SetCheckoutRef(ctx context.Context, id uuid.UUID, ref string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("checkout_ref", ref).Error
}

// MarkPaymentCaptured flips payment to captured once; a second call changes nothing.
func (r *repository) MarkPaymentCaptured(ctx context.Context, id uuid.UUID, paymentRef string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, enums.PaymentStatusCaptured).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusCaptured,
			"payment_ref":    paymentRef,
			"paid_at":        at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkPaymentFailed never downgrades a captured payment.
func (r *repository) MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusPending).
		Update("payment_status", enums.PaymentStatusFailed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// TransitionStatus moves the order from one status to another and applies
// updates in the same statement. False means the order was no longer in from.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	values := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["status"] = to
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, from, to enums.LineItemStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND status = ?", itemID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateItemsStatus moves every item of the order whose status is in from.
func (r *repository) UpdateItemsStatus(ctx context.Context, orderID uuid.UUID, from []enums.LineItemStatus, to enums.LineItemStatus) error {
	if len(from) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND status IN ?", orderID, from).
		Update("status", to).Error
}

// UpdateSellerItemsStatus is UpdateItemsStatus limited to the given sellers' items.
func (r *repository) UpdateSellerItemsStatus(ctx context.Context, orderID uuid.UUID, sellerIDs []uuid.UUID, from []enums.LineItemStatus, to enums.LineItemStatus) error {
	if len(from) == 0 || len(sellerIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND seller_org_id IN ? AND status IN ?", orderID, sellerIDs, from).
		Update("status", to).Error
}

func (r *repository) UpdateShippingAddress(ctx context.Context, id uuid.UUID, address types.Address) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{ID: id}).
		Select("shipping_address").
		Updates(&models.Order{ShippingAddress: address}).Error
}

func (r *repository) UpdateWarehouse(ctx context.Context, id, warehouseID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("delivery_warehouse_id", warehouseID).Error
}

func (r *repository) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("delivery_synced_at", at).Error
}

// List returns newest first, fetching one extra row so callers can detect a
// next page.
func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Order, error) {
	q := r.withItems(ctx).Model(&models.Order{})
	if query.BuyerUserID != nil {
		q = q.Where("buyer_user_id = ?", *query.BuyerUserID)
	}
	if query.RestrictSellers {
		if len(query.SellerIDs) == 0 {
			return []models.Order{}, nil
		}
		q = q.Where("id IN (?)", r.db.Model(&models.OrderItem{}).
			Select("order_id").
			Where("seller_org_id IN ?", query.SellerIDs))
	}
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.Cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			query.Cursor.CreatedAt, query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.Order
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(query.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForSync pages through orders with a tracking id that are still moving,
// oldest first.
func (r *repository) ListForSync(ctx context.Context, after *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.withItems(ctx).
		Where("delivery_tracking_id <> ''").
		Where("status IN ?", []enums.OrderStatus{enums.OrderStatusAccepted, enums.OrderStatusShipped})
	if after != nil {
		q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}
	var rows []models.Order
	err := q.Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListUnpaidBefore returns PENDING orders created before cutoff whose payment
// was never captured, oldest first.
func (r *repository) ListUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.withItems(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Where("payment_status <> ?", enums.PaymentStatusCaptured).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}
