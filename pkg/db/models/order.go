package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/enums"
	"github.com/stondral/tsew-sub002/pkg/types"
)

// Order is created once at checkout and may span several sellers; each item
// records its own seller and fulfillment status.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BuyerUserID     *uuid.UUID          `gorm:"column:buyer_user_id;type:uuid;index"`
	GuestEmail      *string             `gorm:"column:guest_email"`
	GuestPhone      *string             `gorm:"column:guest_phone"`
	ShippingAddress types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'PENDING';index"`
	CheckoutRef     *string             `gorm:"column:checkout_ref;uniqueIndex"`
	PaymentRef      *string             `gorm:"column:payment_ref"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`

	Subtotal            decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Shipping            decimal.Decimal      `gorm:"column:shipping;type:numeric(12,2);not null"`
	Tax                 decimal.Decimal      `gorm:"column:tax;type:numeric(12,2);not null"`
	PlatformFee         decimal.Decimal      `gorm:"column:platform_fee;type:numeric(12,2);not null"`
	DiscountAmount      decimal.Decimal      `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	DiscountCode        *string              `gorm:"column:discount_code"`
	DiscountScope       *enums.DiscountScope `gorm:"column:discount_scope;type:text"`
	DiscountSellerOrgID *uuid.UUID           `gorm:"column:discount_seller_org_id;type:uuid"`
	Total               decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`

	Delivery Delivery `gorm:"embedded;embeddedPrefix:delivery_"`

	CancelReason *string     `gorm:"column:cancel_reason"`
	Items        []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// SellerIDs returns the distinct sellers with items on the order, in item order.
func (o Order) SellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	out := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.SellerOrgID]; ok {
			continue
		}
		seen[item.SellerOrgID] = struct{}{}
		out = append(out, item.SellerOrgID)
	}
	return out
}

// Delivery is filled in when a seller accepts the order.
type Delivery struct {
	Provider    string          `gorm:"column:provider;not null;default:''"`
	Cost        decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null;default:0"`
	Tax         decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	WarehouseID *uuid.UUID      `gorm:"column:warehouse_id;type:uuid"`
	TrackingID  string          `gorm:"column:tracking_id;not null;default:'';index"`
	ScheduledAt *time.Time      `gorm:"column:scheduled_at"`
	SyncedAt    *time.Time      `gorm:"column:synced_at"`
}

// OrderItem is a priced snapshot of one cart line.
type OrderItem struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	VariantID   *uuid.UUID           `gorm:"column:variant_id;type:uuid"`
	SellerOrgID uuid.UUID            `gorm:"column:seller_org_id;type:uuid;not null;index"`
	Name        string               `gorm:"column:name;not null"`
	VariantName string               `gorm:"column:variant_name;not null;default:''"`
	UnitPrice   decimal.Decimal      `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity    int                  `gorm:"column:quantity;not null"`
	LineTotal   decimal.Decimal      `gorm:"column:line_total;type:numeric(12,2);not null"`
	Status      enums.LineItemStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
