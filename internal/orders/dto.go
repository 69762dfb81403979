package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stondral/tsew-sub002/internal/permissions"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/money"
	"github.com/stondral/tsew-sub002/pkg/pagination"
	"github.com/stondral/tsew-sub002/pkg/types"
)

// AcceptInput schedules pickup for a paid order.
type AcceptInput struct {
	Provider    string          `json:"provider" validate:"required"`
	Cost        decimal.Decimal `json:"cost"`
	Tax         decimal.Decimal `json:"tax"`
	WarehouseID uuid.UUID       `json:"warehouse_id" validate:"required"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
}

func (in AcceptInput) validate() error {
	switch {
	case strings.TrimSpace(in.Provider) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "provider is required")
	case in.Cost.IsNegative() || in.Tax.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery cost and tax must not be negative")
	case in.WarehouseID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup warehouse is required")
	}
	return nil
}

// ListQuery is the repository filter. A nil SellerIDs with RestrictSellers
// false means no seller restriction.
type ListQuery struct {
	BuyerUserID     *uuid.UUID
	SellerIDs       []uuid.UUID
	RestrictSellers bool
	Status          *enums.OrderStatus
	Cursor          *pagination.Cursor
	Limit           int
}

// ListFilter is what callers ask for. AsSeller selects the seller-side view.
type ListFilter struct {
	AsSeller bool
	Status   *enums.OrderStatus
	Limit    int
	Cursor   string
}

// OrderView is an order as one caller is allowed to see it. Seller-side views
// carry only that caller's items and totals recomputed from them.
type OrderView struct {
	ID              uuid.UUID           `json:"id"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	ShippingAddress types.Address       `json:"shipping_address"`
	Delivery        DeliveryView        `json:"delivery"`
	Items           []models.OrderItem  `json:"items"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Shipping        decimal.Decimal     `json:"shipping"`
	Tax             decimal.Decimal     `json:"tax"`
	PlatformFee     decimal.Decimal     `json:"platform_fee"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	DiscountCode    *string             `json:"discount_code,omitempty"`
	Total           decimal.Decimal     `json:"total"`
	SellerScoped    bool                `json:"seller_scoped"`
	CreatedAt       time.Time           `json:"created_at"`
}

type DeliveryView struct {
	Provider    string          `json:"provider,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Tax         decimal.Decimal `json:"tax"`
	WarehouseID *uuid.UUID      `json:"warehouse_id,omitempty"`
	TrackingID  string          `json:"tracking_id,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
}

// OrderList is one page of views.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func fullView(order *models.Order) OrderView {
	return OrderView{
		ID:              order.ID,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		ShippingAddress: order.ShippingAddress,
		Delivery:        deliveryView(order.Delivery),
		Items:           order.Items,
		Subtotal:        order.Subtotal,
		Shipping:        order.Shipping,
		Tax:             order.Tax,
		PlatformFee:     order.PlatformFee,
		DiscountAmount:  order.DiscountAmount,
		DiscountCode:    order.DiscountCode,
		Total:           order.Total,
		CreatedAt:       order.CreatedAt,
	}
}

// sellerView keeps only items of sellers in scope. Platform charges are not
// the seller's revenue and are left out; a seller-specific discount is shown
// only to the seller that issued it.
func sellerView(order *models.Order, scope permissions.Scope) (OrderView, bool) {
	view := fullView(order)
	view.SellerScoped = true
	view.Items = make([]models.OrderItem, 0, len(order.Items))
	subtotal := money.Zero
	for _, item := range order.Items {
		if !scope.Contains(item.SellerOrgID) {
			continue
		}
		view.Items = append(view.Items, item)
		subtotal = subtotal.Add(item.LineTotal)
	}
	if len(view.Items) == 0 {
		return OrderView{}, false
	}

	view.Subtotal = money.Round(subtotal)
	view.Shipping = money.Zero
	view.Tax = money.Zero
	view.PlatformFee = money.Zero
	view.DiscountAmount = money.Zero
	view.DiscountCode = nil
	if order.DiscountSellerOrgID != nil && scope.Contains(*order.DiscountSellerOrgID) {
		view.DiscountAmount = order.DiscountAmount
		view.DiscountCode = order.DiscountCode
	}
	view.Total = money.ClampNonNegative(view.Subtotal.Sub(view.DiscountAmount))
	return view, true
}

func deliveryView(d models.Delivery) DeliveryView {
	return DeliveryView{
		Provider:    d.Provider,
		Cost:        d.Cost,
		Tax:         d.Tax,
		WarehouseID: d.WarehouseID,
		TrackingID:  d.TrackingID,
		ScheduledAt: d.ScheduledAt,
	}
}
