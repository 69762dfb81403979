package checkout

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/internal/catalog"
	"github.com/stondral/tsew-sub002/internal/discounts"
	"github.com/stondral/tsew-sub002/internal/orders"
	"github.com/stondral/tsew-sub002/internal/pricing"
	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/gateway"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/money"
	"github.com/stondral/tsew-sub002/pkg/retry"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type quoter interface {
	Quote(ctx context.Context, lines []pricing.CartLine, code string) (pricing.Quote, error)
}

type discountUsage interface {
	Consume(ctx context.Context, tx *gorm.DB, applied *discounts.Applied) error
	Release(ctx context.Context, tx *gorm.DB, code string) error
}

type paymentGateway interface {
	CreateOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error)
}

// Service turns a cart into a PENDING order with reserved stock.
type Service interface {
	Confirm(ctx context.Context, principal auth.Principal, req Request) (*Result, error)
}

type ServiceParams struct {
	Quoter    quoter
	Catalog   catalog.Repository
	Orders    orders.Repository
	Discounts discountUsage
	Gateway   paymentGateway
	Tx        txRunner
	Retry     retry.Policy
	Logger    *logger.Logger
}

type service struct {
	quoter    quoter
	catalog   catalog.Repository
	orders    orders.Repository
	discounts discountUsage
	gateway   paymentGateway
	tx        txRunner
	retry     retry.Policy
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Quoter == nil {
		return nil, fmt.Errorf("quoter required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount usage required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		quoter:    params.Quoter,
		catalog:   params.Catalog,
		orders:    params.Orders,
		discounts: params.Discounts,
		gateway:   params.Gateway,
		tx:        params.Tx,
		retry:     params.Retry,
		logg:      params.Logger,
	}, nil
}

// Confirm reprices the cart, revalidates the discount, then reserves stock,
// consumes the code and writes the order in one transaction. The gateway
// charge is opened afterwards; if that fails the order is cancelled again.
func (s *service) Confirm(ctx context.Context, principal auth.Principal, req Request) (*Result, error) {
	if err := validateRequest(principal, &req); err != nil {
		return nil, err
	}

	quote, err := s.quoter.Quote(ctx, req.Lines, req.Code)
	if err != nil {
		return nil, err
	}
	if quote.Pricing.IsStockProblem {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "some items are unavailable").
			WithDetails(map[string]any{"reason": "stock", "errors": quote.Pricing.StockErrors})
	}
	if quote.DiscountError != "" {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, quote.DiscountError).
			WithDetails(map[string]any{"reason": quote.DiscountReason, "code": discounts.NormalizeCode(req.Code)})
	}

	var order *models.Order
	err = retry.Do(ctx, s.retry, func(ctx context.Context) error {
		order = buildOrder(principal, req, quote)
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			stock := s.catalog.WithTx(tx)
			for _, line := range quote.Pricing.Lines {
				ok, err := stock.ReserveStock(ctx, line.ProductID, line.VariantID, line.Quantity)
				if err != nil {
					return db.WrapStorage(err, "reserve stock")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeBusinessRule,
						fmt.Sprintf("'%s' no longer has %d in stock", line.DisplayName(), line.Quantity)).
						WithDetails(map[string]any{"reason": "stock", "product_id": line.ProductID})
				}
			}
			if err := s.discounts.Consume(ctx, tx, quote.Discount); err != nil {
				return err
			}
			return db.WrapStorage(s.orders.WithTx(tx).Create(ctx, order), "create order")
		})
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	payment, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:  order.Total,
		Receipt: order.ID.String(),
		Notes:   map[string]string{"order_id": order.ID.String()},
	})
	if err != nil {
		s.logg.Error(ctx, "open gateway charge", err)
		s.abandon(ctx, order)
		return nil, err
	}
	if err := s.orders.SetCheckoutRef(ctx, order.ID, payment.ID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "checkout_ref", payment.ID), "store checkout reference", err)
		s.abandon(ctx, order)
		return nil, db.WrapStorage(err, "store checkout reference")
	}
	ref := payment.ID
	order.CheckoutRef = &ref

	s.logg.Info(ctx, "order placed")
	return &Result{Order: order, Quote: quote, Payment: payment}, nil
}

// abandon cancels an order that cannot be paid for and hands its stock and
// discount use back. It runs detached from the request so a disconnected
// client cannot leave the reservation behind.
func (s *service) abandon(ctx context.Context, order *models.Order) {
	ctx = context.WithoutCancel(ctx)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled,
			map[string]any{"cancel_reason": "payment could not be initiated"})
		if err != nil || !ok {
			return err
		}
		stock := s.catalog.WithTx(tx)
		for _, item := range order.Items {
			if err := stock.ReleaseStock(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		if err := repo.UpdateItemsStatus(ctx, order.ID,
			[]enums.LineItemStatus{enums.LineItemStatusPending}, enums.LineItemStatusCancelled); err != nil {
			return err
		}
		if order.DiscountCode != nil {
			return s.discounts.Release(ctx, tx, *order.DiscountCode)
		}
		return nil
	})
	if err != nil {
		s.logg.Error(ctx, "release abandoned order", err)
	}
}

func buildOrder(principal auth.Principal, req Request, quote pricing.Quote) *models.Order {
	priced := quote.Pricing
	order := &models.Order{
		ShippingAddress: req.Address,
		PaymentStatus:   enums.PaymentStatusPending,
		Status:          enums.OrderStatusPending,
		Subtotal:        priced.Subtotal,
		Shipping:        priced.Shipping,
		Tax:             priced.Tax,
		PlatformFee:     priced.PlatformFee,
		DiscountAmount:  money.Round(quote.DiscountAmount),
		Total:           quote.Total,
		Items:           make([]models.OrderItem, 0, len(priced.Lines)),
	}
	if principal.IsZero() {
		order.GuestEmail = &req.GuestEmail
		if req.GuestPhone != "" {
			order.GuestPhone = &req.GuestPhone
		}
	} else {
		buyer := principal.UserID
		order.BuyerUserID = &buyer
	}
	if applied := quote.Discount; applied != nil {
		code := applied.Code
		scope := applied.Scope
		order.DiscountCode = &code
		order.DiscountScope = &scope
		order.DiscountSellerOrgID = applied.SellerOrgID
	}
	for _, line := range priced.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			SellerOrgID: line.SellerOrgID,
			Name:        line.Name,
			VariantName: line.VariantName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.LineSubtotal,
			Status:      enums.LineItemStatusPending,
		})
	}
	return order
}
