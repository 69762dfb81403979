package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/internal/catalog"
	"github.com/stondral/tsew-sub002/internal/notifications"
	"github.com/stondral/tsew-sub002/internal/permissions"
	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/courier"
	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/pagination"
	"github.com/stondral/tsew-sub002/pkg/retry"
	"github.com/stondral/tsew-sub002/pkg/types"
)

// Service drives an order from acceptance to delivery. Every caller-facing
// operation takes the principal explicitly and checks permission before any
// write.
type Service interface {
	Accept(ctx context.Context, principal auth.Principal, orderID uuid.UUID, input AcceptInput) (*models.Order, error)
	UpdateItemStatus(ctx context.Context, principal auth.Principal, orderID, itemID uuid.UUID, status enums.LineItemStatus) (*models.Order, error)
	Cancel(ctx context.Context, principal auth.Principal, orderID uuid.UUID, reason string) (*models.Order, error)
	UpdateShippingAddress(ctx context.Context, principal auth.Principal, orderID uuid.UUID, address types.Address) (*models.Order, error)
	UpdatePickupWarehouse(ctx context.Context, principal auth.Principal, orderID, warehouseID uuid.UUID) (*models.Order, error)
	ListForPrincipal(ctx context.Context, principal auth.Principal, filter ListFilter) (OrderList, error)
	GetForPrincipal(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (OrderView, error)
	SetStatusFromSync(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
	ExpireUnpaid(ctx context.Context, orderID uuid.UUID) (bool, error)
}

const unpaidCancelReason = "payment not received"

var errSkipExpiry = errors.New("order not eligible for expiry")

type ServiceParams struct {
	Repo        Repository
	Catalog     catalog.Repository
	Discounts   usageReleaser
	Courier     courierClient
	Notifier    orderNotifier
	Tx          txRunner
	Permissions permissions.Checker
	Retry       retry.Policy
	Logger      *logger.Logger
	Clock       func() time.Time
}

type service struct {
	repo      Repository
	catalog   catalog.Repository
	discounts usageReleaser
	courier   courierClient
	notifier  orderNotifier
	tx        txRunner
	perms     permissions.Checker
	retry     retry.Policy
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount releaser required")
	}
	if params.Courier == nil {
		return nil, fmt.Errorf("courier client required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Permissions == nil {
		return nil, fmt.Errorf("permission checker required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:      params.Repo,
		catalog:   params.Catalog,
		discounts: params.Discounts,
		courier:   params.Courier,
		notifier:  params.Notifier,
		tx:        params.Tx,
		perms:     params.Permissions,
		retry:     params.Retry,
		logg:      params.Logger,
		now:       clock,
	}, nil
}

// Accept books the courier pickup and moves a paid PENDING order to ACCEPTED.
// The parcel holds the items of the sellers the caller may update; other
// sellers' items stay pending. The courier is called before the status write;
// a concurrent accept that loses the guarded update gets STATE_CONFLICT.
func (s *service) Accept(ctx context.Context, principal auth.Principal, orderID uuid.UUID, input AcceptInput) (*models.Order, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if principal.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	scope, err := s.perms.SellersWithPermission(ctx, principal, enums.CapabilityOrderUpdateStatus)
	if err != nil {
		return nil, err
	}
	sellers := make([]uuid.UUID, 0, len(order.Items))
	for _, seller := range order.SellerIDs() {
		if scope.Contains(seller) {
			sellers = append(sellers, seller)
		}
	}
	if len(sellers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, stateConflict("order is %s and can no longer be accepted", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusCaptured {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "payment has not been captured")
	}

	warehouse, err := s.warehouseFor(ctx, sellers, input.WarehouseID)
	if err != nil {
		return nil, err
	}
	pickupName, err := s.ensurePickup(ctx, principal, warehouse)
	if err != nil {
		return nil, err
	}

	shipment, err := s.courier.CreateShipment(ctx, shipmentRequest(order, sellers, pickupName, input.Provider))
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"delivery_provider":     strings.TrimSpace(input.Provider),
		"delivery_cost":         input.Cost.Round(2),
		"delivery_tax":          input.Tax.Round(2),
		"delivery_warehouse_id": warehouse.ID,
		"delivery_tracking_id":  shipment.TrackingID,
		"delivery_scheduled_at": input.ScheduledAt,
	}
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusAccepted, updates)
		if err != nil {
			return db.WrapStorage(err, "accept order")
		}
		if !ok {
			return stateConflict("order is no longer pending")
		}
		err = repo.UpdateSellerItemsStatus(ctx, order.ID, sellers,
			[]enums.LineItemStatus{enums.LineItemStatusPending}, enums.LineItemStatusProcessing)
		return db.WrapStorage(err, "start item processing")
	})
	if err != nil {
		return nil, err
	}

	accepted, err := s.load(ctx, s.repo, order.ID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "order accepted")
	s.notifier.NotifyOrder(ctx, notifications.TemplateOrderAccepted, accepted)
	return accepted, nil
}

// UpdateItemStatus moves one item and lets the order follow its items.
func (s *service) UpdateItemStatus(ctx context.Context, principal auth.Principal, orderID, itemID uuid.UUID, status enums.LineItemStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item status")
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	item := findItem(order, itemID)
	if item == nil {
		return nil, itemNotFound()
	}
	if err := s.perms.Require(ctx, principal, item.SellerOrgID, enums.CapabilityOrderUpdateStatus); err != nil {
		return nil, err
	}

	var advancedTo enums.OrderStatus
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		advancedTo = ""
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusAccepted && current.Status != enums.OrderStatusShipped {
			return stateConflict("items cannot change while the order is %s", current.Status)
		}
		target := findItem(current, itemID)
		if target == nil {
			return itemNotFound()
		}
		if !CanTransitionItem(target.Status, status) {
			return stateConflict("item cannot move from %s to %s", target.Status, status)
		}

		ok, err := repo.UpdateItemStatus(ctx, target.ID, target.Status, status)
		if err != nil {
			return db.WrapStorage(err, "update item status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeWriteConflict, "item changed concurrently")
		}
		if status == enums.LineItemStatusCancelled {
			if err := s.catalog.WithTx(tx).ReleaseStock(ctx, target.ProductID, target.VariantID, target.Quantity); err != nil {
				return db.WrapStorage(err, "release stock")
			}
		}
		target.Status = status

		next, changed := DeriveOrderStatus(current.Status, current.Items)
		if !changed {
			return nil
		}
		ok, err = repo.TransitionStatus(ctx, current.ID, current.Status, next, nil)
		if err != nil {
			return db.WrapStorage(err, "advance order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeWriteConflict, "order changed concurrently")
		}
		advancedTo = next
		if next == enums.OrderStatusCancelled && current.DiscountCode != nil {
			return s.discounts.Release(ctx, tx, *current.DiscountCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if advancedTo != "" {
		s.logg.Info(s.logg.WithField(ctx, "status", advancedTo), "order status advanced")
		s.notifyStatus(ctx, advancedTo, updated)
	}
	return updated, nil
}

// Cancel stops a PENDING or ACCEPTED order, returning stock and discount usage.
// Buyers may cancel their own order until it is accepted.
func (s *service) Cancel(ctx context.Context, principal auth.Principal, orderID uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if err := s.authorizeCancel(ctx, principal, order); err != nil {
		return nil, err
	}

	err = s.cancelTx(ctx, orderID, strings.TrimSpace(reason), func(current *models.Order) error {
		if current.Status != enums.OrderStatusPending && current.Status != enums.OrderStatusAccepted {
			return stateConflict("order is %s and can no longer be cancelled", current.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == enums.PaymentStatusCaptured {
		s.logg.Warn(ctx, "captured order cancelled; refund must be issued")
	}
	s.logg.Info(ctx, "order cancelled")
	return s.load(ctx, s.repo, orderID)
}

// ExpireUnpaid cancels a PENDING order whose payment never arrived. False
// means the order was paid or moved on in the meantime.
func (s *service) ExpireUnpaid(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	err := s.cancelTx(ctx, orderID, unpaidCancelReason, func(current *models.Order) error {
		if current.Status != enums.OrderStatusPending || current.PaymentStatus == enums.PaymentStatusCaptured {
			return errSkipExpiry
		}
		return nil
	})
	if errors.Is(err, errSkipExpiry) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logg.Info(ctx, "unpaid order expired")
	return true, nil
}

// cancelTx moves the order to CANCELLED once check passes, hands back stock
// for every item not yet cancelled or delivered and releases the discount use.
func (s *service) cancelTx(ctx context.Context, orderID uuid.UUID, reason string, check func(*models.Order) error) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := check(current); err != nil {
			return err
		}

		updates := map[string]any{}
		if reason != "" {
			updates["cancel_reason"] = reason
		}
		ok, err := repo.TransitionStatus(ctx, current.ID, current.Status, enums.OrderStatusCancelled, updates)
		if err != nil {
			return db.WrapStorage(err, "cancel order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeWriteConflict, "order changed concurrently")
		}

		stock := s.catalog.WithTx(tx)
		for _, item := range current.Items {
			if item.Status == enums.LineItemStatusCancelled || item.Status == enums.LineItemStatusDelivered {
				continue
			}
			if err := stock.ReleaseStock(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
				return db.WrapStorage(err, "release stock")
			}
		}
		err = repo.UpdateItemsStatus(ctx, current.ID, []enums.LineItemStatus{
			enums.LineItemStatusPending,
			enums.LineItemStatusProcessing,
			enums.LineItemStatusShipped,
		}, enums.LineItemStatusCancelled)
		if err != nil {
			return db.WrapStorage(err, "cancel items")
		}

		if current.DiscountCode != nil {
			return s.discounts.Release(ctx, tx, *current.DiscountCode)
		}
		return nil
	})
}

func (s *service) authorizeCancel(ctx context.Context, principal auth.Principal, order *models.Order) error {
	if principal.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if principal.IsPlatformAdmin() {
		return nil
	}
	if order.BuyerUserID != nil && *order.BuyerUserID == principal.UserID && order.Status == enums.OrderStatusPending {
		return nil
	}
	return s.perms.RequireAll(ctx, principal, order.SellerIDs(), enums.CapabilityOrderUpdateStatus)
}

// UpdateShippingAddress rewrites the destination regardless of status.
func (s *service) UpdateShippingAddress(ctx context.Context, principal auth.Principal, orderID uuid.UUID, address types.Address) (*models.Order, error) {
	address = address.Normalized()
	if err := address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.RequireAll(ctx, principal, order.SellerIDs(), enums.CapabilityOrderEditAddress); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateShippingAddress(ctx, order.ID, address); err != nil {
		return nil, db.WrapStorage(err, "update shipping address")
	}
	return s.load(ctx, s.repo, orderID)
}

// UpdatePickupWarehouse points the order at another warehouse of one of its sellers.
func (s *service) UpdatePickupWarehouse(ctx context.Context, principal auth.Principal, orderID, warehouseID uuid.UUID) (*models.Order, error) {
	if warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup warehouse is required")
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.RequireAll(ctx, principal, order.SellerIDs(), enums.CapabilityOrderEditAddress); err != nil {
		return nil, err
	}
	warehouse, err := s.warehouseFor(ctx, order.SellerIDs(), warehouseID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateWarehouse(ctx, order.ID, warehouse.ID); err != nil {
		return nil, db.WrapStorage(err, "update pickup warehouse")
	}
	return s.load(ctx, s.repo, orderID)
}

// ListForPrincipal pages orders newest first. Seller-side lists only include
// orders with at least one item the caller may view.
func (s *service) ListForPrincipal(ctx context.Context, principal auth.Principal, filter ListFilter) (OrderList, error) {
	if principal.IsZero() {
		return OrderList{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return OrderList{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return OrderList{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := ListQuery{Status: filter.Status, Cursor: cursor, Limit: filter.Limit}
	scope := permissions.AllSellers()
	sellerSide := filter.AsSeller && !principal.IsPlatformAdmin()
	switch {
	case sellerSide:
		scope, err = s.perms.SellersWithPermission(ctx, principal, enums.CapabilityOrderView)
		if err != nil {
			return OrderList{}, err
		}
		if scope.Empty() {
			return OrderList{Orders: []OrderView{}}, nil
		}
		query.RestrictSellers = true
		query.SellerIDs = scope.IDs()
	case !principal.IsPlatformAdmin():
		query.BuyerUserID = &principal.UserID
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return OrderList{}, db.WrapStorage(err, "list orders")
	}
	rows, next := pagination.Trim(rows, filter.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	views := make([]OrderView, 0, len(rows))
	for i := range rows {
		if !sellerSide {
			views = append(views, fullView(&rows[i]))
			continue
		}
		if view, ok := sellerView(&rows[i], scope); ok {
			views = append(views, view)
		}
	}
	return OrderList{Orders: views, NextCursor: next}, nil
}

// GetForPrincipal returns the buyer or admin view, or the seller view limited to
// the caller's items. Orders the caller cannot see at all are NOT_FOUND.
func (s *service) GetForPrincipal(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (OrderView, error) {
	if principal.IsZero() {
		return OrderView{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return OrderView{}, err
	}
	if principal.IsPlatformAdmin() || (order.BuyerUserID != nil && *order.BuyerUserID == principal.UserID) {
		return fullView(order), nil
	}
	scope, err := s.perms.SellersWithPermission(ctx, principal, enums.CapabilityOrderView)
	if err != nil {
		return OrderView{}, err
	}
	view, ok := sellerView(order, scope)
	if !ok {
		return OrderView{}, orderNotFound()
	}
	return view, nil
}

// SetStatusFromSync applies a courier-reported status. False means the order
// had already moved away from from. Items follow the order.
func (s *service) SetStatusFromSync(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	if !CanTransition(from, to) {
		return false, stateConflict("order cannot move from %s to %s", from, to)
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	applied := false
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		applied = false
		repo := s.repo.WithTx(tx)
		ok, err := repo.TransitionStatus(ctx, orderID, from, to, map[string]any{"delivery_synced_at": s.now()})
		if err != nil {
			return db.WrapStorage(err, "sync order status")
		}
		if !ok {
			return nil
		}
		applied = true
		itemFrom, itemTo := cascadeFor(to)
		if len(itemFrom) == 0 {
			return nil
		}
		return db.WrapStorage(repo.UpdateItemsStatus(ctx, orderID, itemFrom, itemTo), "sync item status")
	})
	if err != nil || !applied {
		return false, err
	}

	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		s.logg.Error(ctx, "reload synced order", err)
		return true, nil
	}
	s.notifyStatus(ctx, to, order)
	return true, nil
}

func cascadeFor(to enums.OrderStatus) ([]enums.LineItemStatus, enums.LineItemStatus) {
	switch to {
	case enums.OrderStatusShipped:
		return []enums.LineItemStatus{enums.LineItemStatusPending, enums.LineItemStatusProcessing}, enums.LineItemStatusShipped
	case enums.OrderStatusDelivered:
		return []enums.LineItemStatus{
			enums.LineItemStatusPending,
			enums.LineItemStatusProcessing,
			enums.LineItemStatusShipped,
		}, enums.LineItemStatusDelivered
	}
	return nil, ""
}

func (s *service) notifyStatus(ctx context.Context, status enums.OrderStatus, order *models.Order) {
	switch status {
	case enums.OrderStatusShipped:
		s.notifier.NotifyOrder(ctx, notifications.TemplateOrderShipped, order)
	case enums.OrderStatusDelivered:
		s.notifier.NotifyOrder(ctx, notifications.TemplateOrderDelivered, order)
	}
}

func (s *service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, fn)
	})
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, orderNotFound()
		}
		return nil, db.WrapStorage(err, "load order")
	}
	return order, nil
}

// warehouseFor loads the warehouse and checks it belongs to one of sellers.
func (s *service) warehouseFor(ctx context.Context, sellers []uuid.UUID, warehouseID uuid.UUID) (*models.Warehouse, error) {
	warehouse, err := s.catalog.FindWarehouse(ctx, warehouseID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return nil, db.WrapStorage(err, "load warehouse")
	}
	for _, seller := range sellers {
		if seller == warehouse.SellerOrgID {
			return warehouse, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "warehouse does not belong to a seller shipping this order")
}

// ensurePickup registers the warehouse with the courier the first time it is used.
func (s *service) ensurePickup(ctx context.Context, principal auth.Principal, warehouse *models.Warehouse) (string, error) {
	if warehouse.CourierPickupName != "" {
		return warehouse.CourierPickupName, nil
	}
	name, err := s.courier.RegisterPickup(ctx, courier.PickupLocation{
		Name:    warehouse.Name,
		Email:   principal.Email,
		Address: warehouse.Address,
	})
	if err != nil {
		return "", err
	}
	if err := s.catalog.SetCourierPickupName(ctx, warehouse.ID, name); err != nil {
		return "", db.WrapStorage(err, "store pickup name")
	}
	return name, nil
}

// shipmentRequest builds the parcel for the pending items of sellers.
func shipmentRequest(order *models.Order, sellers []uuid.UUID, pickupName, provider string) courier.ShipmentRequest {
	shipping := make(map[uuid.UUID]struct{}, len(sellers))
	for _, seller := range sellers {
		shipping[seller] = struct{}{}
	}
	items := make([]courier.ShipmentItem, 0, len(order.Items))
	subtotal := decimal.Zero
	for _, item := range order.Items {
		if _, ok := shipping[item.SellerOrgID]; !ok || item.Status != enums.LineItemStatusPending {
			continue
		}
		subtotal = subtotal.Add(item.LineTotal)
		sku := item.ProductID.String()
		if item.VariantID != nil {
			sku = item.VariantID.String()
		}
		items = append(items, courier.ShipmentItem{
			Name:      displayName(item),
			SKU:       sku,
			Units:     item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	email := ""
	if order.GuestEmail != nil {
		email = *order.GuestEmail
	}
	return courier.ShipmentRequest{
		OrderID:     order.ID.String(),
		OrderDate:   order.CreatedAt,
		PickupName:  pickupName,
		Destination: order.ShippingAddress,
		Email:       email,
		Items:       items,
		SubTotal:    subtotal.Round(2),
		Provider:    strings.TrimSpace(provider),
	}
}

func displayName(item models.OrderItem) string {
	if item.VariantName == "" {
		return item.Name
	}
	return item.Name + " - " + item.VariantName
}

func findItem(order *models.Order, itemID uuid.UUID) *models.OrderItem {
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return &order.Items[i]
		}
	}
	return nil
}

func orderNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func itemNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
}

func stateConflict(format string, args ...any) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf(format, args...))
}
