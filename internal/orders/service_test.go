package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/internal/catalog"
	"github.com/stondral/tsew-sub002/internal/notifications"
	"github.com/stondral/tsew-sub002/internal/permissions"
	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/courier"
	"github.com/stondral/tsew-sub002/pkg/db/dbtest"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/money"
	"github.com/stondral/tsew-sub002/pkg/types"
)

type membershipsStub map[uuid.UUID][]models.Membership

func (s membershipsStub) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Membership, error) {
	return s[userID], nil
}

type courierStub struct {
	registered []courier.PickupLocation
	shipments  []courier.ShipmentRequest
	err        error
}

func (c *courierStub) RegisterPickup(_ context.Context, loc courier.PickupLocation) (string, error) {
	c.registered = append(c.registered, loc)
	return "PICKUP-" + loc.Name, nil
}

func (c *courierStub) CreateShipment(_ context.Context, req courier.ShipmentRequest) (*courier.Shipment, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.shipments = append(c.shipments, req)
	return &courier.Shipment{ShipmentID: "S-1", TrackingID: "AWB123"}, nil
}

type notifierStub struct {
	sent []notifications.Template
}

func (n *notifierStub) NotifyOrder(_ context.Context, tmpl notifications.Template, _ *models.Order) {
	n.sent = append(n.sent, tmpl)
}

type releaserStub struct {
	codes []string
}

func (r *releaserStub) Release(_ context.Context, _ *gorm.DB, code string) error {
	r.codes = append(r.codes, code)
	return nil
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	courier  *courierStub
	notifier *notifierStub
	releaser *releaserStub
	members  membershipsStub

	sellerA, sellerB uuid.UUID
	ownerA, ownerB   auth.Principal
	buyer, admin     auth.Principal
	productA         models.Product
	productB         models.Product
	warehouseA       models.Warehouse
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	f := &fixture{
		conn:     conn,
		courier:  &courierStub{},
		notifier: &notifierStub{},
		releaser: &releaserStub{},
		members:  membershipsStub{},
		sellerA:  uuid.New(),
		sellerB:  uuid.New(),
		ownerA:   auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleSeller, Email: "a@example.com"},
		ownerB:   auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleSeller, Email: "b@example.com"},
		buyer:    auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleBuyer},
		admin:    auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleAdmin},
	}
	f.members[f.ownerA.UserID] = []models.Membership{{SellerOrgID: f.sellerA, UserID: f.ownerA.UserID, Role: enums.MemberRoleOwner}}
	f.members[f.ownerB.UserID] = []models.Membership{{SellerOrgID: f.sellerB, UserID: f.ownerB.UserID, Role: enums.MemberRoleOwner}}

	f.productA = models.Product{SellerOrgID: f.sellerA, Name: "Tea", Status: enums.ProductStatusLive, Price: money.FromInt(200), Stock: 5}
	f.productB = models.Product{SellerOrgID: f.sellerB, Name: "Mug", Status: enums.ProductStatusLive, Price: money.FromInt(100), Stock: 5}
	require.NoError(t, conn.Create(&f.productA).Error)
	require.NoError(t, conn.Create(&f.productB).Error)

	f.warehouseA = models.Warehouse{SellerOrgID: f.sellerA, Name: "Main", Address: address()}
	require.NoError(t, conn.Create(&f.warehouseA).Error)

	resolver, err := permissions.NewResolver(f.members)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(conn),
		Catalog:     catalog.NewRepository(conn),
		Discounts:   f.releaser,
		Courier:     f.courier,
		Notifier:    f.notifier,
		Tx:          client,
		Permissions: resolver,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func address() types.Address {
	return types.Address{Name: "Asha", Line1: "1 Main Rd", City: "Pune", State: "MH", PostalCode: "411001", Country: "IN"}
}

// seedOrder creates a captured PENDING order with two Tea from seller A and
// one Mug from seller B, discounted by a seller B code.
func (f *fixture) seedOrder(t *testing.T) models.Order {
	t.Helper()
	code := "BSAVE"
	scope := enums.DiscountScopeSeller
	order := models.Order{
		BuyerUserID:         &f.buyer.UserID,
		ShippingAddress:     address(),
		PaymentStatus:       enums.PaymentStatusCaptured,
		Status:              enums.OrderStatusPending,
		Subtotal:            money.FromInt(500),
		Shipping:            money.Zero,
		Tax:                 money.Zero,
		PlatformFee:         money.FromInt(15),
		DiscountAmount:      money.FromInt(10),
		DiscountCode:        &code,
		DiscountScope:       &scope,
		DiscountSellerOrgID: &f.sellerB,
		Total:               money.FromInt(505),
		Items: []models.OrderItem{
			{ProductID: f.productA.ID, SellerOrgID: f.sellerA, Name: "Tea", UnitPrice: money.FromInt(200), Quantity: 2, LineTotal: money.FromInt(400), Status: enums.LineItemStatusPending},
			{ProductID: f.productB.ID, SellerOrgID: f.sellerB, Name: "Mug", UnitPrice: money.FromInt(100), Quantity: 1, LineTotal: money.FromInt(100), Status: enums.LineItemStatusPending},
		},
	}
	require.NoError(t, f.conn.Create(&order).Error)
	return order
}

// seedSellerOrder creates an ACCEPTED order holding only seller A's items.
func (f *fixture) seedSellerOrder(t *testing.T) models.Order {
	t.Helper()
	order := models.Order{
		BuyerUserID:     &f.buyer.UserID,
		ShippingAddress: address(),
		PaymentStatus:   enums.PaymentStatusCaptured,
		Status:          enums.OrderStatusAccepted,
		Subtotal:        money.FromInt(600),
		Shipping:        money.Zero,
		Tax:             money.Zero,
		PlatformFee:     money.FromInt(15),
		DiscountAmount:  money.Zero,
		Total:           money.FromInt(615),
		Delivery:        models.Delivery{Provider: "bluedart", TrackingID: "AWB9"},
		Items: []models.OrderItem{
			{ProductID: f.productA.ID, SellerOrgID: f.sellerA, Name: "Tea", UnitPrice: money.FromInt(200), Quantity: 2, LineTotal: money.FromInt(400), Status: enums.LineItemStatusProcessing},
			{ProductID: f.productA.ID, SellerOrgID: f.sellerA, Name: "Tea", VariantName: "Gift", UnitPrice: money.FromInt(200), Quantity: 1, LineTotal: money.FromInt(200), Status: enums.LineItemStatusProcessing},
		},
	}
	require.NoError(t, f.conn.Create(&order).Error)
	return order
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Order {
	t.Helper()
	order, err := NewRepository(f.conn).FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}

func acceptInput(warehouseID uuid.UUID) AcceptInput {
	return AcceptInput{Provider: "bluedart", Cost: money.FromInt(60), Tax: money.MustParse("10.80"), WarehouseID: warehouseID}
}

func TestAcceptTransitionsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t)
	ctx := context.Background()

	accepted, err := f.svc.Accept(ctx, f.admin, order.ID, acceptInput(f.warehouseA.ID))
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAccepted, accepted.Status)
	assert.Equal(t, "AWB123", accepted.Delivery.TrackingID)
	assert.Equal(t, "bluedart", accepted.Delivery.Provider)
	require.NotNil(t, accepted.Delivery.WarehouseID)
	assert.Equal(t, f.warehouseA.ID, *accepted.Delivery.WarehouseID)
	for _, item := range accepted.Items {
		assert.Equal(t, enums.LineItemStatusProcessing, item.Status)
	}
	require.Len(t, f.courier.registered, 1)
	require.Len(t, f.courier.shipments, 1)
	assert.Len(t, f.courier.shipments[0].Items, 2)
	assert.True(t, money.FromInt(500).Equal(f.courier.shipments[0].SubTotal))
	assert.Equal(t, []notifications.Template{notifications.TemplateOrderAccepted}, f.notifier.sent)

	var warehouse models.Warehouse
	require.NoError(t, f.conn.First(&warehouse, "id = ?", f.warehouseA.ID).Error)
	assert.Equal(t, "PICKUP-Main", warehouse.CourierPickupName)

	_, err = f.svc.Accept(ctx, f.admin, order.ID, acceptInput(f.warehouseA.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Len(t, f.courier.shipments, 1)
}

func TestAcceptShipsOnlyTheCallersItems(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t)

	accepted, err := f.svc.Accept(context.Background(), f.ownerA, order.ID, acceptInput(f.warehouseA.ID))
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAccepted, accepted.Status)

	require.Len(t, f.courier.shipments, 1)
	parcel := f.courier.shipments[0]
	require.Len(t, parcel.Items, 1)
	assert.Equal(t, "Tea", parcel.Items[0].Name)
	assert.True(t, money.FromInt(400).Equal(parcel.SubTotal), "subtotal %s", parcel.SubTotal)

	statuses := map[string]enums.LineItemStatus{}
	for _, item := range accepted.Items {
		statuses[item.Name] = item.Status
	}
	assert.Equal(t, enums.LineItemStatusProcessing, statuses["Tea"])
	assert.Equal(t, enums.LineItemStatusPending, statuses["Mug"])
}

func TestAcceptRejectsCallerWithoutSellerOnTheOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t)

	_, err := f.svc.Accept(context.Background(), f.buyer, order.ID, acceptInput(f.warehouseA.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = f.svc.Accept(context.Background(), auth.Principal{}, order.ID, acceptInput(f.warehouseA.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))

	// Seller B may accept its own part but not ship from seller A's warehouse.
	_, err = f.svc.Accept(context.Background(), f.ownerB, order.ID, acceptInput(f.warehouseA.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeBusinessRule, pkgerrors.CodeOf(err))

	assert.Empty(t, f.courier.shipments)
	assert.Equal(t, enums.OrderStatusPending, f.reload(t, order.ID).Status)
}

func TestAcceptRequiresCapturedPayment(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_status", enums.PaymentStatusPending).Error)

	_, err := f.svc.Accept(context.Background(), f.admin, order.ID, acceptInput(f.warehouseA.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeBusinessRule, pkgerrors.CodeOf(err))
}

func TestAcceptRejectsWarehouseOfAnotherSeller(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t)
	foreign := models.Warehouse{SellerOrgID: uuid.New(), Name: "Elsewhere", Address: address()}
	require.NoError(t, f.conn.Create(&foreign).Error)

	_, err := f.svc.Accept(context.Background(), f.admin, order.ID, acceptInput(foreign.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeBusinessRule, pkgerrors.CodeOf(err))

	_, err = f.svc.Accept(context.Background(), f.admin, order.ID, acceptInput(uuid.New()))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Empty(t, f.courier.registered)
}

func TestUpdateItemStatusAdvancesOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedSellerOrder(t)
	ctx := context.Background()
	first, second := order.Items[0].ID, order.Items[1].ID

	updated, err := f.svc.UpdateItemStatus(ctx, f.ownerA, order.ID, first, enums.LineItemStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAccepted, updated.Status)
	assert.Empty(t, f.notifier.sent)

	updated, err = f.svc.UpdateItemStatus(ctx, f.ownerA, order.ID, second, enums.LineItemStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)

	_, err = f.svc.UpdateItemStatus(ctx, f.ownerA, order.ID, first, enums.LineItemStatusDelivered)
	require.NoError(t, err)
	updated, err = f.svc.UpdateItemStatus(ctx, f.ownerA, order.ID, second, enums.LineItemStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, updated.Status)
	assert.Equal(t, []notifications.Template{
		notifications.TemplateOrderShipped,
		notifications.TemplateOrderDelivered,
	}, f.notifier.sent)
}

func TestUpdateItemStatusRejectsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	order := f.seedSellerOrder(t)

	_, err := f.svc.UpdateItemStatus(context.Background(), f.ownerA, order.ID, order.Items[0].ID, enums.LineItemStatusDelivered)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestUpdateItemStatusCancelReleasesStock(t *testing.T) {
	f := newFixture(t)
	order := f.seedSellerOrder(t)

	_, err := f.svc.UpdateItemStatus(context.Background(), f.ownerA, order.ID, order.Items[0].ID, enums.LineItemStatusCancelled)
	require.NoError(t, err)

	var product models.Product
	require.NoError(t, f.conn.First(&product, "id = ?", f.productA.ID).Error)
	assert.Equal(t, 7, product.Stock)
}

func TestUpdateItemStatusChecksItemSeller(t *testing.T) {
	f := newFixture(t)
	order := f.seedSellerOrder(t)

	_, err := f.svc.UpdateItemStatus(context.Background(), f.ownerB, order.ID, order.Items[0].ID, enums.LineItemStatusShipped)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	assert.Equal(t, enums.LineItemStatusProcessing, f.reload(t, order.ID).Items[0].Status)
}

func TestNotFoundMessagesAreDistinct(t *testing.T) {
	f := newFixture(t)
	order := f.seedSellerOrder(t)
	ctx := context.Background()

	_, err := f.svc.UpdateItemStatus(ctx, f.ownerA, uuid.New(), order.Items[0].ID, enums.LineItemStatusShipped)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, "order not found", pkgerrors.As(err).Message())

	_, err = f.svc.UpdateItemStatus(ctx, f.ownerA, order.ID, uuid.New(), enums.LineItemStatusShipped)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, "order item not found", pkgerrors.As(err).Message())
}

func TestBuyerCancelRestoresStockAndDiscount(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t)

	cancelled, err := f.svc.Cancel(context.Background(), f.buyer, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "changed my mind", *cancelled.CancelReason)
	for _, item := range cancelled.Items {
		assert.Equal(t, enums.LineItemStatusCancelled, item.Status)
	}
	assert.Equal(t, []string{"BSAVE"}, f.releaser.codes)

	var a, b models.Product
	require.NoError(t, f.conn.First(&a, "id = ?", f.productA.ID).Error)
	require.NoError(t, f.conn.First(&b, "id = ?", f.productB.ID).Error)
	assert.Equal(t, 7, a.Stock)
	assert.Equal(t, 6, b.Stock)

	_, err = f.svc.Cancel(context.Background(), f.admin, order.ID, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestBuyerCannotCancelAcceptedOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedSellerOrder(t)

	_, err := f.svc.Cancel(context.Background(), f.buyer, order.ID, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	cancelled, err := f.svc.Cancel(context.Background(), f.ownerA, order.ID, "out of stock")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
}

func TestExpireUnpaidSkipsCapturedOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paid := f.seedOrder(t)
	unpaid := f.seedOrder(t)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", unpaid.ID).
		Update("payment_status", enums.PaymentStatusPending).Error)

	ok, err := f.svc.ExpireUnpaid(ctx, paid.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.ExpireUnpaid(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, "id = ?", unpaid.ID).Error)
	assert.Equal(t, enums.OrderStatusCancelled, stored.Status)
	require.NotNil(t, stored.CancelReason)
	assert.Equal(t, "payment not received", *stored.CancelReason)
	assert.Equal(t, []string{"BSAVE"}, f.releaser.codes)

	ok, err = f.svc.ExpireUnpaid(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := NewRepository(f.conn).ListUnpaidBefore(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSellerViewShowsOnlyOwnItems(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t)
	ctx := context.Background()

	viewA, err := f.svc.GetForPrincipal(ctx, f.ownerA, order.ID)
	require.NoError(t, err)
	assert.True(t, viewA.SellerScoped)
	require.Len(t, viewA.Items, 1)
	assert.Equal(t, f.sellerA, viewA.Items[0].SellerOrgID)
	assert.True(t, viewA.Subtotal.Equal(money.FromInt(400)))
	assert.True(t, viewA.DiscountAmount.IsZero())
	assert.Nil(t, viewA.DiscountCode)
	assert.True(t, viewA.Total.Equal(money.FromInt(400)))
	assert.True(t, viewA.PlatformFee.IsZero())

	list, err := f.svc.ListForPrincipal(ctx, f.ownerB, ListFilter{AsSeller: true})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	viewB := list.Orders[0]
	require.Len(t, viewB.Items, 1)
	assert.True(t, viewB.Subtotal.Equal(money.FromInt(100)))
	assert.True(t, viewB.DiscountAmount.Equal(money.FromInt(10)))
	assert.True(t, viewB.Total.Equal(money.FromInt(90)))

	full, err := f.svc.GetForPrincipal(ctx, f.buyer, order.ID)
	require.NoError(t, err)
	assert.False(t, full.SellerScoped)
	assert.Len(t, full.Items, 2)
	assert.True(t, full.Total.Equal(money.FromInt(505)))

	stranger := auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleSeller}
	_, err = f.svc.GetForPrincipal(ctx, stranger, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	empty, err := f.svc.ListForPrincipal(ctx, stranger, ListFilter{AsSeller: true})
	require.NoError(t, err)
	assert.Empty(t, empty.Orders)
}

func TestBuyerListPaginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.seedOrder(t)
	}
	ctx := context.Background()

	page, err := f.svc.ListForPrincipal(ctx, f.buyer, ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := f.svc.ListForPrincipal(ctx, f.buyer, ListFilter{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Empty(t, rest.NextCursor)

	other, err := f.svc.ListForPrincipal(ctx, auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleBuyer}, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, other.Orders)
}

func TestUpdateShippingAddressNeedsEditCapability(t *testing.T) {
	f := newFixture(t)
	order := f.seedSellerOrder(t)
	viewer := auth.Principal{UserID: uuid.New(), SystemRole: enums.SystemRoleSeller}
	f.members[viewer.UserID] = []models.Membership{{SellerOrgID: f.sellerA, UserID: viewer.UserID, Role: enums.MemberRoleViewer}}

	moved := address()
	moved.City = "Mumbai"
	_, err := f.svc.UpdateShippingAddress(context.Background(), viewer, order.ID, moved)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	updated, err := f.svc.UpdateShippingAddress(context.Background(), f.ownerA, order.ID, moved)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", updated.ShippingAddress.City)
}

func TestSetStatusFromSyncCascadesItems(t *testing.T) {
	f := newFixture(t)
	order := f.seedSellerOrder(t)
	ctx := context.Background()

	applied, err := f.svc.SetStatusFromSync(ctx, order.ID, enums.OrderStatusAccepted, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.True(t, applied)

	synced := f.reload(t, order.ID)
	assert.Equal(t, enums.OrderStatusShipped, synced.Status)
	assert.NotNil(t, synced.Delivery.SyncedAt)
	for _, item := range synced.Items {
		assert.Equal(t, enums.LineItemStatusShipped, item.Status)
	}

	applied, err = f.svc.SetStatusFromSync(ctx, order.ID, enums.OrderStatusAccepted, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, []notifications.Template{notifications.TemplateOrderShipped}, f.notifier.sent)

	_, err = f.svc.SetStatusFromSync(ctx, order.ID, enums.OrderStatusShipped, enums.OrderStatusPending)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}
