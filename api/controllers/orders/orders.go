package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stondral/tsew-sub002/api/middleware"
	"github.com/stondral/tsew-sub002/api/responses"
	"github.com/stondral/tsew-sub002/api/validators"
	internalorders "github.com/stondral/tsew-sub002/internal/orders"
	"github.com/stondral/tsew-sub002/internal/shipments"
	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/pagination"
	"github.com/stondral/tsew-sub002/pkg/types"
)

const maxReasonLength = 500

type shipmentSyncer interface {
	Sync(ctx context.Context, orderID uuid.UUID) (*shipments.Outcome, error)
}

// List pages the caller's orders. view=seller selects the seller-side view.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filter := internalorders.ListFilter{
			AsSeller: strings.EqualFold(r.URL.Query().Get("view"), "seller"),
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		filter.Status, err = validators.ParseQueryEnum(r, "status", enums.ParseOrderStatus)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListForPrincipal(ctx, middleware.PrincipalFromContext(ctx), filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		view, err := svc.GetForPrincipal(ctx, middleware.PrincipalFromContext(ctx), orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Accept schedules pickup and books the shipment for a paid order.
func Accept(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload internalorders.AcceptInput
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.Accept(ctx, middleware.PrincipalFromContext(ctx), orderID, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload cancelRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		reason := validators.SanitizeString(payload.Reason, maxReasonLength)
		order, err := svc.Cancel(ctx, middleware.PrincipalFromContext(ctx), orderID, reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type itemStatusRequest struct {
	Status enums.LineItemStatus `json:"status" validate:"required,enum"`
}

func UpdateItemStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload itemStatusRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.UpdateItemStatus(ctx, middleware.PrincipalFromContext(ctx), orderID, itemID, payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type addressRequest struct {
	Address types.Address `json:"shipping_address"`
}

func UpdateAddress(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload addressRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.UpdateShippingAddress(ctx, middleware.PrincipalFromContext(ctx), orderID, payload.Address)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type warehouseRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" validate:"required"`
}

func UpdateWarehouse(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload warehouseRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.UpdatePickupWarehouse(ctx, middleware.PrincipalFromContext(ctx), orderID, payload.WarehouseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// SyncShipment polls the courier for one order on demand. Admins and sellers
// with order.view on the order may trigger it.
func SyncShipment(svc internalorders.Service, syncer shipmentSyncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		principal := middleware.PrincipalFromContext(ctx)
		if err := authorizeSync(ctx, svc, principal, orderID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		outcome, err := syncer.Sync(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

func authorizeSync(ctx context.Context, svc internalorders.Service, principal auth.Principal, orderID uuid.UUID) error {
	view, err := svc.GetForPrincipal(ctx, principal, orderID)
	if err != nil {
		return err
	}
	if principal.IsPlatformAdmin() || view.SellerScoped {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
}
