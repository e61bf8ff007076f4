package controllers

import (
	"net/http"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/middleware"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/responses"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/validators"
	internalorders "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/orders"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/outbox"
)

type adminOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderList pages every order in the shop for the back office.
func AdminOrderList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, filters, err := buildOrderQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAllOrders(r.Context(), *params, *filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminOrderTransition moves an order along the fulfilment ladder.
func AdminOrderTransition(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adminOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := &outbox.ActorRef{
			UserID: middleware.UserIDFromContext(r.Context()),
			Role:   middleware.RoleFromContext(r.Context()),
		}

		order, err := svc.TransitionStatus(r.Context(), orderID, enums.OrderStatus(body.Status), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
