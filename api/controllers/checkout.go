package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/middleware"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/responses"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/validators"
	checkoutsvc "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/checkout"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
)

type checkoutCartClearer interface {
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type checkoutRequest struct {
	PaymentMethod   string  `json:"payment_method" validate:"required"`
	ShippingName    string  `json:"shipping_name" validate:"required,min=2,max=128"`
	ShippingEmail   string  `json:"shipping_email" validate:"required,email"`
	ShippingPhone   string  `json:"shipping_phone" validate:"required,min=6,max=32"`
	ShippingAddress string  `json:"shipping_address" validate:"required,min=8,max=512"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=512"`
}

// Checkout submits the buyer's cart to the order workflow. The cart is kept
// when a later line fails so the buyer can retry what is left.
func Checkout(svc checkoutsvc.Service, cartSvc checkoutCartClearer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyerID := middleware.UserIDFromContext(r.Context())
		result, err := svc.Execute(r.Context(), buyerID, checkoutsvc.Input{
			PaymentMethod: enums.PaymentMethod(body.PaymentMethod),
			ShippingName:  body.ShippingName,
			ShippingEmail: body.ShippingEmail,
			ShippingPhone: body.ShippingPhone,
			ShippingAddr:  body.ShippingAddress,
			Notes:         body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !result.Partial() && cartSvc != nil {
			if err := cartSvc.Clear(r.Context(), buyerID); err != nil && logg != nil {
				logg.Warn(logg.WithCheckoutID(r.Context(), result.CheckoutID.String()), "cart clear after checkout failed")
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
