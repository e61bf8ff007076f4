package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
)

type cartClearer interface {
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

// ConfirmResult is the state reported back on the redirect return leg.
type ConfirmResult struct {
	CheckoutID uuid.UUID           `json:"checkout_id"`
	Status     enums.PaymentStatus `json:"status"`
}

// Reconciler handles the buyer's return from the hosted payment page. The
// return leg proves nothing about payment, so it only tidies the cart; the
// webhook is what moves money state.
type Reconciler struct {
	sessions Repository
	cart     cartClearer
	logg     *logger.Logger
}

// NewReconciler builds the redirect-return reconciler.
func NewReconciler(sessions Repository, cart cartClearer, logg *logger.Logger) (*Reconciler, error) {
	if sessions == nil {
		return nil, fmt.Errorf("payment session repository required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Reconciler{sessions: sessions, cart: cart, logg: logg}, nil
}

// Confirm clears the buyer's cart unconditionally, then reports the session
// status as currently known. Repeat calls are harmless.
func (r *Reconciler) Confirm(ctx context.Context, buyerID, checkoutID uuid.UUID) (*ConfirmResult, error) {
	if err := r.cart.Clear(ctx, buyerID); err != nil {
		logCtx := r.logg.WithBuyerID(ctx, buyerID.String())
		r.logg.Warn(logCtx, "cart clear failed on payment return")
	}

	session, err := r.sessions.FindByCheckoutID(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment session")
	}
	if session.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment session does not belong to buyer")
	}

	return &ConfirmResult{CheckoutID: checkoutID, Status: session.Status}, nil
}
