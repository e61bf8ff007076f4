package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
)

// InitiateRequest carries everything a strategy needs to start collecting
// payment for a committed checkout.
type InitiateRequest struct {
	CheckoutID  uuid.UUID
	BuyerID     uuid.UUID
	Method      enums.PaymentMethod
	Amount      int64
	Description string
}

// Outcome reports how the strategy left the checkout. Settled means the
// money is already collected and orders can be marked paid immediately;
// otherwise the buyer must follow RedirectURL and the webhook finishes
// the job.
type Outcome struct {
	Settled     bool
	RedirectURL string
	Reference   string
	Fee         int64
}

// Strategy starts payment collection for one checkout.
type Strategy interface {
	Initiate(ctx context.Context, req InitiateRequest) (*Outcome, error)
}
