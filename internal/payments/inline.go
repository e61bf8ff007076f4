package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
)

// InlineStrategy settles synchronously. Covers COD and manual bank transfer
// reconciliation, where the shop collects outside the platform.
type InlineStrategy struct {
	logg *logger.Logger
}

// NewInlineStrategy builds the synchronous settlement strategy.
func NewInlineStrategy(logg *logger.Logger) (*InlineStrategy, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &InlineStrategy{logg: logg}, nil
}

func (s *InlineStrategy) Initiate(ctx context.Context, req InitiateRequest) (*Outcome, error) {
	if req.CheckoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id required")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	logCtx := s.logg.WithCheckoutID(ctx, req.CheckoutID.String())
	s.logg.Info(logCtx, fmt.Sprintf("inline settlement for %d via %s", req.Amount, req.Method))

	return &Outcome{
		Settled:   true,
		Reference: "inline:" + req.CheckoutID.String(),
	}, nil
}
