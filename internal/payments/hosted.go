package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/config"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	squarepkg "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/square"
)

const sessionProvider = "square"

type paymentLinkCreator interface {
	CreatePaymentLink(ctx context.Context, params squarepkg.PaymentLinkCreateParams) (*sq.PaymentLink, error)
	NewIdempotencyKey(prefix string) string
}

// HostedStrategy creates a gateway payment link; settlement arrives later
// through the webhook.
type HostedStrategy struct {
	square   paymentLinkCreator
	sessions Repository
	cfg      config.PaymentsConfig
	logg     *logger.Logger
}

// NewHostedStrategy builds the redirect strategy.
func NewHostedStrategy(square paymentLinkCreator, sessions Repository, cfg config.PaymentsConfig, logg *logger.Logger) (*HostedStrategy, error) {
	if square == nil {
		return nil, fmt.Errorf("square client required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("payment session repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if _, err := decimal.NewFromString(cfg.FeePercent); err != nil {
		return nil, fmt.Errorf("invalid fee percent %q: %w", cfg.FeePercent, err)
	}
	return &HostedStrategy{square: square, sessions: sessions, cfg: cfg, logg: logg}, nil
}

func (s *HostedStrategy) Initiate(ctx context.Context, req InitiateRequest) (*Outcome, error) {
	if req.CheckoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id required")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	fee := s.gatewayFee(req.Amount)
	charge := req.Amount + fee

	link, err := s.square.CreatePaymentLink(ctx, squarepkg.PaymentLinkCreateParams{
		Name:           req.Description,
		AmountCents:    charge,
		RedirectURL:    s.cfg.SuccessURL,
		ReferenceID:    req.CheckoutID.String(),
		IdempotencyKey: s.square.NewIdempotencyKey("checkout-" + req.CheckoutID.String()),
	})
	if err != nil {
		return nil, err
	}

	redirectURL := stringValue(link.GetURL())
	if redirectURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment link has no url")
	}

	session := &models.PaymentSession{
		ID:          uuid.New(),
		CheckoutID:  req.CheckoutID,
		BuyerID:     req.BuyerID,
		Provider:    sessionProvider,
		LinkID:      stringValue(link.GetID()),
		RedirectURL: redirectURL,
		Amount:      req.Amount,
		Fee:         fee,
		Status:      enums.PaymentStatusPending,
	}
	if _, err := s.sessions.Insert(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment session")
	}

	logCtx := s.logg.WithCheckoutID(ctx, req.CheckoutID.String())
	s.logg.Info(logCtx, fmt.Sprintf("hosted payment link created, charge %d (fee %d)", charge, fee))

	return &Outcome{
		Settled:     false,
		RedirectURL: redirectURL,
		Reference:   session.LinkID,
		Fee:         fee,
	}, nil
}

// gatewayFee applies the configured percentage plus the fixed amount,
// rounded half-up to whole rupiah.
func (s *HostedStrategy) gatewayFee(amount int64) int64 {
	pct, err := decimal.NewFromString(s.cfg.FeePercent)
	if err != nil {
		return s.cfg.FeeFixedAmount
	}
	variable := decimal.NewFromInt(amount).Mul(pct).Div(decimal.NewFromInt(100)).Round(0)
	return variable.IntPart() + s.cfg.FeeFixedAmount
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
