package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
)

// GatewayEvent mirrors the gateway's webhook envelope.
type GatewayEvent struct {
	EventID string           `json:"event_id"`
	Type    string           `json:"type"`
	Data    GatewayEventData `json:"data"`
}

type GatewayEventData struct {
	Type   string             `json:"type"`
	ID     string             `json:"id"`
	Object GatewayEventObject `json:"object"`
}

type GatewayEventObject struct {
	Payment *GatewayPayment `json:"payment"`
}

// GatewayPayment is the slice of the payment object the reconciliation
// needs; reference_id carries the checkout id set on link creation.
type GatewayPayment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id"`
	Note        string `json:"note"`
}

// VerifyPaymentCallback checks the HMAC-SHA256 hex signature the gateway
// attaches to each delivery.
func VerifyPaymentCallback(payload []byte, secret, signature string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type orderSettler interface {
	MarkCheckoutPaid(ctx context.Context, checkoutID uuid.UUID) (int, error)
}

// WebhookService applies verified gateway payment events.
type WebhookService struct {
	sessions Repository
	orders   orderSettler
	logg     *logger.Logger
}

// NewWebhookService builds the gateway event handler.
func NewWebhookService(sessions Repository, orders orderSettler, logg *logger.Logger) (*WebhookService, error) {
	if sessions == nil {
		return nil, fmt.Errorf("payment session repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order settler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &WebhookService{sessions: sessions, orders: orders, logg: logg}, nil
}

// HandleEvent reacts to payment.created/payment.updated events. Completed
// payments settle the session and flip the checkout's pending orders to
// paid; failures mark the session failed. Everything else is ignored.
func (s *WebhookService) HandleEvent(ctx context.Context, event *GatewayEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway event required")
	}

	switch strings.ToLower(event.Type) {
	case "payment.created", "payment.updated":
	default:
		return nil
	}

	payment := event.Data.Object.Payment
	if payment == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment payload missing")
	}

	checkoutID, err := checkoutIDFrom(payment)
	if err != nil {
		return err
	}
	logCtx := s.logg.WithCheckoutID(ctx, checkoutID.String())

	switch strings.ToUpper(payment.Status) {
	case "COMPLETED", "APPROVED":
		if _, err := s.sessions.UpdateStatusByCheckout(ctx, checkoutID, enums.PaymentStatusSettled); err != nil {
			return err
		}
		updated, err := s.orders.MarkCheckoutPaid(ctx, checkoutID)
		if err != nil {
			return err
		}
		s.logg.Info(logCtx, fmt.Sprintf("payment %s settled, %d order(s) paid", payment.ID, updated))
		return nil
	case "FAILED", "CANCELED":
		if _, err := s.sessions.UpdateStatusByCheckout(ctx, checkoutID, enums.PaymentStatusFailed); err != nil {
			return err
		}
		s.logg.Warn(logCtx, fmt.Sprintf("payment %s reported %s", payment.ID, payment.Status))
		return nil
	default:
		return nil
	}
}

func checkoutIDFrom(payment *GatewayPayment) (uuid.UUID, error) {
	raw := strings.TrimSpace(payment.ReferenceID)
	if raw == "" {
		raw = strings.TrimSpace(payment.Note)
	}
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment carries no checkout reference")
	}
	checkoutID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout reference")
	}
	return checkoutID, nil
}
