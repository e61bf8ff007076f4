package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	checkoutsvc "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/checkout"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/types"
)

type stubCheckoutService struct {
	result *checkoutsvc.Result
	err    error
}

func (s stubCheckoutService) Execute(ctx context.Context, buyerID uuid.UUID, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	return s.result, s.err
}

type recordingClearer struct {
	cleared int
}

func (r *recordingClearer) Clear(ctx context.Context, buyerID uuid.UUID) error {
	r.cleared++
	return nil
}

func validCheckoutBody() string {
	return `{
		"payment_method": "cod",
		"shipping_name": "Budi Santoso",
		"shipping_email": "budi@example.com",
		"shipping_phone": "+628123456789",
		"shipping_address": "Jl. Merdeka 1, Bandung"
	}`
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	t.Parallel()

	checkoutID := uuid.New()
	result := &checkoutsvc.Result{
		CheckoutID:         checkoutID,
		ConfirmationNumber: uuid.New(),
		OrderIDs:           []uuid.UUID{uuid.New()},
		TotalAmount:        45000,
		Status:             enums.OrderStatusPaid,
		PaymentMethod:      enums.PaymentMethodCOD,
	}
	clearer := &recordingClearer{}
	handler := Checkout(stubCheckoutService{result: result}, clearer, nil)

	req := buyerRequest(http.MethodPost, "/api/v1/checkout", "", validCheckoutBody())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if clearer.cleared != 1 {
		t.Fatalf("expected cart cleared once, got %d", clearer.cleared)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["checkout_id"] != checkoutID.String() {
		t.Fatalf("expected checkout id in payload, got %v", data)
	}
}

func TestCheckoutPartialKeepsCart(t *testing.T) {
	t.Parallel()

	result := &checkoutsvc.Result{
		CheckoutID:         uuid.New(),
		ConfirmationNumber: uuid.New(),
		OrderIDs:           []uuid.UUID{uuid.New()},
		TotalAmount:        20000,
		Status:             enums.OrderStatusPaid,
		FailedProduct:      "Madu Hutan",
		PaymentMethod:      enums.PaymentMethodCOD,
	}
	clearer := &recordingClearer{}
	handler := Checkout(stubCheckoutService{result: result}, clearer, nil)

	req := buyerRequest(http.MethodPost, "/api/v1/checkout", "", validCheckoutBody())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if clearer.cleared != 0 {
		t.Fatalf("cart must be kept on a partial checkout")
	}
}

func TestCheckoutMapsValidationFailure(t *testing.T) {
	t.Parallel()

	svcErr := pkgerrors.New(pkgerrors.CodeConflict, "checkout rejected: Madu B: requested 3, only 1 in stock")
	handler := Checkout(stubCheckoutService{err: svcErr}, &recordingClearer{}, nil)

	req := buyerRequest(http.MethodPost, "/api/v1/checkout", "", validCheckoutBody())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCheckoutRejectsIncompleteShipping(t *testing.T) {
	t.Parallel()

	clearer := &recordingClearer{}
	handler := Checkout(stubCheckoutService{}, clearer, nil)

	req := buyerRequest(http.MethodPost, "/api/v1/checkout", "", `{"payment_method":"cod","shipping_name":"Budi Santoso"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if clearer.cleared != 0 {
		t.Fatalf("cart must not be touched on validation failure")
	}
}

func TestCheckoutTimeoutIsGatewayTimeout(t *testing.T) {
	t.Parallel()

	svcErr := pkgerrors.Wrap(pkgerrors.CodeTimeout, context.DeadlineExceeded, "checkout step timed out")
	handler := Checkout(stubCheckoutService{err: svcErr}, &recordingClearer{}, nil)

	req := buyerRequest(http.MethodPost, "/api/v1/checkout", "", validCheckoutBody())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 got %d", resp.Code)
	}
}
