package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/middleware"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/cart"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
)

type stubCartService struct {
	dto     *cart.CartDTO
	result  *cart.SetQuantityResult
	err     error
	cleared bool
}

func (s *stubCartService) Add(ctx context.Context, buyerID, productID uuid.UUID, qty int) (*cart.CartDTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) Remove(ctx context.Context, buyerID, productID uuid.UUID) (*cart.CartDTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) SetQuantity(ctx context.Context, buyerID, productID uuid.UUID, qty int) (*cart.SetQuantityResult, error) {
	return s.result, s.err
}

func (s *stubCartService) Clear(ctx context.Context, buyerID uuid.UUID) error {
	s.cleared = true
	return s.err
}

func (s *stubCartService) Get(ctx context.Context, buyerID uuid.UUID) (*cart.CartDTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) Snapshot(ctx context.Context, buyerID uuid.UUID) (*cart.Cart, error) {
	return nil, s.err
}

func buyerRequest(method, target, pattern string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))

	rc := chi.NewRouteContext()
	if pattern != "" {
		parts := strings.Split(strings.Trim(pattern, "/"), "/")
		targetParts := strings.Split(strings.Trim(strings.SplitN(target, "?", 2)[0], "/"), "/")
		for i, part := range parts {
			if strings.HasPrefix(part, "{") && i < len(targetParts) {
				rc.URLParams.Add(strings.Trim(part, "{}"), targetParts[i])
			}
		}
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCartAddSuccess(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{dto: &cart.CartDTO{TotalItems: 2, TotalPrice: 30000}}
	handler := CartAdd(svc, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":2}`
	req := buyerRequest(http.MethodPost, "/api/v1/cart/items", "", body)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCartAddMapsStockConflict(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for Keripik Tempe: requested 5, available 2")}
	handler := CartAdd(svc, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":5}`
	req := buyerRequest(http.MethodPost, "/api/v1/cart/items", "", body)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCartAddRejectsZeroQuantity(t *testing.T) {
	t.Parallel()

	handler := CartAdd(&stubCartService{}, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":0}`
	req := buyerRequest(http.MethodPost, "/api/v1/cart/items", "", body)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartSetQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{dto: &cart.CartDTO{}}
	handler := CartSetQuantity(svc, nil)

	productID := uuid.NewString()
	req := buyerRequest(http.MethodPut, "/api/v1/cart/items/"+productID, "/api/v1/cart/items/{productId}", `{"quantity":0}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCartSetQuantityRejectsBadProductID(t *testing.T) {
	t.Parallel()

	handler := CartSetQuantity(&stubCartService{}, nil)

	req := buyerRequest(http.MethodPut, "/api/v1/cart/items/not-a-uuid", "/api/v1/cart/items/{productId}", `{"quantity":1}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{}
	handler := CartClear(svc, nil)

	req := buyerRequest(http.MethodDelete, "/api/v1/cart", "", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.cleared {
		t.Fatalf("expected clear to be called")
	}
}
