package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/auth"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/cart"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/catalog"
	checkoutsvc "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/checkout"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/orders"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/users"
	pkgauth "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/auth"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/config"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/outbox"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/pagination"
)

type stubCatalog struct{}

func (stubCatalog) ListProducts(context.Context, catalog.ListProductsInput) (*catalog.ProductListDTO, error) {
	return &catalog.ProductListDTO{Products: []catalog.ProductDTO{}}, nil
}

func (stubCatalog) GetProduct(context.Context, uuid.UUID) (*catalog.ProductDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (stubCatalog) CreateProduct(context.Context, catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalog) UpdateProduct(context.Context, uuid.UUID, catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalog) DeleteProduct(context.Context, uuid.UUID) error { return nil }

func (stubCatalog) ReplenishStock(context.Context, uuid.UUID, int) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

type stubCart struct{}

func (stubCart) Add(context.Context, uuid.UUID, uuid.UUID, int) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCart) Remove(context.Context, uuid.UUID, uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCart) SetQuantity(context.Context, uuid.UUID, uuid.UUID, int) (*cart.SetQuantityResult, error) {
	return &cart.SetQuantityResult{Cart: &cart.CartDTO{}}, nil
}

func (stubCart) Clear(context.Context, uuid.UUID) error { return nil }

func (stubCart) Get(context.Context, uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCart) Snapshot(context.Context, uuid.UUID) (*cart.Cart, error) {
	return &cart.Cart{}, nil
}

type stubCheckout struct{}

func (stubCheckout) Execute(context.Context, uuid.UUID, checkoutsvc.Input) (*checkoutsvc.Result, error) {
	return &checkoutsvc.Result{CheckoutID: uuid.New()}, nil
}

type stubOrders struct{}

func (stubOrders) ListBuyerOrders(context.Context, uuid.UUID, pagination.Params, orders.ListFilters) (*orders.OrderListDTO, error) {
	return &orders.OrderListDTO{}, nil
}

func (stubOrders) GetBuyerOrder(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrders) GetBuyerCheckout(context.Context, uuid.UUID, uuid.UUID) (*orders.CheckoutDTO, error) {
	return &orders.CheckoutDTO{}, nil
}

func (stubOrders) CancelBuyerOrder(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrders) ListAllOrders(context.Context, pagination.Params, orders.ListFilters) (*orders.OrderListDTO, error) {
	return &orders.OrderListDTO{}, nil
}

func (stubOrders) TransitionStatus(context.Context, uuid.UUID, enums.OrderStatus, *outbox.ActorRef) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrders) MarkCheckoutPaid(context.Context, uuid.UUID) (int, error) { return 0, nil }

type stubAuth struct{}

func (stubAuth) Register(context.Context, auth.RegisterRequest) (*auth.SessionResponse, error) {
	return &auth.SessionResponse{AccessToken: "token", User: &users.UserDTO{}}, nil
}

func (stubAuth) Login(context.Context, auth.LoginRequest) (*auth.SessionResponse, error) {
	return &auth.SessionResponse{AccessToken: "token", User: &users.UserDTO{}}, nil
}

func (stubAuth) Me(context.Context, uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "smartshop-test", ExpirationMinutes: 30},
	}
}

func newTestRouter() http.Handler {
	return NewRouter(Deps{
		Config:          testConfig(),
		AuthService:     stubAuth{},
		CatalogService:  stubCatalog{},
		CartService:     stubCart{},
		CheckoutService: stubCheckout{},
		OrdersService:   stubOrders{},
	})
}

func mintToken(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthLive(t *testing.T) {
	t.Parallel()

	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-SmartShop-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-SmartShop-Env"))
	}
}

func TestRouterStorefrontIsPublic(t *testing.T) {
	t.Parallel()

	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterCartRequiresAuth(t *testing.T) {
	t.Parallel()

	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleBuyer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterAdminBlocksBuyers(t *testing.T) {
	t.Parallel()

	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	t.Parallel()

	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
