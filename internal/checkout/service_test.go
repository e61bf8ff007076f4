package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/cart"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/payments"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/config"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/metrics"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/outbox"
)

type fakeCartReader struct {
	cart  *cart.Cart
	err   error
	calls int
}

func (f *fakeCartReader) Snapshot(_ context.Context, buyerID uuid.UUID) (*cart.Cart, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.cart == nil {
		return &cart.Cart{BuyerID: buyerID}, nil
	}
	return f.cart, nil
}

type fakeProductGateway struct {
	mu            sync.Mutex
	products      map[uuid.UUID]*models.Product
	failDecrement map[uuid.UUID]error
	fetchCalls    int
	decrements    []uuid.UUID
}

func newFakeProducts() *fakeProductGateway {
	return &fakeProductGateway{
		products:      map[uuid.UUID]*models.Product{},
		failDecrement: map[uuid.UUID]error{},
	}
}

func (f *fakeProductGateway) add(name string, price int64, stock int, active bool) *models.Product {
	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Category: enums.ProductCategoryFood,
		Price:    price,
		Stock:    stock,
		IsActive: active,
	}
	f.products[product.ID] = product
	return product
}

func (f *fakeProductGateway) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	rows := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			rows = append(rows, *product)
		}
	}
	return rows, nil
}

func (f *fakeProductGateway) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failDecrement[id]; ok {
		return err
	}
	product, ok := f.products[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if product.Stock < qty {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for "+product.Name)
	}
	product.Stock -= qty
	f.decrements = append(f.decrements, id)
	return nil
}

type fakeOrderWriter struct {
	mu         sync.Mutex
	orders     map[uuid.UUID]*models.Order
	insertErr  map[string]error
	statusErrs map[enums.OrderStatus]error
}

func newFakeOrders() *fakeOrderWriter {
	return &fakeOrderWriter{
		orders:     map[uuid.UUID]*models.Order{},
		insertErr:  map[string]error{},
		statusErrs: map[enums.OrderStatus]error{},
	}
}

func (f *fakeOrderWriter) Insert(_ context.Context, order *models.Order) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.insertErr[order.ProductName]; ok {
		return nil, err
	}
	copied := *order
	f.orders[order.ID] = &copied
	return order, nil
}

func (f *fakeOrderWriter) UpdateStatus(_ context.Context, orderID uuid.UUID, from, to enums.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.statusErrs[to]; ok {
		return err
	}
	order, ok := f.orders[orderID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != from {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s, not %s", order.Status, from))
	}
	order.Status = to
	return nil
}

func (f *fakeOrderWriter) byProduct(name string) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.ProductName == name {
			return order
		}
	}
	return nil
}

type fakeStrategy struct {
	outcome *payments.Outcome
	err     error
	block   bool
	called  int
	last    payments.InitiateRequest
}

func (f *fakeStrategy) Initiate(ctx context.Context, req payments.InitiateRequest) (*payments.Outcome, error) {
	f.called++
	f.last = req
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	return &payments.Outcome{Settled: true, Reference: "inline:" + req.CheckoutID.String()}, nil
}

type noopTxRunner struct{}

func (noopTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type capturingOutbox struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (c *capturingOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

type engineFixture struct {
	svc      Service
	cart     *fakeCartReader
	products *fakeProductGateway
	orders   *fakeOrderWriter
	strategy *fakeStrategy
	outbox   *capturingOutbox
}

func newEngine(t *testing.T, opts ...func(*engineFixture)) *engineFixture {
	t.Helper()

	fx := &engineFixture{
		cart:     &fakeCartReader{},
		products: newFakeProducts(),
		orders:   newFakeOrders(),
		strategy: &fakeStrategy{},
		outbox:   &capturingOutbox{},
	}
	for _, opt := range opts {
		opt(fx)
	}

	svc, err := NewService(
		fx.cart,
		fx.products,
		fx.orders,
		fx.strategy,
		noopTxRunner{},
		fx.outbox,
		metrics.NewCheckoutMetrics(nil),
		config.CheckoutConfig{StepTimeout: time.Second},
		logger.New(logger.Options{ServiceName: "checkout-test"}),
	)
	require.NoError(t, err)
	fx.svc = svc
	return fx
}

func validInput() Input {
	return Input{
		PaymentMethod: enums.PaymentMethodCOD,
		ShippingName:  "Budi Santoso",
		ShippingEmail: "budi@example.com",
		ShippingPhone: "+628123456789",
		ShippingAddr:  "Jl. Merdeka 1, Bandung",
	}
}

func cartWith(buyerID uuid.UUID, lines ...cart.Line) *cart.Cart {
	return &cart.Cart{BuyerID: buyerID, Lines: lines}
}

func lineFor(product *models.Product, qty int) cart.Line {
	return cart.Line{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    qty,
	}
}

func TestExecuteSingleLineInlineSuccess(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t)
	productA := fx.products.add("Keripik A", 10000, 5, true)
	fx.cart.cart = cartWith(buyer, lineFor(productA, 3))

	result, err := fx.svc.Execute(context.Background(), buyer, validInput())
	require.NoError(t, err)

	assert.False(t, result.Partial())
	assert.Equal(t, enums.OrderStatusPaid, result.Status)
	assert.Equal(t, int64(30000), result.TotalAmount)
	require.Len(t, result.OrderIDs, 1)
	assert.Equal(t, result.OrderIDs[0], result.ConfirmationNumber)

	assert.Equal(t, 2, fx.products.products[productA.ID].Stock)
	order := fx.orders.byProduct("Keripik A")
	require.NotNil(t, order)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)

	require.Len(t, fx.outbox.events, 1)
	assert.Equal(t, enums.EventOrderCreated, fx.outbox.events[0].EventType)
}

func TestExecuteValidationAggregatesAllFailingLines(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t)
	short := fx.products.add("Madu B", 45000, 4, true)
	gone := fx.products.add("Batik C", 120000, 10, false)
	fine := fx.products.add("Kopi D", 30000, 8, true)
	fx.cart.cart = cartWith(buyer,
		lineFor(short, 10),
		lineFor(gone, 1),
		lineFor(fine, 2),
	)

	_, err := fx.svc.Execute(context.Background(), buyer, validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Contains(t, typed.Message(), "Madu B")
	assert.Contains(t, typed.Message(), "Batik C")

	// Nothing was persisted or decremented for any line.
	assert.Empty(t, fx.orders.orders)
	assert.Empty(t, fx.products.decrements)
	assert.Equal(t, 4, fx.products.products[short.ID].Stock)
	assert.Equal(t, 8, fx.products.products[fine.ID].Stock)
	assert.Zero(t, fx.strategy.called)
}

func TestExecuteMissingProductFailsValidation(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t)
	fx.cart.cart = cartWith(buyer, cart.Line{
		ProductID:   uuid.New(),
		ProductName: "Hilang",
		UnitPrice:   5000,
		Quantity:    1,
	})

	_, err := fx.svc.Execute(context.Background(), buyer, validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Contains(t, typed.Message(), "Hilang")
}

func TestExecutePartialFailureKeepsEarlierLines(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t)
	productA := fx.products.add("Keripik A", 10000, 5, true)
	productC := fx.products.add("Sambal C", 20000, 3, true)
	fx.products.failDecrement[productC.ID] = pkgerrors.New(pkgerrors.CodeDependency, "connection reset")
	fx.cart.cart = cartWith(buyer, lineFor(productA, 2), lineFor(productC, 2))

	result, err := fx.svc.Execute(context.Background(), buyer, validInput())
	require.NoError(t, err)

	assert.True(t, result.Partial())
	assert.Equal(t, "Sambal C", result.FailedProduct)
	require.Len(t, result.OrderIDs, 1)

	// A is committed and paid, C is cancelled, C's stock is untouched.
	orderA := fx.orders.byProduct("Keripik A")
	require.NotNil(t, orderA)
	assert.Equal(t, enums.OrderStatusPaid, orderA.Status)

	orderC := fx.orders.byProduct("Sambal C")
	require.NotNil(t, orderC)
	assert.Equal(t, enums.OrderStatusCancelled, orderC.Status)

	assert.Equal(t, 3, fx.products.products[productA.ID].Stock)
	assert.Equal(t, 3, fx.products.products[productC.ID].Stock)

	// Payment covers only the committed line.
	assert.Equal(t, int64(20000), fx.strategy.last.Amount)
}

func TestExecuteFirstLineDecrementFailureIsOverallError(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t)
	productA := fx.products.add("Keripik A", 10000, 5, true)
	fx.products.failDecrement[productA.ID] = pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for Keripik A")
	fx.cart.cart = cartWith(buyer, lineFor(productA, 2))

	_, err := fx.svc.Execute(context.Background(), buyer, validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// The inserted order was compensated to cancelled.
	order := fx.orders.byProduct("Keripik A")
	require.NotNil(t, order)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	assert.Zero(t, fx.strategy.called)
}

func TestExecuteFirstLineInsertFailureIsOverallError(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t)
	productA := fx.products.add("Keripik A", 10000, 5, true)
	fx.orders.insertErr["Keripik A"] = pkgerrors.New(pkgerrors.CodeDependency, "insert failed")
	fx.cart.cart = cartWith(buyer, lineFor(productA, 1))

	_, err := fx.svc.Execute(context.Background(), buyer, validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.Equal(t, 5, fx.products.products[productA.ID].Stock)
}

func TestExecuteEmptyCartRejectedBeforeAnyWork(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t)

	_, err := fx.svc.Execute(context.Background(), buyer, validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Zero(t, fx.products.fetchCalls)
}

func TestExecutePreconditionsCheckedBeforeCartLoad(t *testing.T) {
	t.Parallel()

	fx := newEngine(t)

	_, err := fx.svc.Execute(context.Background(), uuid.Nil, validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Zero(t, fx.cart.calls)

	input := validInput()
	input.ShippingAddr = "  "
	_, err = fx.svc.Execute(context.Background(), uuid.New(), input)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), "address")

	input = validInput()
	input.PaymentMethod = "barter"
	_, err = fx.svc.Execute(context.Background(), uuid.New(), input)
	require.Error(t, err)
	assert.Zero(t, fx.cart.calls)
}

func TestExecuteHostedStrategyLeavesOrdersPending(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t, func(fx *engineFixture) {
		fx.strategy.outcome = &payments.Outcome{
			Settled:     false,
			RedirectURL: "https://square.link/u/abc123",
			Fee:         4900,
		}
	})
	productA := fx.products.add("Keripik A", 100000, 5, true)
	fx.cart.cart = cartWith(buyer, lineFor(productA, 1))

	input := validInput()
	input.PaymentMethod = enums.PaymentMethodCard

	result, err := fx.svc.Execute(context.Background(), buyer, input)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPendingPayment, result.Status)
	assert.Equal(t, "https://square.link/u/abc123", result.RedirectURL)
	assert.Equal(t, int64(4900), result.PaymentFee)

	order := fx.orders.byProduct("Keripik A")
	require.NotNil(t, order)
	assert.Equal(t, enums.OrderStatusPendingPayment, order.Status)
}

func TestExecutePaidStatusUpdateFailureIsSoft(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t)
	productA := fx.products.add("Keripik A", 10000, 5, true)
	fx.orders.statusErrs[enums.OrderStatusPaid] = pkgerrors.New(pkgerrors.CodeDependency, "write failed")
	fx.cart.cart = cartWith(buyer, lineFor(productA, 1))

	result, err := fx.svc.Execute(context.Background(), buyer, validInput())
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, result.Status)

	// The row itself stays pending for reconciliation.
	order := fx.orders.byProduct("Keripik A")
	require.NotNil(t, order)
	assert.Equal(t, enums.OrderStatusPendingPayment, order.Status)
}

func TestExecuteStepTimeoutSurfacesTimeoutError(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	fx := newEngine(t, func(fx *engineFixture) {
		fx.strategy.block = true
	})
	productA := fx.products.add("Keripik A", 10000, 5, true)
	fx.cart.cart = cartWith(buyer, lineFor(productA, 1))

	svc, err := NewService(
		fx.cart,
		fx.products,
		fx.orders,
		fx.strategy,
		noopTxRunner{},
		fx.outbox,
		metrics.NewCheckoutMetrics(nil),
		config.CheckoutConfig{StepTimeout: 20 * time.Millisecond},
		logger.New(logger.Options{ServiceName: "checkout-test"}),
	)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), buyer, validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeTimeout, typed.Code())
}
