package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/outbox"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/pagination"
)

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type recordingOutbox struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type recordingReleaser struct {
	mu       sync.Mutex
	released map[uuid.UUID]int
}

func (r *recordingReleaser) Release(_ context.Context, _ *gorm.DB, productID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released == nil {
		r.released = map[uuid.UUID]int{}
	}
	r.released[productID] += qty
	return nil
}

func newOrdersService(t *testing.T) (Service, *gorm.DB, *recordingOutbox, *recordingReleaser) {
	t.Helper()
	db := setupOrdersTestDB(t)
	svc, publisher, releaser := newOrdersServiceWithRepo(t, db, NewRepository(db))
	return svc, db, publisher, releaser
}

func newOrdersServiceWithRepo(t *testing.T, db *gorm.DB, repo Repository) (Service, *recordingOutbox, *recordingReleaser) {
	t.Helper()

	publisher := &recordingOutbox{}
	releaser := &recordingReleaser{}
	svc, err := NewService(
		repo,
		sqliteTxRunner{db: db},
		publisher,
		releaser,
		logger.New(logger.Options{ServiceName: "orders-test"}),
	)
	require.NoError(t, err)
	return svc, publisher, releaser
}

// staleReadRepo serves reads from a snapshot taken before a concurrent
// writer landed; writes still hit the live rows. WithTx is inherited, so
// everything inside a transaction sees the real repository.
type staleReadRepo struct {
	Repository
	status enums.OrderStatus
}

func (r staleReadRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := r.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Status = r.status
	return order, nil
}

func (r staleReadRepo) FindByCheckoutID(ctx context.Context, checkoutID uuid.UUID) ([]models.Order, error) {
	rows, err := r.Repository.FindByCheckoutID(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Status = r.status
	}
	return rows, nil
}

func TestServiceCancelPendingOrder(t *testing.T) {
	t.Parallel()

	svc, db, publisher, releaser := newOrdersService(t)
	ctx := context.Background()
	buyer := uuid.New()

	order := seedOrder(t, db, buyer, uuid.New(), enums.OrderStatusPendingPayment, time.Now().UTC())

	dto, err := svc.CancelBuyerOrder(ctx, buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)

	// Stock goes back and a cancellation event is queued.
	assert.Equal(t, order.Quantity, releaser.released[order.ProductID])
	require.Len(t, publisher.events, 1)
	assert.Equal(t, enums.EventOrderCancelled, publisher.events[0].EventType)
	assert.Equal(t, order.ID, publisher.events[0].AggregateID)
}

func TestServiceCancelRejectsNonPending(t *testing.T) {
	t.Parallel()

	svc, db, _, releaser := newOrdersService(t)
	ctx := context.Background()
	buyer := uuid.New()

	order := seedOrder(t, db, buyer, uuid.New(), enums.OrderStatusPaid, time.Now().UTC())

	_, err := svc.CancelBuyerOrder(ctx, buyer, order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Empty(t, releaser.released)
}

func TestServiceCancelLosesRaceWithWebhook(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	// The webhook already flipped the row to paid; the cancel still holds
	// the pending view it read beforehand.
	svc, publisher, releaser := newOrdersServiceWithRepo(t, db, staleReadRepo{
		Repository: NewRepository(db),
		status:     enums.OrderStatusPendingPayment,
	})
	ctx := context.Background()
	buyer := uuid.New()

	order := seedOrder(t, db, buyer, uuid.New(), enums.OrderStatusPaid, time.Now().UTC())

	_, err := svc.CancelBuyerOrder(ctx, buyer, order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// The paid row keeps its status, no stock comes back, no event leaves.
	got, err := NewRepository(db).FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, got.Status)
	assert.Empty(t, releaser.released)
	assert.Empty(t, publisher.events)
}

func TestServiceMarkCheckoutPaidSkipsConcurrentlyCancelledRow(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc, publisher, _ := newOrdersServiceWithRepo(t, db, staleReadRepo{
		Repository: NewRepository(db),
		status:     enums.OrderStatusPendingPayment,
	})
	ctx := context.Background()
	buyer := uuid.New()
	checkout := uuid.New()
	now := time.Now().UTC()

	pending := seedOrder(t, db, buyer, checkout, enums.OrderStatusPendingPayment, now)
	cancelled := seedOrder(t, db, buyer, checkout, enums.OrderStatusCancelled, now.Add(time.Second))

	updated, err := svc.MarkCheckoutPaid(ctx, checkout)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, pending.ID, publisher.events[0].AggregateID)

	rows, err := NewRepository(db).FindByCheckoutID(ctx, checkout)
	require.NoError(t, err)
	for _, row := range rows {
		if row.ID == cancelled.ID {
			assert.Equal(t, enums.OrderStatusCancelled, row.Status)
		} else {
			assert.Equal(t, enums.OrderStatusPaid, row.Status)
		}
	}
}

func TestServiceCancelRejectsForeignBuyer(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newOrdersService(t)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusPendingPayment, time.Now().UTC())

	_, err := svc.CancelBuyerOrder(ctx, uuid.New(), order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestServiceTransitionStatusHappyPath(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newOrdersService(t)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusPaid, time.Now().UTC())

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusPacked,
		enums.OrderStatusShipped,
		enums.OrderStatusCompleted,
	} {
		dto, err := svc.TransitionStatus(ctx, order.ID, next, nil)
		require.NoError(t, err)
		assert.Equal(t, next, dto.Status)
	}
}

func TestServiceTransitionStatusRejectsSkips(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newOrdersService(t)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusPendingPayment, time.Now().UTC())

	_, err := svc.TransitionStatus(ctx, order.ID, enums.OrderStatusShipped, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = svc.TransitionStatus(ctx, order.ID, "teleported", nil)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceMarkCheckoutPaid(t *testing.T) {
	t.Parallel()

	svc, db, publisher, _ := newOrdersService(t)
	ctx := context.Background()
	buyer := uuid.New()
	checkout := uuid.New()
	now := time.Now().UTC()

	seedOrder(t, db, buyer, checkout, enums.OrderStatusPendingPayment, now)
	seedOrder(t, db, buyer, checkout, enums.OrderStatusPendingPayment, now.Add(time.Second))
	cancelled := seedOrder(t, db, buyer, checkout, enums.OrderStatusCancelled, now.Add(2*time.Second))

	updated, err := svc.MarkCheckoutPaid(ctx, checkout)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Len(t, publisher.events, 2)

	// The cancelled row is untouched and a replayed webhook is a no-op.
	rows, err := NewRepository(db).FindByCheckoutID(ctx, checkout)
	require.NoError(t, err)
	for _, row := range rows {
		if row.ID == cancelled.ID {
			assert.Equal(t, enums.OrderStatusCancelled, row.Status)
		} else {
			assert.Equal(t, enums.OrderStatusPaid, row.Status)
		}
	}

	updated, err = svc.MarkCheckoutPaid(ctx, checkout)
	require.NoError(t, err)
	assert.Zero(t, updated)

	_, err = svc.MarkCheckoutPaid(ctx, uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceBuyerCheckoutDetail(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newOrdersService(t)
	ctx := context.Background()
	buyer := uuid.New()
	checkout := uuid.New()
	now := time.Now().UTC()

	first := seedOrder(t, db, buyer, checkout, enums.OrderStatusPendingPayment, now)
	seedOrder(t, db, buyer, checkout, enums.OrderStatusPendingPayment, now.Add(time.Second))

	detail, err := svc.GetBuyerCheckout(ctx, buyer, checkout)
	require.NoError(t, err)
	assert.Equal(t, first.ID, detail.ConfirmationNumber)
	assert.Len(t, detail.Orders, 2)
	assert.Equal(t, 4, detail.TotalItems)
	assert.Equal(t, int64(60000), detail.TotalPrice)

	_, err = svc.GetBuyerCheckout(ctx, uuid.New(), checkout)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestServiceListBuyerOrders(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newOrdersService(t)
	ctx := context.Background()
	buyer := uuid.New()
	now := time.Now().UTC()

	seedOrder(t, db, buyer, uuid.New(), enums.OrderStatusPendingPayment, now)
	seedOrder(t, db, buyer, uuid.New(), enums.OrderStatusPaid, now.Add(time.Minute))

	list, err := svc.ListBuyerOrders(ctx, buyer, pagination.Params{Limit: 10}, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, list.Orders, 2)

	_, err = svc.ListBuyerOrders(ctx, uuid.Nil, pagination.Params{}, ListFilters{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}
