package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	redispkg "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/redis"
)

func newTestStore(t *testing.T) (*Store, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	store, err := NewStore(kv, logger.New(logger.Options{ServiceName: "cart-test"}))
	require.NoError(t, err)
	return store, kv
}

func TestStoreLoadMissingYieldsEmptyCart(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	buyer := uuid.New()

	cart, err := store.Load(context.Background(), buyer)
	require.NoError(t, err)
	assert.Equal(t, buyer, cart.BuyerID)
	assert.True(t, cart.IsEmpty())
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	buyer := uuid.New()

	cart := &Cart{
		BuyerID: buyer,
		Lines: []Line{
			{ProductID: uuid.New(), ProductName: "Sambal Roa", UnitPrice: 35000, Quantity: 2},
			{ProductID: uuid.New(), ProductName: "Kerupuk Udang", UnitPrice: 12000, Quantity: 1},
		},
	}
	require.NoError(t, store.Save(ctx, cart))

	loaded, err := store.Load(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, cart.Lines, loaded.Lines)

	totals := loaded.Totals()
	assert.Equal(t, 3, totals.TotalItems)
	assert.Equal(t, int64(82000), totals.TotalPrice)
}

func TestStoreCorruptPayloadDiscarded(t *testing.T) {
	t.Parallel()

	store, kv := newTestStore(t)
	ctx := context.Background()
	buyer := uuid.New()
	key := redispkg.CartKey(buyer.String())

	require.NoError(t, kv.Set(ctx, key, "{not json", 0))

	cart, err := store.Load(ctx, buyer)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	// The bad payload is deleted, not left to fail again.
	_, err = kv.Get(ctx, key)
	assert.ErrorIs(t, err, redispkg.Nil)
}

func TestStoreClear(t *testing.T) {
	t.Parallel()

	store, kv := newTestStore(t)
	ctx := context.Background()
	buyer := uuid.New()

	require.NoError(t, store.Save(ctx, &Cart{BuyerID: buyer, Lines: []Line{{ProductID: uuid.New(), Quantity: 1}}}))
	require.NoError(t, store.Clear(ctx, buyer))

	_, err := kv.Get(ctx, redispkg.CartKey(buyer.String()))
	assert.ErrorIs(t, err, redispkg.Nil)
}
