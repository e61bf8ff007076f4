package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	redispkg "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/redis"
)

// Carts persist for 30 days of inactivity; every save refreshes the TTL.
const cartTTL = 30 * 24 * time.Hour

// Store persists the whole cart snapshot to redis on every mutation.
type Store struct {
	kv   redispkg.KV
	logg *logger.Logger
}

// NewStore builds a redis-backed cart store.
func NewStore(kv redispkg.KV, logg *logger.Logger) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis kv required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{kv: kv, logg: logg}, nil
}

// Load returns the buyer's cart. A missing key yields an empty cart; a
// corrupt payload is discarded and also yields an empty cart.
func (s *Store) Load(ctx context.Context, buyerID uuid.UUID) (*Cart, error) {
	key := redispkg.CartKey(buyerID.String())
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redispkg.Nil) {
			return &Cart{BuyerID: buyerID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"buyer_id": buyerID.String()})
		s.logg.Warn(logCtx, "discarding corrupt cart payload")
		if delErr := s.kv.Del(ctx, key); delErr != nil {
			s.logg.Error(logCtx, "deleting corrupt cart", delErr)
		}
		return &Cart{BuyerID: buyerID}, nil
	}
	cart.BuyerID = buyerID
	return &cart, nil
}

// Save writes the full cart snapshot.
func (s *Store) Save(ctx context.Context, cart *Cart) error {
	if cart == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is required")
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	key := redispkg.CartKey(cart.BuyerID.String())
	if err := s.kv.Set(ctx, key, string(payload), cartTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

// Clear deletes the buyer's cart key.
func (s *Store) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if err := s.kv.Del(ctx, redispkg.CartKey(buyerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
