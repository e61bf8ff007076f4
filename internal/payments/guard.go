package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	redispkg "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/redis"
)

// IdempotencyGuard deduplicates webhook deliveries by event id. A marked
// event is unmarked again when handling fails so the gateway's retry can
// land.
type IdempotencyGuard struct {
	store    redispkg.KV
	ttl      time.Duration
	provider string
}

func NewIdempotencyGuard(store redispkg.KV, ttl time.Duration, provider string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	return &IdempotencyGuard{
		store:    store,
		ttl:      ttl,
		provider: provider,
	}, nil
}

// CheckAndMark reports whether the event was already seen, marking it as
// seen otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := redispkg.WebhookEventKey(g.provider, eventID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook event key: %w", err)
	}
	return !set, nil
}

func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := redispkg.WebhookEventKey(g.provider, eventID)
	return g.store.Del(ctx, key)
}
