package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annisahuljannah/cadoobag/pkg/redis"
)

// CallbackGuard deduplicates gateway callback deliveries at the edge. The
// state machine already converges on replays; the guard just spares the
// database the round-trips for bursts of identical retries.
type CallbackGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

// NewCallbackGuard builds a guard over the given idempotency store.
func NewCallbackGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*CallbackGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &CallbackGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

// CheckAndMark records a (merchant ref, status) delivery and reports
// whether it was already seen.
func (g *CallbackGuard) CheckAndMark(ctx context.Context, merchantRef, status string) (bool, error) {
	if merchantRef == "" {
		return false, errors.New("merchant ref is required")
	}
	key := g.store.IdempotencyKey(g.scope, merchantRef+":"+status)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete clears a delivery mark so the next identical callback is
// processed again, used when handling failed mid-way.
func (g *CallbackGuard) Delete(ctx context.Context, merchantRef, status string) error {
	if merchantRef == "" {
		return errors.New("merchant ref is required")
	}
	key := g.store.IdempotencyKey(g.scope, merchantRef+":"+status)
	return g.store.Del(ctx, key)
}
