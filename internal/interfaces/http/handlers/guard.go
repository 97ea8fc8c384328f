package handlers

import (
	"context"
	"time"

	cb "github.com/sony/gobreaker"

	"github.com/tallyworks/orderstats/internal/models"
	"github.com/tallyworks/orderstats/internal/store"
)

// guarded routes read operations through a circuit breaker. After repeated
// store failures the breaker opens and reads fail immediately until the
// store recovers; Ping stays unguarded so /health keeps probing the real
// store and drives the breaker half-open again.
type guarded struct {
	store.Store
	cb *cb.CircuitBreaker
}

func guard(s store.Store) store.Store {
	settings := cb.Settings{Name: "aggregate-store"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 10 * time.Second
	settings.ReadyToTrip = func(counts cb.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	return &guarded{Store: s, cb: cb.NewCircuitBreaker(settings)}
}

func (g *guarded) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return g.Store.HGetAll(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

func (g *guarded) TopN(ctx context.Context, key string, n int64) ([]models.RankedUser, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return g.Store.TopN(ctx, key, n)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.RankedUser), nil
}

func (g *guarded) ZCard(ctx context.Context, key string) (int64, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return g.Store.ZCard(ctx, key)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
