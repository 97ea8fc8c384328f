// Package store abstracts the shared aggregate store. The interface exposes
// only atomic single-key primitives: hash field increments and sorted-set
// score increments. Keys come into existence on first increment; reads of
// untouched keys return empty results, not errors. No multi-key transaction
// discipline is offered or assumed.
package store

import (
	"context"
	"time"

	"github.com/tallyworks/orderstats/internal/models"
)

// Store is the aggregate store shared by all consumer instances and the
// read API. Every write primitive is atomic at single-key granularity.
type Store interface {
	// HIncrBy atomically adds n to an integer hash field.
	HIncrBy(ctx context.Context, key, field string, n int64) error
	// HIncrByFloat atomically adds v to a float hash field.
	HIncrByFloat(ctx context.Context, key, field string, v float64) error
	// ZIncrBy atomically adds delta to member's sorted-set score, creating
	// the member at delta if absent.
	ZIncrBy(ctx context.Context, key string, delta float64, member string) error

	// HGetAll returns all fields of a hash. An untouched key yields an
	// empty map and no error.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// TopN returns up to n members of a sorted set in descending score order.
	TopN(ctx context.Context, key string, n int64) ([]models.RankedUser, error)
	// ZCard returns the member count of a sorted set (0 if untouched).
	ZCard(ctx context.Context, key string) (int64, error)

	// Ping probes store reachability and reports the round-trip latency.
	Ping(ctx context.Context) (time.Duration, error)

	Close() error
}
