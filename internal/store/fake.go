package store

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/tallyworks/orderstats/internal/models"
)

// ErrUnavailable is what a Fake returns once failed. It stands in for a
// connection-level error from the real store.
var ErrUnavailable = errors.New("store unavailable")

// Fake is an in-memory Store for tests. It honors the same implicit-creation
// and empty-read semantics as the Redis implementation and can be switched
// into a failing mode to exercise outage paths.
type Fake struct {
	mu     sync.Mutex
	hashes map[string]map[string]float64
	zsets  map[string]map[string]float64
	failed bool
}

// NewFake returns an empty in-memory store.
func NewFake() *Fake {
	return &Fake{
		hashes: make(map[string]map[string]float64),
		zsets:  make(map[string]map[string]float64),
	}
}

// Fail makes every subsequent call return ErrUnavailable.
func (f *Fake) Fail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = fail
}

func (f *Fake) HIncrBy(ctx context.Context, key, field string, n int64) error {
	return f.HIncrByFloat(ctx, key, field, float64(n))
}

func (f *Fake) HIncrByFloat(_ context.Context, key, field string, v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return ErrUnavailable
	}
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]float64)
	}
	f.hashes[key][field] += v
	return nil
}

func (f *Fake) ZIncrBy(_ context.Context, key string, delta float64, member string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return ErrUnavailable
	}
	if f.zsets[key] == nil {
		f.zsets[key] = make(map[string]float64)
	}
	f.zsets[key][member] += delta
	return nil
}

func (f *Fake) HGetAll(_ context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return nil, ErrUnavailable
	}
	out := make(map[string]string, len(f.hashes[key]))
	for field, v := range f.hashes[key] {
		out[field] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out, nil
}

func (f *Fake) TopN(_ context.Context, key string, n int64) ([]models.RankedUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return nil, ErrUnavailable
	}
	ranked := make([]models.RankedUser, 0, len(f.zsets[key]))
	for member, score := range f.zsets[key] {
		ranked = append(ranked, models.RankedUser{UserID: member, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].UserID > ranked[j].UserID
	})
	if int64(len(ranked)) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

func (f *Fake) ZCard(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return 0, ErrUnavailable
	}
	return int64(len(f.zsets[key])), nil
}

func (f *Fake) Ping(_ context.Context) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return 0, ErrUnavailable
	}
	return time.Microsecond, nil
}

func (f *Fake) Close() error { return nil }

// Hash returns a copy of one hash's numeric fields, for test assertions.
func (f *Fake) Hash(key string) map[string]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]float64, len(f.hashes[key]))
	for field, v := range f.hashes[key] {
		out[field] = v
	}
	return out
}

// Score returns one sorted-set member's score, 0 if absent.
func (f *Fake) Score(key, member string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.zsets[key][member]
}
