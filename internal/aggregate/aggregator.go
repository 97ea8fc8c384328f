// Package aggregate folds validated orders into the derived aggregate views.
package aggregate

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tallyworks/orderstats/internal/models"
	"github.com/tallyworks/orderstats/internal/store"
)

// Aggregator is the sole writer of the aggregate views. It must only be
// handed orders that already passed validation.
type Aggregator struct {
	store store.Store
}

// New returns an Aggregator writing through the given store.
func New(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// Apply folds one valid order into all five views: per-user stats, global
// stats, both leaderboards, and the order's calendar-day bucket. Each
// increment is atomic on its own key but the group is not a transaction; a
// store error aborts the remaining updates and propagates without rolling
// back the ones already applied. The caller owns the retry/ack decision.
func (a *Aggregator) Apply(ctx context.Context, ord models.Order) error {
	userKey := models.UserKey(ord.UserID)
	if err := a.store.HIncrBy(ctx, userKey, models.FieldOrderCount, 1); err != nil {
		return err
	}
	if err := a.store.HIncrByFloat(ctx, userKey, models.FieldTotalSpend, ord.OrderValue); err != nil {
		return err
	}

	if err := a.store.HIncrBy(ctx, models.KeyGlobalStats, models.FieldTotalOrders, 1); err != nil {
		return err
	}
	if err := a.store.HIncrByFloat(ctx, models.KeyGlobalStats, models.FieldTotalRevenue, ord.OrderValue); err != nil {
		return err
	}

	if err := a.store.ZIncrBy(ctx, models.KeySpendLeaderboard, ord.OrderValue, ord.UserID); err != nil {
		return err
	}
	if err := a.store.ZIncrBy(ctx, models.KeyCountLeaderboard, 1, ord.UserID); err != nil {
		return err
	}

	dateKey := models.DateKey(ord.DateBucket())
	if err := a.store.HIncrBy(ctx, dateKey, models.FieldDateOrders, 1); err != nil {
		return err
	}
	if err := a.store.HIncrByFloat(ctx, dateKey, models.FieldDateRevenue, ord.OrderValue); err != nil {
		return err
	}

	log.Debug().
		Str("order_id", ord.OrderID).
		Str("user_id", ord.UserID).
		Float64("order_value", ord.OrderValue).
		Msg("order aggregated")
	return nil
}
