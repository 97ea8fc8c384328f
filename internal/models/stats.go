package models

import "fmt"

// Aggregate store key schema. Hash keys hold the counter views, the two
// sorted sets hold the leaderboards. Keys are created implicitly on first
// increment and only ever grow.
const (
	KeyGlobalStats      = "global:stats"
	KeySpendLeaderboard = "users:by_spend"
	KeyCountLeaderboard = "users:by_count"
)

// Hash field names within the aggregate views.
const (
	FieldOrderCount   = "order_count"
	FieldTotalSpend   = "total_spend"
	FieldTotalOrders  = "total_orders"
	FieldTotalRevenue = "total_revenue"
	FieldDateOrders   = "orders"
	FieldDateRevenue  = "revenue"
)

// UserKey returns the per-user stats hash key.
func UserKey(userID string) string { return fmt.Sprintf("user:%s", userID) }

// DateKey returns the per-calendar-day stats hash key.
func DateKey(day string) string { return fmt.Sprintf("stats:%s", day) }

// UserStats is the read model for one user's aggregate view.
type UserStats struct {
	UserID     string  `json:"user_id"`
	OrderCount int64   `json:"order_count"`
	TotalSpend float64 `json:"total_spend"`
}

// GlobalStats is the read model for the global aggregate view. It also
// serves date-range queries, which sum per-day hashes into the same shape.
type GlobalStats struct {
	TotalOrders  int64   `json:"total_orders"`
	TotalRevenue float64 `json:"total_revenue"`
}

// RankedUser is one leaderboard entry with its raw sorted-set score.
type RankedUser struct {
	UserID string
	Score  float64
}
