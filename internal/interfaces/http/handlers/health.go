package handlers

import (
	"net/http"
	"time"

	"github.com/tallyworks/orderstats/internal/models"
)

// HealthResponse reports store reachability and probe latency.
type HealthResponse struct {
	Status    string    `json:"status"`
	StoreMS   float64   `json:"store_latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health: a live store probe with measured latency.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	latency, err := h.store.Ping(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		StoreMS:   float64(latency.Microseconds()) / 1000.0,
		Timestamp: time.Now().UTC(),
	})
}

// MetricsResponse is the domain stats summary served at /metrics.
type MetricsResponse struct {
	TotalOrders   int64   `json:"total_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	UniqueUsers   int64   `json:"unique_users"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// Metrics handles GET /metrics: global stats plus unique-user count and
// average order value. Unique users is the count-leaderboard cardinality,
// since every aggregated order touches that set.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	fields, err := h.store.HGetAll(r.Context(), models.KeyGlobalStats)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	users, err := h.store.ZCard(r.Context(), models.KeyCountLeaderboard)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	orders := hashInt(fields, models.FieldTotalOrders)
	revenue := hashFloat(fields, models.FieldTotalRevenue)
	divisor := orders
	if divisor < 1 {
		divisor = 1
	}
	h.writeJSON(w, http.StatusOK, MetricsResponse{
		TotalOrders:   orders,
		TotalRevenue:  revenue,
		UniqueUsers:   users,
		AvgOrderValue: revenue / float64(divisor),
	})
}
