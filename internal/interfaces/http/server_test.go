package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyworks/orderstats/internal/aggregate"
	"github.com/tallyworks/orderstats/internal/interfaces/http/handlers"
	"github.com/tallyworks/orderstats/internal/models"
	"github.com/tallyworks/orderstats/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Fake) {
	t.Helper()
	fake := store.NewFake()
	cfg := DefaultServerConfig()
	cfg.RequestTimeout = time.Second
	s := NewServer(cfg, handlers.New(fake), NewMetrics(prometheus.NewRegistry()))
	return s, fake
}

func seed(t *testing.T, fake *store.Fake, orders ...models.Order) {
	t.Helper()
	agg := aggregate.New(fake)
	for _, ord := range orders {
		require.NoError(t, agg.Apply(context.Background(), ord))
	}
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec, rec.Body.Bytes()
}

func TestUserStats(t *testing.T) {
	s, fake := newTestServer(t)
	seed(t, fake,
		models.Order{OrderID: "ORD1", UserID: "U1", OrderValue: 50, OrderTimestamp: "2024-03-15T10:00:00Z"},
		models.Order{OrderID: "ORD2", UserID: "U1", OrderValue: 25.5, OrderTimestamp: "2024-03-16T10:00:00Z"},
	)

	rec, body := get(t, s, "/users/U1/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.UserStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, "U1", stats.UserID)
	assert.Equal(t, int64(2), stats.OrderCount)
	assert.Equal(t, 75.5, stats.TotalSpend)
}

func TestUserStats_UnknownUserIs404(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := get(t, s, "/users/ghost/stats")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, string(body), "user_not_found")
}

func TestGlobalStats_EmptyStoreReadsAsZeros(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := get(t, s, "/stats/global")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.GlobalStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.TotalRevenue)
}

func TestGlobalStats_AfterAggregation(t *testing.T) {
	s, fake := newTestServer(t)
	seed(t, fake, models.Order{OrderID: "ORD1", UserID: "U1", OrderValue: 50, OrderTimestamp: "2024-03-15T10:00:00Z"})

	rec, body := get(t, s, "/stats/global")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.GlobalStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(1), stats.TotalOrders)
	assert.Equal(t, 50.0, stats.TotalRevenue)
}

func TestTopSpenders(t *testing.T) {
	s, fake := newTestServer(t)
	seed(t, fake,
		models.Order{OrderID: "O1", UserID: "U1", OrderValue: 10, OrderTimestamp: "2024-03-15T10:00:00Z"},
		models.Order{OrderID: "O2", UserID: "U2", OrderValue: 30, OrderTimestamp: "2024-03-15T10:00:00Z"},
		models.Order{OrderID: "O3", UserID: "U3", OrderValue: 20, OrderTimestamp: "2024-03-15T10:00:00Z"},
	)

	rec, body := get(t, s, "/stats/top-spenders?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		UserID     string  `json:"user_id"`
		TotalSpend float64 `json:"total_spend"`
	}
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "U2", entries[0].UserID)
	assert.Equal(t, 30.0, entries[0].TotalSpend)
	assert.Equal(t, "U3", entries[1].UserID)
	assert.Equal(t, 20.0, entries[1].TotalSpend)
}

func TestTopBuyers(t *testing.T) {
	s, fake := newTestServer(t)
	seed(t, fake,
		models.Order{OrderID: "O1", UserID: "U1", OrderValue: 5, OrderTimestamp: "2024-03-15T10:00:00Z"},
		models.Order{OrderID: "O2", UserID: "U1", OrderValue: 5, OrderTimestamp: "2024-03-15T10:00:00Z"},
		models.Order{OrderID: "O3", UserID: "U2", OrderValue: 500, OrderTimestamp: "2024-03-15T10:00:00Z"},
	)

	rec, body := get(t, s, "/stats/top-buyers?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		UserID     string `json:"user_id"`
		OrderCount int64  `json:"order_count"`
	}
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "U1", entries[0].UserID)
	assert.Equal(t, int64(2), entries[0].OrderCount)
}

func TestLeaderboards_BadLimit(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/stats/top-spenders?limit=abc", "/stats/top-buyers?limit=-1"} {
		rec, _ := get(t, s, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestStatsByDate(t *testing.T) {
	s, fake := newTestServer(t)
	seed(t, fake,
		models.Order{OrderID: "O1", UserID: "U1", OrderValue: 10, OrderTimestamp: "2024-03-14T23:59:59Z"},
		models.Order{OrderID: "O2", UserID: "U1", OrderValue: 20, OrderTimestamp: "2024-03-15T00:00:00Z"},
		models.Order{OrderID: "O3", UserID: "U2", OrderValue: 40, OrderTimestamp: "2024-03-17T12:00:00Z"},
	)

	// 2024-03-16 has no orders and counts as zero.
	rec, body := get(t, s, "/stats/by-date?start_date=2024-03-15&end_date=2024-03-17")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.GlobalStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, 60.0, stats.TotalRevenue)
}

func TestStatsByDate_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	cases := []string{
		"/stats/by-date?start_date=2024-03-15",
		"/stats/by-date?start_date=15-03-2024&end_date=2024-03-17",
		"/stats/by-date?start_date=2024-03-17&end_date=2024-03-15",
		"/stats/by-date?start_date=2020-01-01&end_date=2024-01-01",
	}
	for _, path := range cases {
		rec, _ := get(t, s, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestHealth(t *testing.T) {
	s, fake := newTestServer(t)

	rec, body := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), `"healthy"`)

	fake.Fail(true)
	rec, body = get(t, s, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, string(body), `"unhealthy"`)
}

func TestMetricsSummary(t *testing.T) {
	s, fake := newTestServer(t)
	seed(t, fake,
		models.Order{OrderID: "O1", UserID: "U1", OrderValue: 10, OrderTimestamp: "2024-03-15T10:00:00Z"},
		models.Order{OrderID: "O2", UserID: "U2", OrderValue: 30, OrderTimestamp: "2024-03-15T10:00:00Z"},
	)

	rec, body := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary handlers.MetricsResponse
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, int64(2), summary.TotalOrders)
	assert.Equal(t, 40.0, summary.TotalRevenue)
	assert.Equal(t, int64(2), summary.UniqueUsers)
	assert.Equal(t, 20.0, summary.AvgOrderValue)
}

func TestMetricsSummary_EmptyStore(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary handlers.MetricsResponse
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Zero(t, summary.TotalOrders)
	assert.Zero(t, summary.AvgOrderValue)
}

func TestStoreOutageIs503(t *testing.T) {
	s, fake := newTestServer(t)
	fake.Fail(true)

	for _, path := range []string{
		"/stats/global",
		"/users/U1/stats",
		"/stats/top-spenders",
		"/metrics",
		"/stats/by-date?start_date=2024-03-15&end_date=2024-03-15",
	} {
		rec, body := get(t, s, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Contains(t, string(body), "store_unavailable", path)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := get(t, s, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, string(body), "endpoint_not_found")
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t)

	rec, _ := get(t, s, "/stats/global")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
