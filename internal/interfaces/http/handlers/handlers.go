// Package handlers implements the read API endpoints. All handlers are
// pure queries over the aggregate store; nothing here ever writes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/tallyworks/orderstats/internal/store"
)

// ctxKey is the context key type for request-scoped values.
type ctxKey string

// RequestIDKey carries the request ID set by the server middleware.
const RequestIDKey ctxKey = "request_id"

// Leaderboard limits: the default mirrors the producer-side default, the cap
// bounds a single query's work.
const (
	defaultLimit = 5
	maxLimit     = 100
)

// maxRangeDays bounds a by-date walk to one year per request.
const maxRangeDays = 366

// Handlers holds the endpoint implementations over the guarded store.
type Handlers struct {
	store store.Store
}

// New wires the handlers. Store reads go through a circuit breaker so a
// down store answers fast with 503 instead of queueing up timeouts.
func New(s store.Store) *Handlers {
	return &Handlers{store: guard(s)}
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value(RequestIDKey).(string)
	h.writeJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestID,
	})
}

// storeError maps store failures to responses. Breaker-open and transport
// errors both surface as service-unavailable; the API never fakes success
// during an outage.
func (h *Handlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		h.writeError(w, r, http.StatusServiceUnavailable, "store_unavailable",
			"aggregate store circuit open")
		return
	}
	h.writeError(w, r, http.StatusServiceUnavailable, "store_unavailable",
		"aggregate store unreachable")
}

// NotFound handles unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"the requested endpoint does not exist")
}

// limitParam parses ?limit=N with the default applied and the cap enforced.
func limitParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}

// parseDay parses a YYYY-MM-DD query value.
func parseDay(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// hashInt reads an integer field from a hash result, absent as 0.
func hashInt(fields map[string]string, name string) int64 {
	v, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// hashFloat reads a float field from a hash result, absent as 0.
func hashFloat(fields map[string]string, name string) float64 {
	v, err := strconv.ParseFloat(fields[name], 64)
	if err != nil {
		return 0
	}
	return v
}
