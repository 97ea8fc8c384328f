package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tallyworks/orderstats/internal/models"
)

// UserStats handles GET /users/{id}/stats. A user whose key was never
// touched by the aggregator is a 404.
func (h *Handlers) UserStats(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	fields, err := h.store.HGetAll(r.Context(), models.UserKey(userID))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if len(fields) == 0 {
		h.writeError(w, r, http.StatusNotFound, "user_not_found",
			"no stats recorded for this user")
		return
	}

	h.writeJSON(w, http.StatusOK, models.UserStats{
		UserID:     userID,
		OrderCount: hashInt(fields, models.FieldOrderCount),
		TotalSpend: hashFloat(fields, models.FieldTotalSpend),
	})
}

// GlobalStats handles GET /stats/global. An untouched key reads as zeros.
func (h *Handlers) GlobalStats(w http.ResponseWriter, r *http.Request) {
	fields, err := h.store.HGetAll(r.Context(), models.KeyGlobalStats)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.GlobalStats{
		TotalOrders:  hashInt(fields, models.FieldTotalOrders),
		TotalRevenue: hashFloat(fields, models.FieldTotalRevenue),
	})
}

type spenderEntry struct {
	UserID     string  `json:"user_id"`
	TotalSpend float64 `json:"total_spend"`
}

// TopSpenders handles GET /stats/top-spenders?limit=N.
func (h *Handlers) TopSpenders(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}

	ranked, err := h.store.TopN(r.Context(), models.KeySpendLeaderboard, limit)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	entries := make([]spenderEntry, 0, len(ranked))
	for _, user := range ranked {
		entries = append(entries, spenderEntry{UserID: user.UserID, TotalSpend: user.Score})
	}
	h.writeJSON(w, http.StatusOK, entries)
}

type buyerEntry struct {
	UserID     string `json:"user_id"`
	OrderCount int64  `json:"order_count"`
}

// TopBuyers handles GET /stats/top-buyers?limit=N.
func (h *Handlers) TopBuyers(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}

	ranked, err := h.store.TopN(r.Context(), models.KeyCountLeaderboard, limit)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	entries := make([]buyerEntry, 0, len(ranked))
	for _, user := range ranked {
		entries = append(entries, buyerEntry{UserID: user.UserID, OrderCount: int64(user.Score)})
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// StatsByDate handles GET /stats/by-date?start_date&end_date: every calendar
// day in the inclusive range is looked up independently, absent days count
// as zero, and the caller gets the sum.
func (h *Handlers) StatsByDate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, err := parseDay(query.Get("start_date"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_date",
			"start_date must be YYYY-MM-DD")
		return
	}
	end, err := parseDay(query.Get("end_date"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_date",
			"end_date must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		h.writeError(w, r, http.StatusBadRequest, "invalid_range",
			"end_date precedes start_date")
		return
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		h.writeError(w, r, http.StatusBadRequest, "range_too_wide",
			"date range exceeds 366 days")
		return
	}

	var total models.GlobalStats
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		fields, err := h.store.HGetAll(r.Context(), models.DateKey(day.Format("2006-01-02")))
		if err != nil {
			h.storeError(w, r, err)
			return
		}
		total.TotalOrders += hashInt(fields, models.FieldDateOrders)
		total.TotalRevenue += hashFloat(fields, models.FieldDateRevenue)
	}
	h.writeJSON(w, http.StatusOK, total)
}
