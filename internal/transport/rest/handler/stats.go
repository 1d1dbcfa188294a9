package handler

import (
	"encoding/json"
	"net/http"

	"pairfocus/internal/model"
	"pairfocus/internal/service"
	"pairfocus/internal/transport/rest/middleware"
)

// StatsHandler handles focus-time accounting and the global ranking
type StatsHandler struct {
	statsSvc *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsSvc *service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// AddTime handles POST /add_time
func (h *StatsHandler) AddTime(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())
	if username == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.AddTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Seconds <= 0 {
		writeError(w, http.StatusBadRequest, "seconds must be positive")
		return
	}

	total, err := h.statsSvc.AddTime(r.Context(), username, req.Seconds)
	if err == service.ErrUserNotFound {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.AddTimeResponse{
		Message:         "time added",
		NewTotalSeconds: total,
	})
}

// Ranking handles GET /ranking
func (h *StatsHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	entries, err := h.statsSvc.Ranking(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
