package handlers

import (
	"net/http"

	"github.com/rollcall-dev/rollcall/internal/stats"
)

// StatsHandler serves attendance summaries.
type StatsHandler struct {
	aggregator *stats.Aggregator
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(aggregator *stats.Aggregator) *StatsHandler {
	return &StatsHandler{aggregator: aggregator}
}

// Get computes the attendance summary for the query filters.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.aggregator.Summarize(r.Context(), attendanceFilter(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "computing stats failed")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
