package handlers

import (
	"net/http"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/reconciler"
)

// SyncHandler triggers reconciliation of pending attendance reports.
type SyncHandler struct {
	reconciler *reconciler.Reconciler
	store      database.AttendanceStore
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(rec *reconciler.Reconciler, store database.AttendanceStore) *SyncHandler {
	return &SyncHandler{reconciler: rec, store: store}
}

// SyncResponse reports the outcome of one reconcile run.
type SyncResponse struct {
	Synced int      `json:"synced"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// Trigger runs one reconcile pass over the pending queue.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciler.ReconcileAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	respondJSON(w, http.StatusOK, SyncResponse{
		Synced: result.Synced,
		Failed: result.Failed,
		Errors: result.Errors,
	})
}

// Pending lists records still waiting for delivery.
func (h *SyncHandler) Pending(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListPending(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing pending records failed")
		return
	}

	out := make([]AttendanceResponse, 0, len(records))
	for i := range records {
		out = append(out, attendanceResponse(&records[i]))
	}
	respondJSON(w, http.StatusOK, out)
}
