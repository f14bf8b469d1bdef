package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/ledger"
	"github.com/rollcall-dev/rollcall/internal/report"
)

// AttendanceHandler handles attendance marking, queries and export.
type AttendanceHandler struct {
	store  database.AttendanceStore
	ledger *ledger.Ledger
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(store database.AttendanceStore, l *ledger.Ledger) *AttendanceHandler {
	return &AttendanceHandler{store: store, ledger: l}
}

// AttendanceResponse is the JSON shape of an attendance record.
type AttendanceResponse struct {
	ID          int64  `json:"id"`
	StudentID   int64  `json:"student_id"`
	StudentName string `json:"student_name"`
	RollNo      string `json:"roll_no"`
	SubjectID   int64  `json:"subject_id"`
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	Synced      bool   `json:"synced"`
}

func attendanceResponse(rec *database.AttendanceRecord) AttendanceResponse {
	return AttendanceResponse{
		ID:          rec.ID,
		StudentID:   rec.StudentID,
		StudentName: rec.StudentName,
		RollNo:      rec.RollNo,
		SubjectID:   rec.SubjectID,
		SubjectCode: rec.SubjectCode,
		SubjectName: rec.SubjectName,
		Date:        rec.Date,
		Time:        rec.MarkedAt.Format("15:04:05"),
		Status:      string(rec.Status),
		Synced:      rec.Synced,
	}
}

type markRequest struct {
	StudentID int64  `json:"student_id"`
	SubjectID int64  `json:"subject_id"`
	Status    string `json:"status"`
	Date      string `json:"date,omitempty"` // defaults to today; setting it amends that day
}

// Mark records attendance manually. Without a date the mark lands on
// today's record; with a date it amends that day and flags the record for
// re-sync.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	status := database.Status(req.Status)
	var (
		rec *database.AttendanceRecord
		err error
	)
	if req.Date == "" {
		rec, err = h.ledger.Mark(r.Context(), req.StudentID, req.SubjectID, status)
	} else {
		rec, err = h.ledger.Amend(r.Context(), req.StudentID, req.SubjectID, req.Date, status)
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, attendanceResponse(rec))
}

func attendanceFilter(r *http.Request) database.AttendanceFilter {
	return database.AttendanceFilter{
		Date:      r.URL.Query().Get("date"),
		SubjectID: queryInt64(r, "subject_id"),
		StudentID: queryInt64(r, "student_id"),
		Branch:    r.URL.Query().Get("branch"),
		Semester:  queryInt(r, "semester"),
		Section:   r.URL.Query().Get("section"),
	}
}

// List returns attendance records matching the query filters, most
// recent first.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Query(r.Context(), attendanceFilter(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "querying attendance failed")
		return
	}

	out := make([]AttendanceResponse, 0, len(records))
	for i := range records {
		out = append(out, attendanceResponse(&records[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

// Export streams attendance records matching the query filters as CSV.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Query(r.Context(), attendanceFilter(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "querying attendance failed")
		return
	}

	filename := fmt.Sprintf("attendance_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := report.WriteCSV(w, records); err != nil {
		// Headers already sent; nothing useful left to do.
		return
	}
}
