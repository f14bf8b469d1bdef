package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/mock"
	"github.com/rollcall-dev/rollcall/internal/gallery"
	"github.com/rollcall-dev/rollcall/internal/ledger"
	"github.com/rollcall-dev/rollcall/internal/recognize"
)

func recognizeFixture(t *testing.T, encoder recognize.Encoder) (*RecognizeHandler, *mock.AttendanceStore, *mock.SettingStore) {
	t.Helper()
	students := mock.NewStudentStore()
	subjects := mock.NewSubjectStore()
	attendance := mock.NewAttendanceStore(students, subjects)
	settings := mock.NewSettingStore()

	encoding := make([]float32, database.EncodingDim)
	encoding[0] = 0.2
	students.Add(database.Student{ID: 1, RollNo: "CS001", Name: "Priya Nair", Encoding: encoding})
	subjects.Add(database.Subject{ID: 1, Code: "MA101", Name: "Mathematics"})

	idx := gallery.New(students)
	if _, err := idx.Reload(context.Background()); err != nil {
		t.Fatalf("loading gallery: %v", err)
	}

	return NewRecognizeHandler(encoder, idx, ledger.New(attendance), settings, 0.6), attendance, settings
}

func TestRecognizeHandler_Process(t *testing.T) {
	encoding := make([]float32, database.EncodingDim)
	encoding[0] = 0.2
	encoder := &stubEncoder{detections: []recognize.Detection{{Encoding: encoding}}}
	handler, attendance, _ := recognizeFixture(t, encoder)

	req := httptest.NewRequest("POST", "/api/v1/recognize?subject_id=1", bytes.NewReader(testJPEG(t)))
	recorder := httptest.NewRecorder()

	handler.Process(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body)
	}
	var resp RecognizeResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Faces) != 1 || !resp.Faces[0].Matched {
		t.Fatalf("expected one matched face, got %+v", resp.Faces)
	}
	if len(resp.Marked) != 1 || resp.Marked[0] != 1 {
		t.Errorf("expected student 1 marked, got %v", resp.Marked)
	}

	pending, err := attendance.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 attendance record, got %d", len(pending))
	}
}

func TestRecognizeHandler_Process_UnknownFace(t *testing.T) {
	encoding := make([]float32, database.EncodingDim)
	encoding[0] = 5.0 // far from every enrolled student
	encoder := &stubEncoder{detections: []recognize.Detection{{Encoding: encoding}}}
	handler, attendance, _ := recognizeFixture(t, encoder)

	req := httptest.NewRequest("POST", "/api/v1/recognize?subject_id=1", bytes.NewReader(testJPEG(t)))
	recorder := httptest.NewRecorder()

	handler.Process(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var resp RecognizeResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Faces) != 1 || resp.Faces[0].Matched {
		t.Errorf("expected one unmatched face, got %+v", resp.Faces)
	}
	if len(resp.Marked) != 0 {
		t.Errorf("unknown face must not mark anyone, got %v", resp.Marked)
	}

	pending, err := attendance.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no attendance records, got %d", len(pending))
	}
}

func TestRecognizeHandler_Process_NoFaces(t *testing.T) {
	encoder := &stubEncoder{err: recognize.ErrNoFaceDetected}
	handler, _, _ := recognizeFixture(t, encoder)

	req := httptest.NewRequest("POST", "/api/v1/recognize?subject_id=1", bytes.NewReader(testJPEG(t)))
	recorder := httptest.NewRecorder()

	handler.Process(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var resp RecognizeResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Faces) != 0 || len(resp.Marked) != 0 {
		t.Errorf("expected empty result, got %+v", resp)
	}
}

func TestRecognizeHandler_Process_MissingSubject(t *testing.T) {
	handler, _, _ := recognizeFixture(t, &stubEncoder{})

	req := httptest.NewRequest("POST", "/api/v1/recognize", bytes.NewReader(testJPEG(t)))
	recorder := httptest.NewRecorder()

	handler.Process(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestRecognizeHandler_Threshold_SettingsOverride(t *testing.T) {
	handler, _, settings := recognizeFixture(t, &stubEncoder{})
	req := httptest.NewRequest("GET", "/", nil)

	if got := handler.Threshold(req); got != 0.6 {
		t.Errorf("expected fallback threshold 0.6, got %v", got)
	}

	if err := settings.Set(context.Background(), database.SettingMatchThreshold, "0.45"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := handler.Threshold(req); got != 0.45 {
		t.Errorf("expected stored threshold 0.45, got %v", got)
	}

	// Out-of-range stored values fall back.
	if err := settings.Set(context.Background(), database.SettingMatchThreshold, strconv.Itoa(3)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := handler.Threshold(req); got != 0.6 {
		t.Errorf("expected fallback for invalid stored value, got %v", got)
	}
}
