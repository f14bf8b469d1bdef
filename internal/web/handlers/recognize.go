package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rollcall-dev/rollcall/internal/capture"
	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/gallery"
	"github.com/rollcall-dev/rollcall/internal/ledger"
	"github.com/rollcall-dev/rollcall/internal/recognize"
)

// RecognizeHandler turns an uploaded class photo into attendance marks.
type RecognizeHandler struct {
	encoder   recognize.Encoder
	gallery   *gallery.Index
	ledger    *ledger.Ledger
	settings  database.SettingStore
	threshold float64 // fallback when the settings table has no value
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(encoder recognize.Encoder, idx *gallery.Index, l *ledger.Ledger, settings database.SettingStore, threshold float64) *RecognizeHandler {
	return &RecognizeHandler{
		encoder:   encoder,
		gallery:   idx,
		ledger:    l,
		settings:  settings,
		threshold: threshold,
	}
}

// Threshold resolves the acceptance threshold, settings store first.
func (h *RecognizeHandler) Threshold(r *http.Request) float64 {
	if h.settings != nil {
		if v, err := h.settings.Get(r.Context(), database.SettingMatchThreshold); err == nil {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
				return f
			}
		}
	}
	return h.threshold
}

// FaceResponse is one detected face in a recognition response.
type FaceResponse struct {
	Region    recognize.Region `json:"region"`
	StudentID int64            `json:"student_id,omitempty"`
	RollNo    string           `json:"roll_no,omitempty"`
	Name      string           `json:"name,omitempty"`
	Distance  float64          `json:"distance"`
	Matched   bool             `json:"matched"`
}

// RecognizeResponse reports the outcome of one processed image.
type RecognizeResponse struct {
	Faces  []FaceResponse `json:"faces"`
	Marked []int64        `json:"marked"`
}

// Process detects faces in the uploaded image, matches them against the
// gallery, and marks every matched student present for the subject. An
// image with no faces is a normal empty result, not an error.
func (h *RecognizeHandler) Process(w http.ResponseWriter, r *http.Request) {
	subjectID := queryInt64(r, "subject_id")
	if subjectID <= 0 {
		respondError(w, http.StatusBadRequest, "subject_id is required")
		return
	}

	imageData, err := readImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "reading image failed")
		return
	}
	prepared, err := recognize.PrepareImage(imageData, recognize.MaxImageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported or corrupt image")
		return
	}

	session := capture.NewSession(h.encoder, h.gallery, h.ledger, subjectID, h.Threshold(r))
	result, err := session.ProcessFrame(r.Context(), prepared)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "face recognition failed")
		return
	}

	resp := RecognizeResponse{
		Faces:  make([]FaceResponse, 0, len(result.Faces)),
		Marked: result.NewlyMarked,
	}
	if resp.Marked == nil {
		resp.Marked = []int64{}
	}
	for _, face := range result.Faces {
		resp.Faces = append(resp.Faces, FaceResponse{
			Region:    face.Region,
			StudentID: face.StudentID,
			RollNo:    face.RollNo,
			Name:      face.Name,
			Distance:  face.Distance,
			Matched:   face.Matched(),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}
