package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/gallery"
	"github.com/rollcall-dev/rollcall/internal/recognize"
)

// maxUploadSize bounds enrollment image uploads.
const maxUploadSize = 16 << 20

// StudentsHandler handles student roster endpoints.
type StudentsHandler struct {
	store   database.StudentStore
	encoder recognize.Encoder
	gallery *gallery.Index
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(store database.StudentStore, encoder recognize.Encoder, idx *gallery.Index) *StudentsHandler {
	return &StudentsHandler{
		store:   store,
		encoder: encoder,
		gallery: idx,
	}
}

// StudentResponse is the JSON shape of a student. The face vector itself
// is never exposed; only whether one is enrolled.
type StudentResponse struct {
	ID       int64  `json:"id"`
	RollNo   string `json:"roll_no"`
	Name     string `json:"name"`
	Branch   string `json:"branch"`
	Semester int    `json:"semester"`
	Section  string `json:"section"`
	Email    string `json:"email"`
	Enrolled bool   `json:"enrolled"`
}

func studentResponse(s *database.Student) StudentResponse {
	return StudentResponse{
		ID:       s.ID,
		RollNo:   s.RollNo,
		Name:     s.Name,
		Branch:   s.Branch,
		Semester: s.Semester,
		Section:  s.Section,
		Email:    s.Email,
		Enrolled: len(s.Encoding) > 0,
	}
}

type studentRequest struct {
	RollNo   string `json:"roll_no"`
	Name     string `json:"name"`
	Branch   string `json:"branch"`
	Semester int    `json:"semester"`
	Section  string `json:"section"`
	Email    string `json:"email"`
}

func (req *studentRequest) validate() string {
	if req.RollNo == "" {
		return "roll_no is required"
	}
	if req.Name == "" {
		return "name is required"
	}
	return ""
}

// List returns students matching the query filters. The optional q
// parameter searches by name, ignoring case and diacritics.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := database.StudentFilter{
		Branch:   r.URL.Query().Get("branch"),
		Semester: queryInt(r, "semester"),
		Section:  r.URL.Query().Get("section"),
	}

	students, err := h.store.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing students failed")
		return
	}

	query := r.URL.Query().Get("q")
	out := make([]StudentResponse, 0, len(students))
	for i := range students {
		if query != "" && !database.MatchesName(students[i].Name, query) {
			continue
		}
		out = append(out, studentResponse(&students[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

// Get returns one student by ID.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	student, err := h.store.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "loading student failed")
		return
	}
	respondJSON(w, http.StatusOK, studentResponse(student))
}

// Create adds a student to the roster, without a face enrollment.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	student := &database.Student{
		RollNo:   req.RollNo,
		Name:     req.Name,
		Branch:   req.Branch,
		Semester: req.Semester,
		Section:  req.Section,
		Email:    req.Email,
	}
	id, err := h.store.Create(r.Context(), student)
	if errors.Is(err, database.ErrDuplicateRollNo) {
		respondError(w, http.StatusConflict, "roll number already exists")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "creating student failed")
		return
	}
	student.ID = id
	respondJSON(w, http.StatusCreated, studentResponse(student))
}

// Update replaces a student's details. The stored face vector is kept.
func (h *StudentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	student := &database.Student{
		ID:       id,
		RollNo:   req.RollNo,
		Name:     req.Name,
		Branch:   req.Branch,
		Semester: req.Semester,
		Section:  req.Section,
		Email:    req.Email,
	}
	err := h.store.Update(r.Context(), student)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	if errors.Is(err, database.ErrDuplicateRollNo) {
		respondError(w, http.StatusConflict, "roll number already exists")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "updating student failed")
		return
	}
	respondJSON(w, http.StatusOK, studentResponse(student))
}

// Delete removes a student. Historical attendance records are kept and
// render with the name "unknown".
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	err := h.store.Delete(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "deleting student failed")
		return
	}
	h.reloadGallery(r)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Enroll stores the face encoding extracted from the uploaded image. The
// image must contain exactly one face; re-enrollment replaces the vector.
func (h *StudentsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	student, err := h.store.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "loading student failed")
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

	encoding, err := recognize.EnrollmentEncoding(r.Context(), h.encoder, prepared)
	if errors.Is(err, recognize.ErrNoFaceDetected) {
		respondError(w, http.StatusUnprocessableEntity, "no face detected in image")
		return
	}
	if errors.Is(err, recognize.ErrMultipleFaces) {
		respondError(w, http.StatusUnprocessableEntity, "image must contain exactly one face")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "face encoding failed")
		return
	}

	student.Encoding = encoding
	if err := h.store.Update(r.Context(), student); err != nil {
		respondError(w, http.StatusInternalServerError, "storing enrollment failed")
		return
	}
	h.reloadGallery(r)

	respondJSON(w, http.StatusOK, studentResponse(student))
}

// reloadGallery refreshes the match index after enrollment changes. A
// failed reload keeps the previous snapshot and is not fatal to the
// request that triggered it.
func (h *StudentsHandler) reloadGallery(r *http.Request) {
	if h.gallery != nil {
		_, _ = h.gallery.Reload(r.Context())
	}
}

// readImage extracts the uploaded image from a multipart "image" field or,
// failing that, the raw request body.
func readImage(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)

	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}
