package handlers

import (
	"errors"
	"net/http"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// SubjectsHandler handles subject CRUD endpoints.
type SubjectsHandler struct {
	store database.SubjectStore
}

// NewSubjectsHandler creates a new subjects handler.
func NewSubjectsHandler(store database.SubjectStore) *SubjectsHandler {
	return &SubjectsHandler{store: store}
}

type subjectRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Branch   string `json:"branch"`
	Semester int    `json:"semester"`
}

// SubjectResponse is the JSON shape of a subject.
type SubjectResponse struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Branch   string `json:"branch"`
	Semester int    `json:"semester"`
}

func subjectResponse(s *database.Subject) SubjectResponse {
	return SubjectResponse{
		ID:       s.ID,
		Code:     s.Code,
		Name:     s.Name,
		Branch:   s.Branch,
		Semester: s.Semester,
	}
}

// List returns subjects, optionally filtered by branch and semester.
func (h *SubjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.store.List(r.Context(), r.URL.Query().Get("branch"), queryInt(r, "semester"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing subjects failed")
		return
	}

	out := make([]SubjectResponse, 0, len(subjects))
	for i := range subjects {
		out = append(out, subjectResponse(&subjects[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

// Get returns one subject by ID.
func (h *SubjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid subject id")
		return
	}

	subject, err := h.store.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "subject not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "loading subject failed")
		return
	}
	respondJSON(w, http.StatusOK, subjectResponse(subject))
}

// Create adds a new subject.
func (h *SubjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Code == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "code and name are required")
		return
	}

	subject := &database.Subject{
		Code:     req.Code,
		Name:     req.Name,
		Branch:   req.Branch,
		Semester: req.Semester,
	}
	id, err := h.store.Create(r.Context(), subject)
	if errors.Is(err, database.ErrDuplicateSubjectCode) {
		respondError(w, http.StatusConflict, "subject code already exists")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "creating subject failed")
		return
	}
	subject.ID = id
	respondJSON(w, http.StatusCreated, subjectResponse(subject))
}

// Update replaces a subject's details.
func (h *SubjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid subject id")
		return
	}

	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Code == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "code and name are required")
		return
	}

	subject := &database.Subject{
		ID:       id,
		Code:     req.Code,
		Name:     req.Name,
		Branch:   req.Branch,
		Semester: req.Semester,
	}
	err := h.store.Update(r.Context(), subject)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "subject not found")
		return
	}
	if errors.Is(err, database.ErrDuplicateSubjectCode) {
		respondError(w, http.StatusConflict, "subject code already exists")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "updating subject failed")
		return
	}
	respondJSON(w, http.StatusOK, subjectResponse(subject))
}

// Delete removes a subject.
func (h *SubjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid subject id")
		return
	}

	err := h.store.Delete(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "subject not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "deleting subject failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
