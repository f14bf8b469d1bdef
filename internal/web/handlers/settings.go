package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// SettingsHandler reads and writes runtime settings such as the match
// threshold and transport credentials.
type SettingsHandler struct {
	store database.SettingStore
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(store database.SettingStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// editableSettings is the whitelist of keys exposed over the API.
var editableSettings = map[string]struct{}{
	database.SettingMatchThreshold: {},
	database.SettingTelegramToken:  {},
	database.SettingTelegramChatID: {},
}

// secretSettings are returned masked to avoid leaking credentials.
var secretSettings = map[string]struct{}{
	database.SettingTelegramToken: {},
}

// Get returns the current values of all editable settings. Secrets are
// reported only as set or unset.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]string, len(editableSettings))
	for key := range editableSettings {
		val, err := h.store.Get(r.Context(), key)
		if errors.Is(err, database.ErrNotFound) {
			val = ""
		} else if err != nil {
			respondError(w, http.StatusInternalServerError, "loading settings failed")
			return
		}
		if _, secret := secretSettings[key]; secret && val != "" {
			val = "(set)"
		}
		out[key] = val
	}
	respondJSON(w, http.StatusOK, out)
}

type settingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Set updates one setting. The match threshold must parse as a float in
// (0, 1].
func (h *SettingsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if _, ok := editableSettings[req.Key]; !ok {
		respondError(w, http.StatusBadRequest, "unknown setting key")
		return
	}
	if req.Key == database.SettingMatchThreshold {
		f, err := strconv.ParseFloat(req.Value, 64)
		if err != nil || f <= 0 || f > 1 {
			respondError(w, http.StatusBadRequest, "threshold must be a number in (0, 1]")
			return
		}
	}

	if err := h.store.Set(r.Context(), req.Key, req.Value); err != nil {
		respondError(w, http.StatusInternalServerError, "storing setting failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
