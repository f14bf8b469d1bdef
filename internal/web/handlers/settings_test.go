package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/mock"
)

func TestSettingsHandler_Get_MasksSecrets(t *testing.T) {
	store := mock.NewSettingStore()
	store.Set(context.Background(), database.SettingMatchThreshold, "0.6")
	store.Set(context.Background(), database.SettingTelegramToken, "123:secret")
	handler := NewSettingsHandler(store)

	req := httptest.NewRequest("GET", "/api/v1/settings", nil)
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp[database.SettingMatchThreshold] != "0.6" {
		t.Errorf("unexpected threshold %q", resp[database.SettingMatchThreshold])
	}
	if resp[database.SettingTelegramToken] != "(set)" {
		t.Errorf("token must be masked, got %q", resp[database.SettingTelegramToken])
	}
	if resp[database.SettingTelegramChatID] != "" {
		t.Errorf("unset key should be empty, got %q", resp[database.SettingTelegramChatID])
	}
}

func TestSettingsHandler_Set(t *testing.T) {
	store := mock.NewSettingStore()
	handler := NewSettingsHandler(store)

	body := `{"key": "match_threshold", "value": "0.5"}`
	req := httptest.NewRequest("PUT", "/api/v1/settings", strings.NewReader(body))
	recorder := httptest.NewRecorder()

	handler.Set(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body)
	}
	if v, err := store.Get(context.Background(), database.SettingMatchThreshold); err != nil || v != "0.5" {
		t.Errorf("expected stored threshold 0.5, got %q (%v)", v, err)
	}
}

func TestSettingsHandler_Set_Rejections(t *testing.T) {
	handler := NewSettingsHandler(mock.NewSettingStore())

	tests := []struct {
		name string
		body string
	}{
		{"unknown key", `{"key": "admin_password", "value": "x"}`},
		{"threshold above range", `{"key": "match_threshold", "value": "1.5"}`},
		{"threshold zero", `{"key": "match_threshold", "value": "0"}`},
		{"threshold not a number", `{"key": "match_threshold", "value": "high"}`},
		{"malformed json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", "/api/v1/settings", strings.NewReader(tt.body))
			recorder := httptest.NewRecorder()

			handler.Set(recorder, req)

			if recorder.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
			}
		})
	}
}
