package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/mock"
)

func telegramServer(t *testing.T, ok bool, got *[]sendMessageRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if got != nil {
			*got = append(*got, req)
		}
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(sendMessageResponse{OK: false, Description: "chat not found"})
			return
		}
		json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	}))
}

func TestTelegram_Send(t *testing.T) {
	var sent []sendMessageRequest
	server := telegramServer(t, true, &sent)
	defer server.Close()

	settings := mock.NewSettingStore()
	settings.Set(context.Background(), database.SettingTelegramToken, "123:abc")
	settings.Set(context.Background(), database.SettingTelegramChatID, "-100200")

	tg := NewTelegram(settings, config.TelegramConfig{})
	tg.baseURL = server.URL

	if err := tg.Send(context.Background(), "Attendance Report"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}
	if sent[0].ChatID != "-100200" {
		t.Errorf("unexpected chat id %q", sent[0].ChatID)
	}
	if sent[0].Text != "Attendance Report" {
		t.Errorf("unexpected text %q", sent[0].Text)
	}
}

func TestTelegram_ConfigFallback(t *testing.T) {
	var sent []sendMessageRequest
	server := telegramServer(t, true, &sent)
	defer server.Close()

	tg := NewTelegram(mock.NewSettingStore(), config.TelegramConfig{
		BotToken: "fallback-token",
		ChatID:   "42",
	})
	tg.baseURL = server.URL

	if err := tg.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(sent) != 1 || sent[0].ChatID != "42" {
		t.Errorf("expected fallback chat id to be used, got %+v", sent)
	}
}

func TestTelegram_NotConfigured(t *testing.T) {
	tg := NewTelegram(mock.NewSettingStore(), config.TelegramConfig{})

	err := tg.Send(context.Background(), "hi")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestTelegram_Rejection(t *testing.T) {
	server := telegramServer(t, false, nil)
	defer server.Close()

	settings := mock.NewSettingStore()
	settings.Set(context.Background(), database.SettingTelegramToken, "123:abc")
	settings.Set(context.Background(), database.SettingTelegramChatID, "9")

	tg := NewTelegram(settings, config.TelegramConfig{})
	tg.baseURL = server.URL

	if err := tg.Send(context.Background(), "hi"); err == nil {
		t.Error("expected error when the API rejects the message")
	}
}

func TestTelegram_LongMessageChunked(t *testing.T) {
	var sent []sendMessageRequest
	server := telegramServer(t, true, &sent)
	defer server.Close()

	settings := mock.NewSettingStore()
	settings.Set(context.Background(), database.SettingTelegramToken, "123:abc")
	settings.Set(context.Background(), database.SettingTelegramChatID, "9")

	tg := NewTelegram(settings, config.TelegramConfig{})
	tg.baseURL = server.URL

	long := strings.Repeat("line of report text\n", 400) // well over one chunk
	if err := tg.Send(context.Background(), long); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(sent) < 2 {
		t.Fatalf("expected message to be split, got %d chunks", len(sent))
	}
	for i, msg := range sent {
		if len(msg.Text) > telegramMessageSize {
			t.Errorf("chunk %d exceeds size limit: %d", i, len(msg.Text))
		}
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		limit  int
		chunks int
	}{
		{"fits", "short", 100, 1},
		{"splits at newline", "aaaa\nbbbb\ncccc", 9, 2},
		{"oversized line cut hard", strings.Repeat("x", 25), 10, 3},
		{"empty", "", 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitMessage(tt.input, tt.limit)
			if len(chunks) != tt.chunks {
				t.Fatalf("expected %d chunks, got %d: %q", tt.chunks, len(chunks), chunks)
			}
			var rebuilt []string
			for _, c := range chunks {
				if len(c) > tt.limit {
					t.Errorf("chunk exceeds limit: %q", c)
				}
				rebuilt = append(rebuilt, c)
			}
			joined := strings.Join(rebuilt, "\n")
			stripped := strings.ReplaceAll(joined, "\n", "")
			want := strings.ReplaceAll(tt.input, "\n", "")
			if stripped != want {
				t.Errorf("content lost in split: got %q, want %q", stripped, want)
			}
		})
	}
}
