package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultEncoderDim(t *testing.T) {
	os.Unsetenv("ENCODER_DIM")

	cfg := Load()

	if cfg.Encoder.Dim != 128 {
		t.Errorf("expected default encoder dim 128, got %d", cfg.Encoder.Dim)
	}
}

func TestLoad_CustomEncoderDim(t *testing.T) {
	t.Setenv("ENCODER_DIM", "512")

	cfg := Load()

	if cfg.Encoder.Dim != 512 {
		t.Errorf("expected encoder dim 512, got %d", cfg.Encoder.Dim)
	}
}

func TestLoad_InvalidEncoderDim(t *testing.T) {
	t.Setenv("ENCODER_DIM", "invalid")

	cfg := Load()

	// Should fall back to default
	if cfg.Encoder.Dim != 128 {
		t.Errorf("expected default encoder dim 128 for invalid input, got %d", cfg.Encoder.Dim)
	}
}

func TestLoad_DefaultEncoderURL(t *testing.T) {
	os.Unsetenv("ENCODER_URL")

	cfg := Load()

	if cfg.Encoder.URL != "http://localhost:8000" {
		t.Errorf("expected default encoder URL, got '%s'", cfg.Encoder.URL)
	}
}

func TestLoad_MatchThreshold(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		expected float64
	}{
		{"unset uses default", "", 0.6},
		{"valid override", "0.45", 0.45},
		{"upper bound accepted", "1", 1},
		{"zero rejected", "0", 0.6},
		{"negative rejected", "-0.5", 0.6},
		{"above one rejected", "1.5", 0.6},
		{"garbage rejected", "strict", 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env == "" {
				os.Unsetenv("MATCH_THRESHOLD")
			} else {
				t.Setenv("MATCH_THRESHOLD", tt.env)
			}

			cfg := Load()
			if cfg.Match.Threshold != tt.expected {
				t.Errorf("threshold = %v, want %v", cfg.Match.Threshold, tt.expected)
			}
		})
	}
}

func TestLoad_TelegramConfig(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:test-token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100987")

	cfg := Load()

	if cfg.Telegram.BotToken != "123456:test-token" {
		t.Errorf("expected bot token '123456:test-token', got '%s'", cfg.Telegram.BotToken)
	}

	if cfg.Telegram.ChatID != "-100987" {
		t.Errorf("expected chat id '-100987', got '%s'", cfg.Telegram.ChatID)
	}
}

func TestLoad_DefaultsLoaded(t *testing.T) {
	cfg := Load()

	// Verify settings seeds were loaded from embedded YAML
	if len(cfg.Defaults.Settings) == 0 {
		t.Error("expected defaults to be loaded from embedded YAML")
	}

	if got := cfg.DefaultSetting("match_threshold"); got != "0.6" {
		t.Errorf("expected default match_threshold '0.6', got '%s'", got)
	}
}

func TestDefaultSetting_UnknownKey(t *testing.T) {
	cfg := Load()

	if got := cfg.DefaultSetting("does-not-exist"); got != "" {
		t.Errorf("expected empty string for unknown key, got '%s'", got)
	}
}
