package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database DatabaseConfig
	Encoder  EncoderConfig
	Telegram TelegramConfig
	Match    MatchConfig
	Defaults DefaultsConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EncoderConfig struct {
	URL string // face encoding sidecar, defaults to http://localhost:8000
	Dim int    // encoding dimension, defaults to 128
}

type TelegramConfig struct {
	BotToken string // fallback when the settings table has no value
	ChatID   string
}

type MatchConfig struct {
	Threshold float64 // acceptance threshold fallback, defaults to 0.6
}

type DefaultsConfig struct {
	Settings map[string]string `yaml:"settings"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	encoderURL := os.Getenv("ENCODER_URL")
	if encoderURL == "" {
		encoderURL = "http://localhost:8000"
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Encoder: EncoderConfig{
			URL: encoderURL,
			Dim: envInt("ENCODER_DIM", 128),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		},
		Match: MatchConfig{
			Threshold: envFloat("MATCH_THRESHOLD", 0.6),
		},
		Defaults: defaults,
	}
}

// DefaultSetting returns the embedded default for a settings key, empty
// string if the key is unknown.
func (c *Config) DefaultSetting(key string) string {
	return c.Defaults.Settings[key]
}
