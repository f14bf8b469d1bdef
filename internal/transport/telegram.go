package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database"
)

const (
	telegramAPIBase     = "https://api.telegram.org"
	defaultSendTimeout  = 15 * time.Second
	telegramMessageSize = 4096 // hard limit of the Bot API sendMessage call
)

// Telegram sends messages through the Telegram Bot API. Credentials are
// read from the settings store on every send so an operator can rotate
// the token without restarting the service; config values act as a
// fallback when the settings table has no value.
type Telegram struct {
	settings database.SettingStore
	fallback config.TelegramConfig
	baseURL  string
	client   *http.Client
}

// NewTelegram creates a Telegram transport backed by the settings store.
func NewTelegram(settings database.SettingStore, fallback config.TelegramConfig) *Telegram {
	return &Telegram{
		settings: settings,
		fallback: fallback,
		baseURL:  telegramAPIBase,
		client:   &http.Client{Timeout: defaultSendTimeout},
	}
}

// credentials resolves the bot token and chat id, settings first.
func (t *Telegram) credentials(ctx context.Context) (token, chatID string, err error) {
	token, err = t.setting(ctx, database.SettingTelegramToken, t.fallback.BotToken)
	if err != nil {
		return "", "", err
	}
	chatID, err = t.setting(ctx, database.SettingTelegramChatID, t.fallback.ChatID)
	if err != nil {
		return "", "", err
	}
	if token == "" || chatID == "" {
		return "", "", ErrNotConfigured
	}
	return token, chatID, nil
}

func (t *Telegram) setting(ctx context.Context, key, fallback string) (string, error) {
	val, err := t.settings.Get(ctx, key)
	if errors.Is(err, database.ErrNotFound) || (err == nil && val == "") {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return val, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers one message, splitting it when it exceeds the Bot API
// size limit. It returns nil only after every chunk is confirmed.
func (t *Telegram) Send(ctx context.Context, message string) error {
	token, chatID, err := t.credentials(ctx)
	if err != nil {
		return err
	}

	for _, chunk := range splitMessage(message, telegramMessageSize) {
		if err := t.sendChunk(ctx, token, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *Telegram) sendChunk(ctx context.Context, token, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("encoding telegram request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, url.PathEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling telegram: %w", err)
	}
	defer resp.Body.Close()

	var parsed sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&parsed); err != nil {
		return fmt.Errorf("decoding telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram rejected message (status %d): %s", resp.StatusCode, parsed.Description)
	}
	return nil
}

// splitMessage breaks a message into chunks at line boundaries where
// possible, so a long report arrives as readable pieces.
func splitMessage(message string, limit int) []string {
	if len(message) <= limit {
		return []string{message}
	}

	var chunks []string
	var b strings.Builder
	for _, line := range strings.Split(message, "\n") {
		// A single oversized line is cut hard.
		for len(line) > limit {
			if b.Len() > 0 {
				chunks = append(chunks, b.String())
				b.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if b.Len() > 0 && b.Len()+1+len(line) > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
