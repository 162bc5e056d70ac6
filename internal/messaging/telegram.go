package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramSender はTelegram Bot APIでメッセージを送信する。
type TelegramSender struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewTelegramSender はTelegramSenderを生成する。baseURLが空の場合は公式APIを使用する。
func NewTelegramSender(token, baseURL string, client *http.Client) *TelegramSender {
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &TelegramSender{token: token, baseURL: baseURL, client: client}
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send はchat_id宛にテキストを送信する。
func (s *TelegramSender) Send(ctx context.Context, chatID, text string) error {
	if s.token == "" {
		return fmt.Errorf("telegram: %w", ErrNotConfigured)
	}

	payload, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode telegram message: %w", err)
	}

	endpoint := s.baseURL + "/bot" + s.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if err := checkStatus(resp, body); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Sender = (*TelegramSender)(nil)
