package messaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioConfig はTwilio WhatsApp送信の設定。
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string // 例: whatsapp:+14155238886

	// テスト用にオーバーライド可能なURL
	BaseURL string
}

// WhatsAppSender はTwilio Messages APIでWhatsAppメッセージを送信する。
type WhatsAppSender struct {
	config TwilioConfig
	client *http.Client
}

// NewWhatsAppSender はWhatsAppSenderを生成する。
func NewWhatsAppSender(config TwilioConfig, client *http.Client) *WhatsAppSender {
	if config.BaseURL == "" {
		config.BaseURL = defaultTwilioBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &WhatsAppSender{config: config, client: client}
}

// Send は電話番号toへWhatsAppメッセージを送信する。
func (s *WhatsAppSender) Send(ctx context.Context, to, text string) error {
	if s.config.AccountSID == "" || s.config.AuthToken == "" || s.config.From == "" {
		return fmt.Errorf("whatsapp: %w", ErrNotConfigured)
	}

	form := url.Values{
		"From": {s.config.From},
		"To":   {"whatsapp:" + to},
		"Body": {text},
	}

	endpoint := s.config.BaseURL + "/2010-04-01/Accounts/" + url.PathEscape(s.config.AccountSID) + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.config.AccountSID, s.config.AuthToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if err := checkStatus(resp, body); err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Sender = (*WhatsAppSender)(nil)
