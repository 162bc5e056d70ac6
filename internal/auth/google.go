package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleIdentity はGoogle IDトークンから取り出したユーザー情報。
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// IDTokenVerifier はIDトークンを検証するインターフェース。
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// GoogleVerifierConfig はGoogle IDトークン検証の設定。
type GoogleVerifierConfig struct {
	ClientID string

	// テスト用にオーバーライド可能なURL
	TokenInfoURL string
}

// GoogleVerifier はGoogleのtokeninfoエンドポイントでIDトークンを検証する。
type GoogleVerifier struct {
	config GoogleVerifierConfig
	client *http.Client
}

// NewGoogleVerifier はGoogleVerifierを生成する。clientがnilの場合はhttp.DefaultClientを使用する。
func NewGoogleVerifier(config GoogleVerifierConfig, client *http.Client) *GoogleVerifier {
	if config.TokenInfoURL == "" {
		config.TokenInfoURL = defaultGoogleTokenInfoURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleVerifier{config: config, client: client}
}

// googleTokenInfo はtokeninfoエンドポイントのレスポンス。
type googleTokenInfo struct {
	Aud           string     `json:"aud"`
	Sub           string     `json:"sub"`
	Email         string     `json:"email"`
	EmailVerified googleBool `json:"email_verified"`
	Name          string     `json:"name"`
}

// googleBool は"true"と true の両方を受け付ける。
type googleBool bool

func (b *googleBool) UnmarshalJSON(data []byte) error {
	*b = googleBool(bytes.Equal(data, []byte(`true`)) || bytes.Equal(data, []byte(`"true"`)))
	return nil
}

// Verify はIDトークンを検証する。audがクライアントIDと一致し、メールアドレスが検証済みであること。
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if idToken == "" {
		return nil, fmt.Errorf("empty id token")
	}

	endpoint := v.config.TokenInfoURL + "?" + url.Values{"id_token": {idToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokeninfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info googleTokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse tokeninfo response: %w", err)
	}

	if info.Aud != v.config.ClientID {
		return nil, fmt.Errorf("audience mismatch: %q", info.Aud)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, fmt.Errorf("empty sub or email in tokeninfo response")
	}
	if !info.EmailVerified {
		return nil, fmt.Errorf("email not verified")
	}

	return &GoogleIdentity{Subject: info.Sub, Email: info.Email, Name: info.Name}, nil
}

// compile-time interface check
var _ IDTokenVerifier = (*GoogleVerifier)(nil)
