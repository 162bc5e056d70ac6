package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockTokenVerifier struct {
	verifyFn func(token string) (string, error)
}

func (m *mockTokenVerifier) VerifyToken(token string) (string, error) {
	return m.verifyFn(token)
}

func acceptOnly(valid, userID string) *mockTokenVerifier {
	return &mockTokenVerifier{verifyFn: func(token string) (string, error) {
		if token == valid {
			return userID, nil
		}
		return "", errors.New("invalid token")
	}}
}

func TestBearerAuthMiddleware_ValidToken(t *testing.T) {
	var captured string
	handler := NewBearerAuthMiddleware(acceptOnly("good", "user-1"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"Bearer good", "bearer good", "BEARER good"} {
		captured = ""
		req := httptest.NewRequest(http.MethodGet, "/agent/activate", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%q: status = %d, want 200", header, w.Code)
		}
		if captured != "user-1" {
			t.Errorf("%q: userID = %q, want user-1", header, captured)
		}
	}
}

func TestBearerAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"ヘッダーなし", "", "Missing bearer token"},
		{"Basic認証", "Basic dXNlcjpwYXNz", "Missing bearer token"},
		{"トークンなし", "Bearer ", "Missing bearer token"},
		{"スキームのみ", "Bearer", "Missing bearer token"},
		{"不正なトークン", "Bearer bad", "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewBearerAuthMiddleware(acceptOnly("good", "user-1"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodPost, "/agent/message", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			if called {
				t.Error("next handler must not be called")
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Detail != tt.message {
				t.Errorf("detail = %q, want %q", body.Detail, tt.message)
			}
			if body.Code != "UNAUTHORIZED" {
				t.Errorf("code = %q, want UNAUTHORIZED", body.Code)
			}
		})
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("expected error for missing user ID")
	}

	ctx := ContextWithUserID(req.Context(), "user-9")
	if got, err := UserIDFromContext(ctx); err != nil || got != "user-9" {
		t.Errorf("UserIDFromContext = (%q, %v)", got, err)
	}
}

// WebSocketアップグレード要求に限りaccess_tokenクエリを受け付ける
func TestBearerAuthMiddleware_QueryTokenOnlyForUpgrade(t *testing.T) {
	handler := NewBearerAuthMiddleware(acceptOnly("good", "user-1"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		upgrade bool
		want    int
	}{
		{"アップグレード要求", true, http.StatusOK},
		{"通常のリクエスト", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/biometrics/voice/stream?access_token=good", nil)
			if tt.upgrade {
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Upgrade", "websocket")
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
