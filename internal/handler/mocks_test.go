package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/elora/internal/agent"
	"github.com/hitoshi/elora/internal/auth"
	"github.com/hitoshi/elora/internal/biometric"
	"github.com/hitoshi/elora/internal/middleware"
	"github.com/hitoshi/elora/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn     func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	signInFn       func(ctx context.Context, email, password string) (string, error)
	googleSignInFn func(ctx context.Context, idToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &model.User{}, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password string) (string, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return "", nil
}

func (m *mockAuthService) GoogleSignIn(ctx context.Context, idToken string) (string, error) {
	if m.googleSignInFn != nil {
		return m.googleSignInFn(ctx, idToken)
	}
	return "", nil
}

// mockAgentService はAgentServiceInterfaceのモック実装。
type mockAgentService struct {
	activateFn    func(ctx context.Context, userID string) error
	sendMessageFn func(ctx context.Context, userID string, in agent.MessageInput) error
}

func (m *mockAgentService) Activate(ctx context.Context, userID string) error {
	if m.activateFn != nil {
		return m.activateFn(ctx, userID)
	}
	return nil
}

func (m *mockAgentService) SendMessage(ctx context.Context, userID string, in agent.MessageInput) error {
	if m.sendMessageFn != nil {
		return m.sendMessageFn(ctx, userID, in)
	}
	return nil
}

// mockQAService はQAServiceInterfaceのモック実装。
type mockQAService struct {
	askFn func(ctx context.Context, question string) (string, error)
}

func (m *mockQAService) Ask(ctx context.Context, question string) (string, error) {
	if m.askFn != nil {
		return m.askFn(ctx, question)
	}
	return "", nil
}

// mockBiometricService はBiometricServiceInterfaceのモック実装。
type mockBiometricService struct {
	saveFaceFn        func(ctx context.Context, userID string, in biometric.FaceInput) (*model.BiometricFace, error)
	enrollFn          func(ctx context.Context, userID string, in biometric.EnrollInput) (*model.VoiceProfile, error)
	startSessionFn    func(ctx context.Context, userID string, origin, deviceLabel *string) (*model.VoiceSession, error)
	submitPingFn      func(ctx context.Context, userID string, in biometric.PingInput) (*biometric.PingVerdict, error)
	stopSessionFn     func(ctx context.Context, sessionID, userID string) error
	validateSessionFn func(ctx context.Context, sessionID, userID string) error
}

func (m *mockBiometricService) SaveFace(ctx context.Context, userID string, in biometric.FaceInput) (*model.BiometricFace, error) {
	if m.saveFaceFn != nil {
		return m.saveFaceFn(ctx, userID, in)
	}
	return &model.BiometricFace{}, nil
}

func (m *mockBiometricService) EnrollVoiceProfile(ctx context.Context, userID string, in biometric.EnrollInput) (*model.VoiceProfile, error) {
	if m.enrollFn != nil {
		return m.enrollFn(ctx, userID, in)
	}
	return &model.VoiceProfile{}, nil
}

func (m *mockBiometricService) StartSession(ctx context.Context, userID string, origin, deviceLabel *string) (*model.VoiceSession, error) {
	if m.startSessionFn != nil {
		return m.startSessionFn(ctx, userID, origin, deviceLabel)
	}
	return &model.VoiceSession{}, nil
}

func (m *mockBiometricService) SubmitPing(ctx context.Context, userID string, in biometric.PingInput) (*biometric.PingVerdict, error) {
	if m.submitPingFn != nil {
		return m.submitPingFn(ctx, userID, in)
	}
	return &biometric.PingVerdict{}, nil
}

func (m *mockBiometricService) StopSession(ctx context.Context, sessionID, userID string) error {
	if m.stopSessionFn != nil {
		return m.stopSessionFn(ctx, sessionID, userID)
	}
	return nil
}

func (m *mockBiometricService) ValidateSession(ctx context.Context, sessionID, userID string) error {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, sessionID, userID)
	}
	return nil
}

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeBody はレスポンスボディをmapにデコードするヘルパー。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

func ptr[T any](v T) *T {
	return &v
}
