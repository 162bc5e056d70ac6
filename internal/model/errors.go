// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, biometric, agent, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeSessionNotFound      = "SESSION_NOT_FOUND"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeBadCredentials       = "BAD_CREDENTIALS"
	ErrCodeInvalidGoogleToken   = "INVALID_GOOGLE_TOKEN"
	ErrCodeGoogleNotConfigured  = "GOOGLE_NOT_CONFIGURED"
	ErrCodeUnknownChannel       = "UNKNOWN_CHANNEL"
	ErrCodeChannelNotConfigured = "CHANNEL_NOT_CONFIGURED"
	ErrCodeEmptyQuestion        = "EMPTY_QUESTION"
	ErrCodePasskeyNotConfigured = "PASSKEY_NOT_CONFIGURED"
	ErrCodeInvalidPasskey       = "INVALID_PASSKEY"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewSessionNotFoundError は音声セッション未検出エラーを生成する。
// 存在しない場合と他ユーザー所有の場合を区別しない。
func NewSessionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  "Session not found",
		Category: "biometric",
		Action:   "音声セッションを開始し直してください。",
	}
}

// NewValidationError はリクエスト内容の検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  reason,
		Category: "auth",
		Action:   "サインインしてください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "Email already registered",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、サインインしてください。",
	}
}

// NewBadCredentialsError は認証情報不一致エラーを生成する。
func NewBadCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeBadCredentials,
		Message:  "Bad credentials",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewInvalidGoogleTokenError はGoogle IDトークン検証失敗エラーを生成する。
func NewInvalidGoogleTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidGoogleToken,
		Message:  "Invalid Google ID token",
		Category: "auth",
		Action:   "Googleでサインインし直してください。",
	}
}

// NewGoogleNotConfiguredError はGoogleサインイン未設定エラーを生成する。
func NewGoogleNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeGoogleNotConfigured,
		Message:  "GOOGLE_CLIENT_ID not configured",
		Category: "system",
		Action:   "管理者に連絡してください。",
	}
}

// NewUnknownChannelError は未知の送信チャネルエラーを生成する。
func NewUnknownChannelError(channel string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownChannel,
		Message:  fmt.Sprintf("Unknown channel: %s", channel),
		Category: "validation",
		Action:   "チャネルには email、telegram、whatsapp のいずれかを指定してください。",
	}
}

// NewChannelNotConfiguredError は送信チャネルの認証情報未設定エラーを生成する。
func NewChannelNotConfiguredError(channel string) *APIError {
	return &APIError{
		Code:     ErrCodeChannelNotConfigured,
		Message:  fmt.Sprintf("%s connector is not configured", channel),
		Category: "system",
		Action:   "管理者に連絡してください。",
	}
}

// NewEmptyQuestionError は空の質問エラーを生成する。
func NewEmptyQuestionError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyQuestion,
		Message:  "Empty question",
		Category: "validation",
		Action:   "質問を入力してください。",
	}
}

// NewPasskeyNotConfiguredError はオーナーパスキー未設定エラーを生成する。
func NewPasskeyNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodePasskeyNotConfigured,
		Message:  "Owner passkey not configured",
		Category: "system",
		Action:   "管理者に連絡してください。",
	}
}

// NewInvalidPasskeyError はパスキー不一致エラーを生成する。
func NewInvalidPasskeyError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPasskey,
		Message:  "Invalid passkey",
		Category: "auth",
		Action:   "パスキーを確認してください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Rate limit",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。原因の詳細は含めない。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
