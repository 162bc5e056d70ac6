// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/elora/internal/middleware"
	"github.com/hitoshi/elora/internal/model"
)

// maxRequestBodySize はJSONリクエストボディの上限（1MB）。
const maxRequestBodySize = 1 << 20

// statusByCode はAPIErrorコードとHTTPステータスコードの対応表。
var statusByCode = map[string]int{
	model.ErrCodeInvalidRequest:       http.StatusBadRequest,
	model.ErrCodeEmailTaken:           http.StatusBadRequest,
	model.ErrCodeUnknownChannel:       http.StatusBadRequest,
	model.ErrCodeEmptyQuestion:        http.StatusBadRequest,
	model.ErrCodeUnauthorized:         http.StatusUnauthorized,
	model.ErrCodeBadCredentials:       http.StatusUnauthorized,
	model.ErrCodeInvalidGoogleToken:   http.StatusUnauthorized,
	model.ErrCodeInvalidPasskey:       http.StatusForbidden,
	model.ErrCodeSessionNotFound:      http.StatusNotFound,
	model.ErrCodeGoogleNotConfigured:  http.StatusServiceUnavailable,
	model.ErrCodeChannelNotConfigured: http.StatusServiceUnavailable,
	model.ErrCodePasskeyNotConfigured: http.StatusServiceUnavailable,
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	if status, ok := statusByCode[apiErr.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// requireUserID は認証済みユーザーIDを取得する。取得できない場合は401を書き込み、okがfalseになる。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError("Authentication required"))
		return "", false
	}
	return userID, true
}

// decodeJSON はリクエストボディをdstにデコードする。失敗した場合は400を書き込み、falseを返す。
// 空のボディは許容し、dstをゼロ値のまま返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("invalid JSON body"))
		return false
	}
	return true
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
