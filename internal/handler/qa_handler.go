package handler

import (
	"context"
	"net/http"
)

// QAServiceInterface はQ&Aハンドラーが必要とするサービスインターフェース。
type QAServiceInterface interface {
	Ask(ctx context.Context, question string) (string, error)
}

// QAHandler は質問応答のHTTPハンドラー。
type QAHandler struct {
	service QAServiceInterface
}

// NewQAHandler はQAHandlerを生成する。
func NewQAHandler(service QAServiceInterface) *QAHandler {
	return &QAHandler{service: service}
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// Ask は質問を受け付け、回答を返す。
// POST /qa/ask
func (h *QAHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answer, err := h.service.Ask(r.Context(), req.Question)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}
