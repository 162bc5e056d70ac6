package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/elora/internal/agent"
)

// AgentServiceInterface はエージェントハンドラーが必要とするサービスインターフェース。
type AgentServiceInterface interface {
	// Activate はエージェントを起動し、危機カウンタをリセットする。
	Activate(ctx context.Context, userID string) error
	// SendMessage はメッセージを指定チャネルで送信する。
	SendMessage(ctx context.Context, userID string, in agent.MessageInput) error
}

// AgentHandler はエージェント操作のHTTPハンドラー。
type AgentHandler struct {
	service AgentServiceInterface
}

// NewAgentHandler はAgentHandlerを生成する。
func NewAgentHandler(service AgentServiceInterface) *AgentHandler {
	return &AgentHandler{service: service}
}

type messageRequest struct {
	Text    string `json:"text"`
	Channel string `json:"channel"`
	To      string `json:"to"`
}

// Activate はエージェント起動を処理する。リクエストボディは無視する。
// POST /agent/activate
func (h *AgentHandler) Activate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Activate(r.Context(), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

// SendMessage はメッセージ送信を処理する。
// POST /agent/message
func (h *AgentHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.SendMessage(r.Context(), userID, agent.MessageInput{
		Text:    req.Text,
		Channel: req.Channel,
		To:      req.To,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}
