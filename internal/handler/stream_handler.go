package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hitoshi/elora/internal/model"
)

const (
	streamReadLimit    = 64 << 10
	streamIdleTimeout  = 2 * time.Minute
	streamWriteTimeout = 10 * time.Second

	frameTypePing    = "ping"
	frameTypeVerdict = "verdict"
	frameTypeError   = "error"
)

// streamFrame はクライアントから受信するフレーム。
type streamFrame struct {
	Type    string   `json:"type"`
	PitchHz *float64 `json:"pitch_hz"`
	RMS     *float64 `json:"rms"`
	ZCR     *float64 `json:"zcr"`
	SNRDB   *float64 `json:"snr_db"`
}

// errorFrame はクライアントに送信するエラーフレーム。
type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StreamHandler は音声pingのWebSocketストリーミングを処理する。
type StreamHandler struct {
	service  BiometricServiceInterface
	upgrader websocket.Upgrader
}

// NewStreamHandler はStreamHandlerを生成する。
// Originヘッダーがある場合はallowedOriginsに含まれる場合のみ接続を受け付ける。
func NewStreamHandler(service BiometricServiceInterface, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Stream はWebSocketにアップグレードし、受信したpingごとに判定結果を返す。
// セッションが見つからない場合はエラーフレームを送信して切断する。
// GET /biometrics/voice/stream?session_id=
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sessionID := r.URL.Query().Get("session_id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgradeがエラーレスポンスを書き込み済み
		slog.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if err := h.service.ValidateSession(ctx, sessionID, userID); err != nil {
		h.closeWithError(conn, err)
		return
	}

	conn.SetReadLimit(streamReadLimit)
	for {
		conn.SetReadDeadline(time.Now().Add(streamIdleTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("voice stream closed", slog.String("session_id", sessionID), slog.String("error", err.Error()))
			}
			return
		}
		if msgType != websocket.TextMessage {
			h.writeFrame(conn, newErrorFrame(model.NewValidationError("text frames only")))
			continue
		}

		var frame streamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.writeFrame(conn, newErrorFrame(model.NewValidationError("invalid JSON frame")))
			continue
		}
		if frame.Type != frameTypePing {
			h.writeFrame(conn, newErrorFrame(model.NewValidationError("unknown frame type")))
			continue
		}

		in, err := pingRequest{
			SessionID: sessionID,
			PitchHz:   frame.PitchHz,
			RMS:       frame.RMS,
			ZCR:       frame.ZCR,
			SNRDB:     frame.SNRDB,
		}.toInput()
		if err != nil {
			h.writeFrame(conn, newErrorFrame(err))
			continue
		}

		verdict, err := h.service.SubmitPing(ctx, userID, in)
		if err != nil {
			if isSessionNotFound(err) {
				h.closeWithError(conn, err)
				return
			}
			h.writeFrame(conn, newErrorFrame(err))
			continue
		}

		resp := newVerdictResponse(verdict)
		resp.Type = frameTypeVerdict
		if err := h.writeFrame(conn, resp); err != nil {
			return
		}
	}
}

func (h *StreamHandler) writeFrame(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		slog.Debug("failed to write stream frame", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// closeWithError はエラーフレームを送信してからクローズフレームを送る。
func (h *StreamHandler) closeWithError(conn *websocket.Conn, err error) {
	frame := newErrorFrame(err)
	if h.writeFrame(conn, frame) != nil {
		return
	}
	closeCode := websocket.CloseInternalServerErr
	if isSessionNotFound(err) {
		closeCode = websocket.ClosePolicyViolation
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(closeCode, frame.Code),
		time.Now().Add(streamWriteTimeout))
}

// newErrorFrame はエラーをエラーフレームに変換する。APIError以外の詳細はログのみに記録する。
func newErrorFrame(err error) errorFrame {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return errorFrame{Type: frameTypeError, Code: apiErr.Code, Message: apiErr.Message}
	}
	slog.Error("voice stream internal error", slog.String("error", err.Error()))
	internal := model.NewInternalError()
	return errorFrame{Type: frameTypeError, Code: internal.Code, Message: internal.Message}
}

func isSessionNotFound(err error) bool {
	var apiErr *model.APIError
	return errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeSessionNotFound
}
