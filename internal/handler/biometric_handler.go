package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/elora/internal/biometric"
	"github.com/hitoshi/elora/internal/model"
)

// BiometricServiceInterface は生体情報ハンドラーが必要とするサービスインターフェース。
type BiometricServiceInterface interface {
	SaveFace(ctx context.Context, userID string, in biometric.FaceInput) (*model.BiometricFace, error)
	EnrollVoiceProfile(ctx context.Context, userID string, in biometric.EnrollInput) (*model.VoiceProfile, error)
	StartSession(ctx context.Context, userID string, origin, deviceLabel *string) (*model.VoiceSession, error)
	SubmitPing(ctx context.Context, userID string, in biometric.PingInput) (*biometric.PingVerdict, error)
	StopSession(ctx context.Context, sessionID, userID string) error
	ValidateSession(ctx context.Context, sessionID, userID string) error
}

// BiometricHandler は顔シグネチャと音声セッションのHTTPハンドラー。
type BiometricHandler struct {
	service BiometricServiceInterface
}

// NewBiometricHandler はBiometricHandlerを生成する。
func NewBiometricHandler(service BiometricServiceInterface) *BiometricHandler {
	return &BiometricHandler{service: service}
}

type faceRequest struct {
	Version   string              `json:"version"`
	Signature model.FaceSignature `json:"signature"`
}

type enrollRequest struct {
	Version      string   `json:"version"`
	AvgPitchHz   *float64 `json:"avg_pitch_hz"`
	AvgRMS       *float64 `json:"avg_rms"`
	ConditionTag *string  `json:"condition_tag"`
}

type sessionStartRequest struct {
	Origin      *string `json:"origin"`
	DeviceLabel *string `json:"device_label"`
}

type sessionStartResponse struct {
	SessionID string `json:"session_id"`
}

type pingRequest struct {
	SessionID string   `json:"session_id"`
	PitchHz   *float64 `json:"pitch_hz"`
	RMS       *float64 `json:"rms"`
	ZCR       *float64 `json:"zcr"`
	SNRDB     *float64 `json:"snr_db"`
}

// verdictResponse はping判定結果のAPIレスポンス。ストリーミングでも同じ形式を使う。
type verdictResponse struct {
	Type              string   `json:"type,omitempty"`
	Emotion           string   `json:"emotion"`
	Similarity        float64  `json:"similarity"`
	IsOwner           bool     `json:"is_owner"`
	MatchedProfileTag *string  `json:"matched_profile_tag"`
	HealthFlag        bool     `json:"health_flag"`
	SNRDB             *float64 `json:"snr_db"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func newVerdictResponse(v *biometric.PingVerdict) verdictResponse {
	return verdictResponse{
		Emotion:           string(v.Emotion),
		Similarity:        v.Similarity,
		IsOwner:           v.IsOwner,
		MatchedProfileTag: v.MatchedProfileTag,
		HealthFlag:        v.HealthFlag,
		SNRDB:             v.SNRDB,
	}
}

// SaveFace は顔シグネチャの登録を処理する。
// POST /biometrics/face
func (h *BiometricHandler) SaveFace(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req faceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.service.SaveFace(r.Context(), userID, biometric.FaceInput{
		Version:   req.Version,
		Signature: req.Signature,
	}); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// EnrollVoice は声紋プロファイルの登録を処理する。
// POST /biometrics/voice/enroll
func (h *BiometricHandler) EnrollVoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req enrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AvgPitchHz == nil || req.AvgRMS == nil {
		handleServiceError(w, r, model.NewValidationError("avg_pitch_hz and avg_rms are required"))
		return
	}

	if _, err := h.service.EnrollVoiceProfile(r.Context(), userID, biometric.EnrollInput{
		Version:      req.Version,
		AvgPitchHz:   *req.AvgPitchHz,
		AvgRMS:       *req.AvgRMS,
		ConditionTag: req.ConditionTag,
	}); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// StartSession は音声セッションの開始を処理する。
// POST /biometrics/voice/session/start
func (h *BiometricHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req sessionStartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.StartSession(r.Context(), userID, req.Origin, req.DeviceLabel)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionStartResponse{SessionID: session.ID})
}

// SubmitPing はpingの判定を処理する。
// POST /biometrics/voice/ping
func (h *BiometricHandler) SubmitPing(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req pingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	verdict, err := h.service.SubmitPing(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newVerdictResponse(verdict))
}

// StopSession は音声セッションの停止を処理する。
// POST /biometrics/voice/session/stop?session_id=
func (h *BiometricHandler) StopSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		handleServiceError(w, r, model.NewValidationError("session_id is required"))
		return
	}

	if err := h.service.StopSession(r.Context(), sessionID, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (p pingRequest) toInput() (biometric.PingInput, error) {
	if p.PitchHz == nil || p.RMS == nil {
		return biometric.PingInput{}, model.NewValidationError("pitch_hz and rms are required")
	}
	return biometric.PingInput{
		SessionID: p.SessionID,
		PitchHz:   *p.PitchHz,
		RMS:       *p.RMS,
		ZCR:       p.ZCR,
		SNRDB:     p.SNRDB,
	}, nil
}

// compile-time interface check
var _ BiometricServiceInterface = (*biometric.Service)(nil)
