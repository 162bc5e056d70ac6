package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/hitoshi/elora/internal/model"
)

// protectedPlan はオーナーパスキーで解放されるプラン名。
const protectedPlan = "pro_or_promax_access"

// PlansHandler はオーナー向けプランのHTTPハンドラー。
type PlansHandler struct {
	passkey string // 空の場合は未設定
}

// NewPlansHandler はPlansHandlerを生成する。
func NewPlansHandler(passkey string) *PlansHandler {
	return &PlansHandler{passkey: passkey}
}

// Protected はパスキーを検証し、保護されたプランを返す。
// GET /plans/protected?passkey=
func (h *PlansHandler) Protected(w http.ResponseWriter, r *http.Request) {
	if h.passkey == "" {
		handleServiceError(w, r, model.NewPasskeyNotConfiguredError())
		return
	}

	given := r.URL.Query().Get("passkey")
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.passkey)) != 1 {
		handleServiceError(w, r, model.NewInvalidPasskeyError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "plan": protectedPlan})
}
