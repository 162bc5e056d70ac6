package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/elora/internal/auth"
	"github.com/hitoshi/elora/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	GoogleSignIn(ctx context.Context, idToken string) (string, error)
}

// AuthHandler はアカウント登録とサインインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	Username            string `json:"username"`
	FullName            string `json:"full_name"`
	Email               string `json:"email"`
	Password            string `json:"password"`
	AgentName           string `json:"agent_name"`
	WorkSchedule        string `json:"work_schedule"`
	CrisisOptIn         bool   `json:"crisis_opt_in"`
	TrustedContactName  string `json:"trusted_contact_name"`
	TrustedContactPhone string `json:"trusted_contact_phone"`
}

type registeredUser struct {
	UID       string `json:"uid"`
	Username  string `json:"username"`
	AgentName string `json:"agent_name"`
}

type registerResponse struct {
	User registeredUser `json:"user"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleSignInRequest struct {
	IDToken string `json:"id_token"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Register はアカウント登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Username:            req.Username,
		FullName:            req.FullName,
		Email:               req.Email,
		Password:            req.Password,
		AgentName:           req.AgentName,
		WorkSchedule:        req.WorkSchedule,
		CrisisOptIn:         req.CrisisOptIn,
		TrustedContactName:  req.TrustedContactName,
		TrustedContactPhone: req.TrustedContactPhone,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{User: registeredUser{
		UID:       user.ID,
		Username:  user.Username,
		AgentName: user.AgentName,
	}})
}

// SignIn はメールアドレスとパスワードによるサインインを処理する。
// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

// GoogleSignIn はGoogle IDトークンによるサインインを処理する。
// POST /auth/google
func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var req googleSignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		handleServiceError(w, r, model.NewValidationError("id_token is required"))
		return
	}

	token, err := h.service.GoogleSignIn(r.Context(), req.IDToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}
