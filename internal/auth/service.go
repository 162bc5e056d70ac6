// Package auth はアカウント登録、サインイン、アクセストークンの発行と検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/elora/internal/model"
	"github.com/hitoshi/elora/internal/repository"
)

const (
	defaultAgentName       = "ELORA"
	defaultGoogleAgentName = "Asha"
)

// RegisterInput はアカウント登録の入力。
type RegisterInput struct {
	Username            string
	FullName            string
	Email               string
	Password            string
	AgentName           string
	WorkSchedule        string
	CrisisOptIn         bool
	TrustedContactName  string
	TrustedContactPhone string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenIssuer
	google   IDTokenVerifier // nilの場合はGoogleサインイン無効
	now      func() time.Time
}

// NewService はServiceを生成する。googleがnilの場合、GoogleSignInは未設定エラーを返す。
func NewService(userRepo repository.UserRepository, tokens *TokenIssuer, google IDTokenVerifier) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		google:   google,
		now:      time.Now,
	}
}

// Register は新規ユーザーを登録する。
// メールアドレスが登録済みの場合はEmailTakenエラーを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" || strings.TrimSpace(in.Username) == "" {
		return nil, model.NewValidationError("username, email and password are required")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	agentName := in.AgentName
	if agentName == "" {
		agentName = defaultAgentName
	}

	now := s.now()
	user := &model.User{
		ID:                  uuid.New().String(),
		Username:            in.Username,
		FullName:            in.FullName,
		Email:               email,
		PasswordHash:        hash,
		AgentName:           agentName,
		WorkSchedule:        in.WorkSchedule,
		CrisisOptIn:         in.CrisisOptIn,
		TrustedContactName:  in.TrustedContactName,
		TrustedContactPhone: in.TrustedContactPhone,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// SignIn はメールアドレスとパスワードで認証し、アクセストークンを発行する。
// ユーザーが存在しない場合とパスワード不一致を区別しない。
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return "", model.NewBadCredentialsError()
	}

	return s.tokens.Issue(user.ID)
}

// GoogleSignIn はGoogle IDトークンで認証し、アクセストークンを発行する。
// 初回サインイン時はユーザーを自動作成する。
func (s *Service) GoogleSignIn(ctx context.Context, idToken string) (string, error) {
	if s.google == nil {
		return "", model.NewGoogleNotConfiguredError()
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		slog.Warn("google id token rejected", slog.String("error", err.Error()))
		return "", model.NewInvalidGoogleTokenError()
	}

	user, err := s.userRepo.FindByEmail(ctx, identity.Email)
	if err != nil {
		return "", fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}

	if user == nil {
		user, err = s.createGoogleUser(ctx, identity)
		if err != nil {
			return "", err
		}
	}

	return s.tokens.Issue(user.ID)
}

func (s *Service) createGoogleUser(ctx context.Context, identity *GoogleIdentity) (*model.User, error) {
	username, _, _ := strings.Cut(identity.Email, "@")
	now := s.now()
	user := &model.User{
		ID:        uuid.New().String(),
		Username:  username,
		FullName:  identity.Name,
		Email:     identity.Email,
		AgentName: defaultGoogleAgentName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// 同時サインインで先に作成された
		existing, findErr := s.userRepo.FindByEmail(ctx, identity.Email)
		if findErr != nil {
			return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", findErr)
		}
		if existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("google user created", slog.String("user_id", user.ID))
	return user, nil
}

// VerifyToken はアクセストークンを検証し、ユーザーIDを返す。
func (s *Service) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}
