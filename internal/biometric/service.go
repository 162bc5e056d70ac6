// Package biometric は顔シグネチャ登録と音声セッション・pingの判定を提供する。
package biometric

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/elora/internal/metrics"
	"github.com/hitoshi/elora/internal/model"
	"github.com/hitoshi/elora/internal/repository"
	"github.com/hitoshi/elora/internal/voice"
)

// defaultFaceSize は顔シグネチャの既定の一辺のサイズ。
const defaultFaceSize = 24

// EnrollInput は声紋プロファイル登録の入力。
type EnrollInput struct {
	Version      string
	AvgPitchHz   float64
	AvgRMS       float64
	ConditionTag *string
}

// PingInput はpingの入力。ZCRは記録のみ行い、判定には使用しない。
type PingInput struct {
	SessionID string
	PitchHz   float64
	RMS       float64
	ZCR       *float64
	SNRDB     *float64
}

// PingVerdict はpingの判定結果。SNRDBは入力値をそのまま返す。
type PingVerdict struct {
	Emotion           voice.Emotion
	Similarity        float64
	IsOwner           bool
	MatchedProfileTag *string
	HealthFlag        bool
	SNRDB             *float64
}

// FaceInput は顔シグネチャ登録の入力。
type FaceInput struct {
	Version   string
	Signature model.FaceSignature
}

// Service は生体情報のサービス層。
// 判定ロジックはvoiceパッケージの純粋関数に委譲し、状態は持たない。
type Service struct {
	profileRepo repository.VoiceProfileRepository
	sessionRepo repository.VoiceSessionRepository
	pingRepo    repository.VoicePingRepository
	faceRepo    repository.FaceRepository
	metrics     metrics.MetricsCollector

	now   func() time.Time
	newID func() string
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(
	profileRepo repository.VoiceProfileRepository,
	sessionRepo repository.VoiceSessionRepository,
	pingRepo repository.VoicePingRepository,
	faceRepo repository.FaceRepository,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		pingRepo:    pingRepo,
		faceRepo:    faceRepo,
		metrics:     collector,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.New().String() },
	}
}

// EnrollVoiceProfile は声紋プロファイルを登録する。
// ConditionTagがある場合は(user, tag)をキーに既存プロファイルの平均値を上書きし、
// ない場合は常に新規作成する。空文字のタグはタグなしとして扱う。
func (s *Service) EnrollVoiceProfile(ctx context.Context, userID string, in EnrollInput) (*model.VoiceProfile, error) {
	now := s.now()
	tag := normalizeTag(in.ConditionTag)

	if tag != nil {
		existing, err := s.profileRepo.FindByUserAndTag(ctx, userID, *tag)
		if err != nil {
			return nil, fmt.Errorf("声紋プロファイルの取得に失敗しました: %w", err)
		}
		if existing != nil {
			existing.AvgPitchHz = in.AvgPitchHz
			existing.AvgRMS = in.AvgRMS
			existing.UpdatedAt = now
			if err := s.profileRepo.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("声紋プロファイルの更新に失敗しました: %w", err)
			}
			return existing, nil
		}
	}

	version := in.Version
	if version == "" {
		version = model.DefaultProfileVersion
	}
	profile := &model.VoiceProfile{
		ID:           s.newID(),
		UserID:       userID,
		Version:      version,
		AvgPitchHz:   in.AvgPitchHz,
		AvgRMS:       in.AvgRMS,
		ConditionTag: tag,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("声紋プロファイルの作成に失敗しました: %w", err)
	}

	return profile, nil
}

// StartSession は音声セッションを開始する。
func (s *Service) StartSession(ctx context.Context, userID string, origin, deviceLabel *string) (*model.VoiceSession, error) {
	session := &model.VoiceSession{
		ID:          s.newID(),
		UserID:      userID,
		Origin:      origin,
		DeviceLabel: deviceLabel,
		StartedAt:   s.now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("音声セッションの作成に失敗しました: %w", err)
	}

	slog.Debug("音声セッションを開始しました",
		slog.String("session_id", session.ID),
		slog.String("user_id", userID),
	)

	return session, nil
}

// SubmitPing はpingを判定して記録し、判定結果を返す。
// セッションが存在しないか他ユーザーの所有である場合はSESSION_NOT_FOUNDを返し、何も記録しない。
// 停止済みのセッションに対するpingも受け付ける。
func (s *Service) SubmitPing(ctx context.Context, userID string, in PingInput) (*PingVerdict, error) {
	if _, err := s.ownedSession(ctx, in.SessionID, userID); err != nil {
		return nil, err
	}

	profiles, err := s.profileRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("声紋プロファイル一覧の取得に失敗しました: %w", err)
	}

	best, similarity := voice.BestMatch(in.PitchHz, in.RMS, profiles)
	isOwner := voice.IsOwner(similarity)
	emotion := voice.ClassifyEmotion(in.PitchHz, in.RMS, in.SNRDB)

	var basePitch, baseRMS *float64
	var tag *string
	if best != nil {
		basePitch = &best.AvgPitchHz
		baseRMS = &best.AvgRMS
		tag = best.ConditionTag
	}
	health := voice.FlagHealth(in.PitchHz, in.RMS, basePitch, baseRMS, in.SNRDB)

	ping := &model.VoicePing{
		ID:                s.newID(),
		SessionID:         in.SessionID,
		Timestamp:         s.now(),
		PitchHz:           in.PitchHz,
		RMS:               in.RMS,
		ZCR:               in.ZCR,
		SNRDB:             in.SNRDB,
		Emotion:           string(emotion),
		Similarity:        similarity,
		IsOwner:           isOwner,
		MatchedProfileTag: tag,
		HealthFlag:        health,
	}
	if err := s.pingRepo.Create(ctx, ping); err != nil {
		return nil, fmt.Errorf("pingの保存に失敗しました: %w", err)
	}

	s.metrics.RecordPing(ping.Emotion, isOwner, health, similarity)

	return &PingVerdict{
		Emotion:           emotion,
		Similarity:        similarity,
		IsOwner:           isOwner,
		MatchedProfileTag: tag,
		HealthFlag:        health,
		SNRDB:             in.SNRDB,
	}, nil
}

// StopSession は音声セッションを停止する。
// 停止済みの場合は何もせず成功を返し、ended_atは上書きしない。
func (s *Service) StopSession(ctx context.Context, sessionID, userID string) error {
	session, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if session.IsClosed() {
		return nil
	}

	if err := s.sessionRepo.MarkEnded(ctx, sessionID, s.now()); err != nil {
		return fmt.Errorf("音声セッションの停止に失敗しました: %w", err)
	}

	slog.Debug("音声セッションを停止しました",
		slog.String("session_id", sessionID),
		slog.String("user_id", userID),
	)

	return nil
}

// ValidateSession はセッションがユーザーの所有であることを確認する。
// ストリーミング接続の確立前に使用する。
func (s *Service) ValidateSession(ctx context.Context, sessionID, userID string) error {
	_, err := s.ownedSession(ctx, sessionID, userID)
	return err
}

// SaveFace はユーザーの顔シグネチャを保存する。ユーザーごとに1件を保持し、既存の場合は上書きする。
func (s *Service) SaveFace(ctx context.Context, userID string, in FaceInput) (*model.BiometricFace, error) {
	sig := in.Signature
	if sig.Size == 0 {
		sig.Size = defaultFaceSize
	}
	if sig.Size < 1 {
		return nil, model.NewValidationError("signature.size must be positive")
	}
	if len(sig.Data) != sig.Size*sig.Size {
		return nil, model.NewValidationError(
			fmt.Sprintf("signature.data must have %d values, got %d", sig.Size*sig.Size, len(sig.Data)))
	}

	version := in.Version
	if version == "" {
		version = model.DefaultProfileVersion
	}

	now := s.now()
	face := &model.BiometricFace{
		ID:        s.newID(),
		UserID:    userID,
		Version:   version,
		Signature: sig,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.faceRepo.Upsert(ctx, face); err != nil {
		return nil, fmt.Errorf("顔シグネチャの保存に失敗しました: %w", err)
	}

	return face, nil
}

// ownedSession はセッションを取得し、呼び出し元ユーザーの所有であることを確認する。
// 存在しない場合と他ユーザー所有の場合は同じエラーを返す。
func (s *Service) ownedSession(ctx context.Context, sessionID, userID string) (*model.VoiceSession, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, model.NewSessionNotFoundError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("音声セッションの取得に失敗しました: %w", err)
	}
	if session == nil || !session.OwnedBy(userID) {
		return nil, model.NewSessionNotFoundError()
	}

	return session, nil
}

func normalizeTag(tag *string) *string {
	if tag == nil || *tag == "" {
		return nil
	}
	t := *tag
	return &t
}
