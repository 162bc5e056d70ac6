// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/elora/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
var ErrDuplicate = errors.New("duplicate record")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error
}

// FaceRepository は顔シグネチャの永続化インターフェース。
type FaceRepository interface {
	// FindByUserID はユーザーの顔シグネチャを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.BiometricFace, error)

	// Upsert はユーザーごとに1件の顔シグネチャを作成または上書きする。
	Upsert(ctx context.Context, face *model.BiometricFace) error
}

// VoiceProfileRepository は声紋プロファイルの永続化インターフェース。
type VoiceProfileRepository interface {
	// ListByUserID はユーザーの全プロファイルを作成順に返す。
	ListByUserID(ctx context.Context, userID string) ([]model.VoiceProfile, error)

	// FindByUserAndTag はユーザーIDとConditionTagでプロファイルを検索する。
	// タグなしのプロファイルは対象外。見つからない場合はnilを返す。
	FindByUserAndTag(ctx context.Context, userID, tag string) (*model.VoiceProfile, error)

	// Create はプロファイルを作成する。
	Create(ctx context.Context, profile *model.VoiceProfile) error

	// Update はプロファイルの平均値を上書きする。
	Update(ctx context.Context, profile *model.VoiceProfile) error
}

// VoiceSessionRepository は音声セッションの永続化インターフェース。
type VoiceSessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.VoiceSession) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.VoiceSession, error)

	// MarkEnded はended_atが未設定の場合のみ終了日時を設定する。
	MarkEnded(ctx context.Context, id string, endedAt time.Time) error
}

// VoicePingRepository はpingの永続化インターフェース。pingは作成後に更新しない。
type VoicePingRepository interface {
	// Create はpingを作成する。
	Create(ctx context.Context, ping *model.VoicePing) error
}
