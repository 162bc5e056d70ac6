package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/elora/internal/model"
)

// PostgresVoiceSessionRepo はPostgreSQLを使用した音声セッションリポジトリ。
type PostgresVoiceSessionRepo struct {
	db *sql.DB
}

// NewPostgresVoiceSessionRepo はPostgresVoiceSessionRepoを生成する。
func NewPostgresVoiceSessionRepo(db *sql.DB) *PostgresVoiceSessionRepo {
	return &PostgresVoiceSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresVoiceSessionRepo) Create(ctx context.Context, session *model.VoiceSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO voice_sessions (id, user_id, origin, device_label, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.UserID, session.Origin, session.DeviceLabel, session.StartedAt, session.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create voice session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
// 停止済みのセッションも返す。
func (r *PostgresVoiceSessionRepo) FindByID(ctx context.Context, id string) (*model.VoiceSession, error) {
	session := &model.VoiceSession{}
	var origin, deviceLabel sql.NullString
	var endedAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, origin, device_label, started_at, ended_at
		 FROM voice_sessions
		 WHERE id = $1`,
		id,
	).Scan(&session.ID, &session.UserID, &origin, &deviceLabel, &session.StartedAt, &endedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find voice session: %w", err)
	}

	if origin.Valid {
		session.Origin = &origin.String
	}
	if deviceLabel.Valid {
		session.DeviceLabel = &deviceLabel.String
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}

	return session, nil
}

// MarkEnded はended_atが未設定の場合のみ終了日時を設定する。
// 停止済みのセッションに対しては何も変更しない。
func (r *PostgresVoiceSessionRepo) MarkEnded(ctx context.Context, id string, endedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE voice_sessions SET ended_at = $2 WHERE id = $1 AND ended_at IS NULL`,
		id, endedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to end voice session: %w", err)
	}
	return nil
}

// compile-time interface check
var _ VoiceSessionRepository = (*PostgresVoiceSessionRepo)(nil)
