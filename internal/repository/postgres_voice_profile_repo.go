package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/elora/internal/model"
)

// PostgresVoiceProfileRepo はPostgreSQLを使用した声紋プロファイルリポジトリ。
// condition_tagには一意制約を設けない。タグ付きのupsertはサービス層が
// FindByUserAndTagとUpdate/Createを組み合わせて行う。
type PostgresVoiceProfileRepo struct {
	db *sql.DB
}

// NewPostgresVoiceProfileRepo はPostgresVoiceProfileRepoを生成する。
func NewPostgresVoiceProfileRepo(db *sql.DB) *PostgresVoiceProfileRepo {
	return &PostgresVoiceProfileRepo{db: db}
}

// ListByUserID はユーザーの全プロファイルを作成順に返す。
// 作成順は照合時の同点判定の順序になる。
func (r *PostgresVoiceProfileRepo) ListByUserID(ctx context.Context, userID string) ([]model.VoiceProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, version, avg_pitch_hz, avg_rms, condition_tag, created_at, updated_at
		 FROM voice_profiles
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.VoiceProfile
	for rows.Next() {
		var p model.VoiceProfile
		var tag sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.Version, &p.AvgPitchHz, &p.AvgRMS, &tag, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan voice profile: %w", err)
		}
		if tag.Valid {
			p.ConditionTag = &tag.String
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate voice profiles: %w", err)
	}

	return profiles, nil
}

// FindByUserAndTag はユーザーIDとConditionTagでプロファイルを検索する。見つからない場合はnilを返す。
// 同じタグの行が複数ある場合は最も古いものを返す。
func (r *PostgresVoiceProfileRepo) FindByUserAndTag(ctx context.Context, userID, tag string) (*model.VoiceProfile, error) {
	p := &model.VoiceProfile{}
	var condition sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, version, avg_pitch_hz, avg_rms, condition_tag, created_at, updated_at
		 FROM voice_profiles
		 WHERE user_id = $1 AND condition_tag = $2
		 ORDER BY created_at ASC
		 LIMIT 1`,
		userID, tag,
	).Scan(&p.ID, &p.UserID, &p.Version, &p.AvgPitchHz, &p.AvgRMS, &condition, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find voice profile: %w", err)
	}
	if condition.Valid {
		p.ConditionTag = &condition.String
	}

	return p, nil
}

// Create はプロファイルを作成する。
func (r *PostgresVoiceProfileRepo) Create(ctx context.Context, profile *model.VoiceProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO voice_profiles (id, user_id, version, avg_pitch_hz, avg_rms, condition_tag, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		profile.ID, profile.UserID, profile.Version, profile.AvgPitchHz, profile.AvgRMS,
		profile.ConditionTag, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create voice profile: %w", err)
	}
	return nil
}

// Update はプロファイルの平均値を上書きする。バージョンは作成時の値を維持する。
func (r *PostgresVoiceProfileRepo) Update(ctx context.Context, profile *model.VoiceProfile) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE voice_profiles
		 SET avg_pitch_hz = $2, avg_rms = $3, updated_at = $4
		 WHERE id = $1`,
		profile.ID, profile.AvgPitchHz, profile.AvgRMS, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update voice profile: %w", err)
	}
	return nil
}

// compile-time interface check
var _ VoiceProfileRepository = (*PostgresVoiceProfileRepo)(nil)
