package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/elora/internal/model"
)

// PostgresVoicePingRepo はPostgreSQLを使用したpingリポジトリ。
type PostgresVoicePingRepo struct {
	db *sql.DB
}

// NewPostgresVoicePingRepo はPostgresVoicePingRepoを生成する。
func NewPostgresVoicePingRepo(db *sql.DB) *PostgresVoicePingRepo {
	return &PostgresVoicePingRepo{db: db}
}

// Create はpingを作成する。
func (r *PostgresVoicePingRepo) Create(ctx context.Context, ping *model.VoicePing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO voice_pings (
			id, session_id, ts, pitch_hz, rms, zcr, snr_db,
			emotion, similarity, is_owner, matched_profile_tag, health_flag
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ping.ID, ping.SessionID, ping.Timestamp, ping.PitchHz, ping.RMS, ping.ZCR, ping.SNRDB,
		ping.Emotion, ping.Similarity, ping.IsOwner, ping.MatchedProfileTag, ping.HealthFlag,
	)
	if err != nil {
		return fmt.Errorf("failed to create voice ping: %w", err)
	}
	return nil
}

// compile-time interface check
var _ VoicePingRepository = (*PostgresVoicePingRepo)(nil)
