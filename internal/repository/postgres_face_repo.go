package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/elora/internal/model"
)

// PostgresFaceRepo はPostgreSQLを使用した顔シグネチャリポジトリ。
// シグネチャはjsonb列に保存する。
type PostgresFaceRepo struct {
	db *sql.DB
}

// NewPostgresFaceRepo はPostgresFaceRepoを生成する。
func NewPostgresFaceRepo(db *sql.DB) *PostgresFaceRepo {
	return &PostgresFaceRepo{db: db}
}

// FindByUserID はユーザーの顔シグネチャを取得する。見つからない場合はnilを返す。
func (r *PostgresFaceRepo) FindByUserID(ctx context.Context, userID string) (*model.BiometricFace, error) {
	face := &model.BiometricFace{}
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, version, signature, created_at, updated_at
		 FROM biometric_faces WHERE user_id = $1`,
		userID,
	).Scan(&face.ID, &face.UserID, &face.Version, &raw, &face.CreatedAt, &face.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find face: %w", err)
	}

	if err := json.Unmarshal(raw, &face.Signature); err != nil {
		return nil, fmt.Errorf("failed to decode face signature: %w", err)
	}

	return face, nil
}

// Upsert はUNIQUE(user_id)制約を利用したINSERT ON CONFLICTで顔シグネチャを保存する。
// 既存レコードがある場合はシグネチャとupdated_atのみ更新し、ID・バージョン・created_atを維持する。
func (r *PostgresFaceRepo) Upsert(ctx context.Context, face *model.BiometricFace) error {
	raw, err := json.Marshal(face.Signature)
	if err != nil {
		return fmt.Errorf("failed to encode face signature: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO biometric_faces (id, user_id, version, signature, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE
		 SET signature = EXCLUDED.signature,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, version, created_at`,
		face.ID, face.UserID, face.Version, raw, face.CreatedAt, face.UpdatedAt,
	).Scan(&face.ID, &face.Version, &face.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert face: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FaceRepository = (*PostgresFaceRepo)(nil)
