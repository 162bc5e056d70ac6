// Package retention は音声データの保持期間管理ジョブを提供する。
// 運用者が保持日数を設定した場合のみ有効になり、既定では何も削除しない。
// 有効時は保持期間を超過したpingと終了済みセッションを日次で削除する。
// 終了済みセッションに属するpingはCASCADE削除で自動的に処理される。
package retention

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays は既定の保持日数。0は無効を表す。
const DefaultRetentionDays = 0

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type purge struct {
	table string
	query string
}

var purges = []purge{
	{"voice_pings", `DELETE FROM voice_pings WHERE ts < now() - $1::interval`},
	{"voice_sessions", `DELETE FROM voice_sessions WHERE ended_at IS NOT NULL AND ended_at < now() - $1::interval`},
}

// Job は保持期間を超過した音声データを削除するジョブ。冪等に実行できる。
type Job struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // 0以下の場合は削除しない
}

// NewJob は新しいJobを生成する。
func NewJob(db Executor, logger *slog.Logger, retentionDays int) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{db: db, logger: logger, RetentionDays: retentionDays}
}

// Run は保持期間を超過したpingと終了済みセッションを削除する。
func (j *Job) Run(ctx context.Context) error {
	if j.RetentionDays <= 0 {
		return nil
	}

	start := time.Now()
	interval := fmt.Sprintf("%d days", j.RetentionDays)

	attrs := []any{slog.Int("retention_days", j.RetentionDays)}
	for _, p := range purges {
		result, err := j.db.ExecContext(ctx, p.query, interval)
		if err != nil {
			j.logger.Error("音声データの削除に失敗しました",
				slog.String("table", p.table),
				slog.String("error", err.Error()),
				slog.Int("retention_days", j.RetentionDays),
			)
			return fmt.Errorf("%sの削除に失敗しました: %w", p.table, err)
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("削除件数の取得に失敗しました: %w", err)
		}
		attrs = append(attrs, slog.Int64(p.table+"_deleted", deleted))
	}

	attrs = append(attrs, slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())))
	j.logger.Info("音声データの保持期間ジョブが完了しました", attrs...)
	return nil
}

// Start は起動直後に1回、その後interval毎にRunを実行する。ctxがキャンセルされるまでブロックする。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if j.RetentionDays <= 0 {
		return
	}

	j.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

// runLogged はRunのエラーをログに残すだけで伝播しない。失敗は次回の実行で再試行される。
func (j *Job) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("retention job failed", slog.String("error", err.Error()))
	}
}
