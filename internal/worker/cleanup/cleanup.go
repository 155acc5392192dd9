// Package cleanup は監査ログと送信済み再送予約の自動削除ジョブを提供する。
// 保持期間（デフォルト90日）を超過したコマンドログ・問い合わせ記録と、
// 過去日付のsent予約を日次バッチで削除する。
// 当日推薦レコード（daily_messages）は履歴参照に使うため削除対象にしない。
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
	"github.com/hitoshi/aromabot/internal/repository"
)

const defaultRetentionDays = 90

// CleanupJob は保持期間を超過したログの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	auditRepo     repository.AuditRepository
	repeatRepo    repository.RepeatRepository
	logger        *slog.Logger
	RetentionDays int // ログの保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(auditRepo repository.AuditRepository, repeatRepo repository.RepeatRepository, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		auditRepo:     auditRepo,
		repeatRepo:    repeatRepo,
		logger:        logger,
		RetentionDays: defaultRetentionDays,
	}
}

// Start は指定間隔のティッカーでジョブを起動する。起動直後に1回実行する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Int("retention_days", j.RetentionDays),
	)

	if err := j.Run(ctx); err != nil {
		j.logger.Error("クリーンアップジョブの実行に失敗しました", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップジョブの実行に失敗しました", slog.String("error", err.Error()))
			}
		}
	}
}

// Run は保持期間を超過したログと過去のsent予約を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := start.AddDate(0, 0, -j.RetentionDays)

	logsDeleted, err := j.auditRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	repeatsDeleted, err := j.repeatRepo.DeleteSentBefore(ctx, start.Format(model.DateFormat))
	if err != nil {
		return err
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("logs_deleted", logsDeleted),
		slog.Int64("repeats_deleted", repeatsDeleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
