// Package repeat は再送予約の定期スイープを提供する。
// 予約時刻を迎えたpending予約を見つけ、保存済みの当日メッセージを再送する。
package repeat

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/aromabot/internal/metrics"
	"github.com/hitoshi/aromabot/internal/model"
	"github.com/hitoshi/aromabot/internal/repository"
	"github.com/hitoshi/aromabot/internal/security"
	"github.com/hitoshi/aromabot/internal/telegram"
)

// Sweeper は再送予約の定期スイープ本体。
type Sweeper struct {
	repeatRepo  repository.RepeatRepository
	messageRepo repository.MessageRepository
	sender      telegram.ClientService
	sanitizer   security.MessageSanitizerService
	collector   metrics.MetricsCollector
	logger      *slog.Logger
	location    *time.Location
	now         func() time.Time // テスト用に差し替え可能
}

// NewSweeper はSweeperの新しいインスタンスを生成する。
func NewSweeper(
	repeatRepo repository.RepeatRepository,
	messageRepo repository.MessageRepository,
	sender telegram.ClientService,
	sanitizer security.MessageSanitizerService,
	collector metrics.MetricsCollector,
	location *time.Location,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		repeatRepo:  repeatRepo,
		messageRepo: messageRepo,
		sender:      sender,
		sanitizer:   sanitizer,
		collector:   collector,
		logger:      logger,
		location:    location,
		now:         func() time.Time { return time.Now().In(location) },
	}
}

// Start は固定間隔のティッカーでスイープを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("再送スイープを開始しました", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("再送スイープを停止しました")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce は予約時刻を迎えたpending予約を1回分処理する。
//
// 当日メッセージが存在しない予約は「処理対象なし」として消化する（エラーではない）。
// 送信に失敗した予約はpendingのまま残し、次のスイープで再試行する。
// sentへの遷移は送信成功時（または対象なしの消化時）に一度だけ行われる。
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := s.now()
	today := now.Format(model.DateFormat)

	due, err := s.repeatRepo.ListDue(ctx, today, now.Format("15:04"))
	if err != nil {
		s.logger.Error("再送予約の取得に失敗しました", slog.String("error", err.Error()))
		return
	}
	if len(due) == 0 {
		return
	}

	for _, r := range due {
		record, err := s.messageRepo.FindByUserAndDate(ctx, r.UserID, r.Date)
		if err != nil {
			s.logger.Error("当日レコードの取得に失敗しました",
				slog.Int64("repeat_id", r.ID),
				slog.String("user_id", r.UserID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if record == nil {
			// 再送すべきメッセージがない。予約は消化して終わり。
			s.logger.Info("再送対象のメッセージが存在しないため予約を消化します",
				slog.Int64("repeat_id", r.ID),
				slog.String("user_id", r.UserID),
			)
			s.markSent(ctx, r.ID, now)
			continue
		}

		if err := s.sender.SendMessage(ctx, r.UserID, s.sanitizer.Sanitize(record.MessageText)); err != nil {
			s.logger.Error("再送に失敗しました。次回のスイープで再試行します",
				slog.Int64("repeat_id", r.ID),
				slog.String("user_id", r.UserID),
				slog.String("error", err.Error()),
			)
			continue
		}

		s.markSent(ctx, r.ID, now)
		s.collector.RecordRepeatSent()
		s.logger.Info("予約されたメッセージを再送しました",
			slog.Int64("repeat_id", r.ID),
			slog.String("user_id", r.UserID),
			slog.String("repeat_time", r.RepeatTime),
		)
	}
}

func (s *Sweeper) markSent(ctx context.Context, id int64, sentAt time.Time) {
	if err := s.repeatRepo.MarkSent(ctx, id, sentAt); err != nil {
		s.logger.Error("予約の完了遷移に失敗しました",
			slog.Int64("repeat_id", id),
			slog.String("error", err.Error()),
		)
	}
}
