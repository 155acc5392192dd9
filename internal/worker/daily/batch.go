// Package daily は日次送信バッチを提供する。
// 設定された送信時刻に全受信者へ順番にメッセージを生成・永続化・配信する。
package daily

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/aromabot/internal/generator"
	"github.com/hitoshi/aromabot/internal/metrics"
	"github.com/hitoshi/aromabot/internal/model"
	"github.com/hitoshi/aromabot/internal/repository"
	"github.com/hitoshi/aromabot/internal/security"
	"github.com/hitoshi/aromabot/internal/selection"
	"github.com/hitoshi/aromabot/internal/telegram"
)

// DayResolver は日付文脈の解決インターフェース（バッチ側から見た依存）。
type DayResolver interface {
	Resolve(ctx context.Context, date time.Time) model.DayContext
}

// OilSelector はオイル選定のインターフェース。
type OilSelector interface {
	Select(catalog []*model.Oil, day model.DayContext, exclusions []string) selection.Pick
}

// LocaleLookup は受信者のロケールを解決する。
type LocaleLookup func(chatID string) string

// recipientResult は1受信者分の配信結果。管理者レポートの材料になる。
type recipientResult struct {
	ChatID  string
	Locale  string
	Success bool
	Err     string
}

// Batch は日次送信バッチの本体。
// 受信者を順番に処理し、1人の失敗が残りの受信者の処理を妨げないことを保証する。
type Batch struct {
	messageRepo  repository.MessageRepository
	oilRepo      repository.OilRepository
	resolver     DayResolver
	selector     OilSelector
	orchestrator generator.OrchestratorService
	sanitizer    security.MessageSanitizerService
	sender       telegram.ClientService
	collector    metrics.MetricsCollector
	logger       *slog.Logger

	chatIDs     []string
	localeFor   LocaleLookup
	adminChatID string
	historyDays int
	sendHour    int
	sendMinute  int
	location    *time.Location
	limiter     *rate.Limiter
	genTimeout  time.Duration
	now         func() time.Time // テスト用に差し替え可能
}

// Options はBatchの構成パラメータ。
type Options struct {
	ChatIDs      []string
	LocaleFor    LocaleLookup
	AdminChatID  string
	HistoryDays  int
	SendHour     int
	SendMinute   int
	Location     *time.Location
	SendInterval time.Duration // 受信者間の送信間隔（レートリミット対策）
	GenTimeout   time.Duration
}

// NewBatch はBatchの新しいインスタンスを生成する。
func NewBatch(
	messageRepo repository.MessageRepository,
	oilRepo repository.OilRepository,
	resolver DayResolver,
	selector OilSelector,
	orchestrator generator.OrchestratorService,
	sanitizer security.MessageSanitizerService,
	sender telegram.ClientService,
	collector metrics.MetricsCollector,
	opts Options,
	logger *slog.Logger,
) *Batch {
	interval := opts.SendInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	genTimeout := opts.GenTimeout
	if genTimeout <= 0 {
		genTimeout = time.Minute
	}
	return &Batch{
		messageRepo:  messageRepo,
		oilRepo:      oilRepo,
		resolver:     resolver,
		selector:     selector,
		orchestrator: orchestrator,
		sanitizer:    sanitizer,
		sender:       sender,
		collector:    collector,
		logger:       logger,
		chatIDs:      opts.ChatIDs,
		localeFor:    opts.LocaleFor,
		adminChatID:  opts.AdminChatID,
		historyDays:  opts.HistoryDays,
		sendHour:     opts.SendHour,
		sendMinute:   opts.SendMinute,
		location:     opts.Location,
		limiter:      rate.NewLimiter(rate.Every(interval), 1),
		genTimeout:   genTimeout,
		now:          func() time.Time { return time.Now().In(opts.Location) },
	}
}

// Start は送信時刻まで待機し、日次バッチを実行するループを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (b *Batch) Start(ctx context.Context) {
	b.logger.Info("日次送信スケジューラを開始しました",
		slog.String("send_time", fmt.Sprintf("%02d:%02d", b.sendHour, b.sendMinute)),
		slog.Int("recipients", len(b.chatIDs)),
	)

	for {
		next := b.nextSendTime()
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			b.logger.Info("日次送信スケジューラを停止しました")
			return
		case <-timer.C:
			b.RunBatch(ctx)
		}
	}
}

// nextSendTime は次の送信時刻を返す。当日の送信時刻を過ぎていれば翌日。
func (b *Batch) nextSendTime() time.Time {
	now := b.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), b.sendHour, b.sendMinute, 0, 0, b.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunBatch は全受信者への日次送信を1回実行する。
// 受信者は順番に処理され、間隔制御のうえで配信される。
// 個々の受信者の失敗はログと結果に記録され、バッチ全体は継続する。
func (b *Batch) RunBatch(ctx context.Context) []recipientResult {
	runID := uuid.NewString()
	start := b.now()

	b.logger.Info("日次送信バッチを開始します",
		slog.String("run_id", runID),
		slog.Int("recipients", len(b.chatIDs)),
	)

	results := make([]recipientResult, 0, len(b.chatIDs))
	for _, chatID := range b.chatIDs {
		if err := b.limiter.Wait(ctx); err != nil {
			b.logger.Info("日次送信バッチが中断されました", slog.String("run_id", runID))
			break
		}

		locale := b.localeFor(chatID)
		result := recipientResult{ChatID: chatID, Locale: locale}
		if err := b.sendTo(ctx, chatID, locale); err != nil {
			result.Err = err.Error()
			b.collector.RecordSendFailure()
			b.logger.Error("受信者への配信に失敗しました",
				slog.String("run_id", runID),
				slog.String("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		} else {
			result.Success = true
			b.collector.RecordSendSuccess()
		}
		results = append(results, result)
	}

	b.logger.Info("日次送信バッチが完了しました",
		slog.String("run_id", runID),
		slog.Int("total", len(results)),
		slog.Int("success", countSuccess(results)),
		slog.Duration("duration", b.now().Sub(start)),
	)

	b.sendAdminReport(ctx, results, start)
	return results
}

// sendTo は1受信者分のサイクル（文脈解決→選定→生成→永続化→配信）を実行する。
// 永続化の失敗はログに記録したうえで配信を継続する（許容される不整合）。
func (b *Batch) sendTo(ctx context.Context, chatID, locale string) error {
	now := b.now()
	day := b.resolver.Resolve(ctx, now)

	catalog, err := b.oilRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("オイルカタログの取得に失敗しました: %w", err)
	}
	if len(catalog) == 0 {
		return fmt.Errorf("オイルカタログが空です")
	}

	since := now.AddDate(0, 0, -b.historyDays).Format(model.DateFormat)
	exclusions, err := b.messageRepo.ListRecentOilNames(ctx, chatID, since)
	if err != nil {
		// 履歴が取れなくても送信は止めない。除外なしで選定する。
		b.logger.Warn("推薦履歴の取得に失敗しました",
			slog.String("chat_id", chatID),
			slog.String("error", err.Error()),
		)
		exclusions = nil
	}

	pick := b.selector.Select(catalog, day, exclusions)
	if pick.PrimaryName == "" {
		return fmt.Errorf("オイルの選定に失敗しました")
	}

	primary := b.resolveOil(ctx, pick.PrimaryName)
	var alternative *model.Oil
	if pick.AlternativeName != "" {
		alternative = b.resolveOil(ctx, pick.AlternativeName)
	}

	genCtx, cancel := context.WithTimeout(ctx, b.genTimeout)
	defer cancel()
	result, err := b.orchestrator.Generate(genCtx, generator.Request{
		Day:         day,
		Locale:      locale,
		Primary:     primary,
		Alternative: alternative,
	})
	if err != nil {
		return fmt.Errorf("メッセージの生成に失敗しました: %w", err)
	}
	b.collector.RecordGenerationAttempts(result.Attempts)
	if result.Outcome == generator.OutcomeFallback {
		b.collector.RecordSafetyFallback()
	}

	record := &model.DailyMessage{
		UserID:         chatID,
		Date:           now.Format(model.DateFormat),
		MessageText:    result.Text,
		PrimaryOil:     pick.PrimaryName,
		AlternativeOil: pick.AlternativeName,
		MessageType:    day.MessageType,
		CreatedAt:      now,
	}
	if err := b.messageRepo.Save(ctx, record); err != nil {
		// 配信と永続化の部分成功は許容される。記録して配信は続ける。
		b.logger.Error("当日レコードの保存に失敗しました",
			slog.String("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}

	if err := b.sender.SendMessage(ctx, chatID, b.sanitizer.Sanitize(result.Text)); err != nil {
		return fmt.Errorf("メッセージの送信に失敗しました: %w", err)
	}
	return nil
}

// resolveOil はカタログからオイル詳細を取得する。未登録でも名前だけのモデルを返す。
func (b *Batch) resolveOil(ctx context.Context, name string) *model.Oil {
	oil, err := b.oilRepo.FindByName(ctx, name)
	if err != nil || oil == nil {
		return &model.Oil{Name: name}
	}
	return oil
}

// sendAdminReport は配信結果のレポートを管理者チャットに送信する。
// 管理者チャットが未設定の場合は何もしない。失敗はログのみ。
func (b *Batch) sendAdminReport(ctx context.Context, results []recipientResult, sentAt time.Time) {
	if b.adminChatID == "" || len(results) == 0 {
		return
	}

	var successful, failed []recipientResult
	for _, r := range results {
		if r.Success {
			successful = append(successful, r)
		} else {
			failed = append(failed, r)
		}
	}

	var report strings.Builder
	report.WriteString("📊 <b>Soul Aligned Oils - Versandbericht</b>\n\n")
	fmt.Fprintf(&report, "🕐 Zeit: %s\n", sentAt.Format("02.01.2006 um 15:04 Uhr"))
	fmt.Fprintf(&report, "📨 Gesamt: %d Nachrichten\n\n", len(results))

	fmt.Fprintf(&report, "✅ <b>Erfolgreich: %d</b>\n", len(successful))
	if len(successful) == 0 {
		report.WriteString("  Keine erfolgreichen Zusendungen\n")
	}
	for _, r := range successful {
		fmt.Fprintf(&report, "  • %s (%s)\n", r.ChatID, r.Locale)
	}
	report.WriteString("\n")

	if len(failed) > 0 {
		fmt.Fprintf(&report, "❌ <b>Fehlgeschlagen: %d</b>\n", len(failed))
		for _, r := range failed {
			fmt.Fprintf(&report, "  • %s (%s)\n    Fehler: %s\n", r.ChatID, r.Locale, r.Err)
		}
	} else {
		report.WriteString("❌ Keine Fehlschläge\n")
	}

	if err := b.sender.SendMessage(ctx, b.adminChatID, report.String()); err != nil {
		b.logger.Error("管理者レポートの送信に失敗しました",
			slog.String("admin_chat_id", b.adminChatID),
			slog.String("error", err.Error()),
		)
	}
}

func countSuccess(results []recipientResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
