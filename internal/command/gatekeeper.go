// Package command は受信コマンドの処理と当日推薦に対するアクセス制御を提供する。
//
// Infoコマンドの許可判定が中心的な不変条件で、詳細情報を要求できるのは
// その受信者にその日実際に推薦されたオイル（primary/alternative）に限られる。
// カタログに存在するだけのオイルへの問い合わせは常に拒否される。
package command

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/aromabot/internal/generator"
	"github.com/hitoshi/aromabot/internal/model"
	"github.com/hitoshi/aromabot/internal/repository"
	"github.com/hitoshi/aromabot/internal/selection"
)

// reactionEmojis は受け付けるリアクション絵文字の固定セット。
var reactionEmojis = map[string]bool{
	"👍": true,
	"👎": true,
	"✅": true,
	"❌": true,
}

// positiveReactions は肯定的なリアクションとして扱う絵文字。
var positiveReactions = map[string]bool{
	"👍": true,
	"✅": true,
}

// DayResolver は日付文脈の解決インターフェース（コマンド処理側から見た依存）。
type DayResolver interface {
	Resolve(ctx context.Context, date time.Time) model.DayContext
}

// OilSelector はオイル選定のインターフェース。
type OilSelector interface {
	Select(catalog []*model.Oil, day model.DayContext, exclusions []string) selection.Pick
}

// CommandRecorder はコマンド処理のメトリクス記録インターフェース。
type CommandRecorder interface {
	RecordCommand(kind string, allowed bool)
}

// Gatekeeper は受信テキストを解釈し、当日推薦レコードに基づいて
// 許可・拒否を判定した上で返信テキストを組み立てる。
// 返信テキストが空文字列の場合、呼び出し元は何も送信しない。
type Gatekeeper struct {
	messageRepo  repository.MessageRepository
	oilRepo      repository.OilRepository
	reactionRepo repository.ReactionRepository
	repeatRepo   repository.RepeatRepository
	auditRepo    repository.AuditRepository
	resolver     DayResolver
	selector     OilSelector
	orchestrator generator.OrchestratorService
	recorder     CommandRecorder
	logger       *slog.Logger
	historyDays  int
	now          func() time.Time // テスト用に差し替え可能
}

// NewGatekeeper はGatekeeperの新しいインスタンスを生成する。
func NewGatekeeper(
	messageRepo repository.MessageRepository,
	oilRepo repository.OilRepository,
	reactionRepo repository.ReactionRepository,
	repeatRepo repository.RepeatRepository,
	auditRepo repository.AuditRepository,
	resolver DayResolver,
	selector OilSelector,
	orchestrator generator.OrchestratorService,
	recorder CommandRecorder,
	historyDays int,
	location *time.Location,
	logger *slog.Logger,
) *Gatekeeper {
	return &Gatekeeper{
		messageRepo:  messageRepo,
		oilRepo:      oilRepo,
		reactionRepo: reactionRepo,
		repeatRepo:   repeatRepo,
		auditRepo:    auditRepo,
		resolver:     resolver,
		selector:     selector,
		orchestrator: orchestrator,
		recorder:     recorder,
		logger:       logger,
		historyDays:  historyDays,
		now:          func() time.Time { return time.Now().In(location) },
	}
}

// HandleMessage は受信テキストを処理し、返信テキストを返す。
// 未知の入力は監査ログに記録した上で空文字列を返す（意図的な無応答）。
// ストレージ障害はログに記録して縮退し、エラーとして伝播させない。
func (g *Gatekeeper) HandleMessage(ctx context.Context, userID, text, locale string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if reactionEmojis[text] {
		return g.handleReaction(ctx, userID, text, locale)
	}

	lower := strings.ToLower(text)
	switch {
	case lower == "hilfe" || lower == "help" || lower == "?" || lower == "/help" || lower == "/hilfe":
		g.logCommand(ctx, userID, "help", text, true)
		g.record("help", true)
		return helpText(locale)
	case strings.HasPrefix(lower, "repeat"):
		return g.handleRepeat(ctx, userID, text, locale)
	case lower == "alternative" || lower == "alternativ" || lower == "alt":
		return g.handleAlternative(ctx, userID, locale)
	case strings.HasPrefix(lower, "info"):
		return g.handleInfo(ctx, userID, text, locale)
	default:
		// 未知の入力には応答しない。コマンド面の探索を促さないための仕様。
		g.logCommand(ctx, userID, "unknown", text, false)
		g.record("unknown", false)
		return ""
	}
}

// handleReaction はリアクション絵文字を記録して短い謝辞を返す。許可判定はない。
func (g *Gatekeeper) handleReaction(ctx context.Context, userID, emoji, locale string) string {
	now := g.now()
	reaction := &model.Reaction{
		UserID:    userID,
		Date:      now.Format(model.DateFormat),
		Reaction:  emoji,
		CreatedAt: now,
	}
	if err := g.reactionRepo.Upsert(ctx, reaction); err != nil {
		g.logger.Error("リアクションの保存に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	g.logCommand(ctx, userID, "reaction", emoji, true)
	g.record("reaction", true)

	if positiveReactions[emoji] {
		return reactionAckPositive(locale)
	}
	return reactionAckNegative(locale)
}

// handleRepeat は当日メッセージの再送予約を処理する。
// 時刻が抽出できない、または当日中の未来でない場合は拒否する。
func (g *Gatekeeper) handleRepeat(ctx context.Context, userID, text, locale string) string {
	hour, minute, found, valid := parseRepeatTime(text)
	if !found {
		g.logCommand(ctx, userID, "repeat", text, false)
		g.record("repeat", false)
		return repeatTimeMissing(locale)
	}
	if !valid {
		g.logCommand(ctx, userID, "repeat", text, false)
		g.record("repeat", false)
		return repeatTimeInvalid(locale)
	}

	now := g.now()
	if !isFutureToday(now, hour, minute) {
		g.logCommand(ctx, userID, "repeat", text, false)
		g.record("repeat", false)
		return repeatTimePassed(locale)
	}

	timeOfDay := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()).Format("15:04")
	repeat := &model.ScheduledRepeat{
		UserID:     userID,
		Date:       now.Format(model.DateFormat),
		RepeatTime: timeOfDay,
		Status:     model.RepeatStatusPending,
		CreatedAt:  now,
	}
	if err := g.repeatRepo.Create(ctx, repeat); err != nil {
		g.logger.Error("再送予約の保存に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		g.logCommand(ctx, userID, "repeat", text, false)
		g.record("repeat", false)
		return repeatTimeInvalid(locale)
	}

	g.logCommand(ctx, userID, "repeat", text, true)
	g.record("repeat", true)
	return repeatConfirmed(locale, timeOfDay)
}

// handleInfo はオイル詳細の問い合わせを処理する。
//
// 当日レコードが存在し、かつ要求されたオイルが当日のprimary/alternativeの
// いずれか（別名含む・大文字小文字無視）である場合のみ許可する。
// すべての試行は結果にかかわらずinteraction_attemptsに記録される。
func (g *Gatekeeper) handleInfo(ctx context.Context, userID, text, locale string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		g.logInteraction(ctx, userID, "info", "", nil, false)
		g.record("info", false)
		return infoNameMissing(locale)
	}
	requested := strings.TrimSpace(parts[1])

	today := g.now().Format(model.DateFormat)
	record, err := g.messageRepo.FindByUserAndDate(ctx, userID, today)
	if err != nil {
		g.logger.Error("当日レコードの取得に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	if record == nil {
		g.logInteraction(ctx, userID, "info", requested, nil, false)
		g.record("info", false)
		return noMessageYet(locale)
	}

	matched := g.matchDailyOil(ctx, requested, record)
	if matched == nil {
		g.logInteraction(ctx, userID, "info", requested, record, false)
		g.record("info", false)
		return infoNotAllowed(locale, requested, record.PrimaryOil, record.AlternativeOil)
	}

	g.logInteraction(ctx, userID, "info", requested, record, true)
	g.record("info", true)
	return formatOilInfo(matched, locale)
}

// matchDailyOil は要求された名前を当日のprimary/alternativeと照合する。
// 一致した場合のみカタログから詳細を解決して返す。一致しない場合はnil。
// カタログ全体からの照合は行わない。
func (g *Gatekeeper) matchDailyOil(ctx context.Context, requested string, record *model.DailyMessage) *model.Oil {
	for _, name := range []string{record.PrimaryOil, record.AlternativeOil} {
		if name == "" {
			continue
		}
		oil, err := g.oilRepo.FindByName(ctx, name)
		if err != nil {
			g.logger.Error("オイル詳細の取得に失敗しました",
				slog.String("oil_name", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if oil == nil {
			// カタログ未登録の推薦名。名前の直接比較のみで判定する。
			if strings.EqualFold(requested, name) {
				return &model.Oil{Name: name}
			}
			continue
		}
		if oil.MatchesName(requested) || strings.EqualFold(requested, name) {
			return oil
		}
	}
	return nil
}

// handleAlternative は当日の推薦とは別の追加メッセージを生成する。
// 当日のオイルと直近履歴を除外して選定・生成し直す。元のレコードは変更しない。
func (g *Gatekeeper) handleAlternative(ctx context.Context, userID, locale string) string {
	now := g.now()
	today := now.Format(model.DateFormat)

	record, err := g.messageRepo.FindByUserAndDate(ctx, userID, today)
	if err != nil {
		g.logger.Error("当日レコードの取得に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	if record == nil {
		g.logCommand(ctx, userID, "alternative", "", false)
		g.record("alternative", false)
		return noMessageYet(locale)
	}

	exclusions := []string{record.PrimaryOil}
	if record.AlternativeOil != "" {
		exclusions = append(exclusions, record.AlternativeOil)
	}
	since := now.AddDate(0, 0, -g.historyDays).Format(model.DateFormat)
	recent, err := g.messageRepo.ListRecentOilNames(ctx, userID, since)
	if err != nil {
		g.logger.Warn("推薦履歴の取得に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	exclusions = append(exclusions, recent...)

	catalog, err := g.oilRepo.ListAll(ctx)
	if err != nil || len(catalog) == 0 {
		g.logger.Error("オイルカタログの取得に失敗しました",
			slog.String("user_id", userID),
		)
		g.logCommand(ctx, userID, "alternative", "", false)
		g.record("alternative", false)
		return alternativeFailed(locale)
	}

	day := g.resolver.Resolve(ctx, now)
	pick := g.selector.Select(catalog, day, exclusions)
	if pick.PrimaryName == "" {
		g.logCommand(ctx, userID, "alternative", "", false)
		g.record("alternative", false)
		return alternativeFailed(locale)
	}

	primary, _ := g.oilRepo.FindByName(ctx, pick.PrimaryName)
	if primary == nil {
		primary = &model.Oil{Name: pick.PrimaryName}
	}
	var alternative *model.Oil
	if pick.AlternativeName != "" {
		alternative, _ = g.oilRepo.FindByName(ctx, pick.AlternativeName)
		if alternative == nil {
			alternative = &model.Oil{Name: pick.AlternativeName}
		}
	}

	result, err := g.orchestrator.Generate(ctx, generator.Request{
		Day:         day,
		Locale:      locale,
		Primary:     primary,
		Alternative: alternative,
		Exclusions:  exclusions,
	})
	if err != nil {
		g.logger.Error("代替メッセージの生成に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		g.logCommand(ctx, userID, "alternative", "", false)
		g.record("alternative", false)
		return alternativeFailed(locale)
	}

	g.logCommand(ctx, userID, "alternative", pick.PrimaryName, true)
	g.record("alternative", true)
	return alternativeHeader(locale) + result.Text
}

// logCommand はコマンド監査ログを書き込む。失敗は縮退（ログのみ）。
func (g *Gatekeeper) logCommand(ctx context.Context, userID, command, params string, sent bool) {
	entry := &model.CommandLogEntry{
		UserID:       userID,
		Command:      command,
		Parameters:   params,
		ResponseSent: sent,
		CreatedAt:    g.now(),
	}
	if err := g.auditRepo.LogCommand(ctx, entry); err != nil {
		g.logger.Error("コマンドログの書き込みに失敗しました",
			slog.String("user_id", userID),
			slog.String("command", command),
			slog.String("error", err.Error()),
		)
	}
}

// logInteraction は許可判定付きの監査ログを書き込む。失敗は縮退（ログのみ）。
func (g *Gatekeeper) logInteraction(ctx context.Context, userID, command, requested string, record *model.DailyMessage, allowed bool) {
	attempt := &model.InteractionAttempt{
		UserID:       userID,
		Command:      command,
		WasAllowed:   allowed,
		OilRequested: requested,
		CreatedAt:    g.now(),
	}
	if record != nil {
		attempt.PrimaryOil = record.PrimaryOil
		attempt.AlternativeOil = record.AlternativeOil
	}
	if err := g.auditRepo.LogInteraction(ctx, attempt); err != nil {
		g.logger.Error("問い合わせ記録の書き込みに失敗しました",
			slog.String("user_id", userID),
			slog.String("command", command),
			slog.String("error", err.Error()),
		)
	}
}

func (g *Gatekeeper) record(kind string, allowed bool) {
	if g.recorder != nil {
		g.recorder.RecordCommand(kind, allowed)
	}
}
