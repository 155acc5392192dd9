// Package almanac は日付ごとの文脈情報（季節・曜日エネルギー・月相・ポータル日）の解決を提供する。
//
// 月相は基準新月日からの経過日数を周期29.53日で割った位置による近似計算であり、
// 天文学的に正確な値ではない。要件上この近似のまま維持する。
package almanac

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
	"github.com/hitoshi/aromabot/internal/repository"
)

const (
	// lunarCycleDays は朔望月の近似周期（日）。
	lunarCycleDays = 29.53
)

// referenceNewMoon は月相計算の基準となる既知の新月日（2024-01-11）。
var referenceNewMoon = time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC)

// Resolver は日付からDayContextを解決する。
// 計算した月相・ポータル日フラグはリポジトリにライトスルーでキャッシュする。
type Resolver struct {
	lunarRepo repository.LunarRepository
	logger    *slog.Logger
}

// NewResolver はResolverの新しいインスタンスを生成する。
// lunarRepoがnilの場合はキャッシュなしで動作する。
func NewResolver(lunarRepo repository.LunarRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		lunarRepo: lunarRepo,
		logger:    logger,
	}
}

// Resolve は指定日付のDayContextを解決する。
// 同一日付に対して何度呼んでも同じ値を返す（冪等）。
// キャッシュの読み書きに失敗しても計算結果は返す（ストレージ障害は致命傷にしない）。
func (r *Resolver) Resolve(ctx context.Context, date time.Time) model.DayContext {
	dateKey := date.Format(model.DateFormat)

	phase := r.cachedMoonPhase(ctx, dateKey)
	if phase == "" {
		phase = MoonPhaseFor(date)
		r.writeThrough(ctx, dateKey, phase)
	}

	portal := IsPortalDay(dateKey)

	return model.DayContext{
		Date:        date,
		Season:      SeasonForMonth(date.Month()),
		Weekday:     WeekdayEnergyFor(date.Weekday()),
		Month:       MonthThemeFor(date.Month()),
		MoonPhase:   phase,
		PortalDay:   portal,
		MessageType: ResolveMessageType(portal, phase),
	}
}

// PopulateRange は指定期間の月相キャッシュを事前計算して保存する。処理した日数を返す。
func (r *Resolver) PopulateRange(ctx context.Context, start, end time.Time) (int, error) {
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dateKey := d.Format(model.DateFormat)
		event := &model.LunarEvent{
			Date:      dateKey,
			MoonPhase: MoonPhaseFor(d),
			PortalDay: IsPortalDay(dateKey),
		}
		if err := r.lunarRepo.Upsert(ctx, event); err != nil {
			return count, err
		}
		count++
	}

	r.logger.Info("月相カレンダーを事前計算しました", slog.Int("days", count))
	return count, nil
}

// cachedMoonPhase はキャッシュ済みの月相を返す。未キャッシュまたは取得失敗時は空文字列。
func (r *Resolver) cachedMoonPhase(ctx context.Context, dateKey string) model.MoonPhase {
	if r.lunarRepo == nil {
		return ""
	}
	event, err := r.lunarRepo.FindByDate(ctx, dateKey)
	if err != nil {
		r.logger.Warn("月相キャッシュの取得に失敗しました",
			slog.String("date", dateKey),
			slog.String("error", err.Error()),
		)
		return ""
	}
	if event == nil {
		return ""
	}
	return event.MoonPhase
}

// writeThrough は計算した月相をキャッシュに書き込む。失敗してもエラーは伝播させない。
func (r *Resolver) writeThrough(ctx context.Context, dateKey string, phase model.MoonPhase) {
	if r.lunarRepo == nil {
		return
	}
	event := &model.LunarEvent{
		Date:      dateKey,
		MoonPhase: phase,
		PortalDay: IsPortalDay(dateKey),
	}
	if err := r.lunarRepo.Upsert(ctx, event); err != nil {
		r.logger.Warn("月相キャッシュの保存に失敗しました",
			slog.String("date", dateKey),
			slog.String("error", err.Error()),
		)
	}
}

// MoonPhaseFor は基準新月日からの経過日数による近似月相を返す。
// 周期位置[0,1)を8つの区間に分割し、新月の区間のみ0/1境界をまたぐ
// （position < 0.03 または > 0.97）。
func MoonPhaseFor(date time.Time) model.MoonPhase {
	// 時刻・タイムゾーン成分を落として暦日単位で差を取る
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	daysSince := day.Sub(referenceNewMoon).Hours() / 24

	position := math.Mod(daysSince, lunarCycleDays) / lunarCycleDays
	if position < 0 {
		position += 1
	}

	switch {
	case position < 0.03 || position > 0.97:
		return model.MoonNew
	case position < 0.22:
		return model.MoonWaxingCrescent
	case position < 0.28:
		return model.MoonFirstQuarter
	case position < 0.47:
		return model.MoonWaxingGibbous
	case position < 0.53:
		return model.MoonFull
	case position < 0.72:
		return model.MoonWaningGibbous
	case position < 0.78:
		return model.MoonLastQuarter
	default:
		return model.MoonWaningCrescent
	}
}

// ResolveMessageType はメッセージ種別を決定する。
// 優先順位: portal > full_moon > new_moon > regular。この順序は仕様であり変更しない。
func ResolveMessageType(portal bool, phase model.MoonPhase) model.MessageType {
	switch {
	case portal:
		return model.MessageTypePortal
	case phase == model.MoonFull:
		return model.MessageTypeFullMoon
	case phase == model.MoonNew:
		return model.MessageTypeNewMoon
	default:
		return model.MessageTypeRegular
	}
}
