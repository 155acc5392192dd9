// Package selection は日次レコメンドのオイル選定ロジックを提供する。
package selection

import (
	"log/slog"
	"math/rand"
	"strings"

	"github.com/hitoshi/aromabot/internal/model"
)

const (
	// suitableFloor はテーマ一致候補の最低数。ランダム選択に十分な幅を保証する。
	suitableFloor = 10

	// minThemeWordLen はテーマ語の最短長。これ以下の語はノイズとして無視する。
	minThemeWordLen = 3
)

// popularOils は代替オイル候補の優先リスト。
// 安全で馴染みのある定番を優先するためのキュレーション済みデータ。
var popularOils = []string{
	"Lavender",
	"Peppermint",
	"Lemon",
	"Wild Orange",
	"Orange",
	"Frankincense",
	"Tea Tree",
	"Eucalyptus",
	"Bergamot",
	"Cedarwood",
	"Sandalwood",
	"Rosemary",
	"Ylang Ylang",
	"Clary Sage",
	"Geranium",
	"Roman Chamomile",
	"Vetiver",
	"Ginger",
	"Grapefruit",
	"Lime",
	"Cypress",
	"Juniper Berry",
	"Patchouli",
	"Marjoram",
	"Basil",
}

// Pick は選定結果を表す。AlternativeNameは候補枯渇時に空になりうる。
type Pick struct {
	PrimaryName     string
	AlternativeName string
}

// Engine はカタログと日付文脈から当日のオイルペアを選定する。
type Engine struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// NewEngine はEngineの新しいインスタンスを生成する。
// rngはテストで決定的な選定を行うために注入可能。
func NewEngine(rng *rand.Rand, logger *slog.Logger) *Engine {
	return &Engine{
		rng:    rng,
		logger: logger,
	}
}

// Select はカタログから当日のプライマリと代替オイルを選定する。
//
// 手順:
//  1. 除外セットを取り除いた利用可能集合を作る。空になったら除外を無視して
//     全カタログに戻す（警告ログ）。選定はフローを止めてはならない。
//  2. テーマ・フォーカス文と特性タグの語彙重なりで適合集合を作り、
//     最低suitableFloor件まで利用可能集合から補充する。
//  3. プライマリは適合集合から一様ランダムに選ぶ。
//  4. 代替は定番リストとの積集合をシャッフルして先頭、なければ
//     利用可能集合全体（プライマリ除く）から選ぶ。
//
// カタログが空の場合のみ空のPickを返す。
func (e *Engine) Select(catalog []*model.Oil, day model.DayContext, exclusions []string) Pick {
	if len(catalog) == 0 {
		return Pick{}
	}

	available := e.removeExcluded(catalog, exclusions)
	if len(available) == 0 {
		e.logger.Warn("除外後に候補が空になったため除外を無視します",
			slog.Int("catalog_size", len(catalog)),
			slog.Int("exclusions", len(exclusions)),
		)
		available = catalog
	}

	suitable := e.thematicMatches(available, day)
	if len(suitable) == 0 {
		suitable = available
	}

	primary := suitable[e.rng.Intn(len(suitable))]
	alternative := e.pickAlternative(available, primary.Name)

	return Pick{
		PrimaryName:     primary.Name,
		AlternativeName: alternative,
	}
}

// removeExcluded は除外名（別名含む・大文字小文字無視）に一致しないオイルを返す。
func (e *Engine) removeExcluded(catalog []*model.Oil, exclusions []string) []*model.Oil {
	available := make([]*model.Oil, 0, len(catalog))
	for _, oil := range catalog {
		excluded := false
		for _, name := range exclusions {
			if oil.MatchesName(name) {
				excluded = true
				break
			}
		}
		if !excluded {
			available = append(available, oil)
		}
	}
	return available
}

// thematicMatches はテーマ・フォーカス文との語彙重なりを持つオイルを返す。
// 重なりの判定は長さminThemeWordLen超の語と特性タグの部分文字列一致
// （大文字小文字無視）。件数がsuitableFloor未満の場合は利用可能集合から
// 順に補充する。この緩い一致と補充の挙動は既存動作の維持が要件であり、
// 一致条件を厳しくしてはならない。
func (e *Engine) thematicMatches(available []*model.Oil, day model.DayContext) []*model.Oil {
	words := themeWords(day)

	suitable := make([]*model.Oil, 0, len(available))
	inSuitable := make(map[string]struct{}, len(available))

	for _, oil := range available {
		if matchesAnyWord(oil.Properties, words) {
			suitable = append(suitable, oil)
			inSuitable[oil.Name] = struct{}{}
		}
	}

	for _, oil := range available {
		if len(suitable) >= suitableFloor {
			break
		}
		if _, ok := inSuitable[oil.Name]; ok {
			continue
		}
		suitable = append(suitable, oil)
		inSuitable[oil.Name] = struct{}{}
	}

	return suitable
}

// pickAlternative は代替オイル名を返す。候補が尽きた場合は空文字列。
func (e *Engine) pickAlternative(available []*model.Oil, primaryName string) string {
	candidates := make([]*model.Oil, 0, len(available))
	for _, oil := range available {
		if oil.Name == primaryName {
			continue
		}
		for _, popular := range popularOils {
			if oil.MatchesName(popular) {
				candidates = append(candidates, oil)
				break
			}
		}
	}

	if len(candidates) == 0 {
		for _, oil := range available {
			if oil.Name != primaryName {
				candidates = append(candidates, oil)
			}
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	e.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[0].Name
}

// themeWords は日付文脈のテーマ・フォーカス文から照合用の語を抽出する。
func themeWords(day model.DayContext) []string {
	source := strings.Join([]string{
		day.Weekday.Theme,
		day.Weekday.Focus,
		day.Month.Theme,
		day.Month.Focus,
	}, " ")

	fields := strings.FieldsFunc(strings.ToLower(source), func(r rune) bool {
		return r == ' ' || r == ',' || r == '&' || r == '-'
	})

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > minThemeWordLen {
			words = append(words, f)
		}
	}
	return words
}

// matchesAnyWord は特性タグのいずれかがテーマ語のいずれかを部分文字列として
// 含む（またはその逆）かを判定する。
func matchesAnyWord(properties, words []string) bool {
	for _, prop := range properties {
		lower := strings.ToLower(prop)
		for _, word := range words {
			if strings.Contains(lower, word) || strings.Contains(word, lower) {
				return true
			}
		}
	}
	return false
}
