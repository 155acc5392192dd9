// Package catalog はオイルカタログの初期データとその投入処理を提供する。
// データは参照専用で、投入後にコアロジックから変更されることはない。
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hitoshi/aromabot/internal/model"
	"github.com/hitoshi/aromabot/internal/repository"
)

//go:embed oils.json
var oilsJSON []byte

// seedFile は埋め込みJSONのトップレベル構造。
type seedFile struct {
	Oils []seedOil `json:"oils"`
}

type seedOil struct {
	OilName            string          `json:"oil_name"`
	AlternativeNames   []string        `json:"alternative_names"`
	Properties         []string        `json:"properties"`
	EnergeticEffects   string          `json:"energetic_effects"`
	MainComponents     []seedComponent `json:"main_components"`
	InterestingFacts   string          `json:"interesting_facts"`
	SeasonalFit        []string        `json:"seasonal_fit"`
	WeekdayEnergyMatch []string        `json:"weekday_energy_match"`
	Contraindications  string          `json:"contraindications"`
	BestUses           []string        `json:"best_uses"`
}

type seedComponent struct {
	Name   string `json:"name"`
	Effect string `json:"effect"`
}

// Load は埋め込みシードをパースしてモデルに変換する。
func Load() ([]*model.Oil, error) {
	var file seedFile
	if err := json.Unmarshal(oilsJSON, &file); err != nil {
		return nil, fmt.Errorf("シードJSONのパースに失敗しました: %w", err)
	}

	oils := make([]*model.Oil, 0, len(file.Oils))
	for _, s := range file.Oils {
		components := make([]model.OilComponent, 0, len(s.MainComponents))
		for _, c := range s.MainComponents {
			components = append(components, model.OilComponent{Name: c.Name, Effect: c.Effect})
		}
		oils = append(oils, &model.Oil{
			Name:               s.OilName,
			AlternativeNames:   s.AlternativeNames,
			Properties:         s.Properties,
			EnergeticEffects:   s.EnergeticEffects,
			MainComponents:     components,
			InterestingFacts:   s.InterestingFacts,
			SeasonalFit:        s.SeasonalFit,
			WeekdayEnergyMatch: s.WeekdayEnergyMatch,
			Contraindications:  s.Contraindications,
			BestUses:           s.BestUses,
		})
	}
	return oils, nil
}

// Populate はシードをオイルカタログに投入する。既存の同名オイルは上書きされる。
// 投入した件数を返す。
func Populate(ctx context.Context, repo repository.OilRepository, logger *slog.Logger) (int, error) {
	oils, err := Load()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, oil := range oils {
		if err := repo.Upsert(ctx, oil); err != nil {
			return count, fmt.Errorf("オイル %s の投入に失敗しました: %w", oil.Name, err)
		}
		count++
	}

	logger.Info("オイルカタログを投入しました", slog.Int("count", count))
	return count, nil
}
