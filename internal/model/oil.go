// Package model はドメインモデルを定義する。
package model

import "strings"

// Oil はカタログに登録されたエッセンシャルオイルを表す。
// 起動時にロードされる参照データであり、コアロジックからは変更されない。
type Oil struct {
	Name               string         // オイル名（一意キー）
	AlternativeNames   []string       // 別名（ドイツ語名など）
	Properties         []string       // 特性タグ（calming, grounding など）
	EnergeticEffects   string         // エネルギー的な作用の説明文
	MainComponents     []OilComponent // 主要成分
	InterestingFacts   string         // 豆知識
	SeasonalFit        []string       // 季節との相性（winter/spring/summer/autumn）
	WeekdayEnergyMatch []string       // 曜日エネルギーとの相性（Monday..Sunday）
	Contraindications  string         // 注意事項
	BestUses           []string       // おすすめの使い方
}

// OilComponent はオイルの主要成分とその作用を表す。
type OilComponent struct {
	Name   string
	Effect string
}

// MatchesName はオイル名または別名と大文字小文字を無視して一致するかを判定する。
func (o *Oil) MatchesName(name string) bool {
	if strings.EqualFold(o.Name, name) {
		return true
	}
	for _, alt := range o.AlternativeNames {
		if strings.EqualFold(alt, name) {
			return true
		}
	}
	return false
}
