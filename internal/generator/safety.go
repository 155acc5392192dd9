package generator

import "strings"

// forbiddenPhrases は生成テキストに含まれてはならない経口摂取系の表現。
// 全ロケール分を常にまとめて検査する（生成モデルが言語を混ぜることがあるため）。
var forbiddenPhrases = []string{
	// 英語
	"drink",
	"ingest",
	"swallow",
	"take internally",
	"internal use",
	"internal consumption",
	"add to your water",
	"add a drop to water",
	// ドイツ語
	"trinken",
	"einnehmen",
	"schlucken",
	"innerliche anwendung",
	"innerlich anwenden",
	"zum verzehr",
	"ins wasser geben",
}

// FindForbiddenPhrase はテキストに含まれる最初の禁止表現を返す。
// 大文字小文字を無視した部分文字列一致。見つからなければ空文字列。
func FindForbiddenPhrase(text string) string {
	lower := strings.ToLower(text)
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}

// IsInternalUseEntry はオイルの使用方法エントリが経口摂取を示すかを判定する。
// Infoコマンドの返信から経口系の使い方を除外する二重の安全網として使う。
func IsInternalUseEntry(entry string) bool {
	lower := strings.ToLower(entry)
	for _, marker := range []string{"intern", "ingest", "swallow", "drink", "einnehmen", "schlucken", "verzehr"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
