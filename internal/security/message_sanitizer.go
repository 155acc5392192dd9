// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MessageSanitizerService は生成テキストをTelegramへ送信する前にサニタイズし、
// parse_mode=HTMLで許可されるインラインタグのみを通過させる。
// 生成モデルの出力にscriptタグや未知のマークアップが混入しても
// そのまま配信されないことを保証する。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// MessageSanitizerService はメッセージテキストのサニタイズ機能のインターフェースを定義する。
// 配信直前のすべての送信テキストに適用される。
type MessageSanitizerService interface {
	// Sanitize はテキストをサニタイズして安全なTelegram HTMLを返す。
	// 許可タグ（b, strong, i, em, u, s, code, pre, a）のみを通過させ、
	// それ以外のタグと全てのon*イベント属性を除去する。
	// aタグのhref属性はhttpsスキームのみ許可される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(text string) string
}

// messageSanitizer はMessageSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type messageSanitizer struct {
	policy *bluemonday.Policy
}

// NewMessageSanitizer はMessageSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: b, strong, i, em, u, s, code, pre（Telegramが解釈するインラインタグ）
//   - aタグ: href属性のみ、httpsスキームのみ、相対URL不許可
//   - それ以外のタグ・属性は全て除去
func NewMessageSanitizer() *messageSanitizer {
	p := bluemonday.NewPolicy()

	// Telegram parse_mode=HTMLが解釈するタグに限定する
	p.AllowElements(
		"b", "strong", "i", "em",
		"u", "s", "code", "pre",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &messageSanitizer{
		policy: p,
	}
}

// Sanitize はテキストをサニタイズして安全なTelegram HTMLを返す。
func (s *messageSanitizer) Sanitize(text string) string {
	return s.policy.Sanitize(text)
}
