package generator

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	// maxAttempts は安全スキャン違反時の再生成を含む総試行回数の上限。
	maxAttempts = 3
)

// Outcome は生成結果の種別を表す。
type Outcome string

const (
	// OutcomeGenerated は生成テキストがそのまま採用されたことを示す。
	OutcomeGenerated Outcome = "generated"
	// OutcomeFallback は再生成でも違反が解消せず固定テンプレートに置換されたことを示す。
	OutcomeFallback Outcome = "fallback"
)

// Result は1通分の最終生成結果。Textには常に安全注意文が付加されている。
type Result struct {
	Text     string
	Outcome  Outcome
	Attempts int
}

// OrchestratorService はメッセージ生成の全体制御のインターフェースを定義する。
type OrchestratorService interface {
	// Generate はプロンプト組み立て・生成・安全検証・注意文付加までを行い、
	// 最終的な送信テキストを返す。生成バックエンド自体が呼び出せない場合のみ
	// エラーを返す（安全フォールバックはエラーではなく正常な結果として返る）。
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Orchestrator はOrchestratorServiceの実装。
// 生成→禁止表現スキャン→是正指示付き再生成（上限maxAttempts回）→
// 固定テンプレート置換、という有限の状態機械として動作する。
type Orchestrator struct {
	client ChatClient
	logger *slog.Logger
}

// NewOrchestrator はOrchestratorの新しいインスタンスを生成する。
func NewOrchestrator(client ChatClient, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		logger: logger,
	}
}

// Generate はプロンプト組み立てから注意文付加までを行い、送信テキストを返す。
//
// 禁止表現が検出された場合は是正指示を追加して再生成する。maxAttempts回
// 試行しても違反が残る場合は生成テキストを破棄し、手書きの安全な
// テンプレートに置換する。どちらの経路でも注意文は必ず付加される。
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Primary == nil {
		return nil, fmt.Errorf("プライマリオイルが指定されていません")
	}

	system := systemPrompt(req.Locale)
	user := buildUserPrompt(req)

	var lastPhrase string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt := user
		if lastPhrase != "" {
			prompt += correctiveInstruction(req.Locale, lastPhrase)
		}

		text, err := o.client.Complete(ctx, system, prompt)
		if err != nil {
			return nil, fmt.Errorf("メッセージの生成に失敗しました: %w", err)
		}

		phrase := FindForbiddenPhrase(text)
		if phrase == "" {
			return &Result{
				Text:     withDisclaimer(text, req.Locale),
				Outcome:  OutcomeGenerated,
				Attempts: attempt,
			}, nil
		}

		o.logger.Warn("生成テキストに禁止表現が含まれています",
			slog.String("phrase", phrase),
			slog.Int("attempt", attempt),
			slog.String("locale", req.Locale),
		)
		lastPhrase = phrase
	}

	o.logger.Warn("再生成の上限に達したため安全テンプレートに置換します",
		slog.String("primary_oil", req.Primary.Name),
		slog.String("locale", req.Locale),
	)

	return &Result{
		Text:     withDisclaimer(fallbackMessage(req), req.Locale),
		Outcome:  OutcomeFallback,
		Attempts: maxAttempts,
	}, nil
}

// withDisclaimer はロケールに応じた注意文をテキストの末尾に付加する。
func withDisclaimer(text, locale string) string {
	return text + "\n\n" + disclaimer(locale)
}
