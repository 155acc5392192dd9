package generator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
)

// --- モック ---

type mockChatClient struct {
	responses []string // 呼び出しごとに順番に返すテキスト
	err       error
	calls     int
	prompts   []string // 受け取ったユーザープロンプト
}

func (m *mockChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, userPrompt)
	if m.err != nil {
		return "", m.err
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func testRequest(locale string) Request {
	return Request{
		Day: model.DayContext{
			Date:        time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
			Season:      model.SeasonSummer,
			Weekday:     model.WeekdayEnergy{Weekday: time.Monday, Theme: "New beginnings", Focus: "fresh starts"},
			Month:       model.MonthTheme{Month: time.June, Theme: "Light & Radiance", Focus: "inner light", Energy: "radiant confidence"},
			MoonPhase:   model.MoonWaxingCrescent,
			MessageType: model.MessageTypeRegular,
		},
		Locale:      locale,
		Primary:     &model.Oil{Name: "Lavender", Properties: []string{"calming", "soothing"}},
		Alternative: &model.Oil{Name: "Peppermint", Properties: []string{"energizing"}},
	}
}

// --- テスト ---

// TestOrchestrator_Generate_CleanFirstAttempt は違反のない生成テキストが
// 1回の試行で採用されることを検証する。
func TestOrchestrator_Generate_CleanFirstAttempt(t *testing.T) {
	client := &mockChatClient{responses: []string{"A gentle morning message about Lavender."}}
	o := NewOrchestrator(client, newTestLogger())

	result, err := o.Generate(context.Background(), testRequest("en"))
	if err != nil {
		t.Fatalf("Generate がエラーを返した: %v", err)
	}

	if result.Outcome != OutcomeGenerated {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeGenerated)
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
	if client.calls != 1 {
		t.Errorf("生成APIの呼び出し回数 = %d, want 1", client.calls)
	}
	if !strings.Contains(result.Text, "A gentle morning message about Lavender.") {
		t.Errorf("生成テキストが結果に含まれていない: %q", result.Text)
	}
}

// TestOrchestrator_Generate_RetriesOnForbiddenPhrase は禁止表現の検出で
// 是正指示付きの再生成が行われることを検証する。
func TestOrchestrator_Generate_RetriesOnForbiddenPhrase(t *testing.T) {
	client := &mockChatClient{responses: []string{
		"Add a drop to your tea and drink it slowly.", // 1回目: 違反
		"Diffuse 2 drops in the morning.",             // 2回目: 正常
	}}
	o := NewOrchestrator(client, newTestLogger())

	result, err := o.Generate(context.Background(), testRequest("en"))
	if err != nil {
		t.Fatalf("Generate がエラーを返した: %v", err)
	}

	if result.Outcome != OutcomeGenerated {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeGenerated)
	}
	if result.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", result.Attempts)
	}
	if !strings.Contains(result.Text, "Diffuse 2 drops") {
		t.Errorf("再生成テキストが使われていない: %q", result.Text)
	}

	// 2回目のプロンプトには是正指示が含まれる
	if len(client.prompts) != 2 {
		t.Fatalf("プロンプト数 = %d, want 2", len(client.prompts))
	}
	if !strings.Contains(client.prompts[1], "SAFETY CORRECTION") {
		t.Error("再生成プロンプトに是正指示が含まれていない")
	}
	if !strings.Contains(client.prompts[1], "drink") {
		t.Error("是正指示に検出された禁止表現が含まれていない")
	}
}

// TestOrchestrator_Generate_FallbackAfterMaxAttempts は再生成の上限後に
// 固定テンプレートへ置換されることを検証する。
func TestOrchestrator_Generate_FallbackAfterMaxAttempts(t *testing.T) {
	client := &mockChatClient{responses: []string{
		"Just drink a drop of oil.",
		"You can swallow one drop.",
		"Feel free to ingest it.",
	}}
	o := NewOrchestrator(client, newTestLogger())

	result, err := o.Generate(context.Background(), testRequest("en"))
	if err != nil {
		t.Fatalf("Generate がエラーを返した: %v", err)
	}

	if result.Outcome != OutcomeFallback {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeFallback)
	}
	if result.Attempts != maxAttempts {
		t.Errorf("Attempts = %d, want %d", result.Attempts, maxAttempts)
	}
	if client.calls != maxAttempts {
		t.Errorf("生成APIの呼び出し回数 = %d, want %d", client.calls, maxAttempts)
	}

	// フォールバックは生成テキストを一切含まず、自身も安全スキャンを通過する
	if strings.Contains(result.Text, "drink") || strings.Contains(result.Text, "swallow") {
		t.Errorf("フォールバック結果に生成テキストが残っている: %q", result.Text)
	}
	if phrase := FindForbiddenPhrase(result.Text); phrase != "" {
		t.Errorf("フォールバックテキスト自体が禁止表現 %q を含む", phrase)
	}
	if !strings.Contains(result.Text, "Lavender") {
		t.Error("フォールバックにプライマリオイル名が含まれるべき")
	}
}

// TestOrchestrator_Generate_AlwaysAppendsDisclaimer は生成・フォールバック
// どちらの経路でも注意文が付加されることを検証する。
func TestOrchestrator_Generate_AlwaysAppendsDisclaimer(t *testing.T) {
	tests := []struct {
		name      string
		locale    string
		responses []string
		marker    string
	}{
		{"英語の正常生成", "en", []string{"A calm message."}, "aromatic and topical use only"},
		{"英語のフォールバック", "en", []string{"drink it", "drink it", "drink it"}, "aromatic and topical use only"},
		{"ドイツ語の正常生成", "de", []string{"Eine ruhige Nachricht."}, "aromatischen und äußerlichen"},
		{"ドイツ語のフォールバック", "de", []string{"trinken", "trinken", "trinken"}, "aromatischen und äußerlichen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockChatClient{responses: tt.responses}
			o := NewOrchestrator(client, newTestLogger())

			result, err := o.Generate(context.Background(), testRequest(tt.locale))
			if err != nil {
				t.Fatalf("Generate がエラーを返した: %v", err)
			}
			if !strings.Contains(result.Text, tt.marker) {
				t.Errorf("注意文が付加されていない:\n%s", result.Text)
			}
		})
	}
}

// TestOrchestrator_Generate_BackendErrorPropagates は生成バックエンドの
// 呼び出し失敗がエラーとして返ることを検証する（フォールバックにはしない）。
func TestOrchestrator_Generate_BackendErrorPropagates(t *testing.T) {
	client := &mockChatClient{err: errors.New("connection refused")}
	o := NewOrchestrator(client, newTestLogger())

	result, err := o.Generate(context.Background(), testRequest("en"))
	if err == nil {
		t.Fatal("バックエンド障害時はエラーを返すべき")
	}
	if result != nil {
		t.Errorf("エラー時の結果はnilであるべき: %+v", result)
	}
}

func TestOrchestrator_Generate_RequiresPrimaryOil(t *testing.T) {
	o := NewOrchestrator(&mockChatClient{responses: []string{"x"}}, newTestLogger())

	req := testRequest("en")
	req.Primary = nil

	if _, err := o.Generate(context.Background(), req); err == nil {
		t.Fatal("プライマリオイルなしの生成要求はエラーになるべき")
	}
}

// TestFindForbiddenPhrase は禁止表現スキャンの一致条件を検証する。
func TestFindForbiddenPhrase(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"英語の経口表現", "You could drink a drop of it.", "drink"},
		{"大文字小文字無視", "Never DRINK this.", "drink"},
		{"ドイツ語の経口表現", "Ein Tropfen zum Einnehmen.", "einnehmen"},
		{"文中の部分一致", "Gib es niemals ins Wasser geben bitte", "ins wasser geben"},
		{"違反なし", "Diffuse 2 drops and breathe deeply.", ""},
		{"空テキスト", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindForbiddenPhrase(tt.text); got != tt.want {
				t.Errorf("FindForbiddenPhrase(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsInternalUseEntry(t *testing.T) {
	tests := []struct {
		entry string
		want  bool
	}{
		{"Internal: add one drop to a veggie capsule", true},
		{"Einnehmen mit Wasser", true},
		{"Diffuse in the morning", false},
		{"Auf die Handgelenke auftragen", false},
	}

	for _, tt := range tests {
		if got := IsInternalUseEntry(tt.entry); got != tt.want {
			t.Errorf("IsInternalUseEntry(%q) = %v, want %v", tt.entry, got, tt.want)
		}
	}
}

// TestBuildUserPrompt_MessageTypeIntros はメッセージ種別ごとの導入指示が
// プロンプトに含まれることを検証する。
func TestBuildUserPrompt_MessageTypeIntros(t *testing.T) {
	tests := []struct {
		msgType model.MessageType
		marker  string
	}{
		{model.MessageTypePortal, "PORTAL DAY"},
		{model.MessageTypeFullMoon, "FULL MOON"},
		{model.MessageTypeNewMoon, "NEW MOON"},
	}

	for _, tt := range tests {
		req := testRequest("en")
		req.Day.MessageType = tt.msgType

		prompt := buildUserPrompt(req)
		if !strings.Contains(prompt, tt.marker) {
			t.Errorf("種別 %q のプロンプトに %q が含まれていない", tt.msgType, tt.marker)
		}
	}

	regular := testRequest("en")
	regular.Day.MessageType = model.MessageTypeRegular
	prompt := buildUserPrompt(regular)
	for _, marker := range []string{"PORTAL DAY", "FULL MOON", "NEW MOON"} {
		if strings.Contains(prompt, marker) {
			t.Errorf("通常日のプロンプトに %q が含まれている", marker)
		}
	}
}

// TestBuildUserPrompt_GermanLocale はドイツ語プロンプトがドイツ語の
// 曜日名・月名とオイル名を含むことを検証する。
func TestBuildUserPrompt_GermanLocale(t *testing.T) {
	req := testRequest("de")

	prompt := buildUserPrompt(req)

	if !strings.Contains(prompt, "Montag") {
		t.Error("ドイツ語プロンプトに曜日名 Montag が含まれるべき")
	}
	if !strings.Contains(prompt, "Juni") {
		t.Error("ドイツ語プロンプトに月名 Juni が含まれるべき")
	}
	if !strings.Contains(prompt, "Lavender") {
		t.Error("プロンプトにプライマリオイル名が含まれるべき")
	}
	if !strings.Contains(prompt, "Peppermint") {
		t.Error("プロンプトに代替オイル名が含まれるべき")
	}
}

// TestBuildUserPrompt_Exclusions は再生成要求の除外オイルがプロンプトに
// 明示されることを検証する。
func TestBuildUserPrompt_Exclusions(t *testing.T) {
	req := testRequest("en")
	req.Exclusions = []string{"Lemon", "Bergamot"}

	prompt := buildUserPrompt(req)

	if !strings.Contains(prompt, "Do not mention these oils: Lemon, Bergamot.") {
		t.Errorf("除外指示がプロンプトに含まれていない:\n%s", prompt)
	}
}

func TestFallbackMessage_OmitsMissingAlternative(t *testing.T) {
	req := testRequest("en")
	req.Alternative = nil

	text := fallbackMessage(req)

	if strings.Contains(text, "alternative") {
		t.Errorf("代替なしのフォールバックに代替の段落が含まれている:\n%s", text)
	}
	if !strings.Contains(text, "Lavender") {
		t.Error("フォールバックにプライマリオイル名が含まれるべき")
	}
}
