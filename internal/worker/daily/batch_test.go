package daily

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/aromabot/internal/generator"
	"github.com/hitoshi/aromabot/internal/model"
	"github.com/hitoshi/aromabot/internal/selection"
	"github.com/hitoshi/aromabot/internal/telegram"
)

// --- モック ---

type mockMessageRepo struct {
	saved       []*model.DailyMessage
	saveErr     error
	recentNames map[string][]string
	recentErr   error
}

func (m *mockMessageRepo) Save(ctx context.Context, msg *model.DailyMessage) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, msg)
	return nil
}

func (m *mockMessageRepo) FindByUserAndDate(ctx context.Context, userID, date string) (*model.DailyMessage, error) {
	return nil, nil
}

func (m *mockMessageRepo) ListRecentOilNames(ctx context.Context, userID, sinceDate string) ([]string, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	return m.recentNames[userID], nil
}

type mockOilRepo struct {
	catalog []*model.Oil
	listErr error
}

func (m *mockOilRepo) Upsert(ctx context.Context, oil *model.Oil) error { return nil }

func (m *mockOilRepo) FindByName(ctx context.Context, name string) (*model.Oil, error) {
	for _, oil := range m.catalog {
		if oil.Name == name {
			return oil, nil
		}
	}
	return nil, nil
}

func (m *mockOilRepo) ListAll(ctx context.Context) ([]*model.Oil, error) {
	return m.catalog, m.listErr
}

func (m *mockOilRepo) SearchNames(ctx context.Context, query string, limit int) ([]string, error) {
	return nil, nil
}

type mockResolver struct{}

func (m *mockResolver) Resolve(ctx context.Context, date time.Time) model.DayContext {
	return model.DayContext{
		Date:        date,
		Season:      model.SeasonSummer,
		MessageType: model.MessageTypeFullMoon,
	}
}

type mockSelector struct {
	pick  selection.Pick
	calls int
}

func (m *mockSelector) Select(catalog []*model.Oil, day model.DayContext, exclusions []string) selection.Pick {
	m.calls++
	return m.pick
}

type mockOrchestrator struct {
	result  *generator.Result
	err     error
	locales []string
}

func (m *mockOrchestrator) Generate(ctx context.Context, req generator.Request) (*generator.Result, error) {
	m.locales = append(m.locales, req.Locale)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(text string) string { return text }

type mockSender struct {
	sent    map[string][]string
	failFor map[string]bool
}

func newMockSender() *mockSender {
	return &mockSender{sent: map[string][]string{}, failFor: map[string]bool{}}
}

func (m *mockSender) SendMessage(ctx context.Context, chatID, text string) error {
	if m.failFor[chatID] {
		return errors.New("chat not found")
	}
	m.sent[chatID] = append(m.sent[chatID], text)
	return nil
}

func (m *mockSender) GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error) {
	return nil, nil
}

func (m *mockSender) GetMe(ctx context.Context) (*telegram.BotInfo, error) {
	return &telegram.BotInfo{}, nil
}

type mockCollector struct {
	sendSuccess        int
	sendFailure        int
	generationAttempts int
	safetyFallbacks    int
}

func (m *mockCollector) RecordSendSuccess()                      { m.sendSuccess++ }
func (m *mockCollector) RecordSendFailure()                      { m.sendFailure++ }
func (m *mockCollector) RecordGenerationAttempts(count int)      { m.generationAttempts += count }
func (m *mockCollector) RecordSafetyFallback()                   { m.safetyFallbacks++ }
func (m *mockCollector) RecordCommand(kind string, allowed bool) {}
func (m *mockCollector) RecordRepeatSent()                       {}

type batchFixture struct {
	batch        *Batch
	messageRepo  *mockMessageRepo
	oilRepo      *mockOilRepo
	selector     *mockSelector
	orchestrator *mockOrchestrator
	sender       *mockSender
	collector    *mockCollector
}

func newFixture(t *testing.T, opts Options) *batchFixture {
	t.Helper()

	f := &batchFixture{
		messageRepo: &mockMessageRepo{recentNames: map[string][]string{}},
		oilRepo: &mockOilRepo{catalog: []*model.Oil{
			{Name: "Lavender", Properties: []string{"calming"}},
			{Name: "Peppermint"},
		}},
		selector: &mockSelector{pick: selection.Pick{PrimaryName: "Lavender", AlternativeName: "Peppermint"}},
		orchestrator: &mockOrchestrator{result: &generator.Result{
			Text:     "A daily message.",
			Outcome:  generator.OutcomeGenerated,
			Attempts: 1,
		}},
		sender:    newMockSender(),
		collector: &mockCollector{},
	}

	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LocaleFor == nil {
		opts.LocaleFor = func(chatID string) string { return "en" }
	}
	if opts.SendInterval == 0 {
		opts.SendInterval = time.Millisecond
	}

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	f.batch = NewBatch(
		f.messageRepo, f.oilRepo, &mockResolver{}, f.selector, f.orchestrator,
		passthroughSanitizer{}, f.sender, f.collector, opts, logger,
	)
	f.batch.now = func() time.Time {
		return time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	}
	return f
}

// --- テスト ---

// TestBatch_RunBatch_SendsToAllRecipients は全受信者に配信され、
// 受信者ごとのロケールで生成されることを検証する。
func TestBatch_RunBatch_SendsToAllRecipients(t *testing.T) {
	f := newFixture(t, Options{
		ChatIDs: []string{"111", "222"},
		LocaleFor: func(chatID string) string {
			if chatID == "222" {
				return "de"
			}
			return "en"
		},
	})

	results := f.batch.RunBatch(context.Background())

	if len(results) != 2 {
		t.Fatalf("結果件数 = %d, want 2", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Errorf("受信者 %s の配信が失敗している: %s", r.ChatID, r.Err)
		}
	}
	if len(f.sender.sent["111"]) != 1 || len(f.sender.sent["222"]) != 1 {
		t.Errorf("送信記録が不正: %v", f.sender.sent)
	}
	if len(f.orchestrator.locales) != 2 || f.orchestrator.locales[0] != "en" || f.orchestrator.locales[1] != "de" {
		t.Errorf("生成ロケール = %v, want [en de]", f.orchestrator.locales)
	}
	if f.collector.sendSuccess != 2 {
		t.Errorf("送信成功メトリクス = %d, want 2", f.collector.sendSuccess)
	}
}

// TestBatch_RunBatch_FailureIsolation は1受信者の失敗が残りの受信者の
// 配信を妨げないことを検証する。
func TestBatch_RunBatch_FailureIsolation(t *testing.T) {
	f := newFixture(t, Options{ChatIDs: []string{"111", "222", "333"}})
	f.sender.failFor["222"] = true

	results := f.batch.RunBatch(context.Background())

	if len(results) != 3 {
		t.Fatalf("結果件数 = %d, want 3", len(results))
	}
	if results[0].Success != true || results[1].Success != false || results[2].Success != true {
		t.Errorf("成否の記録が不正: %+v", results)
	}
	if results[1].Err == "" {
		t.Error("失敗した受信者にはエラー内容が記録されるべき")
	}
	if f.collector.sendSuccess != 2 || f.collector.sendFailure != 1 {
		t.Errorf("メトリクス success=%d failure=%d, want 2/1",
			f.collector.sendSuccess, f.collector.sendFailure)
	}
}

// TestBatch_RunBatch_PersistsDailyRecord は配信前に当日レコードが
// 選定結果とともに保存されることを検証する。
func TestBatch_RunBatch_PersistsDailyRecord(t *testing.T) {
	f := newFixture(t, Options{ChatIDs: []string{"111"}})

	f.batch.RunBatch(context.Background())

	if len(f.messageRepo.saved) != 1 {
		t.Fatalf("保存件数 = %d, want 1", len(f.messageRepo.saved))
	}
	record := f.messageRepo.saved[0]
	if record.UserID != "111" || record.Date != "2025-06-02" {
		t.Errorf("レコードのキーが不正: %+v", record)
	}
	if record.PrimaryOil != "Lavender" || record.AlternativeOil != "Peppermint" {
		t.Errorf("選定結果が保存されていない: %+v", record)
	}
	if record.MessageType != model.MessageTypeFullMoon {
		t.Errorf("MessageType = %q, want full_moon", record.MessageType)
	}
	if record.MessageText != "A daily message." {
		t.Errorf("MessageText = %q", record.MessageText)
	}
}

// TestBatch_RunBatch_SaveFailureStillDelivers は永続化の失敗が配信を
// 止めないことを検証する（許容される部分成功）。
func TestBatch_RunBatch_SaveFailureStillDelivers(t *testing.T) {
	f := newFixture(t, Options{ChatIDs: []string{"111"}})
	f.messageRepo.saveErr = errors.New("disk full")

	results := f.batch.RunBatch(context.Background())

	if !results[0].Success {
		t.Errorf("保存失敗でも配信は成功するべき: %+v", results[0])
	}
	if len(f.sender.sent["111"]) != 1 {
		t.Error("保存失敗でもメッセージは送信されるべき")
	}
}

// TestBatch_RunBatch_HistoryFailureSelectsWithoutExclusions は履歴取得の
// 失敗時に除外なしで選定が続くことを検証する。
func TestBatch_RunBatch_HistoryFailureSelectsWithoutExclusions(t *testing.T) {
	f := newFixture(t, Options{ChatIDs: []string{"111"}})
	f.messageRepo.recentErr = errors.New("db locked")

	results := f.batch.RunBatch(context.Background())

	if !results[0].Success {
		t.Errorf("履歴取得の失敗で配信が止まってはならない: %+v", results[0])
	}
	if f.selector.calls != 1 {
		t.Error("選定は実行されるべき")
	}
}

// TestBatch_RunBatch_GenerationFailure は生成失敗が受信者の失敗として
// 記録されることを検証する。
func TestBatch_RunBatch_GenerationFailure(t *testing.T) {
	f := newFixture(t, Options{ChatIDs: []string{"111"}})
	f.orchestrator.err = errors.New("backend down")

	results := f.batch.RunBatch(context.Background())

	if results[0].Success {
		t.Error("生成失敗は受信者の失敗として記録されるべき")
	}
	if len(f.sender.sent) != 0 {
		t.Error("生成失敗時は送信しない")
	}
	if len(f.messageRepo.saved) != 0 {
		t.Error("生成失敗時はレコードを保存しない")
	}
}

// TestBatch_RunBatch_RecordsGenerationMetrics は生成試行回数と
// フォールバックがメトリクスに記録されることを検証する。
func TestBatch_RunBatch_RecordsGenerationMetrics(t *testing.T) {
	f := newFixture(t, Options{ChatIDs: []string{"111"}})
	f.orchestrator.result = &generator.Result{
		Text:     "Safe fallback text.",
		Outcome:  generator.OutcomeFallback,
		Attempts: 3,
	}

	f.batch.RunBatch(context.Background())

	if f.collector.generationAttempts != 3 {
		t.Errorf("生成試行メトリクス = %d, want 3", f.collector.generationAttempts)
	}
	if f.collector.safetyFallbacks != 1 {
		t.Errorf("フォールバックメトリクス = %d, want 1", f.collector.safetyFallbacks)
	}
}

// TestBatch_RunBatch_AdminReport は管理者チャットに成功・失敗を含む
// レポートが送信されることを検証する。
func TestBatch_RunBatch_AdminReport(t *testing.T) {
	f := newFixture(t, Options{
		ChatIDs:     []string{"111", "222"},
		AdminChatID: "admin",
	})
	f.sender.failFor["222"] = true

	f.batch.RunBatch(context.Background())

	reports := f.sender.sent["admin"]
	if len(reports) != 1 {
		t.Fatalf("管理者レポートの件数 = %d, want 1", len(reports))
	}
	report := reports[0]
	if !strings.Contains(report, "Versandbericht") {
		t.Errorf("レポートの見出しが不正:\n%s", report)
	}
	if !strings.Contains(report, "Erfolgreich: 1") {
		t.Errorf("成功数が不正:\n%s", report)
	}
	if !strings.Contains(report, "Fehlgeschlagen: 1") {
		t.Errorf("失敗数が不正:\n%s", report)
	}
	if !strings.Contains(report, "222") || !strings.Contains(report, "chat not found") {
		t.Errorf("失敗の詳細が不正:\n%s", report)
	}
}

// TestBatch_RunBatch_NoAdminReportWithoutAdminChat は管理者チャット未設定で
// レポートが送られないことを検証する。
func TestBatch_RunBatch_NoAdminReportWithoutAdminChat(t *testing.T) {
	f := newFixture(t, Options{ChatIDs: []string{"111"}})

	f.batch.RunBatch(context.Background())

	if len(f.sender.sent) != 1 {
		t.Errorf("受信者以外への送信があってはならない: %v", f.sender.sent)
	}
}

// TestBatch_RunBatch_EmptyCatalog は空カタログで配信が失敗として
// 記録されることを検証する。
func TestBatch_RunBatch_EmptyCatalog(t *testing.T) {
	f := newFixture(t, Options{ChatIDs: []string{"111"}})
	f.oilRepo.catalog = nil

	results := f.batch.RunBatch(context.Background())

	if results[0].Success {
		t.Error("空カタログの配信は失敗になるべき")
	}
}

// TestBatch_NextSendTime は次回送信時刻の計算を検証する。
func TestBatch_NextSendTime(t *testing.T) {
	f := newFixture(t, Options{ChatIDs: []string{"111"}, SendHour: 8, SendMinute: 30})

	// 現在 08:00 → 当日 08:30
	next := f.batch.nextSendTime()
	want := time.Date(2025, time.June, 2, 8, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("nextSendTime = %v, want %v", next, want)
	}

	// 現在 09:00 → 翌日 08:30
	f.batch.now = func() time.Time {
		return time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	}
	next = f.batch.nextSendTime()
	want = time.Date(2025, time.June, 3, 8, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("nextSendTime = %v, want %v", next, want)
	}
}
