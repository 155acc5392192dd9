package selection

import (
	"bytes"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
)

func newTestEngine(seed int64) *Engine {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return NewEngine(rand.New(rand.NewSource(seed)), logger)
}

func testCatalog(names ...string) []*model.Oil {
	catalog := make([]*model.Oil, 0, len(names))
	for _, name := range names {
		catalog = append(catalog, &model.Oil{Name: name})
	}
	return catalog
}

func testDay() model.DayContext {
	return model.DayContext{
		Date:   time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		Season: model.SeasonSummer,
		Weekday: model.WeekdayEnergy{
			Weekday: time.Monday,
			Theme:   "New beginnings",
			Focus:   "new beginnings, fresh starts, intention setting",
		},
		Month: model.MonthTheme{
			Month: time.June,
			Theme: "Light & Radiance",
			Focus: "inner light, radiance, confidence",
		},
		MessageType: model.MessageTypeRegular,
	}
}

// --- テスト ---

// TestEngine_Select_ExcludesRecentOils は除外セットのオイルが
// プライマリにも代替にも選ばれないことを検証する。
func TestEngine_Select_ExcludesRecentOils(t *testing.T) {
	catalog := testCatalog(
		"Lavender", "Peppermint", "Lemon", "Frankincense", "Bergamot",
		"Cedarwood", "Rosemary", "Geranium", "Vetiver", "Ginger",
		"Cypress", "Patchouli",
	)
	exclusions := []string{"Lavender", "Peppermint", "Lemon"}

	// シードを変えながら繰り返し、除外が常に守られることを確認する
	for seed := int64(0); seed < 50; seed++ {
		e := newTestEngine(seed)
		pick := e.Select(catalog, testDay(), exclusions)

		for _, name := range exclusions {
			if pick.PrimaryName == name {
				t.Fatalf("seed=%d: 除外オイル %q がプライマリに選ばれた", seed, name)
			}
			if pick.AlternativeName == name {
				t.Fatalf("seed=%d: 除外オイル %q が代替に選ばれた", seed, name)
			}
		}
	}
}

// TestEngine_Select_PrimaryDiffersFromAlternative はプライマリと代替が
// 常に異なるオイルになることを検証する。
func TestEngine_Select_PrimaryDiffersFromAlternative(t *testing.T) {
	catalog := testCatalog("Lavender", "Peppermint", "Lemon", "Frankincense")

	for seed := int64(0); seed < 50; seed++ {
		e := newTestEngine(seed)
		pick := e.Select(catalog, testDay(), nil)

		if pick.PrimaryName == "" {
			t.Fatalf("seed=%d: プライマリが空", seed)
		}
		if pick.PrimaryName == pick.AlternativeName {
			t.Fatalf("seed=%d: プライマリと代替が同一 (%q)", seed, pick.PrimaryName)
		}
	}
}

// TestEngine_Select_ExclusionMatchesAlternativeNames は除外名が
// 別名（大文字小文字無視）でも一致することを検証する。
func TestEngine_Select_ExclusionMatchesAlternativeNames(t *testing.T) {
	catalog := []*model.Oil{
		{Name: "Lavender", AlternativeNames: []string{"Lavendel"}},
		{Name: "Peppermint"},
		{Name: "Lemon"},
	}

	for seed := int64(0); seed < 30; seed++ {
		e := newTestEngine(seed)
		pick := e.Select(catalog, testDay(), []string{"lavendel"})

		if pick.PrimaryName == "Lavender" || pick.AlternativeName == "Lavender" {
			t.Fatalf("seed=%d: 別名で除外したオイルが選ばれた", seed)
		}
	}
}

// TestEngine_Select_AllExcludedFallsBackToFullCatalog は全カタログが
// 除外された場合に除外を無視して選定が継続することを検証する。
func TestEngine_Select_AllExcludedFallsBackToFullCatalog(t *testing.T) {
	catalog := testCatalog("Lavender", "Peppermint")
	e := newTestEngine(1)

	pick := e.Select(catalog, testDay(), []string{"Lavender", "Peppermint"})

	if pick.PrimaryName == "" {
		t.Fatal("全除外時でもプライマリは選定されるべき")
	}
	if pick.PrimaryName != "Lavender" && pick.PrimaryName != "Peppermint" {
		t.Errorf("プライマリがカタログ外: %q", pick.PrimaryName)
	}
}

// TestEngine_Select_EmptyCatalog は空カタログのときのみ空のPickを返すことを検証する。
func TestEngine_Select_EmptyCatalog(t *testing.T) {
	e := newTestEngine(1)

	pick := e.Select(nil, testDay(), nil)

	if pick.PrimaryName != "" || pick.AlternativeName != "" {
		t.Errorf("空カタログで空でないPickが返った: %+v", pick)
	}
}

// TestEngine_Select_SingleOil はカタログが1件のとき代替が空になることを検証する。
func TestEngine_Select_SingleOil(t *testing.T) {
	e := newTestEngine(1)

	pick := e.Select(testCatalog("Lavender"), testDay(), nil)

	if pick.PrimaryName != "Lavender" {
		t.Errorf("PrimaryName = %q, want %q", pick.PrimaryName, "Lavender")
	}
	if pick.AlternativeName != "" {
		t.Errorf("候補枯渇時の代替は空であるべき: %q", pick.AlternativeName)
	}
}

// TestEngine_Select_Deterministic は同一シードで同一の選定結果になることを検証する。
func TestEngine_Select_Deterministic(t *testing.T) {
	catalog := testCatalog(
		"Lavender", "Peppermint", "Lemon", "Frankincense", "Bergamot",
		"Cedarwood", "Rosemary", "Geranium", "Vetiver", "Ginger",
	)

	first := newTestEngine(42).Select(catalog, testDay(), nil)
	second := newTestEngine(42).Select(catalog, testDay(), nil)

	if first != second {
		t.Errorf("同一シードの選定結果が一致しない: %+v vs %+v", first, second)
	}
}

// TestEngine_Select_PrefersPopularAlternative は代替候補に定番オイルが
// あるとき非定番より優先されることを検証する。
func TestEngine_Select_PrefersPopularAlternative(t *testing.T) {
	catalog := []*model.Oil{
		{Name: "Blue Tansy"},  // 非定番
		{Name: "Lavender"},    // 定番
		{Name: "Helichrysum"}, // 非定番
	}

	for seed := int64(0); seed < 30; seed++ {
		e := newTestEngine(seed)
		pick := e.Select(catalog, testDay(), nil)

		if pick.PrimaryName == "Lavender" {
			continue // プライマリに取られた場合は定番候補が空になる
		}
		if pick.AlternativeName != "Lavender" {
			t.Fatalf("seed=%d: 定番オイルが代替に優先されていない: %q", seed, pick.AlternativeName)
		}
	}
}

// TestEngine_ThematicMatches_FloorPadding はテーマ一致が少ない場合に
// 最低件数まで補充されることを検証する。
func TestEngine_ThematicMatches_FloorPadding(t *testing.T) {
	e := newTestEngine(1)

	// 1件だけテーマに一致し、残りは一致しないカタログ
	catalog := []*model.Oil{
		{Name: "Lavender", Properties: []string{"confidence"}},
	}
	for _, name := range []string{
		"Oil A", "Oil B", "Oil C", "Oil D", "Oil E",
		"Oil F", "Oil G", "Oil H", "Oil I", "Oil J", "Oil K",
	} {
		catalog = append(catalog, &model.Oil{Name: name, Properties: []string{"zzzz"}})
	}

	suitable := e.thematicMatches(catalog, testDay())

	if len(suitable) != suitableFloor {
		t.Errorf("適合集合の件数 = %d, want %d", len(suitable), suitableFloor)
	}
	if suitable[0].Name != "Lavender" {
		t.Errorf("テーマ一致オイルが先頭に来るべき: %q", suitable[0].Name)
	}
}

// TestEngine_ThematicMatches_NoPaddingBeyondAvailable は利用可能集合が
// 最低件数より小さい場合に全件が返ることを検証する。
func TestEngine_ThematicMatches_NoPaddingBeyondAvailable(t *testing.T) {
	e := newTestEngine(1)
	catalog := testCatalog("Lavender", "Peppermint", "Lemon")

	suitable := e.thematicMatches(catalog, testDay())

	if len(suitable) != 3 {
		t.Errorf("適合集合の件数 = %d, want 3", len(suitable))
	}
}

func TestThemeWords_FiltersShortWords(t *testing.T) {
	words := themeWords(testDay())

	for _, w := range words {
		if len(w) <= minThemeWordLen {
			t.Errorf("短い語 %q が除去されていない", w)
		}
	}

	// "beginnings" はテーマとフォーカスの両方に現れる
	found := false
	for _, w := range words {
		if w == "beginnings" {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("テーマ語に beginnings が含まれるべき: %v", words)
	}
}

func TestMatchesAnyWord(t *testing.T) {
	tests := []struct {
		name       string
		properties []string
		words      []string
		want       bool
	}{
		{"完全一致", []string{"confidence"}, []string{"confidence"}, true},
		{"特性がテーマ語を含む", []string{"self-confidence boost"}, []string{"confidence"}, true},
		{"テーマ語が特性を含む", []string{"calm"}, []string{"calming"}, true},
		{"大文字小文字無視", []string{"Confidence"}, []string{"confidence"}, true},
		{"一致なし", []string{"grounding"}, []string{"radiance"}, false},
		{"特性なし", nil, []string{"radiance"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesAnyWord(tt.properties, tt.words); got != tt.want {
				t.Errorf("matchesAnyWord(%v, %v) = %v, want %v", tt.properties, tt.words, got, tt.want)
			}
		})
	}
}
