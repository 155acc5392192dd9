package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
)

// Request は1通分の生成要求を表す。
type Request struct {
	Day         model.DayContext
	Locale      string // "en" または "de"
	Primary     *model.Oil
	Alternative *model.Oil // 代替なしの場合はnil
	Exclusions  []string   // 除外済みオイル名（Alternativeコマンド経由の再生成で使用）
}

// systemPrompt はロケールごとのシステムロールテキストを返す。
// 経口摂取の禁止はシステム側にも明記し、プロンプトと安全スキャンの二段構えにする。
func systemPrompt(locale string) string {
	if locale == "de" {
		return "Du bist ein mitfühlender Wellness-Guide, der bedeutungsvolle tägliche Affirmationen " +
			"erstellt, die mit ätherischen Ölempfehlungen kombiniert werden. " +
			"WICHTIG: Antworte IMMER auf DEUTSCH. Schreibe die GESAMTE Nachricht auf Deutsch. " +
			"Empfehle NIEMALS die innerliche Anwendung von Ölen."
	}
	return "You are a compassionate wellness guide who creates meaningful daily affirmations " +
		"paired with essential oil recommendations. " +
		"Never suggest drinking, ingesting, or any internal use of the oils."
}

// buildUserPrompt はメッセージ種別とロケールに応じたユーザーロールテキストを組み立てる。
// オイルは選定エンジンが既に決めているため、モデルには選択ではなく文章化のみを依頼する。
func buildUserPrompt(req Request) string {
	if req.Locale == "de" {
		return buildGermanPrompt(req)
	}
	return buildEnglishPrompt(req)
}

func buildEnglishPrompt(req Request) string {
	var b strings.Builder

	day := req.Day
	dayName := day.Date.Weekday().String()
	monthName := day.Date.Month().String()

	fmt.Fprintf(&b, "Today is %s, %s.\n\n", dayName, day.Date.Format("January 2, 2006"))
	fmt.Fprintf(&b, "MONTHLY THEME - %s: %s\nMonthly Focus: %s\nMonthly Energy: %s\n\n",
		monthName, day.Month.Theme, day.Month.Focus, day.Month.Energy)
	fmt.Fprintf(&b, "DAILY ENERGY - %s: %s\nDaily Focus: %s\n\n",
		dayName, day.Weekday.Theme, day.Weekday.Focus)

	switch day.MessageType {
	case model.MessageTypePortal:
		b.WriteString("Today is a PORTAL DAY - a day of heightened spiritual significance. " +
			"Open the message by honoring this special energy of transformation and alignment.\n\n")
	case model.MessageTypeFullMoon:
		b.WriteString("Tonight is the FULL MOON - a time of culmination and release. " +
			"Weave the full moon energy of completion and letting go into the message.\n\n")
	case model.MessageTypeNewMoon:
		b.WriteString("Today is the NEW MOON - a time for fresh intentions and new beginnings. " +
			"Weave the new moon energy of planting seeds into the message.\n\n")
	}

	fmt.Fprintf(&b, "Today's essential oil is %s (%s).\n",
		req.Primary.Name, strings.Join(firstN(req.Primary.Properties, 4), ", "))
	if req.Alternative != nil {
		fmt.Fprintf(&b, "The alternative oil is %s (%s).\n",
			req.Alternative.Name, strings.Join(firstN(req.Alternative.Properties, 4), ", "))
	}
	if len(req.Exclusions) > 0 {
		fmt.Fprintf(&b, "Do not mention these oils: %s.\n", strings.Join(req.Exclusions, ", "))
	}

	b.WriteString(`
Generate a daily message with three components:

1. AFFIRMATION: a powerful, personal affirmation (2-3 sentences) that integrates
   the monthly theme and the daily energy. Use "I" statements.
2. OIL RECOMMENDATION: explain briefly (1-2 sentences) why today's oil supports
   both the monthly theme and today's daily intention.
3. USAGE RITUAL: a specific, mindful aromatic or topical application. Never
   suggest drinking or any internal use.

Format the response as a cohesive, flowing message:

🌅 Good Morning, Beautiful Soul

[Opening sentence weaving together the monthly and daily themes]

"[Personal affirmation in first person, 2-3 sentences]"

✨ Your Oil Companion: ` + req.Primary.Name + `
[Why this oil matches both themes]

🌿 Your Ritual:
[Specific aromatic or topical application instructions]

With love and light,
Soul Aligned Oils 💜

Important:
- Keep the tone warm, personal, and uplifting
- Use emojis sparingly (only the ones shown in the structure)
- Only aromatic and topical use, never internal
`)

	return b.String()
}

func buildGermanPrompt(req Request) string {
	var b strings.Builder

	day := req.Day
	dayName := germanWeekdays[day.Date.Weekday()]
	monthName := germanMonths[day.Date.Month()]

	fmt.Fprintf(&b, "Heute ist %s, der %s.\n\n", dayName, day.Date.Format("2.1.2006"))
	fmt.Fprintf(&b, "MONATSTHEMA - %s: %s\nMonatlicher Fokus: %s\nMonatliche Energie: %s\n\n",
		monthName, day.Month.Theme, day.Month.Focus, day.Month.Energy)
	fmt.Fprintf(&b, "TAGESENERGIE - %s: %s\nTagesfokus: %s\n\n",
		dayName, day.Weekday.Theme, day.Weekday.Focus)

	switch day.MessageType {
	case model.MessageTypePortal:
		b.WriteString("Heute ist ein PORTALTAG - ein Tag mit besonderer spiritueller Bedeutung. " +
			"Würdige diese besondere Energie der Transformation am Anfang der Nachricht.\n\n")
	case model.MessageTypeFullMoon:
		b.WriteString("Heute Nacht ist VOLLMOND - eine Zeit der Vollendung und des Loslassens. " +
			"Verwebe die Vollmond-Energie in die Nachricht.\n\n")
	case model.MessageTypeNewMoon:
		b.WriteString("Heute ist NEUMOND - eine Zeit für neue Absichten und Neuanfänge. " +
			"Verwebe die Neumond-Energie in die Nachricht.\n\n")
	}

	fmt.Fprintf(&b, "Das heutige ätherische Öl ist %s (%s).\n",
		req.Primary.Name, strings.Join(firstN(req.Primary.Properties, 4), ", "))
	if req.Alternative != nil {
		fmt.Fprintf(&b, "Das alternative Öl ist %s (%s).\n",
			req.Alternative.Name, strings.Join(firstN(req.Alternative.Properties, 4), ", "))
	}
	if len(req.Exclusions) > 0 {
		fmt.Fprintf(&b, "Erwähne diese Öle nicht: %s.\n", strings.Join(req.Exclusions, ", "))
	}

	b.WriteString(`
Erstelle eine tägliche Nachricht mit drei Komponenten:

1. AFFIRMATION: eine kraftvolle, persönliche Affirmation (2-3 Sätze) in Ich-Form,
   die Monatsthema und Tagesenergie verbindet.
2. ÖL-EMPFEHLUNG: erkläre kurz (1-2 Sätze), warum das heutige Öl sowohl zum
   Monatsthema als auch zur Tagesenergie passt.
3. ANWENDUNGSRITUAL: eine konkrete, achtsame aromatische oder äußerliche
   Anwendung. Empfehle niemals die innerliche Anwendung.

Formatiere die Antwort als zusammenhängende, fließende Nachricht:

🌅 Guten Morgen, wunderschöne Seele

[Einleitungssatz, der Monats- und Tagesthema verbindet]

"[Persönliche Affirmation in Ich-Form, 2-3 Sätze]"

✨ Dein Öl-Begleiter: ` + req.Primary.Name + `
[Warum dieses Öl zu beiden Themen passt]

🌿 Dein Ritual:
[Konkrete aromatische oder äußerliche Anwendungsanweisungen]

Mit Liebe und Licht,
Soul Aligned Oils 💜

KRITISCH WICHTIG:
- Die GESAMTE Nachricht MUSS auf Deutsch sein
- KEINE englischen Wörter außer "Soul Aligned Oils" in der Signatur
- Halte den Ton warm, persönlich und erhebend
- Nur aromatische und äußerliche Anwendung, niemals innerlich
`)

	return b.String()
}

// correctiveInstruction は安全スキャン違反後の再生成で追加する是正指示を返す。
func correctiveInstruction(locale, phrase string) string {
	if locale == "de" {
		return fmt.Sprintf(
			"\n\nSICHERHEITSKORREKTUR: Deine letzte Antwort enthielt die verbotene Formulierung %q. "+
				"Ätherische Öle dürfen NIEMALS getrunken, geschluckt oder innerlich angewendet werden. "+
				"Erstelle die Nachricht neu und beschreibe ausschließlich aromatische oder äußerliche Anwendung.",
			phrase)
	}
	return fmt.Sprintf(
		"\n\nSAFETY CORRECTION: your previous answer contained the forbidden phrase %q. "+
			"Essential oils must NEVER be drunk, swallowed, or used internally. "+
			"Regenerate the message describing only aromatic or topical use.",
		phrase)
}

// fallbackMessage は再生成してもポリシー違反が解消しない場合の固定の安全な代替文。
// 生成モデルを介さない手書きテンプレートで、選定済みオイル名のみを埋め込む。
func fallbackMessage(req Request) string {
	primary := req.Primary.Name
	alternative := ""
	if req.Alternative != nil {
		alternative = req.Alternative.Name
	}

	if req.Locale == "de" {
		var b strings.Builder
		b.WriteString("🌅 Guten Morgen, wunderschöne Seele\n\n")
		fmt.Fprintf(&b, "Heute begleitet dich %s. Nimm dir einen Moment, atme tief durch "+
			"und lade die Energie dieses Tages ein.\n\n", primary)
		fmt.Fprintf(&b, "✨ Dein Öl-Begleiter: %s\n\n", primary)
		b.WriteString("🌿 Dein Ritual:\nGib 1-2 Tropfen in deinen Diffuser oder verdünne sie " +
			"mit einem Trägeröl und trage sie auf deine Handgelenke auf.\n")
		if alternative != "" {
			fmt.Fprintf(&b, "\nAls Alternative passt heute auch %s zu dir.\n", alternative)
		}
		b.WriteString("\nMit Liebe und Licht,\nSoul Aligned Oils 💜")
		return b.String()
	}

	var b strings.Builder
	b.WriteString("🌅 Good Morning, Beautiful Soul\n\n")
	fmt.Fprintf(&b, "Today %s is by your side. Take a quiet moment, breathe deeply, "+
		"and welcome the energy of this day.\n\n", primary)
	fmt.Fprintf(&b, "✨ Your Oil Companion: %s\n\n", primary)
	b.WriteString("🌿 Your Ritual:\nAdd 1-2 drops to your diffuser, or dilute with a carrier oil " +
		"and apply to your wrists.\n")
	if alternative != "" {
		fmt.Fprintf(&b, "\nAs an alternative, %s also suits you today.\n", alternative)
	}
	b.WriteString("\nWith love and light,\nSoul Aligned Oils 💜")
	return b.String()
}

// disclaimer はロケールごとの固定の安全注意文を返す。
// すべての送信メッセージに無条件で付加される。
func disclaimer(locale string) string {
	if locale == "de" {
		return "🌱 Bitte denke daran: Ätherische Öle sind nur zur aromatischen und äußerlichen " +
			"Anwendung bestimmt. Diese Nachricht ersetzt keine medizinische Beratung."
	}
	return "🌱 Please remember: essential oils are for aromatic and topical use only. " +
		"This message is not a substitute for medical advice."
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

var germanWeekdays = map[time.Weekday]string{
	time.Sunday:    "Sonntag",
	time.Monday:    "Montag",
	time.Tuesday:   "Dienstag",
	time.Wednesday: "Mittwoch",
	time.Thursday:  "Donnerstag",
	time.Friday:    "Freitag",
	time.Saturday:  "Samstag",
}

var germanMonths = map[time.Month]string{
	time.January:   "Januar",
	time.February:  "Februar",
	time.March:     "März",
	time.April:     "April",
	time.May:       "Mai",
	time.June:      "Juni",
	time.July:      "Juli",
	time.August:    "August",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "Dezember",
}
