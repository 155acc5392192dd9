package command

import (
	"fmt"
	"strings"

	"github.com/hitoshi/aromabot/internal/generator"
	"github.com/hitoshi/aromabot/internal/model"
)

// ユーザー向け返信文。ロケールは "de" とそれ以外（= "en"）の二択。
// 文面はTelegramのparse_mode=HTMLで解釈されるため太字は<b>タグを使う。

func reactionAckPositive(locale string) string {
	if locale == "de" {
		return "🙏 Danke für dein Feedback! Ich freue mich, dass dir die Nachricht gefällt. 💜"
	}
	return "🙏 Thank you for your feedback! I'm glad you liked the message. 💜"
}

func reactionAckNegative(locale string) string {
	if locale == "de" {
		return "🙏 Danke für dein Feedback! Ich werde die Nachricht für morgen anpassen. 💜"
	}
	return "🙏 Thank you for your feedback! I'll adjust tomorrow's message. 💜"
}

func helpText(locale string) string {
	if locale == "de" {
		return `📱 <b>Verfügbare Befehle:</b>

👍/👎 Reagiere auf Nachrichten mit Emojis

<b>Repeat [Zeit]</b> - Heutige Nachricht wiederholen
Beispiel: Repeat 14:30 oder Repeat 2:30pm

<b>Alternative</b> - Andere Ölempfehlung für heute anfordern

<b>Info [Ölname]</b> - Detaillierte Informationen zu einem Öl
Beispiel: Info Lavendel

<b>Hilfe</b> - Diese Übersicht anzeigen

Mit Liebe,
Soul Aligned Oils 💜`
	}
	return `📱 <b>Available Commands:</b>

👍/👎 React to messages with emojis

<b>Repeat [TIME]</b> - Repeat today's message
Example: Repeat 14:30 or Repeat 2:30pm

<b>Alternative</b> - Request an alternative oil recommendation for today

<b>Info [OIL NAME]</b> - Get detailed information about an oil
Example: Info Lavender

<b>Help</b> - Show this overview

With love,
Soul Aligned Oils 💜`
}

func repeatTimeMissing(locale string) string {
	if locale == "de" {
		return "❌ Bitte gib die Zeit im Format HH:MM an, z.B. 'Repeat 14:30'"
	}
	return "❌ Please provide time in HH:MM format, e.g. 'Repeat 14:30'"
}

func repeatTimeInvalid(locale string) string {
	if locale == "de" {
		return "❌ Ungültige Zeit. Bitte verwende das Format HH:MM (z.B. 14:30)"
	}
	return "❌ Invalid time. Please use HH:MM format (e.g. 14:30)"
}

func repeatTimePassed(locale string) string {
	if locale == "de" {
		return "❌ Diese Zeit ist bereits vorbei. Bitte wähle eine Zeit in der Zukunft."
	}
	return "❌ This time has already passed. Please choose a future time."
}

func repeatConfirmed(locale, timeOfDay string) string {
	if locale == "de" {
		return fmt.Sprintf("✅ Ich schicke dir die heutige Nachricht nochmal um %s Uhr 🔄", timeOfDay)
	}
	return fmt.Sprintf("✅ I'll send you today's message again at %s 🔄", timeOfDay)
}

func noMessageYet(locale string) string {
	if locale == "de" {
		return "❌ Ich habe heute noch keine Nachricht für dich gesendet. Bitte warte auf die Morgennachricht."
	}
	return "❌ I haven't sent you a message today yet. Please wait for the morning message."
}

func infoNameMissing(locale string) string {
	if locale == "de" {
		return "❌ Bitte gib einen Ölnamen an, z.B. 'Info Lavendel'"
	}
	return "❌ Please provide an oil name, e.g. 'Info Lavender'"
}

// infoNotAllowed は当日の推薦以外のオイルが要求されたときの拒否文。
// 許可されている2つのオイル名を明示する。
func infoNotAllowed(locale, requested, primary, alternative string) string {
	allowed := primary
	if alternative != "" {
		allowed += ", " + alternative
	}
	if locale == "de" {
		return fmt.Sprintf(
			"❌ Informationen zu '%s' sind heute nicht verfügbar. "+
				"Du kannst Details zu deinen heutigen Ölen anfordern: %s",
			requested, allowed)
	}
	return fmt.Sprintf(
		"❌ Information about '%s' is not available today. "+
			"You can request details about today's oils: %s",
		requested, allowed)
}

func alternativeHeader(locale string) string {
	if locale == "de" {
		return "🌿 <b>Alternative Empfehlung für heute:</b>\n\n"
	}
	return "🌿 <b>Alternative Recommendation for Today:</b>\n\n"
}

func alternativeFailed(locale string) string {
	if locale == "de" {
		return "❌ Fehler beim Generieren der Alternativempfehlung. Bitte versuche es später erneut."
	}
	return "❌ Error generating the alternative recommendation. Please try again later."
}

// formatOilInfo はオイル詳細を複数セクションの返信に整形する。
// 使用方法のうち経口摂取系のエントリは返信から除外する（二重の安全網）。
func formatOilInfo(oil *model.Oil, locale string) string {
	var b strings.Builder

	labels := map[string]string{
		"effects":    "Energetic Effects",
		"components": "Main Components",
		"facts":      "Interesting Facts",
		"safety":     "⚠️ Safety Notes",
		"uses":       "Best Uses",
	}
	if locale == "de" {
		labels = map[string]string{
			"effects":    "Energetische Wirkung",
			"components": "Hauptinhaltsstoffe",
			"facts":      "Wissenswertes",
			"safety":     "⚠️ Hinweise",
			"uses":       "Beste Anwendung",
		}
	}

	fmt.Fprintf(&b, "🌿 <b>%s</b>\n\n", oil.Name)

	if oil.EnergeticEffects != "" {
		fmt.Fprintf(&b, "<b>%s:</b>\n%s\n\n", labels["effects"], oil.EnergeticEffects)
	}

	if len(oil.MainComponents) > 0 {
		fmt.Fprintf(&b, "<b>%s:</b>\n", labels["components"])
		for i, comp := range oil.MainComponents {
			if i >= 5 {
				break
			}
			if comp.Effect != "" {
				fmt.Fprintf(&b, "- %s: %s\n", comp.Name, comp.Effect)
			} else {
				fmt.Fprintf(&b, "- %s\n", comp.Name)
			}
		}
		b.WriteString("\n")
	}

	if oil.InterestingFacts != "" {
		fmt.Fprintf(&b, "<b>%s:</b>\n%s\n\n", labels["facts"], oil.InterestingFacts)
	}

	if oil.Contraindications != "" {
		fmt.Fprintf(&b, "<b>%s:</b>\n%s\n\n", labels["safety"], oil.Contraindications)
	}

	safeUses := make([]string, 0, len(oil.BestUses))
	for _, use := range oil.BestUses {
		if !generator.IsInternalUseEntry(use) {
			safeUses = append(safeUses, use)
		}
	}
	if len(safeUses) > 0 {
		fmt.Fprintf(&b, "<b>%s:</b>\n", labels["uses"])
		for _, use := range safeUses {
			fmt.Fprintf(&b, "- %s\n", use)
		}
	}

	b.WriteString("\n💜 Soul Aligned Oils")
	return b.String()
}
