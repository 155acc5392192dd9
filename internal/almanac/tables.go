package almanac

import (
	"time"

	"github.com/hitoshi/aromabot/internal/model"
)

// weekdayEnergies は曜日ごとのテーマとフォーカスの固定テーブル。
// フォーカスのキーワードはプロンプト組み立てとオイル選定の両方で使う。
var weekdayEnergies = map[time.Weekday]model.WeekdayEnergy{
	time.Monday: {
		Weekday: time.Monday,
		Theme:   "New beginnings",
		Focus:   "new beginnings, fresh starts, intention setting, new chapter",
	},
	time.Tuesday: {
		Weekday: time.Tuesday,
		Theme:   "Action and momentum",
		Focus:   "action, momentum, courage, forward movement, determination",
	},
	time.Wednesday: {
		Weekday: time.Wednesday,
		Theme:   "Balance and reflection",
		Focus:   "balance, reflection, midpoint recalibration, harmony, wisdom",
	},
	time.Thursday: {
		Weekday: time.Thursday,
		Theme:   "Expansion and gratitude",
		Focus:   "expansion, growth, gratitude, abundance, manifestation",
	},
	time.Friday: {
		Weekday: time.Friday,
		Theme:   "Release and celebration",
		Focus:   "release, completion, celebration, freedom, joy",
	},
	time.Saturday: {
		Weekday: time.Saturday,
		Theme:   "Rest and self-care",
		Focus:   "rest, self-care, rejuvenation, play, personal nourishment",
	},
	time.Sunday: {
		Weekday: time.Sunday,
		Theme:   "Reflection and renewal",
		Focus:   "reflection, spiritual connection, preparation, inner peace, renewal",
	},
}

// monthThemes は月ごとのテーマの固定テーブル。内容はドメインデータでありロジックではない。
var monthThemes = map[time.Month]model.MonthTheme{
	time.January: {
		Month:  time.January,
		Theme:  "New Beginnings & Fresh Intentions",
		Focus:  "clarity, goal setting, renewal, purification, fresh start energy",
		Energy: "Clean slate, new year momentum, determination, clarity of vision",
	},
	time.February: {
		Month:  time.February,
		Theme:  "Self-Love & Heart Connection",
		Focus:  "self-compassion, heart healing, love, emotional warmth, inner acceptance",
		Energy: "Love yourself first, heart-centered living, emotional nurturing, tenderness",
	},
	time.March: {
		Month:  time.March,
		Theme:  "Awakening & Rebirth",
		Focus:  "spring awakening, growth, vitality, rebirth, emerging energy",
		Energy: "Nature awakening, fresh growth, renewed vitality, blossoming potential",
	},
	time.April: {
		Month:  time.April,
		Theme:  "Growth & Expansion",
		Focus:  "flowering, manifestation, joy, growth, creative expression",
		Energy: "Full bloom energy, expansion, creative flow, joyful manifestation",
	},
	time.May: {
		Month:  time.May,
		Theme:  "Abundance & Gratitude",
		Focus:  "abundance mindset, gratitude, appreciation, fullness, prosperity",
		Energy: "Abundant blessings, grateful heart, prosperity consciousness, fullness of life",
	},
	time.June: {
		Month:  time.June,
		Theme:  "Light & Radiance",
		Focus:  "inner light, radiance, confidence, brightness, solar energy",
		Energy: "Maximum light, radiant confidence, summer vitality, brightness of being",
	},
	time.July: {
		Month:  time.July,
		Theme:  "Freedom & Joy",
		Focus:  "liberation, joy, celebration, independence, authentic expression",
		Energy: "Freedom to be yourself, joyful celebration, authentic living, liberation",
	},
	time.August: {
		Month:  time.August,
		Theme:  "Power & Strength",
		Focus:  "personal power, inner strength, courage, leadership, boldness",
		Energy: "Peak power, inner strength, courageous action, stepping into leadership",
	},
	time.September: {
		Month:  time.September,
		Theme:  "Harvest & Reflection",
		Focus:  "reaping rewards, reflection, wisdom, preparation, harvest time",
		Energy: "Harvest your efforts, reflect on growth, gather wisdom, prepare for change",
	},
	time.October: {
		Month:  time.October,
		Theme:  "Transformation & Release",
		Focus:  "letting go, transformation, deep change, shedding old patterns",
		Energy: "Release what no longer serves, transformation, deep inner change, renewal through release",
	},
	time.November: {
		Month:  time.November,
		Theme:  "Gratitude & Inner Warmth",
		Focus:  "thankfulness, inner warmth, appreciation, cozy comfort, heart gratitude",
		Energy: "Deep gratitude, counting blessings, inner warmth, thankful heart",
	},
	time.December: {
		Month:  time.December,
		Theme:  "Reflection & Sacred Rest",
		Focus:  "rest, reflection, sacred pause, completion, spiritual connection",
		Energy: "Year-end reflection, sacred rest, completion of cycles, quiet contemplation",
	},
}

// SeasonForMonth は月から季節を返す固定マッピング。
// 12〜2月=winter, 3〜5月=spring, 6〜8月=summer, 9〜11月=autumn。
func SeasonForMonth(month time.Month) model.Season {
	switch month {
	case time.December, time.January, time.February:
		return model.SeasonWinter
	case time.March, time.April, time.May:
		return model.SeasonSpring
	case time.June, time.July, time.August:
		return model.SeasonSummer
	default:
		return model.SeasonAutumn
	}
}

// WeekdayEnergyFor は曜日のテーマとフォーカスを返す。
func WeekdayEnergyFor(weekday time.Weekday) model.WeekdayEnergy {
	return weekdayEnergies[weekday]
}

// MonthThemeFor は月のテーマを返す。
func MonthThemeFor(month time.Month) model.MonthTheme {
	return monthThemes[month]
}
