package model

import "time"

// DateFormat はデータベースに保存する日付キーの書式。
const DateFormat = "2006-01-02"

// Season は季節を表す4値の列挙型。
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// MoonPhase は近似計算による月相を表す8値の列挙型。
type MoonPhase string

const (
	MoonNew            MoonPhase = "new_moon"
	MoonWaxingCrescent MoonPhase = "waxing_crescent"
	MoonFirstQuarter   MoonPhase = "first_quarter"
	MoonWaxingGibbous  MoonPhase = "waxing_gibbous"
	MoonFull           MoonPhase = "full_moon"
	MoonWaningGibbous  MoonPhase = "waning_gibbous"
	MoonLastQuarter    MoonPhase = "last_quarter"
	MoonWaningCrescent MoonPhase = "waning_crescent"
)

// MessageType はその日のメッセージ種別を表す。
// 優先順位は portal > full_moon > new_moon > regular で、
// ポータル日は月相に関わらず常にportalになる。
type MessageType string

const (
	MessageTypeRegular  MessageType = "regular"
	MessageTypePortal   MessageType = "portal"
	MessageTypeFullMoon MessageType = "full_moon"
	MessageTypeNewMoon  MessageType = "new_moon"
)

// WeekdayEnergy は曜日ごとのテーマとフォーカスを表す。
type WeekdayEnergy struct {
	Weekday time.Weekday
	Theme   string // 曜日のテーマ（短い見出し）
	Focus   string // フォーカスのキーワード群（プロンプトと選定に使用）
}

// MonthTheme は月ごとのテーマを表す。
type MonthTheme struct {
	Month  time.Month
	Theme  string
	Focus  string
	Energy string
}

// DayContext はある日付について解決された文脈情報の束。
// 同一日付に対する再計算は常に同じ値を返す（冪等）。
type DayContext struct {
	Date        time.Time
	Season      Season
	Weekday     WeekdayEnergy
	Month       MonthTheme
	MoonPhase   MoonPhase
	PortalDay   bool
	MessageType MessageType
}

// DateKey はデータベースのキーとして使う日付文字列を返す。
func (c DayContext) DateKey() string {
	return c.Date.Format(DateFormat)
}
