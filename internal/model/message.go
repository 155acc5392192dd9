package model

import "time"

// DailyMessage は1人の受信者に対するその日の推薦レコードを表す。
// (UserID, Date) の組で一意。同日内の再生成は置き換えになる。
type DailyMessage struct {
	ID             int64
	UserID         string
	Date           string // DateFormat形式
	MessageText    string
	PrimaryOil     string
	AlternativeOil string
	MessageType    MessageType
	CreatedAt      time.Time
}

// RepeatStatus は再送予約の状態を表す。pending→sentの一方向にのみ遷移する。
type RepeatStatus string

const (
	RepeatStatusPending RepeatStatus = "pending"
	RepeatStatusSent    RepeatStatus = "sent"
)

// ScheduledRepeat は再送予約を表す。
type ScheduledRepeat struct {
	ID         int64
	UserID     string
	Date       string // 対象日（DateFormat形式）
	RepeatTime string // 対象時刻（"15:04"形式）
	Status     RepeatStatus
	CreatedAt  time.Time
	SentAt     *time.Time
}

// Reaction は受信者の絵文字リアクションを表す。(UserID, Date)で一意、UPSERTされる。
type Reaction struct {
	UserID    string
	Date      string
	Reaction  string
	CreatedAt time.Time
}

// LunarEvent は日付ごとの月相・ポータル日キャッシュ。
type LunarEvent struct {
	Date      string
	MoonPhase MoonPhase
	PortalDay bool
}

// CommandLogEntry はユーザーコマンドの監査ログ行。追記専用。
type CommandLogEntry struct {
	ID           int64
	UserID       string
	Command      string
	Parameters   string
	ResponseSent bool
	CreatedAt    time.Time
}

// InteractionAttempt はInfoコマンド等の許可判定の監査ログ行。追記専用。
// 要求されたオイルと、その時点の当日の推薦ペアを記録する。
type InteractionAttempt struct {
	ID             int64
	UserID         string
	Command        string
	WasAllowed     bool
	OilRequested   string
	PrimaryOil     string
	AlternativeOil string
	CreatedAt      time.Time
}
