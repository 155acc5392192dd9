// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
)

// OilRepository はオイルカタログの永続化インターフェース。
// カタログは参照データであり、シード処理以外から書き込まれることはない。
type OilRepository interface {
	// Upsert はオイルを登録または上書きする。
	Upsert(ctx context.Context, oil *model.Oil) error

	// FindByName は名前でオイルを検索する。
	// 完全一致 → 大文字小文字無視 → 別名の部分一致の順で照合する。
	// 見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Oil, error)

	// ListAll は全オイルを名前順で返す。
	ListAll(ctx context.Context) ([]*model.Oil, error)

	// SearchNames は名前または別名にqueryを含むオイル名を返す（あいまい検索の候補提示用）。
	SearchNames(ctx context.Context, query string, limit int) ([]string, error)
}

// MessageRepository は当日推薦レコードの永続化インターフェース。
type MessageRepository interface {
	// Save は当日推薦レコードを保存する。
	// (user_id, message_date) が既に存在する場合は置き換える。
	Save(ctx context.Context, msg *model.DailyMessage) error

	// FindByUserAndDate は指定受信者・日付のレコードを取得する。見つからない場合はnilを返す。
	FindByUserAndDate(ctx context.Context, userID, date string) (*model.DailyMessage, error)

	// ListRecentOilNames は指定日以降にその受信者へ推薦したオイル名の集合を返す。
	// primary/alternative両方を含み、重複は除かれる。
	ListRecentOilNames(ctx context.Context, userID, sinceDate string) ([]string, error)
}

// RepeatRepository は再送予約の永続化インターフェース。
type RepeatRepository interface {
	// Create は新しいpending状態の再送予約を作成する。
	Create(ctx context.Context, repeat *model.ScheduledRepeat) error

	// ListDue は指定日付でrepeat_timeがtimeOfDay以前のpending予約を時刻順で返す。
	ListDue(ctx context.Context, date, timeOfDay string) ([]*model.ScheduledRepeat, error)

	// MarkSent は予約をsentに遷移させる。pending→sentの一方向のみ。
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error

	// DeleteSentBefore は指定日より前のsent予約を削除する。削除件数を返す。
	DeleteSentBefore(ctx context.Context, date string) (int64, error)
}

// ReactionRepository はリアクションの永続化インターフェース。
type ReactionRepository interface {
	// Upsert はリアクションを登録する。(user_id, message_date)が既に存在する場合は上書きする。
	Upsert(ctx context.Context, reaction *model.Reaction) error

	// ListByDate は指定日付の全リアクションを時刻順で返す。
	ListByDate(ctx context.Context, date string) ([]*model.Reaction, error)
}

// LunarRepository は月相・ポータル日キャッシュの永続化インターフェース。
type LunarRepository interface {
	// Upsert は日付ごとの月相キャッシュを登録または上書きする。冪等。
	Upsert(ctx context.Context, event *model.LunarEvent) error

	// FindByDate は指定日付のキャッシュを取得する。見つからない場合はnilを返す。
	FindByDate(ctx context.Context, date string) (*model.LunarEvent, error)
}

// AuditRepository はコマンド監査ログの永続化インターフェース。
// コアロジックからは書き込み専用で、読み戻しは外部レポートのみが行う。
type AuditRepository interface {
	// LogCommand はユーザーコマンドの実行記録を追記する。
	LogCommand(ctx context.Context, entry *model.CommandLogEntry) error

	// LogInteraction は許可判定付きの問い合わせ記録を追記する。
	LogInteraction(ctx context.Context, attempt *model.InteractionAttempt) error

	// DeleteOlderThan は保持期限を過ぎたログ行を削除する。削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
