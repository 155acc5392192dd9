package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
)

// SQLiteRepeatRepo はSQLiteを使用した再送予約リポジトリ。
type SQLiteRepeatRepo struct {
	db *sql.DB
}

// NewSQLiteRepeatRepo はSQLiteRepeatRepoを生成する。
func NewSQLiteRepeatRepo(db *sql.DB) *SQLiteRepeatRepo {
	return &SQLiteRepeatRepo{db: db}
}

// Create は新しいpending状態の再送予約を作成する。
// 既存の予約は変更しない（同日の複数予約は加算的）。
func (r *SQLiteRepeatRepo) Create(ctx context.Context, repeat *model.ScheduledRepeat) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO scheduled_repeats (user_id, message_date, repeat_time, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		repeat.UserID, repeat.Date, repeat.RepeatTime,
		string(model.RepeatStatusPending),
		repeat.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("再送予約の作成に失敗しました: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("再送予約IDの取得に失敗しました: %w", err)
	}
	repeat.ID = id
	repeat.Status = model.RepeatStatusPending

	return nil
}

// ListDue は指定日付でrepeat_timeがtimeOfDay以前のpending予約を時刻順で返す。
func (r *SQLiteRepeatRepo) ListDue(ctx context.Context, date, timeOfDay string) ([]*model.ScheduledRepeat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, message_date, repeat_time, status, created_at, sent_at
		 FROM scheduled_repeats
		 WHERE status = ? AND message_date = ? AND repeat_time <= ?
		 ORDER BY repeat_time`,
		string(model.RepeatStatusPending), date, timeOfDay,
	)
	if err != nil {
		return nil, fmt.Errorf("送信対象の再送予約の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var repeats []*model.ScheduledRepeat
	for rows.Next() {
		repeat := &model.ScheduledRepeat{}
		var status, createdAt string
		var sentAt sql.NullString

		err := rows.Scan(
			&repeat.ID, &repeat.UserID, &repeat.Date, &repeat.RepeatTime,
			&status, &createdAt, &sentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("再送予約行の読み取りに失敗しました: %w", err)
		}

		repeat.Status = model.RepeatStatus(status)
		repeat.CreatedAt = parseStoredTime(createdAt)
		if sentAt.Valid {
			t := parseStoredTime(sentAt.String)
			repeat.SentAt = &t
		}
		repeats = append(repeats, repeat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("再送予約の走査に失敗しました: %w", err)
	}

	return repeats, nil
}

// MarkSent は予約をsentに遷移させる。
// WHERE句でpendingを条件にすることで、sent→pendingへの逆遷移と二重送信を防ぐ。
func (r *SQLiteRepeatRepo) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_repeats
		 SET status = ?, sent_at = ?
		 WHERE id = ? AND status = ?`,
		string(model.RepeatStatusSent), sentAt.UTC().Format(time.RFC3339),
		id, string(model.RepeatStatusPending),
	)
	if err != nil {
		return fmt.Errorf("再送予約の送信済み更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteSentBefore は指定日より前のsent予約を削除する。削除件数を返す。
func (r *SQLiteRepeatRepo) DeleteSentBefore(ctx context.Context, date string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM scheduled_repeats WHERE status = ? AND message_date < ?`,
		string(model.RepeatStatusSent), date,
	)
	if err != nil {
		return 0, fmt.Errorf("送信済み再送予約の削除に失敗しました: %w", err)
	}
	return result.RowsAffected()
}
