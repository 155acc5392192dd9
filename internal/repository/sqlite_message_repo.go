package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
)

// SQLiteMessageRepo はSQLiteを使用した当日推薦レコードリポジトリ。
type SQLiteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo はSQLiteMessageRepoを生成する。
func NewSQLiteMessageRepo(db *sql.DB) *SQLiteMessageRepo {
	return &SQLiteMessageRepo{db: db}
}

// Save は当日推薦レコードを保存する。
// (user_id, message_date) が既に存在する場合は置き換える（同日の再生成）。
func (r *SQLiteMessageRepo) Save(ctx context.Context, msg *model.DailyMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO daily_messages
		    (user_id, message_date, message_text, primary_oil, alternative_oil, message_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, message_date) DO UPDATE SET
		    message_text = excluded.message_text,
		    primary_oil = excluded.primary_oil,
		    alternative_oil = excluded.alternative_oil,
		    message_type = excluded.message_type,
		    created_at = excluded.created_at`,
		msg.UserID, msg.Date, msg.MessageText,
		nullString(msg.PrimaryOil), nullString(msg.AlternativeOil),
		string(msg.MessageType), msg.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("当日推薦レコードの保存に失敗しました: %w", err)
	}
	return nil
}

// FindByUserAndDate は指定受信者・日付のレコードを取得する。見つからない場合はnilを返す。
func (r *SQLiteMessageRepo) FindByUserAndDate(ctx context.Context, userID, date string) (*model.DailyMessage, error) {
	msg := &model.DailyMessage{}
	var primary, alternative sql.NullString
	var messageType, createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, message_date, message_text, primary_oil, alternative_oil,
		        message_type, created_at
		 FROM daily_messages WHERE user_id = ? AND message_date = ?`,
		userID, date,
	).Scan(
		&msg.ID, &msg.UserID, &msg.Date, &msg.MessageText,
		&primary, &alternative, &messageType, &createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("当日推薦レコードの取得に失敗しました: %w", err)
	}

	msg.PrimaryOil = primary.String
	msg.AlternativeOil = alternative.String
	msg.MessageType = model.MessageType(messageType)
	msg.CreatedAt = parseStoredTime(createdAt)

	return msg, nil
}

// ListRecentOilNames は指定日以降にその受信者へ推薦したオイル名の集合を返す。
// 再選定時の除外セット（直近履歴）の入力になる。
func (r *SQLiteMessageRepo) ListRecentOilNames(ctx context.Context, userID, sinceDate string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT primary_oil, alternative_oil
		 FROM daily_messages
		 WHERE user_id = ? AND message_date >= ?
		   AND (primary_oil IS NOT NULL OR alternative_oil IS NOT NULL)`,
		userID, sinceDate,
	)
	if err != nil {
		return nil, fmt.Errorf("直近推薦オイルの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var names []string
	for rows.Next() {
		var primary, alternative sql.NullString
		if err := rows.Scan(&primary, &alternative); err != nil {
			return nil, fmt.Errorf("直近推薦オイル行の読み取りに失敗しました: %w", err)
		}
		for _, v := range []sql.NullString{primary, alternative} {
			if v.Valid && v.String != "" {
				if _, ok := seen[v.String]; !ok {
					seen[v.String] = struct{}{}
					names = append(names, v.String)
				}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("直近推薦オイルの走査に失敗しました: %w", err)
	}

	return names, nil
}

// nullString は空文字列をNULLに変換する。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// parseStoredTime は保存された時刻文字列をパースする。
// RFC3339とSQLiteのdatetime('now')書式の両方を受け付ける。
func parseStoredTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
