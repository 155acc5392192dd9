package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
)

// SQLiteReactionRepo はSQLiteを使用したリアクションリポジトリ。
type SQLiteReactionRepo struct {
	db *sql.DB
}

// NewSQLiteReactionRepo はSQLiteReactionRepoを生成する。
func NewSQLiteReactionRepo(db *sql.DB) *SQLiteReactionRepo {
	return &SQLiteReactionRepo{db: db}
}

// Upsert はリアクションを登録する。
// (user_id, message_date)が既に存在する場合は上書きする（1日1リアクション）。
func (r *SQLiteReactionRepo) Upsert(ctx context.Context, reaction *model.Reaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reactions (user_id, message_date, reaction, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, message_date) DO UPDATE SET
		    reaction = excluded.reaction,
		    created_at = excluded.created_at`,
		reaction.UserID, reaction.Date, reaction.Reaction,
		reaction.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("リアクションの保存に失敗しました: %w", err)
	}
	return nil
}

// ListByDate は指定日付の全リアクションを時刻順で返す。
func (r *SQLiteReactionRepo) ListByDate(ctx context.Context, date string) ([]*model.Reaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, message_date, reaction, created_at
		 FROM reactions WHERE message_date = ? ORDER BY created_at`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("リアクション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reactions []*model.Reaction
	for rows.Next() {
		reaction := &model.Reaction{}
		var createdAt string
		if err := rows.Scan(&reaction.UserID, &reaction.Date, &reaction.Reaction, &createdAt); err != nil {
			return nil, fmt.Errorf("リアクション行の読み取りに失敗しました: %w", err)
		}
		reaction.CreatedAt = parseStoredTime(createdAt)
		reactions = append(reactions, reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リアクション一覧の走査に失敗しました: %w", err)
	}

	return reactions, nil
}
