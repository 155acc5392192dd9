package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/aromabot/internal/model"
)

// SQLiteAuditRepo はSQLiteを使用したコマンド監査ログリポジトリ。
// 追記専用で、コアロジックからの読み戻しは行わない。
type SQLiteAuditRepo struct {
	db *sql.DB
}

// NewSQLiteAuditRepo はSQLiteAuditRepoを生成する。
func NewSQLiteAuditRepo(db *sql.DB) *SQLiteAuditRepo {
	return &SQLiteAuditRepo{db: db}
}

// LogCommand はユーザーコマンドの実行記録を追記する。
func (r *SQLiteAuditRepo) LogCommand(ctx context.Context, entry *model.CommandLogEntry) error {
	responseSent := 0
	if entry.ResponseSent {
		responseSent = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_command_log (user_id, command, parameters, response_sent, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.Command, nullString(entry.Parameters), responseSent,
		entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("コマンドログの追記に失敗しました: %w", err)
	}
	return nil
}

// LogInteraction は許可判定付きの問い合わせ記録を追記する。
func (r *SQLiteAuditRepo) LogInteraction(ctx context.Context, attempt *model.InteractionAttempt) error {
	allowed := 0
	if attempt.WasAllowed {
		allowed = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interaction_attempts
		    (user_id, attempted_command, was_allowed, oil_requested,
		     daily_primary_oil, daily_alternative_oil, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		attempt.UserID, attempt.Command, allowed,
		nullString(attempt.OilRequested),
		nullString(attempt.PrimaryOil), nullString(attempt.AlternativeOil),
		attempt.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("問い合わせ記録の追記に失敗しました: %w", err)
	}
	return nil
}

// DeleteOlderThan は保持期限を過ぎたログ行を両テーブルから削除する。合計削除件数を返す。
func (r *SQLiteAuditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffStr := cutoff.UTC().Format(time.RFC3339)

	var total int64
	for _, table := range []string{"user_command_log", "interaction_attempts"} {
		result, err := r.db.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE created_at < ?`, cutoffStr)
		if err != nil {
			return total, fmt.Errorf("%sの削除に失敗しました: %w", table, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
		}
		total += affected
	}

	return total, nil
}
