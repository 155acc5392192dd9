package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/aromabot/internal/model"
)

// SQLiteLunarRepo はSQLiteを使用した月相キャッシュリポジトリ。
type SQLiteLunarRepo struct {
	db *sql.DB
}

// NewSQLiteLunarRepo はSQLiteLunarRepoを生成する。
func NewSQLiteLunarRepo(db *sql.DB) *SQLiteLunarRepo {
	return &SQLiteLunarRepo{db: db}
}

// Upsert は日付ごとの月相キャッシュを登録または上書きする。
// 同一日付への再書き込みは同じ値になるため観測可能な差異は生じない。
func (r *SQLiteLunarRepo) Upsert(ctx context.Context, event *model.LunarEvent) error {
	portal := 0
	if event.PortalDay {
		portal = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lunar_calendar (date, moon_phase, is_portal_day)
		 VALUES (?, ?, ?)
		 ON CONFLICT (date) DO UPDATE SET
		    moon_phase = excluded.moon_phase,
		    is_portal_day = excluded.is_portal_day`,
		event.Date, string(event.MoonPhase), portal,
	)
	if err != nil {
		return fmt.Errorf("月相キャッシュの保存に失敗しました: %w", err)
	}
	return nil
}

// FindByDate は指定日付のキャッシュを取得する。見つからない場合はnilを返す。
func (r *SQLiteLunarRepo) FindByDate(ctx context.Context, date string) (*model.LunarEvent, error) {
	event := &model.LunarEvent{}
	var phase string
	var portal int

	err := r.db.QueryRowContext(ctx,
		`SELECT date, moon_phase, is_portal_day FROM lunar_calendar WHERE date = ?`,
		date,
	).Scan(&event.Date, &phase, &portal)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("月相キャッシュの取得に失敗しました: %w", err)
	}

	event.MoonPhase = model.MoonPhase(phase)
	event.PortalDay = portal != 0

	return event, nil
}
