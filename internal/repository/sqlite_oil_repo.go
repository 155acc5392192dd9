package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/aromabot/internal/model"
)

// SQLiteOilRepo はSQLiteを使用したオイルカタログリポジトリ。
// リスト型の属性はJSON文字列としてTEXTカラムに保存する。
type SQLiteOilRepo struct {
	db *sql.DB
}

// NewSQLiteOilRepo はSQLiteOilRepoを生成する。
func NewSQLiteOilRepo(db *sql.DB) *SQLiteOilRepo {
	return &SQLiteOilRepo{db: db}
}

const oilColumns = `oil_name, alternative_names, properties, energetic_effects,
	       main_components, interesting_facts, seasonal_fit,
	       weekday_energy_match, contraindications, best_uses`

// Upsert はオイルを登録または上書きする。
func (r *SQLiteOilRepo) Upsert(ctx context.Context, oil *model.Oil) error {
	altNames, err := json.Marshal(oil.AlternativeNames)
	if err != nil {
		return fmt.Errorf("別名のエンコードに失敗しました: %w", err)
	}
	properties, err := json.Marshal(oil.Properties)
	if err != nil {
		return fmt.Errorf("特性タグのエンコードに失敗しました: %w", err)
	}
	components, err := json.Marshal(oil.MainComponents)
	if err != nil {
		return fmt.Errorf("主要成分のエンコードに失敗しました: %w", err)
	}
	seasons, err := json.Marshal(oil.SeasonalFit)
	if err != nil {
		return fmt.Errorf("季節相性のエンコードに失敗しました: %w", err)
	}
	weekdays, err := json.Marshal(oil.WeekdayEnergyMatch)
	if err != nil {
		return fmt.Errorf("曜日相性のエンコードに失敗しました: %w", err)
	}
	uses, err := json.Marshal(oil.BestUses)
	if err != nil {
		return fmt.Errorf("使用方法のエンコードに失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO oils (`+oilColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (oil_name) DO UPDATE SET
		    alternative_names = excluded.alternative_names,
		    properties = excluded.properties,
		    energetic_effects = excluded.energetic_effects,
		    main_components = excluded.main_components,
		    interesting_facts = excluded.interesting_facts,
		    seasonal_fit = excluded.seasonal_fit,
		    weekday_energy_match = excluded.weekday_energy_match,
		    contraindications = excluded.contraindications,
		    best_uses = excluded.best_uses`,
		oil.Name, string(altNames), string(properties), oil.EnergeticEffects,
		string(components), oil.InterestingFacts, string(seasons),
		string(weekdays), oil.Contraindications, string(uses),
	)
	if err != nil {
		return fmt.Errorf("オイルの登録に失敗しました: %w", err)
	}
	return nil
}

// FindByName は名前でオイルを検索する。見つからない場合はnilを返す。
// 完全一致 → 大文字小文字無視 → 別名の部分一致の順で照合する。
func (r *SQLiteOilRepo) FindByName(ctx context.Context, name string) (*model.Oil, error) {
	queries := []struct {
		where string
		arg   string
	}{
		{"oil_name = ?", name},
		{"LOWER(oil_name) = LOWER(?)", name},
		{"alternative_names LIKE ?", "%" + name + "%"},
	}

	for _, q := range queries {
		row := r.db.QueryRowContext(ctx,
			`SELECT `+oilColumns+` FROM oils WHERE `+q.where, q.arg)
		oil, err := scanOil(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("オイルの取得に失敗しました: %w", err)
		}
		return oil, nil
	}

	return nil, nil
}

// ListAll は全オイルを名前順で返す。
func (r *SQLiteOilRepo) ListAll(ctx context.Context) ([]*model.Oil, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+oilColumns+` FROM oils ORDER BY oil_name`)
	if err != nil {
		return nil, fmt.Errorf("オイル一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var oils []*model.Oil
	for rows.Next() {
		oil, err := scanOil(rows)
		if err != nil {
			return nil, fmt.Errorf("オイル行の読み取りに失敗しました: %w", err)
		}
		oils = append(oils, oil)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("オイル一覧の走査に失敗しました: %w", err)
	}

	return oils, nil
}

// SearchNames は名前または別名にqueryを含むオイル名を返す。
func (r *SQLiteOilRepo) SearchNames(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT oil_name FROM oils
		 WHERE LOWER(oil_name) LIKE LOWER(?) OR LOWER(alternative_names) LIKE LOWER(?)
		 ORDER BY oil_name LIMIT ?`,
		"%"+query+"%", "%"+query+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("オイル名の検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("オイル名の読み取りに失敗しました: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("オイル名の走査に失敗しました: %w", err)
	}

	return names, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの両方を受け付けるための共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanOil は1行をmodel.Oilにデコードする。
func scanOil(row rowScanner) (*model.Oil, error) {
	oil := &model.Oil{}
	var altNames, properties, components, seasons, weekdays, uses string

	err := row.Scan(
		&oil.Name, &altNames, &properties, &oil.EnergeticEffects,
		&components, &oil.InterestingFacts, &seasons,
		&weekdays, &oil.Contraindications, &uses,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(altNames), &oil.AlternativeNames); err != nil {
		return nil, fmt.Errorf("別名のデコードに失敗しました: %w", err)
	}
	if err := json.Unmarshal([]byte(properties), &oil.Properties); err != nil {
		return nil, fmt.Errorf("特性タグのデコードに失敗しました: %w", err)
	}
	if err := json.Unmarshal([]byte(components), &oil.MainComponents); err != nil {
		return nil, fmt.Errorf("主要成分のデコードに失敗しました: %w", err)
	}
	if err := json.Unmarshal([]byte(seasons), &oil.SeasonalFit); err != nil {
		return nil, fmt.Errorf("季節相性のデコードに失敗しました: %w", err)
	}
	if err := json.Unmarshal([]byte(weekdays), &oil.WeekdayEnergyMatch); err != nil {
		return nil, fmt.Errorf("曜日相性のデコードに失敗しました: %w", err)
	}
	if err := json.Unmarshal([]byte(uses), &oil.BestUses); err != nil {
		return nil, fmt.Errorf("使用方法のデコードに失敗しました: %w", err)
	}

	return oil, nil
}
