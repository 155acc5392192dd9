package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DSN はSQLiteの接続文字列を構築する。
// WALモードと外部キー制約を有効にし、ロック競合にはbusy_timeoutで対処する。
func DSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path,
	)
}

// Open はSQLiteデータベース接続を開く。
// 親ディレクトリが存在しない場合は作成する。
// 単一プロセスからの直列アクセスを前提とするため、接続数は1に制限する。
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLiteは書き込みの並列実行ができないため、プールを1接続に固定する
	db.SetMaxOpenConns(1)

	return db, nil
}

// MigrateURL はgolang-migrate用のデータベースURLを構築する。
func MigrateURL(path string) string {
	return "sqlite://" + path
}
