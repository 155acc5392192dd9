package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/hitoshi/aromabot/internal/database"
)

// newTestDB はマイグレーション適用済みの一時SQLiteデータベースを開く。
// ドライバがcgo不要のため、テストは実ファイルに対して実行できる。
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	if err := database.RunMigrations(path); err != nil {
		t.Fatalf("マイグレーションの適用に失敗した: %v", err)
	}

	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("テスト用データベースを開けなかった: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}
