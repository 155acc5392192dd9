package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDSN(t *testing.T) {
	dsn := DSN("data/bot.db")

	if !strings.HasPrefix(dsn, "file:data/bot.db?") {
		t.Errorf("DSNの先頭が不正: %q", dsn)
	}
	for _, pragma := range []string{"busy_timeout(5000)", "journal_mode(WAL)", "foreign_keys(1)"} {
		if !strings.Contains(dsn, pragma) {
			t.Errorf("DSNにプラグマ %q が含まれていない: %q", pragma, dsn)
		}
	}
}

func TestMigrateURL(t *testing.T) {
	if got := MigrateURL("data/bot.db"); got != "sqlite://data/bot.db" {
		t.Errorf("MigrateURL = %q", got)
	}
}

// TestOpen_CreatesParentDirectory は存在しない親ディレクトリが
// 自動作成されることを検証する。
func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "bot.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open がエラーを返した: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatalf("Ping がエラーを返した: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("親ディレクトリが作成されていない: %v", err)
	}
}

func TestOpen_BareFilename(t *testing.T) {
	// t.Chdir は Go 1.24 以降のため、os.Chdir と Cleanup で代替する。
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd がエラーを返した: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir がエラーを返した: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	db, err := Open("bot.db")
	if err != nil {
		t.Fatalf("Open がエラーを返した: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping がエラーを返した: %v", err)
	}
}
