package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/joshpeterson/whatsfordinner/internal/database"
)

// newTestDB はマイグレーション適用済みの一時SQLiteデータベースを返す。
// 各テストが独立したファイルを使うため、並列実行しても干渉しない。
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	if err := database.RunMigrations(path); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}
