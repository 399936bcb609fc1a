// Package dbtest поднимает временную базу SQLite со схемой приложения для тестов
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/org-tasks-api/internal/database"
)

// New создаёт пустую базу в каталоге теста
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
