// Package testkit provides throwaway databases for package tests.
package testkit

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/greenshelf/catalog/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database living in t.TempDir().
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	// one writer at a time; background imports share the handle with the test
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// SeedCategories inserts categories in order, so the first gets id 1.
func SeedCategories(t testing.TB, db *gorm.DB, names ...string) []domain.Category {
	t.Helper()
	cats := make([]domain.Category, 0, len(names))
	for _, name := range names {
		c := domain.Category{Name: name}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed category %s: %v", name, err)
		}
		cats = append(cats, c)
	}
	return cats
}
