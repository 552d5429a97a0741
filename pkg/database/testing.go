package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpenTest opens a private in-memory sqlite database, migrates models into
// it and closes it when t finishes.
func OpenTest(t testing.TB, models ...interface{}) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := Open("sqlite", dsn, Options{MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Hour})
	if err != nil {
		t.Fatalf("database: open test db: %v", err)
	}
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("database: migrate test db: %v", err)
		}
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
