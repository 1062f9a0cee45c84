// Package dbtest opens migrated in-memory stores for package tests.
package dbtest

import (
	"testing"

	"github.com/zulandar/aegis/internal/config"
	"github.com/zulandar/aegis/internal/db"
	"gorm.io/gorm"
)

// Open returns a migrated in-memory SQLite store limited to one connection,
// so goroutines in the test share the same database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("dbtest: open: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("dbtest: sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("dbtest: migrate: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return gdb
}
