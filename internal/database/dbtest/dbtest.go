// Package dbtest opens throwaway SQL databases for repository tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/eunhae2004/MakeFinalProject-main/internal/config"
	"github.com/eunhae2004/MakeFinalProject-main/internal/database"
)

// Open opens a migrated in-memory SQLite database for tests and skips
// the calling test when the sqlite3 driver is unusable (cgo disabled).
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Open(config.DBConfig{Driver: "sqlite3", Path: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Skipf("sqlite3 unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
