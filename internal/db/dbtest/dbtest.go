// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"testing"

	"room_rental/internal/db"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a fresh migrated database. A single connection keeps the
// in-memory database alive and serializes writers like a row lock would.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(sqlite.Open("file::memory:?_foreign_keys=on"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}
