package testdb

import (
	"path/filepath"
	"testing"

	"lms_backend/internal/config"
	"lms_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SQLite opens a migrated database in a file under t.TempDir(). The file is
// removed with the temp dir when the test ends.
func SQLite(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:   database.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "lms.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
