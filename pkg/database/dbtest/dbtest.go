// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"fmt"
	"testing"
	"vetlms_backend/internal/config"
	"vetlms_backend/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New opens a private in-memory SQLite database with every table migrated.
// The database disappears when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: database.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()),
	}
	db, err := database.InitDB(cfg, true)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
