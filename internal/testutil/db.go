package testutil

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/hupe1980/bpmcore/internal/gormdb"
)

// OpenSQLite opens a private in-memory sqlite database for the calling test.
// It reports false when the driver is unavailable (for example without cgo).
func OpenSQLite(tb testing.TB) (*gorm.DB, bool) {
	tb.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	db, err := gormdb.Open(gormdb.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		tb.Logf("sqlite unavailable: %v", err)
		return nil, false
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db, true
}

// SQLite is OpenSQLite that skips the test when sqlite is unavailable.
func SQLite(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, ok := OpenSQLite(tb)
	if !ok {
		tb.Skip("sqlite unavailable")
	}
	return db
}
