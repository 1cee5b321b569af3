// Package gormdb opens GORM connections for the durable stores.
package gormdb

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Drivers understood by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MemoryDSN is a shared in-memory sqlite database.
const MemoryDSN = "file::memory:?cache=shared"

// Options tunes the connection.
type Options struct {
	// LogLevel is one of silent, error, warn, info. Defaults to silent.
	LogLevel string
	// SlowThreshold marks slow statements in the GORM log.
	SlowThreshold time.Duration
}

// Open connects to driver using dsn. An empty sqlite dsn opens MemoryDSN.
func Open(driver, dsn string, optFns ...func(o *Options)) (*gorm.DB, error) {
	opts := Options{LogLevel: "silent", SlowThreshold: time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case DriverSQLite:
		if dsn == "" {
			dsn = MemoryDSN
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres requires a dsn")
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormLogger.New(
			log.New(os.Stderr, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             opts.SlowThreshold,
				LogLevel:                  logLevel(opts.LogLevel),
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return db, nil
}

func logLevel(s string) gormLogger.LogLevel {
	switch strings.ToLower(s) {
	case "error":
		return gormLogger.Error
	case "warn", "warning":
		return gormLogger.Warn
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Silent
	}
}
