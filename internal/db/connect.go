package db

import (
	"fmt"  // Error wrapping
	"time" // Pool lifetimes and UTC clock

	"room_rental/internal/config" // Custom package for configuration

	"gorm.io/driver/mysql"    // MySQL driver for GORM
	"gorm.io/driver/postgres" // Postgres driver for GORM
	"gorm.io/driver/sqlite"   // SQLite driver for GORM
	"gorm.io/gorm"            // GORM ORM library
	"gorm.io/gorm/clause"     // Locking clauses
	"gorm.io/gorm/logger"     // GORM logger
)

// Dialect names as reported by gorm.Dialector.Name()
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// Dialector picks the GORM dialector for the configured driver
func Dialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()) // MySQL connection
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()) // SQLite file
	default:
		return postgres.Open(cfg.DSN()) // Postgres connection
	}
}

// Connect opens the configured database and sizes the connection pool
func Connect(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn // Log slow queries and errors in development
	if cfg.IsProd {
		level = logger.Error
	}
	gdb, err := Open(Dialector(cfg), logger.Default.LogMode(level))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1) // SQLite allows a single writer
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return gdb, nil
}

// Open wraps gorm.Open with the settings every caller shares
func Open(d gorm.Dialector, log logger.Interface) (*gorm.DB, error) {
	return gorm.Open(d, &gorm.Config{
		TranslateError: true,                                         // Map driver errors to gorm.ErrDuplicatedKey and friends
		NowFunc:        func() time.Time { return time.Now().UTC() }, // Store UTC timestamps
		Logger:         log,
	})
}

// ForUpdate adds SELECT ... FOR UPDATE where the dialect supports row locks
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == DialectSQLite {
		return tx // SQLite serializes writers instead
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
