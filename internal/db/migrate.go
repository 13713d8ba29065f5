package db

import (
	"fmt" // Error wrapping

	"room_rental/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Models lists every table owned by the application, parents first
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Property{},
		&domain.Room{},
		&domain.PropertyPhoto{},
		&domain.RoomPhoto{},
		&domain.Stay{},
		&domain.Vote{},
	}
}

// Active-stay uniqueness indexes
const (
	indexActiveStayUser = "ux_estancia_usuario_activa"
	indexActiveStayRoom = "ux_estancia_habitacion_activa"
)

// Migrate performs automatic migration plus the dialect specific indexes AutoMigrate cannot express
func Migrate(gdb *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	switch gdb.Dialector.Name() {
	case DialectMySQL:
		if err := migrateMySQLActiveStay(gdb); err != nil {
			return err
		}
	default:
		if err := migratePartialActiveStay(gdb); err != nil {
			return err
		}
	}
	if gdb.Dialector.Name() == DialectPostgres {
		// Spanish full-text index backing the q filter on rooms
		if err := gdb.Exec(`CREATE INDEX IF NOT EXISTS ix_habitacion_fts ON habitacion
			USING GIN (to_tsvector('spanish', coalesce(titulo, '') || ' ' || coalesce(descripcion, '')))`).Error; err != nil {
			return fmt.Errorf("create fts index: %w", err)
		}
	}
	logrus.WithField("dialect", gdb.Dialector.Name()).Info("Migration completed.") // Log successful migration
	return nil
}

// migratePartialActiveStay adds WHERE fecha_salida IS NULL unique indexes (postgres, sqlite)
func migratePartialActiveStay(gdb *gorm.DB) error {
	stmts := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS " + indexActiveStayUser + " ON usuario_habitacion (usuario_id) WHERE fecha_salida IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS " + indexActiveStayRoom + " ON usuario_habitacion (habitacion_id) WHERE fecha_salida IS NULL",
	}
	for _, stmt := range stmts {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create active stay index: %w", err)
		}
	}
	return nil
}

// migrateMySQLActiveStay emulates partial indexes with generated columns that are NULL once the stay closes
func migrateMySQLActiveStay(gdb *gorm.DB) error {
	m := gdb.Migrator()
	columns := []struct{ column, source, index string }{
		{"usuario_activo_id", "usuario_id", indexActiveStayUser},
		{"habitacion_activa_id", "habitacion_id", indexActiveStayRoom},
	}
	for _, col := range columns {
		if !m.HasColumn(&domain.Stay{}, col.column) {
			stmt := fmt.Sprintf("ALTER TABLE usuario_habitacion ADD COLUMN %s BIGINT UNSIGNED AS (IF(fecha_salida IS NULL, %s, NULL)) STORED", col.column, col.source)
			if err := gdb.Exec(stmt).Error; err != nil {
				return fmt.Errorf("add %s: %w", col.column, err)
			}
		}
		if !m.HasIndex(&domain.Stay{}, col.index) {
			if err := gdb.Exec(fmt.Sprintf("CREATE UNIQUE INDEX %s ON usuario_habitacion (%s)", col.index, col.column)).Error; err != nil {
				return fmt.Errorf("create %s: %w", col.index, err)
			}
		}
	}
	return nil
}
