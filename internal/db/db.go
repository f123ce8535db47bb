package db

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"boardwatch/internal/config"
)

type DB struct {
	Gorm   *gorm.DB
	SQL    *sql.DB
	Driver string
}

func Open(cfg config.DBConfig) (*DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	var dialector gorm.Dialector
	switch driver {
	case "", "postgres", "postgresql":
		driver = "postgres"
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "sqlite3":
		driver = "sqlite"
		dialector = sqlite.Open(strings.TrimPrefix(cfg.DSN, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, err
	}

	sqldb, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{Gorm: gdb, SQL: sqldb, Driver: driver}, nil
}

func Close(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func Ping(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Ping()
}

// SetTimezone applies a session time zone. SQLite has none, so it is a no-op there.
func SetTimezone(db *DB, tz string) error {
	if tz == "" || db == nil || db.Driver != "postgres" {
		return nil
	}
	_, err := db.SQL.Exec("SET TIME ZONE '" + strings.ReplaceAll(tz, "'", "") + "'")
	return err
}
