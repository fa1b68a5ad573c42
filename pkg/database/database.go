package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/unexca/student-docs-api/pkg/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Open returns a configured sqlx client for the configured driver. SQLite
// databases get the schema bootstrapped on open.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return NewPostgres(cfg)
	case DriverSQLite, "sqlite", "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.SSLMode,
		)
	}

	db, err := sqlx.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// NewSQLite opens the file database used by the original deployment.
func NewSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	path := cfg.DSN
	if path == "" {
		path = cfg.Name
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sqlx.Open(DriverSQLite, path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Migrate creates the tables the service reads and writes when they are absent.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS ESTUDIANTES (
	cedula   TEXT PRIMARY KEY,
	nombre   TEXT NOT NULL,
	apellido TEXT NOT NULL,
	carrera  TEXT NOT NULL DEFAULT '',
	seccion  TEXT NOT NULL DEFAULT '',
	turno    TEXT NOT NULL DEFAULT '',
	periodo  TEXT NOT NULL DEFAULT '',
	nucleo   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS usuarios (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	cedula     TEXT UNIQUE NOT NULL,
	contrasena TEXT NOT NULL,
	rol        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS carnets (
	id                TEXT PRIMARY KEY,
	cedula            TEXT NOT NULL,
	fecha_emision     DATETIME NOT NULL,
	fecha_vencimiento DATETIME NOT NULL,
	ruta_imagen       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_carnets_cedula ON carnets(cedula, fecha_emision);
`
