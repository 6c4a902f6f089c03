// Package repository persists ingested documents and their recovered fields.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	Driver          string // "postgres" or "sqlite"
	DSN             string
	MaxConns        int
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// Open connects to the configured database and verifies the connection with
// a bounded ping.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var driverName string
	switch cfg.Driver {
	case "postgres":
		driverName = "pgx"
	case "sqlite", "":
		driverName = "sqlite"
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	logger.Info("connecting to database", "driver", cfg.Driver)
	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS health_records (
	id          TEXT PRIMARY KEY,
	patient_id  INTEGER NOT NULL,
	filename    TEXT NOT NULL,
	kind        TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	body_text   TEXT NOT NULL,
	fields      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_records_patient ON health_records (patient_id, created_at);
`

// EnsureSchema creates the health_records table when absent. The DDL sticks
// to the dialect intersection so one statement set serves both drivers.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
