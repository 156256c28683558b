package utils

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DriverSQLite is the database/sql name registered by modernc.org/sqlite.
const DriverSQLite = "sqlite"

// SQLiteConfig controls how a device-local database file is opened.
type SQLiteConfig struct {
	// Path is a file path or ":memory:".
	Path string
	// ReadOnly opens the file with mode=ro.
	ReadOnly bool

	BusyTimeout time.Duration
	PingTimeout time.Duration
}

func (c SQLiteConfig) withDefaults() SQLiteConfig {
	out := c
	if out.BusyTimeout <= 0 {
		out.BusyTimeout = 5 * time.Second
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

func (c SQLiteConfig) dsn() string {
	// LIKE is made case-sensitive so substring filters behave the same on every backend.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=case_sensitive_like(1)",
		c.Path, c.BusyTimeout.Milliseconds())
	if c.ReadOnly {
		dsn += "&mode=ro"
	}
	return dsn
}

// OpenSQLite opens a SQLite database with modernc.org/sqlite.
// An in-memory database is pinned to a single connection so every query sees the same data.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*sql.DB, error) {
	cfg = cfg.withDefaults()
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	// The path is spliced into a file: URI; these would start its query or fragment.
	if strings.ContainsAny(cfg.Path, "?#") {
		return nil, fmt.Errorf("sqlite path %q must not contain '?' or '#'", cfg.Path)
	}

	db, err := sql.Open(DriverSQLite, cfg.dsn())
	if err != nil {
		return nil, err
	}
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := HealthCheck(ctx, db, cfg.PingTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
