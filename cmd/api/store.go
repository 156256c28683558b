package main

import (
	"context"
	"database/sql"

	"callhistory/internal/calllog"
	"callhistory/internal/config"
	"callhistory/pkg/utils"
)

// openStore opens the database that holds both the call log and the contact directory.
func openStore(ctx context.Context, cfg config.Config) (*sql.DB, calllog.Dialect, error) {
	if cfg.Store.Driver == config.DriverPostgres {
		db, err := utils.OpenPostgres(ctx, cfg.PostgresDSN(), utils.PostgresPoolConfig{ReadOnly: true})
		return db, calllog.DialectPostgres, err
	}
	// The service never writes to the call log.
	db, err := utils.OpenSQLite(ctx, utils.SQLiteConfig{Path: cfg.Store.SQLitePath, ReadOnly: true})
	return db, calllog.DialectSQLite, err
}
