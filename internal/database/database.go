package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

//go:embed schema.sql
var schema string

// OpenDB opens the primary Read/Write connection pool.
func OpenDB(ctx context.Context, dsn string, loc *time.Location, logger *slog.Logger) (*sql.DB, error) {
	return open(ctx, "primary", dsn, loc, logger)
}

// OpenReadOnlyDB opens the pool used by the reporting assistant. The DSN
// should point at an account that only holds SELECT grants.
func OpenReadOnlyDB(ctx context.Context, dsn string, loc *time.Location, logger *slog.Logger) (*sql.DB, error) {
	return open(ctx, "readonly", dsn, loc, logger)
}

// Config parses dsn and forces the driver settings the record store relies
// on: DATETIME columns scan into time.Time, times are read in loc, and
// UPDATE reports matched rather than changed rows.
func Config(dsn string, loc *time.Location) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("database: parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	if loc != nil {
		cfg.Loc = loc
	}
	return cfg, nil
}

func open(ctx context.Context, name, dsn string, loc *time.Location, logger *slog.Logger) (*sql.DB, error) {
	// 1. Build the driver config
	cfg, err := Config(dsn, loc)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %s connector: %w", name, err)
	}

	// 2. Open the pool and configure it
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 3. Ping the database to verify the connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping %s (%s@%s/%s): %w", name, cfg.User, cfg.Addr, cfg.DBName, err)
	}

	logger.Info("database connection pool established", "pool", name, "addr", cfg.Addr, "db", cfg.DBName)
	return db, nil
}

// Migrate creates any missing table. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database: migrate: %w", err)
		}
	}
	return nil
}

// statements splits a script on ';' line endings. The driver runs one
// statement per call unless multiStatements is set.
func statements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
