// Package postgres reads launch records from a PostgreSQL table through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"launchdash/internal/infra/persistence"
	"launchdash/internal/launch"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/launchdash?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Open connects to Postgres using dsn (falls back to defaultDSN) and verifies
// the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// LoadLaunches reads table from the database at dsn.
func LoadLaunches(ctx context.Context, dsn, table string) ([]launch.Record, error) {
	db, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return persistence.LoadLaunches(ctx, db, table, sq.Dollar)
}
