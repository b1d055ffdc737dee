package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"launchdash/internal/infra/persistence"
	"launchdash/internal/launch"
)

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// Open opens an existing SQLite database file in read-only mode; writes
// through the returned handle fail.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("sqlite database %s does not exist", path)
		}
		return nil, fmt.Errorf("stat sqlite database: %w", err)
	}
	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

func readOnlyDSN(path string) string {
	return "file:" + uriEscaper.Replace(filepath.ToSlash(path)) + "?mode=ro"
}

// LoadLaunches reads table from the SQLite database at path.
func LoadLaunches(ctx context.Context, path, table string) ([]launch.Record, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return persistence.LoadLaunches(ctx, db, table, sq.Question)
}
