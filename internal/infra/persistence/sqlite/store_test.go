package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	sqldocs "launchdash/docs/schema/sql"
	"launchdash/internal/launch"
)

func seed(t *testing.T, table string, rows [][]any) string {
	t.Helper()
	ddl, err := sqldocs.DDL("sqlite", table)
	if err != nil {
		t.Fatalf("ddl: %v", err)
	}
	return seedWith(t, ddl, table, rows)
}

func seedWith(t *testing.T, ddl, table string, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "launches.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("create table: %v", err)
	}
	insert := `INSERT INTO ` + table + ` (launch_site, payload_mass_kg, booster_version_category, class) VALUES (?, ?, ?, ?)`
	for _, r := range rows {
		if _, err := db.Exec(insert, r...); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return path
}

func TestLoadLaunches(t *testing.T) {
	path := seed(t, "launches", [][]any{
		{"KSC LC-39A", 5300.0, "FT", 1},
		{"CCAFS LC-40", 0.0, "v1.0", 0},
		{"CCAFS LC-40", 525.0, nil, 1},
	})
	got, err := LoadLaunches(context.Background(), path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []launch.Record{
		{Site: "CCAFS LC-40", PayloadMassKg: 0, BoosterCategory: "v1.0"},
		{Site: "CCAFS LC-40", PayloadMassKg: 525, Success: true},
		{Site: "KSC LC-39A", PayloadMassKg: 5300, BoosterCategory: "FT", Success: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLaunchesCustomTable(t *testing.T) {
	path := seed(t, "history", [][]any{{"VAFB SLC-4E", 9600.0, "FT", 1}})
	got, err := LoadLaunches(context.Background(), path, "history")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Site != "VAFB SLC-4E" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestLoadLaunchesEmptyTable(t *testing.T) {
	path := seed(t, "launches", nil)
	if _, err := LoadLaunches(context.Background(), path, ""); !errors.Is(err, launch.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestLoadLaunchesBadClass(t *testing.T) {
	// Tables created outside the bundled DDL carry no CHECK constraints.
	ddl := `CREATE TABLE legacy (launch_site TEXT, payload_mass_kg REAL, booster_version_category TEXT, class REAL)`
	path := seedWith(t, ddl, "legacy", [][]any{{"A", 1.0, "FT", 2}})
	if _, err := LoadLaunches(context.Background(), path, "legacy"); err == nil {
		t.Fatalf("expected class error")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Fatalf("expected error for missing database")
	}
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestOpenIsReadOnly(t *testing.T) {
	path := seed(t, "launches", [][]any{{"KSC LC-39A", 5300.0, "FT", 1}})
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `INSERT INTO launches (launch_site, payload_mass_kg, booster_version_category, class) VALUES ('A', 1, 'FT', 1)`); err == nil {
		t.Fatalf("expected write to a read-only database to fail")
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM launches`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("expected the seeded row only, got %d (%v)", n, err)
	}
}

func TestReadOnlyDSN(t *testing.T) {
	if got := readOnlyDSN("/data/launch#1?.db"); got != "file:/data/launch%231%3f.db?mode=ro" {
		t.Fatalf("unexpected dsn %q", got)
	}
}
