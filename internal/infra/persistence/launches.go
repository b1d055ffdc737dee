// Package persistence reads launch records from SQL databases. The dashboard
// never writes: a table is selected once at startup and then released.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"

	"launchdash/internal/launch"
)

// DefaultTable is the table read when none is configured.
const DefaultTable = "launches"

// Column names expected in the launches table.
const (
	ColumnSite    = "launch_site"
	ColumnPayload = "payload_mass_kg"
	ColumnBooster = "booster_version_category"
	ColumnClass   = "class"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SelectQuery builds the SELECT statement for table using the driver's
// placeholder format.
func SelectQuery(table string, format sq.PlaceholderFormat) (string, []any, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return "", nil, fmt.Errorf("invalid table name %q", table)
	}
	return sq.Select(ColumnSite, ColumnPayload, ColumnBooster, ColumnClass).
		From(table).
		OrderBy(ColumnSite, ColumnPayload).
		PlaceholderFormat(format).
		ToSql()
}

// LoadLaunches selects every row of table and converts it to launch records.
func LoadLaunches(ctx context.Context, db *sql.DB, table string, format sq.PlaceholderFormat) ([]launch.Record, error) {
	query, args, err := SelectQuery(table, format)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select launches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []launch.Record
	for rows.Next() {
		var (
			rec     launch.Record
			booster sql.NullString
			class   float64
		)
		if err := rows.Scan(&rec.Site, &rec.PayloadMassKg, &booster, &class); err != nil {
			return nil, fmt.Errorf("scan launch row %d: %w", len(records)+1, err)
		}
		rec.BoosterCategory = booster.String
		switch class {
		case 0:
		case 1:
			rec.Success = true
		default:
			return nil, fmt.Errorf("launch row %d: class %v must be 0 or 1", len(records)+1, class)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launches: %w", err)
	}
	if len(records) == 0 {
		return nil, launch.ErrEmptyDataset
	}
	return records, nil
}
