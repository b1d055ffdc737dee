// Package sqldocs exposes the launch table DDL for the SQL source drivers.
package sqldocs

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
)

// SQLite contains the launches table DDL for SQLite.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the launches table DDL for Postgres.
//
//go:embed postgres.sql
var Postgres string

const defaultTable = "launches"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DDL returns the bundle for driver ("sqlite" or "postgres") with the table
// renamed to table. An empty table keeps the default name.
func DDL(driver, table string) (string, error) {
	var bundle string
	switch driver {
	case "sqlite":
		bundle = SQLite
	case "postgres":
		bundle = Postgres
	default:
		return "", fmt.Errorf("no DDL bundle for driver %q", driver)
	}
	if table == "" || table == defaultTable {
		return bundle, nil
	}
	if !tableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	index := strings.ReplaceAll(table, ".", "_") + "_site_idx"
	r := strings.NewReplacer(
		"TABLE IF NOT EXISTS "+defaultTable+" ", "TABLE IF NOT EXISTS "+table+" ",
		"ON "+defaultTable+" ", "ON "+table+" ",
		defaultTable+"_site_idx", index,
	)
	return r.Replace(bundle), nil
}
