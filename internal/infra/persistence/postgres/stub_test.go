package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"time"
)

// stubConn serves SELECTs from in-memory tables and records every statement.
type stubConn struct {
	queries  []string
	tables   map[string][][]driver.Value
	failPing bool
}

type stubDriver struct {
	conn *stubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// registerStub registers conn under a unique driver name and returns an
// opener with the signature of sql.Open.
func registerStub(conn *stubConn) func(string, string) (*sql.DB, error) {
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	return func(_, dsn string) (*sql.DB, error) { return sql.Open(name, dsn) }
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("read only") }

func (c *stubConn) Ping(context.Context) error {
	if c.failPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.queries = append(c.queries, query)
	lower := strings.ToLower(query)
	fromIdx := strings.Index(lower, " from ")
	if !strings.HasPrefix(lower, "select ") || fromIdx == -1 {
		return nil, fmt.Errorf("cannot parse select: %s", query)
	}
	table := strings.Fields(query[fromIdx+len(" from "):])[0]
	rows, ok := c.tables[table]
	if !ok {
		return nil, fmt.Errorf("relation %q does not exist", table)
	}
	var cols []string
	for _, col := range strings.Split(query[len("select "):fromIdx], ",") {
		cols = append(cols, strings.TrimSpace(col))
	}
	return &stubRows{cols: cols, rows: rows}, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
