package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sqldocs "launchdash/docs/schema/sql"
	"launchdash/internal/config"
)

var schemaFlags struct {
	driver string
	table  string
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the launches table DDL for a SQL source driver",
	Long: `Prints the CREATE TABLE statement the sqlite and postgres source drivers read
from. Pipe it into sqlite3 or psql to prepare a table before loading rows.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	f := schemaCmd.Flags()
	f.StringVar(&schemaFlags.driver, "driver", config.DriverSQLite, "SQL dialect: sqlite or postgres")
	f.StringVar(&schemaFlags.table, "table", "", "Table name (default launches)")
}

func runSchema(cmd *cobra.Command, _ []string) error {
	ddl, err := sqldocs.DDL(schemaFlags.driver, schemaFlags.table)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), ddl)
	return err
}
