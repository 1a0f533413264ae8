// Package db maps configured driver names to registered database/sql drivers.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"  // driver: pgx
	_ "github.com/marcboeker/go-duckdb/v2" // driver: duckdb
	_ "modernc.org/sqlite"              // driver: sqlite
)

const (
	DriverSQLite   = "sqlite"
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

func driverName(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return "sqlite", nil
	case DriverDuckDB:
		return "duckdb", nil
	case DriverPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported driver: %q", driver)
	}
}

// Open opens a connection handle for the given driver and DSN. The handle is
// lazy; callers that need liveness should ping it themselves.
func Open(driver, dsn string) (*sql.DB, error) {
	name, err := driverName(driver)
	if err != nil {
		return nil, err
	}
	handle, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return handle, nil
}

// ListTablesSQL returns the driver-specific statement listing user tables,
// excluding engine-internal bookkeeping tables.
func ListTablesSQL(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name <> 'user_history' ORDER BY name`, nil
	case DriverDuckDB:
		return `SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' AND table_name <> 'user_history' ORDER BY table_name`, nil
	default:
		return "", fmt.Errorf("no table listing for driver %q", driver)
	}
}
