// Package sqldb executes arbitrary SQL against the shared practice database.
package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sqldrill/sqldrill/internal/db"
	"github.com/sqldrill/sqldrill/internal/query"
)

// Engine opens a fresh connection per invocation so concurrent interactions
// are serialized by the database engine's own locking rather than by a shared
// pool. Statements run with full read/write privilege; nothing stops a
// learner from mutating the grading tables.
type Engine struct {
	Driver string
	DSN    string
}

func NewEngine(driver, dsn string) *Engine {
	return &Engine{Driver: driver, DSN: dsn}
}

func (e *Engine) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	handle, err := db.Open(e.Driver, e.DSN)
	if err != nil {
		return query.Result{}, err
	}
	defer func() { _ = handle.Close() }()

	rows, err := handle.QueryContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, err
	}

	return query.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
