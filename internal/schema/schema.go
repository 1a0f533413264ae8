// Package schema exposes a read-only view of the practice database for the
// learner: which tables exist and a short preview of their contents.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sqldrill/sqldrill/internal/db"
	"github.com/sqldrill/sqldrill/internal/query"
)

// ErrUnknownTable marks a preview request for a table that is not in the
// current table list.
var ErrUnknownTable = errors.New("unknown table")

// Preview is a bounded sample of a table. TotalRows reports the full table
// size so the UI can show "10 of 4213".
type Preview struct {
	Table     string   `json:"table"`
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	TotalRows int      `json:"total_rows"`
}

// Browser lists tables and previews their contents, caching results for a
// bounded TTL. The practice database only changes on reseed or when a learner
// runs DDL, so short-lived staleness is acceptable; Invalidate forces a
// refresh after a reseed.
type Browser struct {
	engine      query.Engine
	driver      string
	ttl         time.Duration
	previewRows int

	mu        sync.Mutex
	tables    []string
	tablesAt  time.Time
	previews  map[string]cachedPreview
	now       func() time.Time
}

type cachedPreview struct {
	preview Preview
	at      time.Time
}

func NewBrowser(engine query.Engine, driver string, ttl time.Duration, previewRows int) *Browser {
	return &Browser{
		engine:      engine,
		driver:      driver,
		ttl:         ttl,
		previewRows: previewRows,
		previews:    make(map[string]cachedPreview),
		now:         time.Now,
	}
}

// Tables returns the user tables of the practice database, sorted by name.
func (b *Browser) Tables(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tables != nil && b.now().Sub(b.tablesAt) < b.ttl {
		return append([]string(nil), b.tables...), nil
	}

	listSQL, err := db.ListTablesSQL(b.driver)
	if err != nil {
		return nil, err
	}
	result, err := b.engine.Execute(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		name, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("unexpected table name value %v", row[0])
		}
		tables = append(tables, name)
	}
	b.tables = tables
	b.tablesAt = b.now()
	return append([]string(nil), tables...), nil
}

// Table returns a preview of the named table. The name must appear in the
// current table list; this is what makes interpolating it into the preview
// statement safe.
func (b *Browser) Table(ctx context.Context, name string) (Preview, error) {
	b.mu.Lock()
	cached, ok := b.previews[name]
	fresh := ok && b.now().Sub(cached.at) < b.ttl
	b.mu.Unlock()
	if fresh {
		return cached.preview, nil
	}

	tables, err := b.Tables(ctx)
	if err != nil {
		return Preview{}, err
	}
	known := false
	for _, t := range tables {
		if t == name {
			known = true
			break
		}
	}
	if !known {
		return Preview{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}

	result, err := b.engine.Execute(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return Preview{}, fmt.Errorf("preview table %q: %w", name, err)
	}

	preview := Preview{
		Table:     name,
		Columns:   result.Columns,
		Rows:      result.Rows,
		TotalRows: len(result.Rows),
	}
	if len(preview.Rows) > b.previewRows {
		preview.Rows = preview.Rows[:b.previewRows]
	}

	b.mu.Lock()
	b.previews[name] = cachedPreview{preview: preview, at: b.now()}
	b.mu.Unlock()
	return preview, nil
}

// Invalidate drops all cached state. Called after a reseed so the next read
// reflects the fresh database.
func (b *Browser) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables = nil
	b.tablesAt = time.Time{}
	b.previews = make(map[string]cachedPreview)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
