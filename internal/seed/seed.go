// Package seed loads per-table SQL scripts into the practice database.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sqldrill/sqldrill/internal/db"
)

var (
	useStatementPattern = regexp.MustCompile(`(?i)use\s+\w+\s*;`)
	dropTablePattern    = regexp.MustCompile(`(?i)drop\s+table\s+(\w+);`)
)

// Preprocess rewrites a seed script for the embedded engine: USE statements
// are stripped (not supported) and DROP TABLE gains an IF EXISTS guard so a
// fresh database does not error on the drop.
func Preprocess(script string) string {
	script = useStatementPattern.ReplaceAllString(script, "")
	script = dropTablePattern.ReplaceAllString(script, "DROP TABLE IF EXISTS $1;")
	return script
}

// Runner executes the configured seed files in order against the practice
// database. Scripts contain DROP/CREATE/INSERT batches, so a run doubles as
// a full reset.
type Runner struct {
	Driver string
	DSN    string
	Dir    string
	Files  []string
	Logger *slog.Logger
}

// Run processes each seed file. A missing file is logged and skipped
// (matching the historical reseed behavior); a failing script aborts the run.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handle, err := db.Open(r.Driver, r.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = handle.Close() }()

	for _, name := range r.Files {
		path := filepath.Join(r.Dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Warn("seed file not found", slog.String("path", path))
				continue
			}
			return fmt.Errorf("read seed file %q: %w", path, err)
		}

		logger.Info("processing seed file", slog.String("file", name))
		if _, err := handle.ExecContext(ctx, Preprocess(string(content))); err != nil {
			return fmt.Errorf("execute seed file %q: %w", name, err)
		}
		logger.Info("seed file applied", slog.String("file", name))
	}
	return nil
}
