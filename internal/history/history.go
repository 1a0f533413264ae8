// Package history is the append-only ledger of graded submissions.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sqldrill/sqldrill/internal/db"
)

// Entry is one graded attempt. Entries are never updated or deleted; a
// correct entry reflects the grading database as it was at submission time.
type Entry struct {
	ID              int64   `db:"id" json:"id"`
	QuestionID      int     `db:"question_id" json:"question_id"`
	SubmittedSQL    string  `db:"submitted_sql" json:"submitted_sql"`
	IsCorrect       bool    `db:"is_correct" json:"is_correct"`
	ErrorMessage    *string `db:"error_message" json:"error_message,omitempty"`
	SubmittedAtUnix int64   `db:"submitted_at_unix" json:"submitted_at_unix"`
}

type Ledger struct {
	db  *sqlx.DB
	now func() time.Time
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS user_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question_id INTEGER NOT NULL,
	submitted_sql TEXT NOT NULL,
	is_correct BOOLEAN NOT NULL DEFAULT 0,
	error_message TEXT,
	submitted_at_unix BIGINT NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_user_history_question ON user_history(question_id, id DESC);`,
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS user_history (
	id BIGSERIAL PRIMARY KEY,
	question_id INTEGER NOT NULL,
	submitted_sql TEXT NOT NULL,
	is_correct BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT,
	submitted_at_unix BIGINT NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_user_history_question ON user_history(question_id, id DESC);`,
}

// Open connects the ledger store and ensures its schema. sqlite is the
// default single-user store; postgres is accepted for shared deployments.
func Open(ctx context.Context, driver, dsn string) (*Ledger, error) {
	handle, err := db.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	dbx := sqlx.NewDb(handle, sqlxDriverName(driver))
	if err := dbx.PingContext(ctx); err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("ping ledger store: %w", err)
	}

	ledger := New(dbx)
	if err := ledger.ensureSchema(ctx, driver); err != nil {
		_ = dbx.Close()
		return nil, err
	}
	return ledger, nil
}

// sqlxDriverName picks the name sqlx uses to decide bind placeholders:
// postgres queries are rebound to $N, sqlite keeps ?.
func sqlxDriverName(driver string) string {
	if driver == db.DriverPostgres {
		return "pgx"
	}
	return driver
}

// New wraps an existing handle; used by Open and by tests.
func New(dbx *sqlx.DB) *Ledger {
	return &Ledger{db: dbx, now: time.Now}
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) HealthCheck(ctx context.Context) error {
	if err := l.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping ledger store: %w", err)
	}
	return nil
}

func (l *Ledger) ensureSchema(ctx context.Context, driver string) error {
	var schema []string
	switch driver {
	case db.DriverSQLite:
		schema = schemaSQLite
	case db.DriverPostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("unsupported ledger driver: %q", driver)
	}
	for _, stmt := range schema {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}

// Record appends one graded attempt. Called only on explicit submission,
// never on a preview run.
func (l *Ledger) Record(ctx context.Context, questionID int, submittedSQL string, isCorrect bool, errorMessage string) error {
	var message *string
	if errorMessage != "" {
		message = &errorMessage
	}

	query := l.db.Rebind(`
INSERT INTO user_history (question_id, submitted_sql, is_correct, error_message, submitted_at_unix)
VALUES (?, ?, ?, ?, ?)`)
	if _, err := l.db.ExecContext(ctx, query, questionID, submittedSQL, isCorrect, message, l.now().UTC().Unix()); err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// ListForQuestion returns all attempts for a question, newest first.
func (l *Ledger) ListForQuestion(ctx context.Context, questionID int) ([]Entry, error) {
	query := l.db.Rebind(`
SELECT id, question_id, submitted_sql, is_correct, error_message, submitted_at_unix
FROM user_history
WHERE question_id = ?
ORDER BY id DESC`)

	entries := make([]Entry, 0)
	if err := l.db.SelectContext(ctx, &entries, query, questionID); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// SolvedQuestionIDs returns the ids with at least one correct attempt.
func (l *Ledger) SolvedQuestionIDs(ctx context.Context) (map[int]struct{}, error) {
	query := l.db.Rebind(`SELECT DISTINCT question_id FROM user_history WHERE is_correct = ?`)

	var ids []int
	if err := l.db.SelectContext(ctx, &ids, query, true); err != nil {
		return nil, fmt.Errorf("list solved questions: %w", err)
	}

	solved := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		solved[id] = struct{}{}
	}
	return solved, nil
}
