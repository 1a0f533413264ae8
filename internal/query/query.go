package query

import (
	"context"
	"errors"
	"time"
)

// Result is a materialized query result. Rows hold scanned values in column
// order; []byte values are normalized to strings by the engine.
type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type Engine interface {
	Execute(ctx context.Context, sqlText string) (Result, error)
}

// ErrTimeout marks a bounded execution that was abandoned, as opposed to an
// error reported by the database engine. The message doubles as the
// user-visible error text.
var ErrTimeout = errors.New("Timeout")

// ExecuteWithTimeout runs sqlText on its own goroutine and stops waiting once
// limit elapses. The underlying query is not cancelled; it may run to
// completion in the background with its result discarded.
func ExecuteWithTimeout(ctx context.Context, engine Engine, sqlText string, limit time.Duration) (Result, error) {
	type outcome struct {
		result Result
		err    error
	}

	// Buffered so the abandoned goroutine can still deliver and exit.
	done := make(chan outcome, 1)
	go func() {
		result, err := engine.Execute(ctx, sqlText)
		done <- outcome{result: result, err: err}
	}()

	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.result, o.err
	case <-timer.C:
		return Result{}, ErrTimeout
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
