// Package api exposes the interactive practice surface over HTTP. Every
// interaction is an explicit request/response pair; session state lives behind
// the X-Session-ID header, never in globals.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sqldrill/sqldrill/internal/config"
	"github.com/sqldrill/sqldrill/internal/history"
	"github.com/sqldrill/sqldrill/internal/observability"
	"github.com/sqldrill/sqldrill/internal/query"
	"github.com/sqldrill/sqldrill/internal/questions"
	"github.com/sqldrill/sqldrill/internal/schema"
	"github.com/sqldrill/sqldrill/internal/session"
)

const sessionHeader = "X-Session-ID"

type ReadinessCheck func(ctx context.Context) error

// Ledger is the submission history surface the handlers need.
type Ledger interface {
	Record(ctx context.Context, questionID int, submittedSQL string, isCorrect bool, errorMessage string) error
	ListForQuestion(ctx context.Context, questionID int) ([]history.Entry, error)
	SolvedQuestionIDs(ctx context.Context) (map[int]struct{}, error)
}

type SchemaBrowser interface {
	Tables(ctx context.Context) ([]string, error)
	Table(ctx context.Context, name string) (schema.Preview, error)
	Invalidate()
}

type Reseeder interface {
	Run(ctx context.Context) error
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	DependencyTimeout time.Duration
	Questions         []questions.Question
	Engine            query.Engine
	Ledger            Ledger
	Sessions          *session.Manager
	Schema            SchemaBrowser
	Reseeder          Reseeder
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/questions", func(w http.ResponseWriter, r *http.Request) {
		handleListQuestions(deps, w, r)
	})
	mux.HandleFunc("GET /v1/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleGetQuestion(deps, w, r)
	})
	mux.HandleFunc("POST /v1/questions/{id}/run", func(w http.ResponseWriter, r *http.Request) {
		handleRun(cfg, deps, w, r)
	})
	mux.HandleFunc("POST /v1/questions/{id}/submit", func(w http.ResponseWriter, r *http.Request) {
		handleSubmit(cfg, deps, w, r)
	})
	mux.HandleFunc("GET /v1/questions/{id}/history", func(w http.ResponseWriter, r *http.Request) {
		handleQuestionHistory(deps, w, r)
	})
	mux.HandleFunc("GET /v1/questions/{id}/expected", func(w http.ResponseWriter, r *http.Request) {
		handleExpected(cfg, deps, w, r)
	})

	mux.HandleFunc("GET /v1/session", func(w http.ResponseWriter, r *http.Request) {
		handleGetSession(deps, w, r)
	})
	mux.HandleFunc("POST /v1/session/next", func(w http.ResponseWriter, r *http.Request) {
		handleSessionNext(deps, w, r)
	})
	mux.HandleFunc("POST /v1/session/previous", func(w http.ResponseWriter, r *http.Request) {
		handleSessionPrevious(deps, w, r)
	})
	mux.HandleFunc("POST /v1/session/jump", func(w http.ResponseWriter, r *http.Request) {
		handleSessionJump(deps, w, r)
	})

	mux.HandleFunc("GET /v1/schema/tables", func(w http.ResponseWriter, r *http.Request) {
		handleListTables(deps, w, r)
	})
	mux.HandleFunc("GET /v1/schema/tables/{table}", func(w http.ResponseWriter, r *http.Request) {
		handleGetTable(deps, w, r)
	})

	mux.HandleFunc("POST /v1/admin/reseed", func(w http.ResponseWriter, r *http.Request) {
		handleReseed(deps, w, r)
	})

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

// CheckLedger reports readiness of the history store.
func CheckLedger(check func(ctx context.Context) error) ReadinessCheck {
	return func(ctx context.Context) error {
		if check == nil {
			return errors.New("ledger is not configured")
		}
		return check(ctx)
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func sessionID(r *http.Request) string {
	if id := r.Header.Get(sessionHeader); id != "" {
		return id
	}
	return session.DefaultID
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
