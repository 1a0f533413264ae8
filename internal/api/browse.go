package api

import (
	"errors"
	"net/http"

	"github.com/sqldrill/sqldrill/internal/observability"
	"github.com/sqldrill/sqldrill/internal/schema"
)

func handleListTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema browser is not configured", false, nil)
		return
	}
	tables, err := deps.Schema.Tables(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_ERROR", "failed to list tables", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func handleGetTable(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema browser is not configured", false, nil)
		return
	}
	name := r.PathValue("table")
	preview, err := deps.Schema.Table(r.Context(), name)
	if err != nil {
		if errors.Is(err, schema.ErrUnknownTable) {
			writeError(r.Context(), w, http.StatusNotFound, "TABLE_NOT_FOUND", "table does not exist", false, map[string]any{"table": name})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_ERROR", "failed to preview table", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleReseed rebuilds the practice database from the seed scripts. Ledger
// rows are untouched; older correct entries simply reflect the pre-reseed
// data.
func handleReseed(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Reseeder == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RESEED_NOT_CONFIGURED", "reseed runner is not configured", false, nil)
		return
	}
	if err := deps.Reseeder.Run(r.Context()); err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "RESEED_FAILED", "reseed failed", true, map[string]any{"details": err.Error()})
		return
	}
	observability.IncrementReseed()
	if deps.Schema != nil {
		deps.Schema.Invalidate()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reseeded"})
}
