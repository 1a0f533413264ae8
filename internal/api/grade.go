package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sqldrill/sqldrill/internal/config"
	"github.com/sqldrill/sqldrill/internal/observability"
	"github.com/sqldrill/sqldrill/internal/query"
	"github.com/sqldrill/sqldrill/internal/verify"
)

type sqlRequest struct {
	SQL string `json:"sql"`
}

type resultPreview struct {
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	TotalRows  int      `json:"total_rows"`
	DurationMs int64    `json:"duration_ms"`
}

func previewOf(result query.Result, limit int) resultPreview {
	rows := result.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return resultPreview{
		Columns:    result.Columns,
		Rows:       rows,
		TotalRows:  len(result.Rows),
		DurationMs: result.Duration.Milliseconds(),
	}
}

func decodeSQLRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var request sqlRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return "", false
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return "", false
	}
	return request.SQL, true
}

// handleRun executes learner SQL for preview. Nothing is recorded; this is
// the free-experimentation half of the run/submit contract.
func handleRun(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	question, ok := questionFromRequest(deps, w, r)
	if !ok {
		return
	}
	sqlText, ok := decodeSQLRequest(w, r)
	if !ok {
		return
	}
	if deps.Sessions != nil {
		deps.Sessions.SaveDraft(sessionID(r), question.ID, sqlText)
	}

	result, err := deps.Engine.Execute(r.Context(), sqlText)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": err.Error()})
		return
	}
	observability.ObserveQueryRun(result.Duration)

	writeJSON(w, http.StatusOK, map[string]any{
		"question_id": question.ID,
		"result":      previewOf(result, cfg.UI.PreviewRows),
	})
}

// handleSubmit grades learner SQL against the reference answer and appends
// the verdict to the ledger. A learner error is a graded outcome here, not an
// HTTP error; only a malformed request fails the call.
func handleSubmit(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	question, ok := questionFromRequest(deps, w, r)
	if !ok {
		return
	}
	sqlText, ok := decodeSQLRequest(w, r)
	if !ok {
		return
	}
	if deps.Sessions != nil {
		deps.Sessions.SaveDraft(sessionID(r), question.ID, sqlText)
	}

	actualResult, actualErr := deps.Engine.Execute(r.Context(), sqlText)
	if actualErr == nil {
		observability.ObserveQueryRun(actualResult.Duration)
	}
	expectedResult, expectedErr := query.ExecuteWithTimeout(r.Context(), deps.Engine, question.ReferenceSQL, cfg.Grading.AnswerTimeout)
	if errors.Is(expectedErr, query.ErrTimeout) {
		observability.IncrementReferenceTimeout()
	}

	verdict := verify.Verify(
		verify.Execution{Result: expectedResult, Err: expectedErr},
		verify.Execution{Result: actualResult, Err: actualErr},
	)
	observability.ObserveSubmission(verdictLabel(verdict), actualResult.Duration)

	errorMessage := ""
	if !verdict.Correct {
		errorMessage = verdict.Detail
	}
	recorded := false
	if deps.Ledger != nil {
		if err := deps.Ledger.Record(r.Context(), question.ID, sqlText, verdict.Correct, errorMessage); err != nil {
			observability.IncrementLedgerWriteFailure()
			if deps.Logger != nil {
				deps.Logger.Warn("recording submission failed", "question_id", question.ID, "error", err)
			}
		} else {
			recorded = true
		}
	}

	response := map[string]any{
		"question_id": question.ID,
		"correct":     verdict.Correct,
		"evaluated":   verdict.Evaluated,
		"recorded":    recorded,
	}
	if verdict.Detail != "" {
		response["detail"] = verdict.Detail
	}
	if actualErr == nil {
		response["result"] = previewOf(actualResult, cfg.UI.PreviewRows)
	}
	writeJSON(w, http.StatusOK, response)
}

func verdictLabel(verdict verify.Verdict) string {
	switch {
	case !verdict.Evaluated:
		return "unevaluated"
	case verdict.Correct:
		return "correct"
	default:
		return "incorrect"
	}
}

// handleExpected previews the reference answer, bounded by the same timeout
// used during grading.
func handleExpected(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	question, ok := questionFromRequest(deps, w, r)
	if !ok {
		return
	}

	result, err := query.ExecuteWithTimeout(r.Context(), deps.Engine, question.ReferenceSQL, cfg.Grading.AnswerTimeout)
	if errors.Is(err, query.ErrTimeout) {
		observability.IncrementReferenceTimeout()
		writeError(r.Context(), w, http.StatusServiceUnavailable, "ANSWER_UNAVAILABLE", "answer temporarily unavailable", true, map[string]any{"question_id": question.ID})
		return
	}
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "REFERENCE_EXECUTION_FAILED", "reference answer failed to execute", false, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question_id": question.ID,
		"result":      previewOf(result, cfg.UI.PreviewRows),
	})
}
