package api

import (
	"net/http"
	"strconv"

	"github.com/sqldrill/sqldrill/internal/questions"
)

// questionFromRequest resolves the {id} path value against the loaded list.
func questionFromRequest(deps Dependencies, w http.ResponseWriter, r *http.Request) (questions.Question, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_QUESTION_ID", "question id must be an integer", false, nil)
		return questions.Question{}, false
	}
	if id < 0 || id >= len(deps.Questions) {
		writeError(r.Context(), w, http.StatusNotFound, "QUESTION_NOT_FOUND", "question does not exist", false, map[string]any{"id": id})
		return questions.Question{}, false
	}
	return deps.Questions[id], true
}

func handleListQuestions(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	// Solved markers are decoration; a ledger hiccup degrades them instead of
	// failing the list.
	solved := map[int]struct{}{}
	if deps.Ledger != nil {
		ids, err := deps.Ledger.SolvedQuestionIDs(r.Context())
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("listing solved questions failed", "error", err)
			}
		} else {
			solved = ids
		}
	}

	items := make([]map[string]any, 0, len(deps.Questions))
	for _, question := range deps.Questions {
		_, isSolved := solved[question.ID]
		items = append(items, map[string]any{
			"id":     question.ID,
			"number": question.ID + 1,
			"title":  question.Title,
			"solved": isSolved,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": items,
		"count":     len(items),
	})
}

func handleGetQuestion(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	question, ok := questionFromRequest(deps, w, r)
	if !ok {
		return
	}

	draft := ""
	if deps.Sessions != nil {
		draft = deps.Sessions.Draft(sessionID(r), question.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     question.ID,
		"number": question.ID + 1,
		"title":  question.Title,
		"draft":  draft,
	})
}

func handleQuestionHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	question, ok := questionFromRequest(deps, w, r)
	if !ok {
		return
	}
	if deps.Ledger == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "history ledger is not configured", false, nil)
		return
	}

	entries, err := deps.Ledger.ListForQuestion(r.Context(), question.ID)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "LEDGER_ERROR", "failed to list history", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question_id": question.ID,
		"entries":     entries,
	})
}
