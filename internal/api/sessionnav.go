package api

import (
	"encoding/json"
	"net/http"
)

func writeSessionState(deps Dependencies, w http.ResponseWriter, currentIndex int) {
	writeJSON(w, http.StatusOK, map[string]any{
		"current_index":  currentIndex,
		"current_number": currentIndex + 1,
		"question_count": len(deps.Questions),
	})
}

func handleGetSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	writeSessionState(deps, w, deps.Sessions.CurrentIndex(sessionID(r)))
}

func handleSessionNext(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	writeSessionState(deps, w, deps.Sessions.Next(sessionID(r)))
}

func handleSessionPrevious(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	writeSessionState(deps, w, deps.Sessions.Previous(sessionID(r)))
}

func handleSessionJump(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var request struct {
		Index int `json:"index"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid jump request body", false, map[string]any{"details": err.Error()})
		return
	}

	index, err := deps.Sessions.JumpTo(sessionID(r), request.Index)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_INDEX", err.Error(), false, nil)
		return
	}
	writeSessionState(deps, w, index)
}
