package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseroomhq/caseroom/internal/casestore"
	"github.com/caseroomhq/caseroom/internal/workspace"
	"github.com/julienschmidt/httprouter"
)

// sessionHeader carries the caller's opaque session identifier
const sessionHeader = "X-Session-ID"

type enterRequest struct {
	CaseID string `json:"case_id"`
}

type enterResponse struct {
	CaseID        string `json:"case_id"`
	WorkspacePath string `json:"workspace_path"`
	Initialized   bool   `json:"initialized"`
	TerminalName  string `json:"terminal_name"`
}

type currentResponse struct {
	CaseID        *string `json:"case_id"`
	WorkspacePath string  `json:"workspace_path,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEnter(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing "+sessionHeader+" header")
		return
	}

	var req enterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CaseID == "" {
		writeError(w, http.StatusBadRequest, "request body must contain case_id")
		return
	}

	result, err := s.manager.Enter(r.Context(), sessionID, req.CaseID)
	if err != nil {
		switch {
		case errors.Is(err, casestore.ErrCaseNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, workspace.ErrTransitionFailed):
			// Safe to retry: the session kept its previous workspace
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.log.Error("enter failed for session %s: %v", sessionID, err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, enterResponse{
		CaseID:        result.State.CaseID,
		WorkspacePath: result.State.WorkspacePath,
		Initialized:   result.State.Initialized,
		TerminalName:  result.TerminalName,
	})
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing "+sessionHeader+" header")
		return
	}

	if err := s.manager.Exit(r.Context(), sessionID); err != nil {
		s.log.Error("exit failed for session %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing "+sessionHeader+" header")
		return
	}

	cur := s.manager.Current(sessionID)
	if cur == nil {
		writeJSON(w, http.StatusOK, currentResponse{CaseID: nil})
		return
	}

	writeJSON(w, http.StatusOK, currentResponse{
		CaseID:        &cur.CaseID,
		WorkspacePath: cur.WorkspacePath,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
