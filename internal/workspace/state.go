// Package workspace keeps each client session bound to exactly the case
// workspace it selected. A registry of per-session contexts, locked per
// session, replaces the process-wide current-case state that used to let
// one session observe another session's workspace.
package workspace

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/caseroomhq/caseroom/internal/terminal"
)

// State is an immutable snapshot of a mounted case workspace. Transitions
// replace the whole value; nothing mutates it in place.
type State struct {
	CaseID        string `json:"case_id"`
	WorkspacePath string `json:"workspace_path"`
	Initialized   bool   `json:"initialized"`
}

// session is the per-session mutable record. workspace and term are only
// read or written while mu is held; lastActivity is atomic so the reaper
// can snapshot it without contending with in-flight operations.
type session struct {
	mu sync.Mutex

	id        string
	workspace *State           // nil means no case entered (home workspace)
	term      *terminal.Handle // nil means no terminal attached

	lastActivity atomic.Int64 // unix nanos
	evicted      bool         // set by the reaper under mu
}

func (s *session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

func (s *session) lastActive() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// setCurrent replaces the session's workspace and terminal as one unit
func (s *session) setCurrent(st *State, term *terminal.Handle) {
	s.workspace = st
	s.term = term
}
