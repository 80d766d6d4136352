package workspace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/caseroomhq/caseroom/internal/casestore"
	"github.com/caseroomhq/caseroom/internal/logger"
	"github.com/caseroomhq/caseroom/internal/terminal"
)

// Notifier receives workspace lifecycle events. Implementations must not
// block: they are called while the session's lock is held.
type Notifier interface {
	WorkspaceEntered(sessionID string, state State, terminalName string)
	WorkspaceExited(sessionID string, caseID string)
	SessionReaped(sessionID string, caseID string)
}

// EnterResult is the outcome of a successful enter
type EnterResult struct {
	State        State
	TerminalName string
}

// Manager is the public entry point for workspace operations. Every method
// is scoped by session id and goes through the registry's per-session lock.
type Manager struct {
	registry  *Registry
	resolver  casestore.Resolver
	coord     *transitionCoordinator
	notifiers []Notifier
	log       *logger.Logger
}

// NewManager creates a workspace manager. terminalPrefix namespaces the
// external terminal names this process creates.
func NewManager(resolver casestore.Resolver, terminals terminal.Service, terminalPrefix string, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Global()
	}
	return &Manager{
		registry: NewRegistry(),
		resolver: resolver,
		coord: &transitionCoordinator{
			terminals: terminals,
			prefix:    terminalPrefix,
			log:       log.WithPrefix("transition"),
		},
		log: log.WithPrefix("workspace"),
	}
}

// Subscribe registers a notifier for workspace lifecycle events
func (m *Manager) Subscribe(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Registry exposes the session registry for the reaper and for inspection
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Enter mounts the case's workspace for the session, creating a terminal
// bound to it. Re-entering the current case is a no-op that returns the
// existing state. On any failure the session keeps its previous workspace.
func (m *Manager) Enter(ctx context.Context, sessionID, caseID string) (*EnterResult, error) {
	var result *EnterResult
	err := m.registry.WithLock(sessionID, func(s *session) error {
		// Resolution may block on collaborator I/O. Only this session's
		// lock is held, so a slow resolve never stalls other sessions.
		res, err := m.resolver.Resolve(ctx, caseID)
		if err != nil {
			return err
		}

		if s.workspace != nil && s.workspace.CaseID == caseID {
			// Idempotent re-entry: same workspace, same terminal.
			result = &EnterResult{State: *s.workspace, TerminalName: s.term.Name}
			return nil
		}

		st, err := m.coord.swap(ctx, s, res)
		if err != nil {
			return err
		}

		m.writeSentinel(st)
		result = &EnterResult{State: *st, TerminalName: s.term.Name}

		for _, n := range m.notifiers {
			n.WorkspaceEntered(sessionID, *st, s.term.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Exit unmounts the session's current workspace and destroys its terminal.
// Exiting with no workspace mounted is a no-op.
func (m *Manager) Exit(ctx context.Context, sessionID string) error {
	return m.registry.WithLock(sessionID, func(s *session) error {
		caseID, had := m.releaseLocked(ctx, s)
		if !had {
			return nil
		}
		for _, n := range m.notifiers {
			n.WorkspaceExited(sessionID, caseID)
		}
		return nil
	})
}

// Current returns the session's current workspace state, or nil when no
// case is entered. It only touches the activity timestamp.
func (m *Manager) Current(sessionID string) *State {
	var st *State
	_ = m.registry.WithLock(sessionID, func(s *session) error {
		if s.workspace != nil {
			copied := *s.workspace
			st = &copied
		}
		return nil
	})
	return st
}

// releaseLocked tears down the session's workspace and terminal. The caller
// holds the session's lock. It reports the previous case id and whether a
// workspace was mounted.
func (m *Manager) releaseLocked(ctx context.Context, s *session) (string, bool) {
	if s.workspace == nil && s.term == nil {
		return "", false
	}

	var caseID string
	if s.workspace != nil {
		caseID = s.workspace.CaseID
	}

	if s.term != nil {
		if err := m.coord.terminals.Destroy(ctx, s.term); err != nil {
			m.log.Warn("failed to destroy terminal %s for session %s: %v", s.term.Name, s.id, err)
		}
	}

	s.setCurrent(nil, nil)
	m.log.Info("session %s exited case %s", s.id, caseID)
	return caseID, true
}

// writeSentinel drops a marker file into the workspace so tooling inside it
// can tell which case it belongs to. Best effort: a missing sentinel never
// fails a transition.
func (m *Manager) writeSentinel(st *State) {
	data, err := json.MarshalIndent(map[string]string{
		"case_id":        st.CaseID,
		"workspace_path": st.WorkspacePath,
	}, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(st.WorkspacePath, ".case_workspace.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		m.log.Warn("failed to write workspace sentinel %s: %v", path, err)
	}
}
