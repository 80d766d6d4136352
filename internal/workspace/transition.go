package workspace

import (
	"context"
	"fmt"

	"github.com/caseroomhq/caseroom/internal/casestore"
	"github.com/caseroomhq/caseroom/internal/logger"
	"github.com/caseroomhq/caseroom/internal/terminal"
)

// transitionCoordinator performs the atomic workspace swap for one session.
// The caller holds the session's lock for the whole swap, so the sequence
// is serialized per session and fully concurrent across sessions.
type transitionCoordinator struct {
	terminals terminal.Service
	prefix    string
	log       *logger.Logger
}

// swap replaces the session's workspace and terminal with ones for the
// resolved case.
//
// The old terminal is destroyed before the new one is created. The brief
// no-terminal window this opens is the price for the guarantee that a
// terminal, when present, is never bound to a workspace the session did not
// select: stale terminal content from the previous case must never survive
// a switch. Destroy failures are logged and ignored; a leaked external
// terminal is cleanup debt, a wrong-context terminal is a contamination bug.
//
// If terminal creation fails the session context is left exactly as it was
// and ErrTransitionFailed is returned.
func (t *transitionCoordinator) swap(ctx context.Context, s *session, res *casestore.Resolution) (*State, error) {
	if s.term != nil {
		if err := t.terminals.Destroy(ctx, s.term); err != nil {
			t.log.Warn("failed to destroy terminal %s for session %s: %v", s.term.Name, s.id, err)
		}
	}

	name := terminal.Name(t.prefix, s.id, res.WorkspacePath)
	handle, err := t.terminals.Create(ctx, name, res.WorkspacePath)
	if err != nil {
		return nil, fmt.Errorf("%w: terminal create: %v", ErrTransitionFailed, err)
	}

	st := &State{
		CaseID:        res.CaseID,
		WorkspacePath: res.WorkspacePath,
		Initialized:   res.Initialized,
	}

	// Workspace and terminal become visible as a single replacement, never
	// as two independent writes.
	s.setCurrent(st, handle)

	t.log.Info("session %s transitioned to case %s (%s, terminal %s)",
		s.id, res.CaseID, res.WorkspacePath, name)

	return st, nil
}
