// Package terminal manages the external interactive terminals bound to case
// workspaces. Each terminal is a named session in a host-level terminal
// multiplexer; names derive deterministically from the owning session and
// workspace so identical inputs always reproduce the same external
// identifier.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrTerminalExists indicates a create collided with a live terminal of the
// same name. The naming scheme makes this a programming error, so it is
// surfaced loudly instead of being papered over.
var ErrTerminalExists = errors.New("terminal already exists")

// Handle represents one named external terminal bound to a workspace
type Handle struct {
	Name          string
	WorkspacePath string

	alive bool
}

// Alive reports whether the terminal behind this handle is still live
func (h *Handle) Alive() bool {
	if h == nil {
		return false
	}
	return h.alive
}

// Service creates and destroys external terminals
type Service interface {
	// Create starts a terminal with the given name in workspacePath.
	// It fails with ErrTerminalExists if a live terminal already owns name.
	Create(ctx context.Context, name, workspacePath string) (*Handle, error)
	// Destroy tears down the terminal behind handle. Destroying an already
	// dead handle is a no-op.
	Destroy(ctx context.Context, handle *Handle) error
}

// Name derives the terminal name for a (session, workspace) pair. The
// result is a pure function of its inputs: the same session entering the
// same workspace always reuses the identifier.
//
// The hash is reduced mod 10000 to keep names short, matching the naming
// convention established by the terminals this system manages. Two
// workspaces of one session can therefore collide at ~1/10000; a collision
// surfaces loudly as ErrTerminalExists rather than silently reusing the
// other workspace's terminal.
func Name(prefix, sessionID, workspacePath string) string {
	sum := xxhash.Sum64String(sessionID + "\x00" + workspacePath)
	return fmt.Sprintf("%s-%s-%04d", prefix, sanitize(sessionID), sum%10000)
}

// sanitize maps a session id onto the character set tmux accepts for
// session names (no dots or colons)
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
