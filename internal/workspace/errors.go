package workspace

import "errors"

// ErrTransitionFailed indicates a workspace swap could not complete. The
// session's previous workspace and terminal are untouched, so the caller
// may retry the enter safely.
var ErrTransitionFailed = errors.New("workspace transition failed")
