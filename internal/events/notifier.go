package events

import (
	"time"

	"github.com/caseroomhq/caseroom/internal/workspace"
)

// HubNotifier forwards workspace lifecycle events to a hub. Broadcast never
// blocks, so it is safe to call under the session lock.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier publishing to hub
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

var _ workspace.Notifier = (*HubNotifier)(nil)

// WorkspaceEntered broadcasts a workspace_entered event
func (n *HubNotifier) WorkspaceEntered(sessionID string, state workspace.State, terminalName string) {
	n.hub.Broadcast(&Event{
		Type:          EventWorkspaceEntered,
		SessionID:     sessionID,
		CaseID:        state.CaseID,
		WorkspacePath: state.WorkspacePath,
		TerminalName:  terminalName,
		Timestamp:     time.Now(),
	})
}

// WorkspaceExited broadcasts a workspace_exited event
func (n *HubNotifier) WorkspaceExited(sessionID, caseID string) {
	n.hub.Broadcast(&Event{
		Type:      EventWorkspaceExited,
		SessionID: sessionID,
		CaseID:    caseID,
		Timestamp: time.Now(),
	})
}

// SessionReaped broadcasts a session_reaped event
func (n *HubNotifier) SessionReaped(sessionID, caseID string) {
	n.hub.Broadcast(&Event{
		Type:      EventSessionReaped,
		SessionID: sessionID,
		CaseID:    caseID,
		Timestamp: time.Now(),
	})
}
