package events

import "time"

// Event types
const (
	EventWorkspaceEntered = "workspace_entered"
	EventWorkspaceExited  = "workspace_exited"
	EventSessionReaped    = "session_reaped"
	EventDraftChanged     = "draft_changed"
)

// Event represents a message pushed to WebSocket clients
type Event struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id,omitempty"`
	CaseID        string    `json:"case_id,omitempty"`
	WorkspacePath string    `json:"workspace_path,omitempty"`
	TerminalName  string    `json:"terminal_name,omitempty"`
	Path          string    `json:"path,omitempty"` // changed draft file, for draft_changed
	Timestamp     time.Time `json:"timestamp"`
}
