package events

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caseroomhq/caseroom/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) (*DraftWatcher, *Client, *Hub) {
	t.Helper()

	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	client := newTestClient(hub)
	hub.Register(client)

	watcher, err := NewDraftWatcher(hub, nil)
	require.NoError(t, err)
	watcher.delay = 20 * time.Millisecond // keep the test fast
	t.Cleanup(func() { watcher.Close() })

	return watcher, client, hub
}

func TestWatcherEmitsDraftChanged(t *testing.T) {
	watcher, client, _ := newTestWatcher(t)

	wsPath := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(wsPath, "active_drafts"), 0755))

	watcher.WorkspaceEntered("sess-1", workspace.State{
		CaseID:        "case-A",
		WorkspacePath: wsPath,
		Initialized:   true,
	}, "term-1")

	draft := filepath.Join(wsPath, "active_drafts", "complaint.md")
	require.NoError(t, os.WriteFile(draft, []byte("# Draft\n"), 0644))

	ev := waitForEvent(t, client)
	assert.Equal(t, EventDraftChanged, ev.Type)
	assert.Equal(t, "case-A", ev.CaseID)
	assert.Equal(t, filepath.Join("active_drafts", "complaint.md"), ev.Path)
}

func TestWatcherIgnoresNonMarkdown(t *testing.T) {
	watcher, client, _ := newTestWatcher(t)

	wsPath := t.TempDir()
	watcher.WorkspaceEntered("sess-1", workspace.State{
		CaseID:        "case-A",
		WorkspacePath: wsPath,
	}, "term-1")

	require.NoError(t, os.WriteFile(filepath.Join(wsPath, "notes.txt"), []byte("x"), 0644))

	select {
	case ev := <-client.send:
		t.Fatalf("unexpected event for non-markdown file: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStopsAfterExit(t *testing.T) {
	watcher, client, _ := newTestWatcher(t)

	wsPath := t.TempDir()
	watcher.WorkspaceEntered("sess-1", workspace.State{
		CaseID:        "case-A",
		WorkspacePath: wsPath,
	}, "term-1")
	watcher.WorkspaceExited("sess-1", "case-A")

	require.NoError(t, os.WriteFile(filepath.Join(wsPath, "draft.md"), []byte("x"), 0644))

	select {
	case ev := <-client.send:
		t.Fatalf("unexpected event after exit: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherSharedWorkspaceRefcount(t *testing.T) {
	watcher, client, _ := newTestWatcher(t)

	wsPath := t.TempDir()
	state := workspace.State{CaseID: "case-A", WorkspacePath: wsPath}

	watcher.WorkspaceEntered("sess-1", state, "term-1")
	watcher.WorkspaceEntered("sess-2", state, "term-2")

	// One session leaving keeps the workspace watched for the other
	watcher.WorkspaceExited("sess-1", "case-A")

	require.NoError(t, os.WriteFile(filepath.Join(wsPath, "draft.md"), []byte("x"), 0644))

	ev := waitForEvent(t, client)
	assert.Equal(t, EventDraftChanged, ev.Type)
	assert.Equal(t, "case-A", ev.CaseID)
}
