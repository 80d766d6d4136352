package events

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caseroomhq/caseroom/internal/logger"
	"github.com/caseroomhq/caseroom/internal/workspace"
	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces editor write bursts into one event per file
const debounceDelay = 500 * time.Millisecond

// watchedWorkspace tracks which sessions currently have a workspace mounted
type watchedWorkspace struct {
	caseID   string
	sessions map[string]bool
}

// DraftWatcher watches mounted workspaces for markdown changes and pushes
// draft_changed events to the hub. The watch set follows workspace
// lifecycle: entering a case starts watching its workspace, the last exit
// stops it.
type DraftWatcher struct {
	hub     *Hub
	watcher *fsnotify.Watcher
	log     *logger.Logger

	mu        sync.Mutex
	watched   map[string]*watchedWorkspace // workspace path -> state
	bySession map[string]string            // session id -> workspace path
	debounce  map[string]*time.Timer

	delay time.Duration
	stop  chan struct{}
}

// NewDraftWatcher creates a watcher publishing to hub and starts its event
// loop
func NewDraftWatcher(hub *Hub, log *logger.Logger) (*DraftWatcher, error) {
	if log == nil {
		log = logger.Global()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &DraftWatcher{
		hub:       hub,
		watcher:   fsw,
		log:       log.WithPrefix("drafts"),
		watched:   make(map[string]*watchedWorkspace),
		bySession: make(map[string]string),
		debounce:  make(map[string]*time.Timer),
		delay:     debounceDelay,
		stop:      make(chan struct{}),
	}

	go w.run()
	return w, nil
}

var _ workspace.Notifier = (*DraftWatcher)(nil)

// Close stops the watcher and releases its file handles
func (w *DraftWatcher) Close() error {
	close(w.stop)

	w.mu.Lock()
	for _, timer := range w.debounce {
		timer.Stop()
	}
	w.debounce = make(map[string]*time.Timer)
	w.mu.Unlock()

	return w.watcher.Close()
}

// WorkspaceEntered starts watching the entered workspace
func (w *DraftWatcher) WorkspaceEntered(sessionID string, state workspace.State, _ string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// A session switching cases stops watching the old workspace first
	w.dropSessionLocked(sessionID)

	ws, ok := w.watched[state.WorkspacePath]
	if !ok {
		ws = &watchedWorkspace{caseID: state.CaseID, sessions: make(map[string]bool)}
		w.watched[state.WorkspacePath] = ws
		w.addWatches(state.WorkspacePath)
	}
	ws.sessions[sessionID] = true
	w.bySession[sessionID] = state.WorkspacePath
}

// WorkspaceExited stops watching the workspace once no session holds it
func (w *DraftWatcher) WorkspaceExited(sessionID, _ string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dropSessionLocked(sessionID)
}

// SessionReaped behaves like an exit
func (w *DraftWatcher) SessionReaped(sessionID, caseID string) {
	w.WorkspaceExited(sessionID, caseID)
}

func (w *DraftWatcher) dropSessionLocked(sessionID string) {
	path, ok := w.bySession[sessionID]
	if !ok {
		return
	}
	delete(w.bySession, sessionID)

	ws := w.watched[path]
	if ws == nil {
		return
	}
	delete(ws.sessions, sessionID)
	if len(ws.sessions) == 0 {
		delete(w.watched, path)
		w.removeWatches(path)
	}
}

// addWatches registers the workspace directory and its draft folders.
// fsnotify watches are not recursive, so the known draft locations are
// added explicitly.
func (w *DraftWatcher) addWatches(workspacePath string) {
	dirs := []string{workspacePath, filepath.Join(workspacePath, "active_drafts")}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.log.Warn("failed to watch %s: %v", dir, err)
		}
	}
}

func (w *DraftWatcher) removeWatches(workspacePath string) {
	dirs := []string{workspacePath, filepath.Join(workspacePath, "active_drafts")}
	for _, dir := range dirs {
		_ = w.watcher.Remove(dir)
	}
}

func (w *DraftWatcher) run() {
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(event.Name) != ".md" {
				continue
			}
			w.debounceChange(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("draft watcher error: %v", err)
		}
	}
}

// debounceChange schedules one draft_changed event per file per burst
func (w *DraftWatcher) debounceChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(w.delay, func() {
		w.emitChange(path)
	})
}

func (w *DraftWatcher) emitChange(path string) {
	w.mu.Lock()
	delete(w.debounce, path)

	var caseID, wsPath string
	for candidate, ws := range w.watched {
		if strings.HasPrefix(path, candidate+string(filepath.Separator)) {
			caseID = ws.caseID
			wsPath = candidate
			break
		}
	}
	w.mu.Unlock()

	if caseID == "" {
		// Workspace was unmounted while the debounce timer ran
		return
	}

	rel, err := filepath.Rel(wsPath, path)
	if err != nil {
		rel = path
	}

	w.hub.Broadcast(&Event{
		Type:      EventDraftChanged,
		CaseID:    caseID,
		Path:      rel,
		Timestamp: time.Now(),
	})
	w.log.Debug("draft changed in case %s: %s", caseID, rel)
}
