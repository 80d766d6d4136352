package workspace

import (
	"sync"
	"time"
)

// Registry is the concurrency-safe map of live sessions. The registry's own
// mutex only guards map membership and is never held across a session
// operation; each session carries its own lock, so operations on different
// sessions never block each other.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
	}
}

// SessionInfo is a point-in-time view of one registered session, used by
// the reaper to pick eviction candidates without holding any session lock.
type SessionInfo struct {
	ID           string
	LastActivity time.Time
}

// getOrCreate returns the live context for sessionID, creating one with no
// workspace on first sight. A session id is never invalid, only unseen.
func (r *Registry) getOrCreate(sessionID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		return s
	}

	s := &session{id: sessionID}
	s.touch()
	r.sessions[sessionID] = s
	return s
}

// WithLock runs fn with exclusive access to the session's context.
// Operations for the same session are serialized; operations for different
// sessions proceed in parallel. If the session is evicted between lookup
// and lock acquisition, WithLock retries against a fresh context.
func (r *Registry) WithLock(sessionID string, fn func(s *session) error) error {
	for {
		s := r.getOrCreate(sessionID)
		s.mu.Lock()
		if s.evicted {
			s.mu.Unlock()
			continue
		}
		s.touch()
		err := fn(s)
		s.mu.Unlock()
		return err
	}
}

// remove deletes the session entry. Absent entries are ignored.
func (r *Registry) remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Snapshot returns a point-in-time copy of the registered sessions and
// their activity timestamps. No session lock is taken.
func (r *Registry) Snapshot() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]SessionInfo, 0, len(r.sessions))
	for id, s := range r.sessions {
		infos = append(infos, SessionInfo{ID: id, LastActivity: s.lastActive()})
	}
	return infos
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// lookup returns the session for sessionID without creating one
func (r *Registry) lookup(sessionID string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}
