package workspace

import (
	"context"
	"time"

	"github.com/caseroomhq/caseroom/internal/logger"
)

// Reaper evicts sessions that have been idle past a threshold, releasing
// their workspace and terminal through the same path as an explicit exit.
// A session never disappears with a live terminal still attached.
type Reaper struct {
	manager       *Manager
	idleThreshold time.Duration
	interval      time.Duration
	log           *logger.Logger
}

// NewReaper creates a reaper for the manager's registry
func NewReaper(manager *Manager, idleThreshold, interval time.Duration, log *logger.Logger) *Reaper {
	if log == nil {
		log = logger.Global()
	}
	return &Reaper{
		manager:       manager,
		idleThreshold: idleThreshold,
		interval:      interval,
		log:           log.WithPrefix("reaper"),
	}
}

// Run sweeps on a fixed interval until ctx is cancelled
func (r *Reaper) Run(ctx context.Context) {
	r.log.Info("reaper started (idle threshold %s, interval %s)", r.idleThreshold, r.interval)
	defer r.log.Info("reaper stopped")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep performs one eviction pass and returns the number of sessions
// evicted. Candidates come from a lock-free snapshot; eviction itself takes
// the session's lock, so a session mid-operation is never removed, and
// idleness is re-checked under the lock before anything is released.
func (r *Reaper) Sweep(ctx context.Context) int {
	registry := r.manager.registry
	now := time.Now()
	evicted := 0

	for _, info := range registry.Snapshot() {
		if now.Sub(info.LastActivity) <= r.idleThreshold {
			continue
		}

		s, ok := registry.lookup(info.ID)
		if !ok {
			continue
		}

		s.mu.Lock()
		if s.evicted || now.Sub(s.lastActive()) <= r.idleThreshold {
			// Another sweep won the race, or the session woke up while we
			// waited for its lock.
			s.mu.Unlock()
			continue
		}

		caseID, had := r.manager.releaseLocked(ctx, s)
		s.evicted = true
		registry.remove(info.ID)
		s.mu.Unlock()

		evicted++
		r.log.Info("evicted idle session %s (case %q)", info.ID, caseID)

		if had {
			for _, n := range r.manager.notifiers {
				n.SessionReaped(info.ID, caseID)
			}
		}
	}

	return evicted
}
