package workspace

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestReaperEvictsIdleSession(t *testing.T) {
	m, terms := newTestManager("case-A")
	ctx := context.Background()

	res, err := m.Enter(ctx, "sess-idle", "case-A")
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	reaper := NewReaper(m, 10*time.Millisecond, time.Hour, nil)
	time.Sleep(30 * time.Millisecond)

	if n := reaper.Sweep(ctx); n != 1 {
		t.Fatalf("Sweep evicted %d sessions, want 1", n)
	}

	if m.Registry().Len() != 0 {
		t.Errorf("expected empty registry after eviction, got %d sessions", m.Registry().Len())
	}
	if n := terms.destroyCount(res.TerminalName); n != 1 {
		t.Errorf("terminal destroyed %d times, want 1", n)
	}

	// The evicted session id behaves as unseen afterwards
	if cur := m.Current("sess-idle"); cur != nil {
		t.Errorf("Current after eviction = %+v, want nil", cur)
	}
}

func TestReaperSparesActiveSession(t *testing.T) {
	m, terms := newTestManager("case-A")
	ctx := context.Background()

	res, err := m.Enter(ctx, "sess-active", "case-A")
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	reaper := NewReaper(m, time.Hour, time.Hour, nil)
	if n := reaper.Sweep(ctx); n != 0 {
		t.Fatalf("Sweep evicted %d sessions, want 0", n)
	}

	cur := m.Current("sess-active")
	if cur == nil || cur.CaseID != "case-A" {
		t.Errorf("active session lost its workspace: %+v", cur)
	}
	if n := terms.destroyCount(res.TerminalName); n != 0 {
		t.Errorf("active session's terminal destroyed %d times, want 0", n)
	}
}

func TestReaperConcurrentSweepsEvictOnce(t *testing.T) {
	m, terms := newTestManager("case-A")
	ctx := context.Background()

	res, err := m.Enter(ctx, "sess-idle", "case-A")
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	reaper := NewReaper(m, 10*time.Millisecond, time.Hour, nil)
	time.Sleep(30 * time.Millisecond)

	var wg sync.WaitGroup
	total := make([]int, 8)
	for i := range total {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			total[i] = reaper.Sweep(ctx)
		}(i)
	}
	wg.Wait()

	sum := 0
	for _, n := range total {
		sum += n
	}
	if sum != 1 {
		t.Errorf("concurrent sweeps evicted %d sessions total, want exactly 1", sum)
	}
	if n := terms.destroyCount(res.TerminalName); n != 1 {
		t.Errorf("terminal destroyed %d times, want exactly 1", n)
	}
}

func TestReaperNotifies(t *testing.T) {
	m, _ := newTestManager("case-A")
	rec := &recordingNotifier{}
	m.Subscribe(rec)
	ctx := context.Background()

	if _, err := m.Enter(ctx, "sess-idle", "case-A"); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	reaper := NewReaper(m, 10*time.Millisecond, time.Hour, nil)
	time.Sleep(30 * time.Millisecond)
	reaper.Sweep(ctx)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	found := false
	for _, ev := range rec.events {
		if ev == "reaped:sess-idle:case-A" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected reaped event, got %v", rec.events)
	}
}

func TestReaperRunStopsOnCancel(t *testing.T) {
	m, _ := newTestManager("case-A")
	reaper := NewReaper(m, time.Hour, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
}
