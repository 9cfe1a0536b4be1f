package service

import (
	"context"
	"sync"
	"time"
)

// jobGate admits one run per named background job (a scheduled backup, an
// import picked up from the watched folder) and keeps count of the runs in
// flight so Close can drain them.
type jobGate struct {
	mu       sync.Mutex
	started  map[string]time.Time
	inflight sync.WaitGroup
}

// enter admits a run of job started at now. When a run is already in flight
// it reports false and when that run began.
func (g *jobGate) enter(job string, now time.Time) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if since, busy := g.started[job]; busy {
		return since, false
	}
	if g.started == nil {
		g.started = make(map[string]time.Time)
	}
	g.started[job] = now
	g.inflight.Add(1)
	return now, true
}

// leave ends a run admitted by enter.
func (g *jobGate) leave(job string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.started[job]; !ok {
		return
	}
	delete(g.started, job)
	g.inflight.Done()
}

// drain waits for the runs in flight. It returns false if ctx ended first.
func (g *jobGate) drain(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		g.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
