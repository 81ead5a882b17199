// Package ratelimit owns the two pieces of shared dispatcher state: the
// single-flight running flag and the platform-imposed cooldown. Both are
// only reachable through the Gate's transitions, so no send can happen
// while a cooldown window is open and no two cycles can overlap.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Gate struct {
	mu      sync.Mutex
	running bool
	until   time.Time // zero = no active cooldown

	now func() time.Time
}

func NewGate() *Gate {
	return &Gate{now: time.Now}
}

// TryStart claims the gate for one dispatch cycle. It refuses while a
// cycle is already running or a cooldown window is still open; a refused
// tick is dropped, not queued.
func (g *Gate) TryStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running || g.until.After(g.now()) {
		return false
	}
	g.running = true
	return true
}

// Finish releases the gate. Must be called exactly once per successful
// TryStart, on every exit path of the cycle.
func (g *Gate) Finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
}

func (g *Gate) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// RecordRateLimit opens a cooldown window of d, overwriting (not
// accumulating) any previous window. d <= 0 is ignored.
func (g *Gate) RecordRateLimit(d time.Duration) {
	if d <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.until = g.now().Add(d)
}

func (g *Gate) CoolingDown() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.until.After(g.now())
}

// ConsumeCooldown blocks until the current cooldown window has fully
// elapsed, then clears it. Returns early with ctx.Err() on cancellation,
// leaving the window in place so a later cycle still honors it.
func (g *Gate) ConsumeCooldown(ctx context.Context) error {
	g.mu.Lock()
	remaining := g.until.Sub(g.now())
	g.mu.Unlock()

	if remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	g.mu.Lock()
	g.until = time.Time{}
	g.mu.Unlock()
	return nil
}
