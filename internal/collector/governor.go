package collector

import (
	"context"
	"sync"
	"time"
)

const defaultCallsPerMinute = 60

// Governor bounds outbound API calls to a per-minute ceiling using a
// sliding window of call timestamps. It is shared by every client call
// path and is safe for concurrent use.
type Governor struct {
	mu        sync.Mutex
	perMinute int
	window    time.Duration
	calls     []time.Time

	// Overridable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGovernor returns a governor allowing perMinute calls per trailing
// 60 seconds. A zero or negative ceiling would block forever, so it falls
// back to the default.
func NewGovernor(perMinute int) *Governor {
	if perMinute <= 0 {
		perMinute = defaultCallsPerMinute
	}
	return &Governor{
		perMinute: perMinute,
		window:    time.Minute,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Acquire blocks until one more outbound call is safe, then records it.
// The lock is held across the sleep: this is the single intentional
// blocking point of a collection run, and queued callers must not slip
// past a waiter.
func (g *Governor) Acquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.prune(now)

	if len(g.calls) >= g.perMinute {
		wait := g.window - now.Sub(g.calls[0])
		if wait > 0 {
			if err := g.sleep(ctx, wait); err != nil {
				return err
			}
			now = g.now()
		}
		g.calls = g.calls[1:]
	}

	g.calls = append(g.calls, now)
	return nil
}

// InWindow returns the number of calls recorded within the trailing window.
func (g *Governor) InWindow() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune(g.now())
	return len(g.calls)
}

func (g *Governor) prune(now time.Time) {
	cutoff := now.Add(-g.window)
	i := 0
	for i < len(g.calls) && !g.calls[i].After(cutoff) {
		i++
	}
	g.calls = g.calls[i:]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
