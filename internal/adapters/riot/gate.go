package riot

import (
	"context"
	"sync"
	"time"

	"github.com/blackultras/flextrack/pkg/metrics"
)

// Gate is a dual-window sliding rate limiter shared by every outbound call,
// regardless of which player's sync initiated it. Each window records call
// timestamps; a call proceeds only once every window has room, so the
// effective rate is the intersection of all windows.
//
// Wait blocks only the calling goroutine. The mutex is held for bookkeeping
// and is always released before sleeping, so concurrent acquirers queue on
// the timer, not on the lock.
type Gate struct {
	mu      sync.Mutex
	windows []*window

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// window is an ordered sequence of call timestamps within a sliding period.
// Entries are pruned lazily on each acquire.
type window struct {
	limit  int
	period time.Duration
	stamps []time.Time
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.period)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	w.stamps = w.stamps[i:]
}

// Window declares one sliding-window constraint for NewGate.
type Window struct {
	Limit  int
	Period time.Duration
}

// NewGate creates a Gate enforcing every given window simultaneously.
func NewGate(windows []Window, opts ...GateOption) *Gate {
	g := &Gate{
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, w := range windows {
		if w.Limit > 0 && w.Period > 0 {
			g.windows = append(g.windows, &window{limit: w.Limit, period: w.Period})
		}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Wait blocks until one call is admitted by every window, then records it.
// It returns early only when ctx is cancelled.
func (g *Gate) Wait(ctx context.Context) error {
	for _, w := range g.windows {
		if err := g.admit(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// admit reserves a slot in a single window, sleeping out the overflow.
func (g *Gate) admit(ctx context.Context, w *window) error {
	for {
		g.mu.Lock()
		now := g.now()
		w.prune(now)
		if len(w.stamps) < w.limit {
			w.stamps = append(w.stamps, now)
			g.mu.Unlock()
			return nil
		}
		// Window full: sleep until the oldest entry ages out, without the lock.
		wait := w.period - now.Sub(w.stamps[0])
		g.mu.Unlock()

		metrics.RecordRateLimitWait(wait.Seconds())
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
		// Re-check from scratch: prune drops the entry that aged out during
		// the sleep, and another woken goroutine may have taken the freed
		// slot first. Never evict here; a slept-out entry expires on its own
		// and anything younger is a live admission.
	}
}

// sleepContext suspends the caller for d, honoring cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
