package orchestrator

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/scrapable/preview-service/internal/preview"
)

const (
	watchBuffer     = 16
	dropLogInterval = 5 * time.Second
)

// Watch registers an observer for state snapshots. The returned cancel
// function deregisters it and closes the channel. Delivery is non-blocking:
// a watcher that falls behind misses snapshots rather than stalling the
// orchestrator, with a rate-limited warning.
func (o *Orchestrator) Watch() (<-chan preview.State, func()) {
	ch := make(chan preview.State, watchBuffer)
	o.mu.Lock()
	id := o.nextWatcher
	o.nextWatcher++
	o.watchers[id] = ch
	o.mu.Unlock()

	cancel := func() {
		o.mu.Lock()
		if _, ok := o.watchers[id]; ok {
			delete(o.watchers, id)
			close(ch)
		}
		o.mu.Unlock()
	}
	return ch, cancel
}

func (o *Orchestrator) broadcast(s preview.State) {
	o.mu.Lock()
	dropped := 0
	for _, ch := range o.watchers {
		select {
		case ch <- s:
		default:
			dropped++
		}
	}
	o.mu.Unlock()
	if dropped > 0 && o.dropLimiter.Allow(time.Now()) {
		o.logger.Warn("state snapshots dropped, watcher buffers full", zap.Int("dropped", dropped))
	}
}

type rateLimiter struct {
	interval time.Duration
	last     atomic.Int64
}

func (r *rateLimiter) Allow(now time.Time) bool {
	if r == nil || r.interval <= 0 {
		return true
	}
	nano := now.UnixNano()
	last := r.last.Load()
	if nano-last < r.interval.Nanoseconds() {
		return false
	}
	return r.last.CompareAndSwap(last, nano)
}
