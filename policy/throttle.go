package policy

import (
	"sync"
	"time"
)

// Throttle is a cooldown gate: an action runs at most once per cooldown window.
type Throttle struct {
	d   time.Duration
	now func() time.Time

	mu   sync.Mutex
	last time.Time
	ran  bool
}

// NewThrottle creates a throttle with cooldown d. A nil now means [time.Now].
func NewThrottle(d time.Duration, now func() time.Time) *Throttle {
	if now == nil {
		now = time.Now
	}
	return &Throttle{d: d, now: now}
}

// Do runs fn unless the cooldown started by the previous run has not expired yet.
// It reports whether fn ran. The first call always runs; each run restarts the cooldown
// from the time of the call.
func (t *Throttle) Do(fn func()) bool {
	t.mu.Lock()
	now := t.now()
	if t.ran && now.Sub(t.last) < t.d {
		t.mu.Unlock()
		return false
	}
	t.ran = true
	t.last = now
	t.mu.Unlock()

	fn()
	return true
}

// Cooldown returns the cooldown duration.
func (t *Throttle) Cooldown() time.Duration { return t.d }
