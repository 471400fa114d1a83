package policy

import "time"

// Watchdog tracks how long a flag stays continuously set and trips once it reaches a maximum.
// It is not safe for concurrent use.
type Watchdog struct {
	max   time.Duration
	onset time.Time
}

// NewWatchdog creates a watchdog tripping after max.
func NewWatchdog(max time.Duration) *Watchdog {
	return &Watchdog{max: max}
}

// Check records the flag value observed at now. It reports true exactly once per continuous
// active period, on the first check at which the period lasted at least max, and clears the onset.
// The onset also clears whenever the flag is not active.
func (w *Watchdog) Check(active bool, now time.Time) bool {
	if !active {
		w.onset = time.Time{}
		return false
	}
	if w.onset.IsZero() {
		w.onset = now
		return false
	}
	if now.Sub(w.onset) >= w.max {
		w.onset = time.Time{}
		return true
	}
	return false
}

// Onset returns the start of the current active period, zero if there is none.
func (w *Watchdog) Onset() time.Time { return w.onset }

// Max returns the maximum duration.
func (w *Watchdog) Max() time.Duration { return w.max }
