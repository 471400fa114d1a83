package timeutil

import (
	"sync"
	"time"
)

// Group is a set of timers that are cancelled together.
// The zero value is ready to use. A stopped group stays stopped.
type Group struct {
	mu      sync.Mutex
	timers  map[*Timer]struct{}
	stopped bool
}

// AfterFunc creates a timer owned by the group.
// On a stopped group it returns an already stopped timer whose callback never runs.
func (g *Group) AfterFunc(d time.Duration, f func()) *Timer {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := &Timer{callback: f, onDone: g.forget}
	if g.stopped {
		now := time.Now()
		t.startTime, t.stopTime = now, now
		t.duration = d
		t.state = TimerStateStopped
		return t
	}

	if g.timers == nil {
		g.timers = make(map[*Timer]struct{})
	}
	g.timers[t] = struct{}{}
	t.mu.Lock()
	t.start(d)
	t.mu.Unlock()
	return t
}

func (g *Group) forget(t *Timer) {
	g.mu.Lock()
	delete(g.timers, t)
	g.mu.Unlock()
}

// Len returns the number of pending timers.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.timers)
}

// Stopped reports whether the group was stopped.
func (g *Group) Stopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

// Stop stops every pending timer and marks the group stopped.
// It returns the number of timers that were cancelled.
func (g *Group) Stop() int {
	g.mu.Lock()
	g.stopped = true
	pending := make([]*Timer, 0, len(g.timers))
	for t := range g.timers {
		pending = append(pending, t)
	}
	g.mu.Unlock()

	n := 0
	for _, t := range pending {
		if t.Stop() {
			n++
		}
	}
	return n
}
