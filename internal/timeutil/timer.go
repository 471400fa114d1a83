package timeutil

import (
	"sync"
	"time"
)

// TimerState represents the current state of a timer.
type TimerState string

const (
	// TimerStateRunning indicates the timer is currently running.
	TimerStateRunning TimerState = "running"
	// TimerStateStopped indicates the timer was stopped before expiration.
	TimerStateStopped TimerState = "stopped"
	// TimerStateExpired indicates the timer has expired and its callback was scheduled.
	TimerStateExpired TimerState = "expired"
)

// Timer is a one-shot timer that tracks its start time, duration and state.
type Timer struct {
	mu        sync.Mutex
	startTime time.Time
	duration  time.Duration
	state     TimerState
	stopTime  time.Time
	callback  func()
	realTimer *time.Timer
	// onDone is called once when the timer leaves the running state.
	onDone func(*Timer)
}

// AfterFunc creates a running Timer that calls f in its own goroutine
// after duration d.
func AfterFunc(d time.Duration, f func()) *Timer {
	t := &Timer{callback: f}
	t.start(d)
	return t
}

func (t *Timer) start(d time.Duration) {
	t.startTime = time.Now()
	t.duration = d
	t.state = TimerStateRunning
	t.stopTime = time.Time{}
	t.realTimer = time.AfterFunc(d, t.fire)
}

func (t *Timer) fire() {
	t.mu.Lock()
	if t.state != TimerStateRunning || time.Since(t.startTime) < t.duration {
		// stopped, or reset after this expiration was scheduled
		t.mu.Unlock()
		return
	}
	t.state = TimerStateExpired
	t.stopTime = time.Now()
	cb, done := t.callback, t.onDone
	t.mu.Unlock()

	if done != nil {
		done(t)
	}
	if cb != nil {
		cb()
	}
}

// State returns the current timer state.
func (t *Timer) State() TimerState {
	if t == nil {
		return ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// StartTime returns the time the timer was last started.
func (t *Timer) StartTime() time.Time {
	if t == nil {
		return time.Time{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTime
}

// Duration returns the timer's duration.
func (t *Timer) Duration() time.Duration {
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

// Elapsed returns the time elapsed since the timer started.
// For a stopped or expired timer it is the time between start and stop.
func (t *Timer) Elapsed() time.Duration {
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == TimerStateRunning {
		return time.Since(t.startTime)
	}
	return t.stopTime.Sub(t.startTime)
}

// Left returns the time remaining until the timer expires.
// Returns 0 if the timer is expired or stopped.
func (t *Timer) Left() time.Duration {
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerStateRunning {
		return 0
	}
	return max(t.duration-time.Since(t.startTime), 0)
}

// Stop stops the timer. It reports whether the call stopped a running timer;
// when it returns true the callback is guaranteed not to run.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}

	t.mu.Lock()
	if t.state != TimerStateRunning {
		t.mu.Unlock()
		return false
	}
	t.state = TimerStateStopped
	t.stopTime = time.Now()
	t.realTimer.Stop()
	done := t.onDone
	t.mu.Unlock()

	if done != nil {
		done(t)
	}
	return true
}

// Reset restarts a running timer with a new duration starting from now.
// It reports false and does nothing if the timer already stopped or expired.
func (t *Timer) Reset(d time.Duration) bool {
	if t == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerStateRunning {
		return false
	}
	t.realTimer.Stop()
	t.start(d)
	return true
}
