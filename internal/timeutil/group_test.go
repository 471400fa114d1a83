package timeutil_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ghettovoice/doorphone/internal/timeutil"
)

func TestGroup_Stop(t *testing.T) {
	t.Parallel()

	var g timeutil.Group
	var calls atomic.Int32

	t1 := g.AfterFunc(30*time.Millisecond, func() { calls.Add(1) })
	t2 := g.AfterFunc(40*time.Millisecond, func() { calls.Add(1) })

	if got := g.Len(); got != 2 {
		t.Fatalf("g.Len() = %d, want 2", got)
	}

	if got := g.Stop(); got != 2 {
		t.Fatalf("g.Stop() = %d, want 2", got)
	}
	if !g.Stopped() {
		t.Error("g.Stopped() = false, want true")
	}
	if got := g.Len(); got != 0 {
		t.Errorf("g.Len() after stop = %d, want 0", got)
	}

	t3 := g.AfterFunc(time.Millisecond, func() { calls.Add(1) })

	time.Sleep(80 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("callback calls = %d, want 0", got)
	}
	for i, tmr := range []*timeutil.Timer{t1, t2, t3} {
		if got := tmr.State(); got != timeutil.TimerStateStopped {
			t.Errorf("timer #%d state = %q, want %q", i+1, got, timeutil.TimerStateStopped)
		}
	}
}

func TestGroup_ForgetsExpired(t *testing.T) {
	t.Parallel()

	var g timeutil.Group
	fired := make(chan struct{})
	g.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback was not executed")
	}

	if got := g.Len(); got != 0 {
		t.Errorf("g.Len() = %d, want 0", got)
	}
	if got := g.Stop(); got != 0 {
		t.Errorf("g.Stop() = %d, want 0", got)
	}
}
