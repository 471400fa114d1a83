// Package timeutil provides Timer, a stateful wrapper around time.AfterFunc,
// and Group, a set of timers that can be cancelled together.
//
// A Timer keeps the usual runtime behaviour (the callback runs in its own
// goroutine once the duration elapses) while exposing its state, start time
// and remaining duration for logging and diagnostics.
//
// A Group owns every timer created through it. Stopping the group stops all of
// its pending timers and makes later AfterFunc calls inert, which is how the
// process supervisor discards everything armed for a session that is gone:
//
//	var tmrs timeutil.Group
//	tmrs.AfterFunc(500*time.Millisecond, poll)
//	tmrs.AfterFunc(5*time.Second, kill)
//	...
//	tmrs.Stop() // neither poll nor kill runs after this point
//
// All operations are safe for concurrent use.
package timeutil
