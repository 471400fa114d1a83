package linphone

import (
	"context"
	"log/slog"

	"github.com/qmuntal/stateless"
)

// Lifecycle is the supervisor state of the client process.
type Lifecycle string

const (
	// LifecycleIdle is the state before [Phone.Start].
	LifecycleIdle Lifecycle = "idle"
	// LifecycleStarting is entered right before the client is spawned.
	LifecycleStarting Lifecycle = "starting"
	// LifecycleRunning means a client session is live.
	LifecycleRunning Lifecycle = "running"
	// LifecycleRestarting means the client exited or failed to spawn and a respawn is scheduled.
	LifecycleRestarting Lifecycle = "restarting"
	// LifecycleStopped is the terminal state entered by [Phone.Close].
	LifecycleStopped Lifecycle = "stopped"
)

func (l Lifecycle) String() string { return string(l) }

const (
	evtStart       = "start"
	evtSpawned     = "spawned"
	evtSpawnFailed = "spawn_failed"
	evtExited      = "exited"
	evtRestart     = "restart"
	evtClose       = "close"
)

func (p *Phone) initFSM() {
	p.fsm = stateless.NewStateMachineWithMode(LifecycleIdle, stateless.FiringQueued)
	p.fsm.OnTransitioned(p.onTransitioned)

	p.fsm.Configure(LifecycleIdle).
		Permit(evtStart, LifecycleStarting).
		Permit(evtClose, LifecycleStopped)

	p.fsm.Configure(LifecycleStarting).
		OnEntry(p.actSpawn).
		Permit(evtSpawned, LifecycleRunning).
		Permit(evtSpawnFailed, LifecycleRestarting).
		Permit(evtClose, LifecycleStopped)

	p.fsm.Configure(LifecycleRunning).
		Permit(evtExited, LifecycleRestarting).
		Permit(evtClose, LifecycleStopped)

	p.fsm.Configure(LifecycleRestarting).
		OnEntry(p.actRestarting).
		Permit(evtRestart, LifecycleStarting).
		Permit(evtClose, LifecycleStopped)

	p.fsm.Configure(LifecycleStopped).
		OnEntry(p.actStopped).
		InternalTransition(evtExited, p.actDropSession).
		Ignore(evtStart).
		Ignore(evtSpawned).
		Ignore(evtSpawnFailed).
		Ignore(evtRestart).
		Ignore(evtClose)
}

func (p *Phone) onTransitioned(ctx context.Context, tr stateless.Transition) {
	from, _ := tr.Source.(Lifecycle)
	to, _ := tr.Destination.(Lifecycle)

	p.mu.Lock()
	p.lifecycle = to
	p.mu.Unlock()

	p.log.LogAttrs(ctx, slog.LevelDebug, "client lifecycle changed",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Any("trigger", tr.Trigger),
	)

	for fn := range p.onLifecycle.All() {
		fn(from, to)
	}
}
