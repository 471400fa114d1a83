package linphone

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"
	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/doorphone/internal/timeutil"
	"github.com/ghettovoice/doorphone/internal/types"
	"github.com/ghettovoice/doorphone/log"
)

// commandIndent precedes every command line, the client skips leading blanks.
const commandIndent = "     "

const maskedPassword = "******"

// Phone supervises a single linphonec process.
//
// One event loop goroutine owns the lifecycle state machine and the current session.
// Timers, the output reader and the exit waiter only post events to it,
// so events from a session that was already discarded are recognized and dropped.
type Phone struct {
	opts    Options
	spawner Spawner
	log     *slog.Logger
	ctx     context.Context

	fsm    *stateless.StateMachine
	events chan func()
	done   chan struct{}
	wg     sync.WaitGroup

	started atomic.Bool
	closed  atomic.Bool

	// loop-owned
	sess   *session
	timers timeutil.Group

	mu        sync.RWMutex
	cur       *session
	state     State
	lifecycle Lifecycle

	onState     types.Callbacks[func(old, new State)]
	onFault     types.Callbacks[func(Fault)]
	onLifecycle types.Callbacks[func(from, to Lifecycle)]
}

type session struct {
	id   uuid.UUID
	proc Process

	wmu sync.Mutex

	// loop-owned
	timers       timeutil.Group
	poll         *timeutil.Timer
	lastActivity time.Time
	quitting     bool
	faulted      bool
}

// NewPhone creates a phone supervisor. Options may be nil.
// The client is not spawned until [Phone.Start].
func NewPhone(opts *Options) *Phone {
	p := &Phone{
		events:    make(chan func(), 64),
		done:      make(chan struct{}),
		lifecycle: LifecycleIdle,
		ctx:       context.Background(),
	}
	if opts != nil {
		p.opts = *opts
	}
	p.opts.Args = append([]string(nil), p.opts.Args...)
	p.spawner = p.opts.spawner()
	p.log = log.Or(p.opts.Logger)
	p.initFSM()
	return p
}

// Start spawns the client and begins supervision.
func (p *Phone) Start(ctx context.Context) error {
	if p.closed.Load() {
		return errtrace.Wrap(ErrClosed)
	}
	if !p.started.CompareAndSwap(false, true) {
		if p.closed.Load() {
			return errtrace.Wrap(ErrClosed)
		}
		return errtrace.Wrap(ErrAlreadyStarted)
	}

	go p.run()

	return errtrace.Wrap(p.call(ctx, func() error {
		return errtrace.Wrap(p.fsm.FireCtx(p.ctx, evtStart))
	}))
}

// Close stops supervision for good: the client is asked to quit, killed if it does not
// exit within the quit timeout, and never respawned.
// Close waits until the process and every supervisor goroutine are gone.
// If ctx ends first, the process is killed and Close returns the context error after it exits.
func (p *Phone) Close(ctx context.Context) error {
	if p.closed.CompareAndSwap(false, true) {
		if p.started.CompareAndSwap(false, true) {
			p.mu.Lock()
			p.lifecycle = LifecycleStopped
			p.mu.Unlock()
			close(p.done)
			return nil
		}
		p.post(func() { p.fire(p.ctx, evtClose) })
	}

	var err error
	select {
	case <-p.done:
	case <-ctx.Done():
		err = ctx.Err()
		if sess := p.current(); sess != nil {
			sess.proc.Kill() //nolint:errcheck
		}
		<-p.done
	}
	p.wg.Wait()
	return errtrace.Wrap(err)
}

// Stop asks the client to quit. The supervisor respawns it after the restart delay.
func (p *Phone) Stop(ctx context.Context) error {
	return errtrace.Wrap(p.command(ctx, cmdQuit, cmdQuit))
}

// Restart asks the client to quit and kills it if it is still running after the quit timeout.
// The supervisor respawns it after the restart delay.
func (p *Phone) Restart(ctx context.Context) error {
	if !p.started.Load() || p.closed.Load() {
		return errtrace.Wrap(ErrNoSession)
	}
	return errtrace.Wrap(p.call(ctx, func() error {
		if p.sess == nil {
			return errtrace.Wrap(ErrNoSession)
		}
		p.quit(p.ctx, p.sess, "restart requested")
		return nil
	}))
}

// Register asks the client to register at the host.
func (p *Phone) Register(ctx context.Context, username, host, password string) error {
	return errtrace.Wrap(p.command(ctx,
		strings.Join([]string{cmdRegister, username, host, password}, " "),
		strings.Join([]string{cmdRegister, username, host, maskedPassword}, " "),
	))
}

// Dial places a call to number.
func (p *Phone) Dial(ctx context.Context, number string) error {
	cmd := cmdCall + " " + number
	return errtrace.Wrap(p.command(ctx, cmd, cmd))
}

// Hangup terminates all calls.
func (p *Phone) Hangup(ctx context.Context) error {
	return errtrace.Wrap(p.command(ctx, cmdTerminateAll, cmdTerminateAll))
}

// State returns a snapshot of the current state.
func (p *Phone) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Lifecycle returns the current lifecycle state.
func (p *Phone) Lifecycle() Lifecycle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lifecycle
}

// OnStateChange subscribes fn to state changes. Callbacks run on the supervisor goroutine
// and must not block.
func (p *Phone) OnStateChange(fn func(old, new State)) (remove func()) {
	return p.onState.Add(fn)
}

// OnFault subscribes fn to faults. Each fault is reported at most once per session.
func (p *Phone) OnFault(fn func(Fault)) (remove func()) {
	return p.onFault.Add(fn)
}

// OnLifecycle subscribes fn to lifecycle transitions.
func (p *Phone) OnLifecycle(fn func(from, to Lifecycle)) (remove func()) {
	return p.onLifecycle.Add(fn)
}

// LogValue implements [slog.LogValuer].
func (p *Phone) LogValue() slog.Value {
	if p == nil {
		return slog.Value{}
	}
	st := p.State()
	return slog.GroupValue(
		slog.String("lifecycle", p.Lifecycle().String()),
		slog.String("session", st.Session.String()),
		slog.Any("state", st),
	)
}

func (p *Phone) run() {
	defer close(p.done)
	for {
		fn := <-p.events
		fn()
		if p.sess == nil && p.Lifecycle() == LifecycleStopped {
			return
		}
	}
}

// post hands fn to the event loop. It returns false once the loop has exited.
func (p *Phone) post(fn func()) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.events <- fn:
		return true
	case <-p.done:
		return false
	}
}

// call runs fn on the event loop and waits for its result.
func (p *Phone) call(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	if !p.post(func() { errc <- fn() }) {
		return errtrace.Wrap(ErrClosed)
	}
	select {
	case err := <-errc:
		return errtrace.Wrap(err)
	case <-p.done:
		// the loop may have run fn right before exiting
		select {
		case err := <-errc:
			return errtrace.Wrap(err)
		default:
			return errtrace.Wrap(ErrClosed)
		}
	case <-ctx.Done():
		return errtrace.Wrap(ctx.Err())
	}
}

func (p *Phone) fire(ctx context.Context, evt string, args ...any) {
	if err := p.fsm.FireCtx(ctx, evt, args...); err != nil {
		p.log.LogAttrs(ctx, slog.LevelError, "client lifecycle event failed",
			slog.String("event", evt),
			slog.Any("error", err),
		)
	}
}

func (p *Phone) current() *session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cur
}

func (p *Phone) command(ctx context.Context, cmd, display string) error {
	if err := ctx.Err(); err != nil {
		return errtrace.Wrap(err)
	}
	sess := p.current()
	if sess == nil {
		return errtrace.Wrap(ErrNoSession)
	}
	return errtrace.Wrap(p.send(ctx, sess, cmd, display))
}

func (p *Phone) send(ctx context.Context, sess *session, cmd, display string) error {
	if p.opts.LogCommands {
		p.log.LogAttrs(ctx, slog.LevelInfo, "sending command",
			slog.String("session", sess.id.String()),
			slog.String("command", display),
		)
	}

	sess.wmu.Lock()
	defer sess.wmu.Unlock()
	if _, err := io.WriteString(sess.proc, commandIndent+cmd+"\n"); err != nil {
		return errtrace.Wrap(fmt.Errorf("send %q: %w", display, err))
	}
	return nil
}

func (p *Phone) actSpawn(ctx context.Context, _ ...any) error {
	name := p.opts.executable()
	proc, err := p.spawner.Spawn(ctx, name, p.opts.Args...)
	if err != nil {
		p.log.LogAttrs(ctx, slog.LevelError, "failed to start client",
			slog.String("executable", name),
			slog.Any("error", err),
		)
		return errtrace.Wrap(p.fsm.FireCtx(ctx, evtSpawnFailed, err))
	}

	sess := &session{
		id:           uuid.New(),
		proc:         proc,
		lastActivity: time.Now(),
	}
	p.sess = sess
	p.mu.Lock()
	p.cur = sess
	old := p.state
	p.state = State{Session: sess.id}
	p.mu.Unlock()

	p.log.LogAttrs(ctx, slog.LevelInfo, "client started",
		slog.String("session", sess.id.String()),
		slog.String("executable", name),
		slog.Int("pid", proc.Pid()),
	)
	p.notifyState(old, State{Session: sess.id})

	p.wg.Add(1)
	go p.readOutput(sess)

	p.schedulePoll(ctx, sess, p.opts.pollDelay())

	return errtrace.Wrap(p.fsm.FireCtx(ctx, evtSpawned))
}

func (p *Phone) actRestarting(ctx context.Context, _ ...any) error {
	p.dropSession()

	delay := p.opts.restartDelay()
	p.log.LogAttrs(ctx, slog.LevelInfo, "client restart scheduled", slog.Duration("delay", delay))
	p.timers.AfterFunc(delay, func() {
		p.post(func() { p.fire(ctx, evtRestart) })
	})
	return nil
}

func (p *Phone) actStopped(ctx context.Context, _ ...any) error {
	p.timers.Stop()
	if p.sess != nil {
		p.quit(ctx, p.sess, "phone closed")
	}
	return nil
}

func (p *Phone) actDropSession(context.Context, ...any) error {
	p.dropSession()
	return nil
}

func (p *Phone) dropSession() {
	sess := p.sess
	if sess == nil {
		return
	}
	sess.timers.Stop()
	p.sess = nil

	p.mu.Lock()
	p.cur = nil
	old := p.state
	p.state = State{}
	p.mu.Unlock()

	p.notifyState(old, State{})
}

// quit sends "quit" and arms the kill fallback.
func (p *Phone) quit(ctx context.Context, sess *session, reason string) {
	if sess.quitting {
		return
	}
	sess.quitting = true
	sess.poll.Stop()

	p.log.LogAttrs(ctx, slog.LevelInfo, "stopping client",
		slog.String("session", sess.id.String()),
		slog.String("reason", reason),
	)
	if err := p.send(ctx, sess, cmdQuit, cmdQuit); err != nil {
		p.log.LogAttrs(ctx, slog.LevelWarn, "failed to send quit",
			slog.String("session", sess.id.String()),
			slog.Any("error", err),
		)
	}

	sess.timers.AfterFunc(p.opts.quitTimeout(), func() {
		p.post(func() { p.kill(ctx, sess) })
	})
}

func (p *Phone) kill(ctx context.Context, sess *session) {
	if sess != p.sess {
		return
	}
	p.log.LogAttrs(ctx, slog.LevelWarn, "client did not quit in time, killing",
		slog.String("session", sess.id.String()),
		slog.Int("pid", sess.proc.Pid()),
	)
	if err := sess.proc.Kill(); err != nil {
		p.log.LogAttrs(ctx, slog.LevelError, "failed to kill client",
			slog.String("session", sess.id.String()),
			slog.Any("error", err),
		)
	}
}

func (p *Phone) readOutput(sess *session) {
	defer p.wg.Done()

	for rec, err := range Records(sess.proc.Output(), p.opts.Prompt) {
		if err != nil {
			p.log.LogAttrs(p.ctx, slog.LevelDebug, "client output read failed",
				slog.String("session", sess.id.String()),
				slog.Any("error", err),
			)
			break
		}
		if !p.post(func() { p.handleRecord(p.ctx, sess, rec) }) {
			break
		}
	}

	err := sess.proc.Wait()
	p.post(func() { p.handleExit(p.ctx, sess, err) })
}

func (p *Phone) handleExit(ctx context.Context, sess *session, err error) {
	if sess != p.sess {
		return
	}

	lvl := slog.LevelInfo
	if !sess.quitting {
		lvl = slog.LevelWarn
	}
	p.log.LogAttrs(ctx, lvl, "client exited",
		slog.String("session", sess.id.String()),
		slog.Any("error", err),
	)
	p.fire(ctx, evtExited, err)
}

func (p *Phone) handleRecord(ctx context.Context, sess *session, rec Record) {
	if sess != p.sess {
		return
	}
	sess.lastActivity = time.Now()

	if p.opts.LogCommands {
		p.log.LogAttrs(ctx, slog.LevelInfo, "client responded",
			slog.String("session", sess.id.String()),
			slog.Any("record", rec),
		)
	}

	d := classify(rec)
	if d.empty() {
		return
	}

	p.mu.Lock()
	old := p.state
	upd, changes := d.apply(old)
	p.state = upd
	p.mu.Unlock()

	if p.opts.LogStateChanges {
		for _, c := range changes {
			p.log.LogAttrs(ctx, slog.LevelInfo, "state changed",
				slog.String("field", c.field),
				slog.String("from", c.from.String()),
				slog.String("to", c.to.String()),
			)
		}
	}
	if len(changes) > 0 {
		p.notifyState(old, upd)
	}

	if !old.Registered.IsTrue() && upd.Registered.IsTrue() {
		cmd := cmdAutoanswerOff
		if p.opts.Autoanswer {
			cmd = cmdAutoanswerOn
		}
		if err := p.send(ctx, sess, cmd, cmd); err != nil {
			p.log.LogAttrs(ctx, slog.LevelWarn, "failed to configure autoanswer",
				slog.String("session", sess.id.String()),
				slog.Any("error", err),
			)
		}
	}

	if d.fault != "" && !sess.faulted {
		sess.faulted = true
		f := Fault{Session: sess.id, Kind: d.fault, Response: rec.Response}
		p.log.LogAttrs(ctx, slog.LevelWarn, "client fault", slog.Any("fault", f))
		for fn := range p.onFault.All() {
			fn(f)
		}
	}
}

func (p *Phone) notifyState(old, upd State) {
	for fn := range p.onState.All() {
		fn(old, upd)
	}
}

func (p *Phone) schedulePoll(ctx context.Context, sess *session, d time.Duration) {
	sess.poll = sess.timers.AfterFunc(d, func() {
		p.post(func() { p.poll(ctx, sess) })
	})
}

func (p *Phone) poll(ctx context.Context, sess *session) {
	if sess != p.sess || sess.quitting {
		return
	}

	if p.opts.LogState {
		p.log.LogAttrs(ctx, slog.LevelInfo, "client state", slog.Any("state", p.State()))
	}

	if st := p.opts.StallTimeout; st > 0 {
		if silent := time.Since(sess.lastActivity); silent > st {
			p.log.LogAttrs(ctx, slog.LevelWarn, "client stalled",
				slog.String("session", sess.id.String()),
				slog.Duration("silent_for", silent),
			)
			p.quit(ctx, sess, "stalled")
			return
		}
	}

	for _, cmd := range [...]string{cmdStatusRegister, cmdStatusHook} {
		if err := p.send(ctx, sess, cmd, cmd); err != nil {
			p.log.LogAttrs(ctx, slog.LevelDebug, "failed to poll client state",
				slog.String("session", sess.id.String()),
				slog.Any("error", err),
			)
			break
		}
	}
	p.schedulePoll(ctx, sess, p.opts.pollInterval())
}
