package policy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"braces.dev/errtrace"
	"github.com/google/uuid"

	"github.com/ghettovoice/doorphone/linphone"
	"github.com/ghettovoice/doorphone/log"
)

//go:generate mockgen -destination ../internal/testutil/policymock/mock.go -package policymock . Phone,Button,Resolver,Observer

// Phone is the part of [linphone.Phone] the controller drives.
type Phone interface {
	State() linphone.State
	Register(ctx context.Context, username, host, password string) error
	Dial(ctx context.Context, number string) error
	Hangup(ctx context.Context) error
	Restart(ctx context.Context) error
	OnFault(fn func(linphone.Fault)) (remove func())
}

// Button reports the door button level.
type Button interface {
	IsPressed() (bool, error)
}

// Resolver checks that the registrar host can be resolved before registering.
type Resolver interface {
	CheckRegistrar(ctx context.Context, host string) error
}

// Action is a command the controller issued to the phone.
type Action string

const (
	ActionRegister     Action = "register"
	ActionDial         Action = "dial"
	ActionHangup       Action = "hangup"
	ActionDialTimeout  Action = "dial_timeout"
	ActionCallTimeout  Action = "call_timeout"
	ActionRestart      Action = "restart"
	ActionNone         Action = "none"
	ActionThrottled    Action = "throttled"
	ActionRegisterSkip Action = "register_skipped"
)

// Observer is notified about the controller decisions.
type Observer interface {
	ObserveAction(action Action, err error)
}

// Controller runs the door policy: it keeps the phone registered, dials or hangs up
// on button presses and ends dials and calls that last too long.
type Controller struct {
	phone Phone
	btn   Button
	opts  Options
	log   *slog.Logger

	throttle *Throttle
	faults   chan linphone.Fault

	mu          sync.Mutex
	lastPressed bool
	faulted     uuid.UUID
	dialWD      *Watchdog
	callWD      *Watchdog
}

// New creates a controller. A nil button disables the button policy. Options may be nil.
func New(phone Phone, btn Button, opts *Options) *Controller {
	c := &Controller{
		phone:  phone,
		btn:    btn,
		faults: make(chan linphone.Fault, 1),
	}
	if opts != nil {
		c.opts = *opts
	}
	c.log = log.Or(c.opts.Logger)
	c.throttle = NewThrottle(c.opts.buttonThrottle(), c.opts.now)
	c.dialWD = NewWatchdog(c.opts.maxDialDuration())
	c.callWD = NewWatchdog(c.opts.maxCallDuration())
	return c
}

// Run drives the policy until ctx is done and returns the context error.
//
// Registration is checked after the startup delay and then every register interval.
// The button and the watchdogs are polled on their own intervals.
// Faults reported by the phone are handled as they arrive.
func (c *Controller) Run(ctx context.Context) error {
	remove := c.phone.OnFault(func(f linphone.Fault) {
		select {
		case c.faults <- f:
		default:
		}
	})
	defer remove()

	startup := time.NewTimer(c.opts.startupDelay())
	defer startup.Stop()

	var regC <-chan time.Time
	var regTicker *time.Ticker
	defer func() {
		if regTicker != nil {
			regTicker.Stop()
		}
	}()

	var btnC <-chan time.Time
	if c.btn != nil {
		btnTicker := time.NewTicker(c.opts.buttonInterval())
		defer btnTicker.Stop()
		btnC = btnTicker.C
	}

	wdTicker := time.NewTicker(c.opts.watchdogInterval())
	defer wdTicker.Stop()

	c.log.LogAttrs(ctx, slog.LevelDebug, "policy loop started",
		slog.Duration("startup_delay", c.opts.startupDelay()),
		slog.Duration("register_interval", c.opts.registerInterval()),
		slog.Bool("button", c.btn != nil),
	)

	for {
		select {
		case <-ctx.Done():
			c.log.LogAttrs(ctx, slog.LevelDebug, "policy loop stopped", slog.Any("error", ctx.Err()))
			return errtrace.Wrap(ctx.Err())
		case <-startup.C:
			c.CheckRegistration(ctx)
			regTicker = time.NewTicker(c.opts.registerInterval())
			regC = regTicker.C
		case <-regC:
			c.CheckRegistration(ctx)
		case <-btnC:
			c.PollButton(ctx)
		case <-wdTicker.C:
			c.CheckDurations(ctx)
		case f := <-c.faults:
			c.HandleFault(ctx, f)
		}
	}
}

// CheckRegistration registers the phone when it reports it is not registered.
// An unknown registration state is left alone, as is a session that raised a deregistration fault
// and is about to be restarted.
func (c *Controller) CheckRegistration(ctx context.Context) {
	st := c.phone.State()
	if !st.Registered.IsFalse() {
		return
	}

	c.mu.Lock()
	faulted := st.Session != uuid.Nil && st.Session == c.faulted
	c.mu.Unlock()
	if faulted {
		c.log.LogAttrs(ctx, slog.LevelDebug, "registration skipped, client restart pending",
			slog.String("session", st.Session.String()),
		)
		c.observe(ActionRegisterSkip, nil)
		return
	}

	if c.opts.Resolver != nil {
		if err := c.opts.Resolver.CheckRegistrar(ctx, c.opts.Host); err != nil {
			c.log.LogAttrs(ctx, slog.LevelWarn, "registration skipped, registrar check failed",
				slog.String("host", c.opts.Host),
				slog.Any("error", err),
			)
			c.observe(ActionRegisterSkip, err)
			return
		}
	}

	c.log.LogAttrs(ctx, slog.LevelInfo, "not registered, registering",
		slog.String("username", c.opts.Username),
		slog.String("host", c.opts.Host),
	)
	err := c.phone.Register(ctx, c.opts.Username, c.opts.Host, c.opts.Password)
	if err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "failed to register", slog.Any("error", err))
	}
	c.observe(ActionRegister, err)
}

// PollButton reads the button once and handles a rising edge.
// A read error is logged and keeps the last seen level.
func (c *Controller) PollButton(ctx context.Context) {
	if c.btn == nil {
		return
	}

	pressed, err := c.btn.IsPressed()
	if err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "failed to read button", slog.Any("error", err))
		return
	}

	c.mu.Lock()
	rising := pressed && !c.lastPressed
	c.lastPressed = pressed
	c.mu.Unlock()
	if !rising {
		return
	}

	if !c.throttle.Do(func() { c.press(ctx) }) {
		c.log.LogAttrs(ctx, slog.LevelDebug, "button press ignored, throttled",
			slog.Duration("cooldown", c.throttle.Cooldown()),
		)
		c.observe(ActionThrottled, nil)
	}
}

func (c *Controller) press(ctx context.Context) {
	st := c.phone.State()
	switch {
	case st.Busy():
		c.log.LogAttrs(ctx, slog.LevelInfo, "button pressed, hanging up", slog.Any("state", st))
		err := c.phone.Hangup(ctx)
		if err != nil {
			c.log.LogAttrs(ctx, slog.LevelWarn, "failed to hang up", slog.Any("error", err))
		}
		c.observe(ActionHangup, err)
	case st.Registered.IsTrue():
		c.log.LogAttrs(ctx, slog.LevelInfo, "button pressed, dialing", slog.String("number", c.opts.Number))
		err := c.phone.Dial(ctx, c.opts.Number)
		if err != nil {
			c.log.LogAttrs(ctx, slog.LevelWarn, "failed to dial", slog.Any("error", err))
		}
		c.observe(ActionDial, err)
	default:
		c.log.LogAttrs(ctx, slog.LevelWarn, "button pressed, but the phone is not registered", slog.Any("state", st))
		c.observe(ActionNone, nil)
	}
}

// CheckDurations hangs up a dial or a call that lasted longer than allowed.
func (c *Controller) CheckDurations(ctx context.Context) {
	st := c.phone.State()
	now := c.opts.now()

	c.mu.Lock()
	dialExpired := c.dialWD.Check(st.Dialing.IsTrue(), now)
	callExpired := c.callWD.Check(st.InCall.IsTrue(), now)
	c.mu.Unlock()

	if dialExpired {
		c.log.LogAttrs(ctx, slog.LevelWarn, "max dial duration exceeded, hanging up",
			slog.Duration("max_dial_duration", c.dialWD.Max()),
		)
		err := c.phone.Hangup(ctx)
		if err != nil {
			c.log.LogAttrs(ctx, slog.LevelWarn, "failed to hang up", slog.Any("error", err))
		}
		c.observe(ActionDialTimeout, err)
	}
	if callExpired {
		c.log.LogAttrs(ctx, slog.LevelWarn, "max call duration exceeded, hanging up",
			slog.Duration("max_call_duration", c.callWD.Max()),
		)
		err := c.phone.Hangup(ctx)
		if err != nil {
			c.log.LogAttrs(ctx, slog.LevelWarn, "failed to hang up", slog.Any("error", err))
		}
		c.observe(ActionCallTimeout, err)
	}
}

// HandleFault restarts the client after a deregistration fault.
func (c *Controller) HandleFault(ctx context.Context, f linphone.Fault) {
	if f.Kind != linphone.FaultDeregistered {
		return
	}

	c.mu.Lock()
	c.faulted = f.Session
	c.mu.Unlock()

	c.log.LogAttrs(ctx, slog.LevelWarn, "client deregistered, restarting", slog.Any("fault", f))
	err := c.phone.Restart(ctx)
	if err != nil {
		c.log.LogAttrs(ctx, slog.LevelError, "failed to restart client", slog.Any("error", err))
	}
	c.observe(ActionRestart, err)
}

func (c *Controller) observe(action Action, err error) {
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveAction(action, err)
	}
}
