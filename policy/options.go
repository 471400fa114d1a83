package policy

import (
	"log/slog"
	"time"
)

// Default policy timings.
const (
	DefaultStartupDelay     = time.Second
	DefaultRegisterInterval = 10 * time.Second
	DefaultButtonInterval   = 50 * time.Millisecond
	DefaultButtonThrottle   = 3 * time.Second
	DefaultWatchdogInterval = time.Second
	DefaultMaxDialDuration  = 30 * time.Second
	DefaultMaxCallDuration  = 2 * time.Minute
)

// Options configure a [Controller]. Zero durations select the defaults.
type Options struct {
	// SIP account used by the registration scheduler.
	Username string
	Host     string
	Password string
	// Number is dialed on a button press.
	Number string

	StartupDelay     time.Duration
	RegisterInterval time.Duration
	ButtonInterval   time.Duration
	ButtonThrottle   time.Duration
	WatchdogInterval time.Duration
	MaxDialDuration  time.Duration
	MaxCallDuration  time.Duration

	// Resolver, if set, is consulted before every registration attempt.
	Resolver Resolver
	// Observer, if set, is told about every decision.
	Observer Observer
	Logger   *slog.Logger
	// Now overrides the clock of the throttle and the watchdogs.
	Now func() time.Time
}

func (o *Options) startupDelay() time.Duration {
	return orDefault(o.StartupDelay, DefaultStartupDelay)
}

func (o *Options) registerInterval() time.Duration {
	return orDefault(o.RegisterInterval, DefaultRegisterInterval)
}

func (o *Options) buttonInterval() time.Duration {
	return orDefault(o.ButtonInterval, DefaultButtonInterval)
}

func (o *Options) buttonThrottle() time.Duration {
	return orDefault(o.ButtonThrottle, DefaultButtonThrottle)
}

func (o *Options) watchdogInterval() time.Duration {
	return orDefault(o.WatchdogInterval, DefaultWatchdogInterval)
}

func (o *Options) maxDialDuration() time.Duration {
	return orDefault(o.MaxDialDuration, DefaultMaxDialDuration)
}

func (o *Options) maxCallDuration() time.Duration {
	return orDefault(o.MaxCallDuration, DefaultMaxCallDuration)
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func orDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
