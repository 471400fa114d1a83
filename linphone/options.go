package linphone

import (
	"log/slog"
	"time"
)

// Default timings.
const (
	// DefaultPollInterval is the period of the "status register"/"status hook" poll.
	DefaultPollInterval = 50 * time.Millisecond
	// DefaultPollDelay is the delay between process start and the first poll.
	DefaultPollDelay = 500 * time.Millisecond
	// DefaultRestartDelay is the delay between process exit and the next spawn.
	DefaultRestartDelay = time.Second
	// DefaultQuitTimeout is how long a process may take to exit after "quit" before it is killed.
	DefaultQuitTimeout = 5 * time.Second
)

// DefaultExecutable is the client executable name.
const DefaultExecutable = "linphonec"

// Options configure a [Phone].
// Zero values select the defaults documented on each field.
type Options struct {
	// Executable is the client program. Default is [DefaultExecutable].
	Executable string
	// Args are passed to the client program.
	Args []string
	// Prompt is the client's ready prompt. Default is [DefaultPrompt].
	Prompt string
	// Autoanswer selects "autoanswer enable" over "autoanswer disable" after registration.
	Autoanswer bool

	// PollInterval defaults to [DefaultPollInterval].
	PollInterval time.Duration
	// PollDelay defaults to [DefaultPollDelay].
	PollDelay time.Duration
	// RestartDelay defaults to [DefaultRestartDelay].
	RestartDelay time.Duration
	// QuitTimeout defaults to [DefaultQuitTimeout].
	QuitTimeout time.Duration
	// StallTimeout restarts a client that produced no output records for this long.
	// Zero disables the check.
	StallTimeout time.Duration

	// LogCommands logs every sent command and every parsed record.
	LogCommands bool
	// LogState logs the state on every poll.
	LogState bool
	// LogStateChanges logs every state field change.
	LogStateChanges bool

	// Spawner starts the client. Default is [ExecSpawner].
	Spawner Spawner
	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

func (o *Options) executable() string {
	if o.Executable == "" {
		return DefaultExecutable
	}
	return o.Executable
}

func (o *Options) pollInterval() time.Duration { return orDefault(o.PollInterval, DefaultPollInterval) }

func (o *Options) pollDelay() time.Duration { return orDefault(o.PollDelay, DefaultPollDelay) }

func (o *Options) restartDelay() time.Duration { return orDefault(o.RestartDelay, DefaultRestartDelay) }

func (o *Options) quitTimeout() time.Duration { return orDefault(o.QuitTimeout, DefaultQuitTimeout) }

func (o *Options) spawner() Spawner {
	if o.Spawner == nil {
		return ExecSpawner{}
	}
	return o.Spawner
}

func orDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
