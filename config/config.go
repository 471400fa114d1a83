// Package config loads the doorphone configuration file.
//
// The file is YAML or TOML, selected by its extension. Keys missing from the file keep
// the values of [Default]. Durations are written as Go duration strings such as "50ms" or "2m".
package config

//go:generate errtrace -w .

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"braces.dev/errtrace"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ghettovoice/doorphone/button"
	"github.com/ghettovoice/doorphone/internal/errorutil"
	"github.com/ghettovoice/doorphone/linphone"
	"github.com/ghettovoice/doorphone/log"
	"github.com/ghettovoice/doorphone/policy"
)

// ErrUnknownFormat is returned for a config file with an unsupported extension.
const ErrUnknownFormat errorutil.Error = "unknown config format"

// Duration is a [time.Duration] read from and written as a duration string.
type Duration time.Duration

// D returns d as a [time.Duration].
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError(err))
	}
	*d = Duration(v)
	return nil
}

// Config is the doorphone configuration.
type Config struct {
	Linphone Linphone `yaml:"linphone" toml:"linphone"`
	SIP      SIP      `yaml:"sip" toml:"sip"`
	Runtime  Runtime  `yaml:"runtime" toml:"runtime"`
	GPIO     GPIO     `yaml:"gpio" toml:"gpio"`
	Log      Log      `yaml:"log" toml:"log"`
	HTTP     HTTP     `yaml:"http" toml:"http"`
	// LockFile, if set, is locked for the lifetime of the process.
	LockFile string `yaml:"lock_file" toml:"lock_file"`
}

// Linphone configures the client process.
type Linphone struct {
	Executable   string   `yaml:"executable" toml:"executable"`
	Args         []string `yaml:"args" toml:"args"`
	Prompt       string   `yaml:"prompt" toml:"prompt"`
	Autoanswer   bool     `yaml:"autoanswer" toml:"autoanswer"`
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval"`
	PollDelay    Duration `yaml:"poll_delay" toml:"poll_delay"`
	RestartDelay Duration `yaml:"restart_delay" toml:"restart_delay"`
	QuitTimeout  Duration `yaml:"quit_timeout" toml:"quit_timeout"`
	// StallTimeout of zero disables the stall check.
	StallTimeout Duration `yaml:"stall_timeout" toml:"stall_timeout"`
}

// SIP holds the account and the number dialed on a button press.
type SIP struct {
	Username string `yaml:"username" toml:"username"`
	Host     string `yaml:"host" toml:"host"`
	Password string `yaml:"password" toml:"password"`
	Dial     string `yaml:"dial" toml:"dial"`
	// CheckRegistrar resolves the registrar before every registration attempt.
	CheckRegistrar bool `yaml:"check_registrar" toml:"check_registrar"`
	// NameServer used by the registrar check. Empty means the system resolver config.
	NameServer string `yaml:"nameserver" toml:"nameserver"`
}

// Runtime holds the policy timings.
type Runtime struct {
	StartupDelay     Duration `yaml:"startup_delay" toml:"startup_delay"`
	RegisterInterval Duration `yaml:"register_interval" toml:"register_interval"`
	ButtonInterval   Duration `yaml:"button_interval" toml:"button_interval"`
	ButtonThrottle   Duration `yaml:"button_throttle" toml:"button_throttle"`
	WatchdogInterval Duration `yaml:"watchdog_interval" toml:"watchdog_interval"`
	MaxDialDuration  Duration `yaml:"max_dial_duration" toml:"max_dial_duration"`
	MaxCallDuration  Duration `yaml:"max_call_duration" toml:"max_call_duration"`
}

// GPIO selects the button pin.
type GPIO struct {
	button.Config `yaml:",inline"`
	// Root is the sysfs GPIO directory.
	Root string `yaml:"root" toml:"root"`
}

// Log configures logging.
type Log struct {
	Format string `yaml:"format" toml:"format"`
	Level  string `yaml:"level" toml:"level"`
	// File receives the log in append mode. Empty means stdout.
	File string `yaml:"file" toml:"file"`
	// Commands logs every command sent to the client and every record parsed from it.
	Commands bool `yaml:"commands" toml:"commands"`
	// State logs the state on every poll.
	State bool `yaml:"state" toml:"state"`
	// StateChanges logs every state flag change.
	StateChanges bool `yaml:"state_changes" toml:"state_changes"`
}

// HTTP configures the status API.
type HTTP struct {
	// Listen is the listen address, e.g. ":9100". Empty disables the API.
	Listen string `yaml:"listen" toml:"listen"`
}

// Default returns the default configuration.
// The SIP account has no defaults and must be set in the file.
func Default() Config {
	return Config{
		Linphone: Linphone{
			Executable:   linphone.DefaultExecutable,
			Prompt:       linphone.DefaultPrompt,
			Autoanswer:   true,
			PollInterval: Duration(linphone.DefaultPollInterval),
			PollDelay:    Duration(linphone.DefaultPollDelay),
			RestartDelay: Duration(linphone.DefaultRestartDelay),
			QuitTimeout:  Duration(linphone.DefaultQuitTimeout),
			StallTimeout: Duration(10 * time.Second),
		},
		Runtime: Runtime{
			StartupDelay:     Duration(policy.DefaultStartupDelay),
			RegisterInterval: Duration(policy.DefaultRegisterInterval),
			ButtonInterval:   Duration(policy.DefaultButtonInterval),
			ButtonThrottle:   Duration(policy.DefaultButtonThrottle),
			WatchdogInterval: Duration(policy.DefaultWatchdogInterval),
			MaxDialDuration:  Duration(policy.DefaultMaxDialDuration),
			MaxCallDuration:  Duration(policy.DefaultMaxCallDuration),
		},
		GPIO: GPIO{
			Config: button.Config{Pin: 17},
			Root:   button.DefaultSysfsRoot,
		},
		Log: Log{
			Format:       log.FormatConsole,
			Level:        "info",
			Commands:     true,
			StateChanges: true,
		},
	}
}

// Load reads the file at path over [Default] and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("config %s: %w", path, err))
	}
	return cfg, nil
}

// Config file formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return strings.TrimPrefix(filepath.Ext(path), ".")
	}
}

// Parse decodes data in the given format over [Default] and validates the result.
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError(err))
		}
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
		if err != nil {
			return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError(err))
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError("unknown key %q", undec[0].String()))
		}
	default:
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnknownFormat, "%q", format))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &cfg, nil
}

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, errorutil.NewInvalidArgumentError(append([]any{format}, args...)...))
	}

	if c.Linphone.Executable == "" {
		invalid("linphone.executable is empty")
	}
	if c.Linphone.Prompt == "" {
		invalid("linphone.prompt is empty")
	}
	for _, d := range []struct {
		name string
		val  Duration
	}{
		{"linphone.poll_interval", c.Linphone.PollInterval},
		{"linphone.poll_delay", c.Linphone.PollDelay},
		{"linphone.restart_delay", c.Linphone.RestartDelay},
		{"linphone.quit_timeout", c.Linphone.QuitTimeout},
		{"runtime.startup_delay", c.Runtime.StartupDelay},
		{"runtime.register_interval", c.Runtime.RegisterInterval},
		{"runtime.button_interval", c.Runtime.ButtonInterval},
		{"runtime.button_throttle", c.Runtime.ButtonThrottle},
		{"runtime.watchdog_interval", c.Runtime.WatchdogInterval},
		{"runtime.max_dial_duration", c.Runtime.MaxDialDuration},
		{"runtime.max_call_duration", c.Runtime.MaxCallDuration},
	} {
		if d.val <= 0 {
			invalid("%s must be positive, got %s", d.name, d.val)
		}
	}
	if c.Linphone.StallTimeout < 0 {
		invalid("linphone.stall_timeout must not be negative, got %s", c.Linphone.StallTimeout)
	}

	if c.SIP.Username == "" {
		invalid("sip.username is empty")
	}
	if c.SIP.Host == "" {
		invalid("sip.host is empty")
	}
	if c.SIP.Dial == "" {
		invalid("sip.dial is empty")
	}

	if err := c.GPIO.Config.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("gpio: %w", err))
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", log.FormatConsole, log.FormatDev, log.FormatJSON, log.FormatText:
	default:
		invalid("unknown log format %q", c.Log.Format)
	}

	return errtrace.Wrap(errorutil.Join(errs...))
}

// PhoneOptions returns the client supervisor options.
func (c *Config) PhoneOptions(logger *slog.Logger) *linphone.Options {
	return &linphone.Options{
		Executable:      c.Linphone.Executable,
		Args:            c.Linphone.Args,
		Prompt:          c.Linphone.Prompt,
		Autoanswer:      c.Linphone.Autoanswer,
		PollInterval:    c.Linphone.PollInterval.D(),
		PollDelay:       c.Linphone.PollDelay.D(),
		RestartDelay:    c.Linphone.RestartDelay.D(),
		QuitTimeout:     c.Linphone.QuitTimeout.D(),
		StallTimeout:    c.Linphone.StallTimeout.D(),
		LogCommands:     c.Log.Commands,
		LogState:        c.Log.State,
		LogStateChanges: c.Log.StateChanges,
		Logger:          logger,
	}
}

// PolicyOptions returns the controller options.
// The resolver and the observer are left for the caller to set.
func (c *Config) PolicyOptions(logger *slog.Logger) *policy.Options {
	return &policy.Options{
		Username:         c.SIP.Username,
		Host:             c.SIP.Host,
		Password:         c.SIP.Password,
		Number:           c.SIP.Dial,
		StartupDelay:     c.Runtime.StartupDelay.D(),
		RegisterInterval: c.Runtime.RegisterInterval.D(),
		ButtonInterval:   c.Runtime.ButtonInterval.D(),
		ButtonThrottle:   c.Runtime.ButtonThrottle.D(),
		WatchdogInterval: c.Runtime.WatchdogInterval.D(),
		MaxDialDuration:  c.Runtime.MaxDialDuration.D(),
		MaxCallDuration:  c.Runtime.MaxCallDuration.D(),
		Logger:           logger,
	}
}

// Logger builds the logger described by the log section.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return errtrace.Wrap2(log.New(w, c.Log.Format, lvl))
}

// LogWriter opens the log destination: the configured file, created if missing and
// appended to, or stdout. Closing the stdout writer is a no-op.
func (c *Config) LogWriter() (io.WriteCloser, error) {
	if c.Log.File == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(c.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Masked returns a copy of c with the SIP password hidden.
func (c *Config) Masked() Config {
	m := *c
	if m.SIP.Password != "" {
		m.SIP.Password = "******"
	}
	return m
}

// Marshal encodes c in the given format.
func (c *Config) Marshal(format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return nil, errtrace.Wrap(err)
		}
		if err := enc.Close(); err != nil {
			return nil, errtrace.Wrap(err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, errtrace.Wrap(err)
		}
	default:
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnknownFormat, "%q", format))
	}
	return buf.Bytes(), nil
}

// LogValue implements [slog.LogValuer].
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("executable", c.Linphone.Executable),
		slog.String("username", c.SIP.Username),
		slog.String("host", c.SIP.Host),
		slog.String("dial", c.SIP.Dial),
		slog.Any("gpio", c.GPIO.Config),
		slog.String("http", c.HTTP.Listen),
	)
}
