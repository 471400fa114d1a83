// Package log provides logging utilities.
package log

//go:generate errtrace -w .

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/golang-cz/devslog"
	"github.com/phsym/console-slog"
	slogformatter "github.com/samber/slog-formatter"

	"github.com/ghettovoice/doorphone/internal/errorutil"
)

// SecretKey is the attribute key whose values are always masked.
const SecretKey = "password"

const masked = "******"

var newHandler = slogformatter.NewFormatterHandler(
	slogformatter.ErrorFormatter("error"),
	slogformatter.FormatByType(func(e *exec.ExitError) slog.Value {
		return slog.GroupValue(
			slog.Int("exit_code", e.ExitCode()),
			slog.String("state", e.String()),
		)
	}),
	slogformatter.FormatByKey(SecretKey, func(slog.Value) slog.Value {
		return slog.StringValue(masked)
	}),
)

// Def is the console logger at debug level on stdout.
var Def = func() *slog.Logger {
	l, _ := New(os.Stdout, FormatConsole, slog.LevelDebug)
	return l
}()

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (h noopHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h noopHandler) WithGroup(string) slog.Handler { return h }

// Noop is a noop logger.
var Noop = slog.New(noopHandler{})

// Output formats accepted by [New].
const (
	FormatConsole = "console"
	FormatDev     = "dev"
	FormatJSON    = "json"
	FormatText    = "text"
)

// ParseLevel parses a level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, errorutil.NewInvalidArgumentError(fmt.Errorf("log level %q: %w", s, err))
	}
	return lvl, nil
}

// New builds a logger writing to w in the given format at the given level.
// An empty format means [FormatConsole].
func New(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	var h slog.Handler
	switch strings.ToLower(format) {
	case "", FormatConsole:
		h = console.NewHandler(w, &console.HandlerOptions{
			Level:      level,
			TimeFormat: time.RFC3339Nano,
		})
	case FormatDev:
		h = devslog.NewHandler(w, &devslog.Options{
			HandlerOptions: &slog.HandlerOptions{AddSource: true, Level: level},
			SortKeys:       true,
			TimeFormat:     time.RFC3339Nano,
		})
	case FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case FormatText:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return nil, errorutil.NewInvalidArgumentError("unknown log format %q", format)
	}
	return slog.New(newHandler(h)), nil
}

// Or returns l, or [Noop] when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Noop
	}
	return l
}
