package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/doorphone/internal/errorutil"
	"github.com/ghettovoice/doorphone/log"
)

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := log.New(&buf, log.FormatJSON, slog.LevelInfo)
	if err != nil {
		t.Fatalf("log.New(buf, %q, info) error = %v, want nil", log.FormatJSON, err)
	}

	logger.Debug("hidden")
	logger.Info("register",
		slog.String("username", "door"),
		slog.String(log.SecretKey, "s3cret"),
		slog.Any("error", errors.New("boom")),
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1:\n%s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("json.Unmarshal(line) error = %v, want nil", err)
	}

	if got, want := rec["msg"], "register"; got != want {
		t.Errorf("msg = %v, want %v", got, want)
	}
	if got, want := rec["username"], "door"; got != want {
		t.Errorf("username = %v, want %v", got, want)
	}
	if got, want := rec[log.SecretKey], "******"; got != want {
		t.Errorf("%s = %v, want %v", log.SecretKey, got, want)
	}
	if strings.Contains(buf.String(), "s3cret") {
		t.Errorf("log output leaks the secret:\n%s", buf.String())
	}
	if _, ok := rec["error"]; !ok {
		t.Errorf("error attribute is missing:\n%s", buf.String())
	}
}

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"", log.FormatConsole, log.FormatDev, log.FormatText, "JSON"} {
		var buf bytes.Buffer
		logger, err := log.New(&buf, format, slog.LevelDebug)
		if err != nil {
			t.Errorf("log.New(buf, %q, debug) error = %v, want nil", format, err)
			continue
		}
		logger.Info("hello")
		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("log.New(buf, %q, debug) output = %q, want it to contain \"hello\"", format, buf.String())
		}
	}

	_, got := log.New(&bytes.Buffer{}, "xml", slog.LevelInfo)
	if diff := cmp.Diff(got, error(errorutil.ErrInvalidArgument), cmpopts.EquateErrors()); diff != "" {
		t.Errorf("log.New(buf, \"xml\", info) error = %v, want %v\ndiff (-got +want):\n%v", got, errorutil.ErrInvalidArgument, diff)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    slog.Level
		wantErr error
	}{
		{"debug", slog.LevelDebug, nil},
		{"INFO", slog.LevelInfo, nil},
		{" warn ", slog.LevelWarn, nil},
		{"error", slog.LevelError, nil},
		{"loud", 0, errorutil.ErrInvalidArgument},
	}
	for _, c := range cases {
		got, err := log.ParseLevel(c.in)
		if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
			t.Errorf("log.ParseLevel(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
			continue
		}
		if got != c.want {
			t.Errorf("log.ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestOr(t *testing.T) {
	t.Parallel()

	if got := log.Or(nil); got != log.Noop {
		t.Errorf("log.Or(nil) = %p, want log.Noop", got)
	}
	if got := log.Or(log.Def); got != log.Def {
		t.Errorf("log.Or(log.Def) = %p, want log.Def", got)
	}
}
