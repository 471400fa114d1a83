package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doorphone.yaml")
	data := "sip:\n  username: door\n  host: sip.example.org\n  password: secret\n  dial: \"**9\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v, want nil", err)
	}

	out, err := execute(t, "check", "--config", path)
	if err != nil {
		t.Fatalf("doorphone check error = %v, want nil", err)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("doorphone check output leaks the password:\n%s", out)
	}
	for _, want := range []string{"username: door", "max_call_duration: 2m0s", "pin: 17"} {
		if !strings.Contains(out, want) {
			t.Errorf("doorphone check output does not contain %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "check", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("doorphone check with a missing config error = nil, want error")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("doorphone version error = %v, want nil", err)
	}
	if !strings.HasPrefix(out, "doorphone version ") {
		t.Errorf("doorphone version output = %q, want version line", out)
	}
}
