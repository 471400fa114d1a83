package button

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"braces.dev/errtrace"
)

// DefaultSysfsRoot is the sysfs GPIO class directory.
const DefaultSysfsRoot = "/sys/class/gpio"

// SysfsReader reads a GPIO input through the sysfs interface.
type SysfsReader struct {
	// Root defaults to [DefaultSysfsRoot].
	Root string

	mu  sync.Mutex
	cfg *Config
}

// NewSysfsReader creates a reader rooted at root. An empty root means [DefaultSysfsRoot].
func NewSysfsReader(root string) *SysfsReader {
	return &SysfsReader{Root: root}
}

func (r *SysfsReader) root() string {
	if r.Root == "" {
		return DefaultSysfsRoot
	}
	return r.Root
}

func (r *SysfsReader) pinDir(pin int) string {
	return filepath.Join(r.root(), "gpio"+strconv.Itoa(pin))
}

// Setup exports the pin if needed and configures it as an input.
func (r *SysfsReader) Setup(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errtrace.Wrap(err)
	}

	dir := r.pinDir(cfg.Pin)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		err := os.WriteFile(filepath.Join(r.root(), "export"), []byte(strconv.Itoa(cfg.Pin)), 0o600)
		// EBUSY means the pin is already exported
		if err != nil && !errors.Is(err, syscall.EBUSY) {
			return errtrace.Wrap(fmt.Errorf("export gpio %d: %w", cfg.Pin, err))
		}
	} else if err != nil {
		return errtrace.Wrap(fmt.Errorf("stat gpio %d: %w", cfg.Pin, err))
	}

	if err := os.WriteFile(filepath.Join(dir, "direction"), []byte("in"), 0o600); err != nil {
		return errtrace.Wrap(fmt.Errorf("set gpio %d direction: %w", cfg.Pin, err))
	}

	r.mu.Lock()
	r.cfg = &cfg
	r.mu.Unlock()
	return nil
}

// IsPressed reads the pin and compares it with the configured pressed value.
func (r *SysfsReader) IsPressed() (bool, error) {
	r.mu.Lock()
	cfg := r.cfg
	r.mu.Unlock()
	if cfg == nil {
		return false, errtrace.Wrap(ErrNotInitialized)
	}

	b, err := os.ReadFile(filepath.Join(r.pinDir(cfg.Pin), "value"))
	if err != nil {
		return false, errtrace.Wrap(fmt.Errorf("read gpio %d: %w", cfg.Pin, err))
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return false, errtrace.Wrap(fmt.Errorf("parse gpio %d value: %w", cfg.Pin, err))
	}
	return v == cfg.PressedValue, nil
}
