// Package button reads the door button.
package button

//go:generate errtrace -w .

import (
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/doorphone/internal/errorutil"
)

// ErrNotInitialized is returned by readers used before Setup.
const ErrNotInitialized errorutil.Error = "button reader is not initialized"

// Config selects the input pin and its asserted level.
type Config struct {
	// Pin is the GPIO number.
	Pin int `json:"pin" yaml:"pin" toml:"pin"`
	// PressedValue is the pin value read while the button is pressed.
	PressedValue int `json:"pressed_value" yaml:"pressed_value" toml:"pressed_value"`
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Pin < 0 {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid pin %d", c.Pin))
	}
	if c.PressedValue != 0 && c.PressedValue != 1 {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid pressed value %d", c.PressedValue))
	}
	return nil
}

// LogValue implements [slog.LogValuer].
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("pin", c.Pin),
		slog.Int("pressed_value", c.PressedValue),
	)
}

// Reader reads the button level.
type Reader interface {
	Setup(cfg Config) error
	IsPressed() (bool, error)
}
