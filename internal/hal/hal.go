// Package hal defines the host platform the emulator runs on: a surface to
// draw frames to and a source of keyboard events.
package hal

import (
	"errors"

	"github.com/kapitanov/chip8/internal/display"
)

var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

// HAL is implemented by each host backend.
type HAL interface {
	display.Renderer

	// ReadInput drains pending host events, reporting key transitions by
	// physical key name. It returns ErrQuit or ErrReboot when the user asks
	// for it.
	ReadInput(keyDown func(name string), keyUp func(name string)) error

	Shutdown()
}
