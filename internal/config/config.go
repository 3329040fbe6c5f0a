// Package config holds the run options of the emulator.
package config

import (
	"errors"
	"fmt"

	"github.com/kapitanov/chip8/internal/vm"
)

type Backend string

const (
	BackendSDL      Backend = "sdl"
	BackendTerminal Backend = "terminal"
	BackendHeadless Backend = "headless"
)

var Backends = []Backend{BackendSDL, BackendTerminal, BackendHeadless}

const (
	DefaultFPS   = 60
	DefaultScale = 16
	MaxFPS       = 1000
)

type Config struct {
	Speed     int     // Instructions per tick
	FPS       int     // Ticks per second
	Frequency float64 // Speaker tone, Hz
	Backend   Backend
	Frames    int // Headless frame budget
	Scale     int // SDL window pixel scale
	RomDir    string
	Snapshot  string // Headless: final frame as text
	Record    string // WAV output instead of live audio
	Mute      bool
	Verbose   bool
}

func Default() Config {
	return Config{
		Speed:     vm.DefaultSpeed,
		FPS:       DefaultFPS,
		Frequency: vm.DefaultFrequency,
		Backend:   BackendSDL,
		Scale:     DefaultScale,
	}
}

var errInvalid = errors.New("invalid configuration")

func (c Config) Validate() error {
	if c.Speed < 1 {
		return fmt.Errorf("%w: speed must be at least 1, got %d", errInvalid, c.Speed)
	}
	if c.FPS < 1 || c.FPS > MaxFPS {
		return fmt.Errorf("%w: fps must be within 1..%d, got %d", errInvalid, MaxFPS, c.FPS)
	}
	if c.Frequency <= 0 {
		return fmt.Errorf("%w: frequency must be positive, got %g", errInvalid, c.Frequency)
	}
	if c.Scale < 1 {
		return fmt.Errorf("%w: scale must be at least 1, got %d", errInvalid, c.Scale)
	}

	switch c.Backend {
	case BackendSDL, BackendTerminal:
		if c.Snapshot != "" {
			return fmt.Errorf("%w: snapshot requires the %s backend", errInvalid, BackendHeadless)
		}
	case BackendHeadless:
		if c.Frames <= 0 {
			return fmt.Errorf("%w: %s backend requires a positive frame count", errInvalid, BackendHeadless)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q, expected one of %v", errInvalid, c.Backend, Backends)
	}

	return nil
}

// IsInvalid reports whether err came from Validate.
func IsInvalid(err error) bool {
	return errors.Is(err, errInvalid)
}
