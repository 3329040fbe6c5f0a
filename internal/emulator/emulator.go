// Package emulator drives the engine at a fixed frame rate: it pumps host
// input into the keypad, runs one engine cycle per tick and handles the
// quit and reboot requests of the backend.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kapitanov/chip8/internal/config"
	"github.com/kapitanov/chip8/internal/display"
	"github.com/kapitanov/chip8/internal/hal"
	"github.com/kapitanov/chip8/internal/input"
	"github.com/kapitanov/chip8/internal/vm"
)

// frameEnder is implemented by speakers that render audio per frame.
type frameEnder interface {
	EndFrame() error
}

type Emulator struct {
	machine  *vm.VM
	screen   *display.Screen
	keyboard *input.Keyboard
	hal      hal.HAL
	speaker  vm.Speaker

	interval time.Duration
	ticker   *time.Ticker
	tick     <-chan time.Time

	rom []byte
}

// New wires an engine to a backend. A nil speaker is silent.
func New(cfg config.Config, h hal.HAL, speaker vm.Speaker, opts ...vm.Option) *Emulator {
	fps := cfg.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}

	e := &Emulator{
		screen:   display.NewScreen(h),
		keyboard: input.NewKeyboard(input.DefaultKeymap),
		hal:      h,
		speaker:  speaker,
		interval: time.Second / time.Duration(fps),
	}

	opts = append([]vm.Option{
		vm.WithSpeed(cfg.Speed),
		vm.WithFrequency(cfg.Frequency),
		vm.WithSpeaker(speaker),
	}, opts...)

	e.machine = vm.New(e.screen, e.keyboard, opts...)
	return e
}

func (e *Emulator) VM() *vm.VM                { return e.machine }
func (e *Emulator) Screen() *display.Screen   { return e.screen }
func (e *Emulator) Keyboard() *input.Keyboard { return e.keyboard }

// Running reports whether the tick source is active.
func (e *Emulator) Running() bool {
	return e.ticker != nil
}

// Start begins scheduling ticks. Calling it while running does nothing.
func (e *Emulator) Start() {
	if e.ticker != nil {
		return
	}

	e.ticker = time.NewTicker(e.interval)
	e.tick = e.ticker.C
	slog.Debug("emulator started", "interval", e.interval)
}

// Stop cancels the pending tick and silences the speaker. Calling it while
// stopped does nothing.
func (e *Emulator) Stop() {
	if e.ticker == nil {
		return
	}

	e.ticker.Stop()
	e.ticker = nil
	e.tick = nil

	if e.speaker != nil {
		e.speaker.Stop()
	}
	slog.Debug("emulator stopped")
}

// LoadROM stops the loop, resets the engine, loads the program and starts
// the loop again. On error the emulator stays stopped.
func (e *Emulator) LoadROM(program []byte) error {
	e.Stop()
	e.machine.Reset()

	if err := e.machine.LoadProgram(program); err != nil {
		return fmt.Errorf("unable to load rom: %w", err)
	}
	e.rom = program

	e.Start()
	return nil
}

// Tick runs a single frame: input, one engine cycle, then the audio hook.
func (e *Emulator) Tick() error {
	err := e.hal.ReadInput(e.keyDown, e.keyUp)
	if errors.Is(err, hal.ErrReboot) {
		slog.Info("reboot requested")
		return e.LoadROM(e.rom)
	}
	if err != nil {
		return err
	}

	if err := e.machine.Cycle(); err != nil {
		return err
	}

	if fe, ok := e.speaker.(frameEnder); ok {
		if err := fe.EndFrame(); err != nil {
			return fmt.Errorf("failed to render audio frame: %w", err)
		}
	}
	return nil
}

// Run ticks until the backend quits, the engine faults or ctx is done.
// A quit request and a cancelled context both end Run without error.
func (e *Emulator) Run(ctx context.Context) error {
	e.Start()
	defer e.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("emulator interrupted", "executed", e.machine.Executed())
			return nil

		case <-e.tick:
			err := e.Tick()
			if errors.Is(err, hal.ErrQuit) {
				slog.Info("exit requested", "executed", e.machine.Executed(), "frames", e.screen.Frames())
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

func (e *Emulator) keyDown(name string) {
	if !e.keyboard.Press(name) {
		slog.Debug("unmapped key", "name", name)
	}
}

func (e *Emulator) keyUp(name string) {
	e.keyboard.Release(name)
}
