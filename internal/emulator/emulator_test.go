package emulator

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/kapitanov/chip8/internal/audio"
	"github.com/kapitanov/chip8/internal/config"
	"github.com/kapitanov/chip8/internal/display"
	"github.com/kapitanov/chip8/internal/hal"
	"github.com/kapitanov/chip8/internal/hal/headless"
	"github.com/kapitanov/chip8/internal/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedHAL replays one input step per ReadInput call.
type scriptedHAL struct {
	steps    []func(keyDown, keyUp func(string)) error
	frames   int
	shutdown bool
}

func (h *scriptedHAL) ReadInput(keyDown, keyUp func(string)) error {
	if len(h.steps) == 0 {
		return nil
	}
	step := h.steps[0]
	h.steps = h.steps[1:]
	if step == nil {
		return nil
	}
	return step(keyDown, keyUp)
}

func (h *scriptedHAL) Draw(*display.Bitmap) error {
	h.frames++
	return nil
}

func (h *scriptedHAL) Shutdown() { h.shutdown = true }

type testSpeaker struct {
	playing bool
	stops   int
}

func (s *testSpeaker) Play(float64) { s.playing = true }
func (s *testSpeaker) Stop() {
	s.playing = false
	s.stops++
}

func program(ops ...uint16) []byte {
	bs := make([]byte, 0, 2*len(ops))
	for _, op := range ops {
		bs = append(bs, byte(op>>8), byte(op))
	}
	return bs
}

func testConfig(speed int) config.Config {
	cfg := config.Default()
	cfg.Speed = speed
	cfg.FPS = config.MaxFPS
	return cfg
}

func newTestEmulator(t *testing.T, h hal.HAL, speaker vm.Speaker, speed int, rom []byte) *Emulator {
	t.Helper()

	e := New(testConfig(speed), h, speaker, vm.WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, e.LoadROM(rom))
	t.Cleanup(e.Stop)
	return e
}

func TestLoadROM_StartsLoop(t *testing.T) {
	e := New(testConfig(10), &scriptedHAL{}, nil)
	assert.False(t, e.Running())

	require.NoError(t, e.LoadROM(program(0x6001)))
	assert.True(t, e.Running())
	assert.Equal(t, vm.ProgramStart, e.VM().PC())
	assert.Equal(t, uint8(0x60), e.VM().Memory(vm.ProgramStart))

	e.Stop()
	assert.False(t, e.Running())
}

func TestLoadROM_TooLarge(t *testing.T) {
	e := New(testConfig(10), &scriptedHAL{}, nil)

	err := e.LoadROM(make([]byte, vm.MaxProgramSize+1))
	assert.ErrorIs(t, err, vm.ErrProgramTooLarge)
	assert.False(t, e.Running())
}

func TestStartStop_Idempotent(t *testing.T) {
	speaker := &testSpeaker{}
	e := New(testConfig(10), &scriptedHAL{}, speaker)
	stops := speaker.stops

	e.Start()
	e.Start()
	assert.True(t, e.Running())

	e.Stop()
	e.Stop()
	assert.False(t, e.Running())
	assert.Equal(t, stops+1, speaker.stops)
}

func TestTick_RunsOneCycle(t *testing.T) {
	h := &scriptedHAL{}
	// v0 += 1 forever
	e := newTestEmulator(t, h, nil, 5, program(0x7001, 0x1200))

	for i := 0; i < 3; i++ {
		require.NoError(t, e.Tick())
	}

	assert.Equal(t, uint64(15), e.VM().Executed())
	assert.Equal(t, 3, h.frames)
	assert.Equal(t, uint64(3), e.Screen().Frames())
}

func TestTick_KeyResolvesWait(t *testing.T) {
	h := &scriptedHAL{
		steps: []func(keyDown, keyUp func(string)) error{
			nil,
			func(keyDown, _ func(string)) error {
				keyDown("W")
				return nil
			},
		},
	}
	e := newTestEmulator(t, h, nil, 10, program(0xF10A, 0x1202))

	require.NoError(t, e.Tick())
	assert.Equal(t, vm.WaitingForKey, e.VM().State())
	assert.Equal(t, 1, h.frames)

	require.NoError(t, e.Tick())
	assert.Equal(t, vm.Running, e.VM().State())
	assert.Equal(t, uint8(0x5), e.VM().Register(1))
	assert.True(t, e.Keyboard().IsKeyPressed(vm.Key5))
}

func TestTick_KeyRelease(t *testing.T) {
	h := &scriptedHAL{
		steps: []func(keyDown, keyUp func(string)) error{
			func(keyDown, _ func(string)) error {
				keyDown("1")
				keyDown("unmapped")
				return nil
			},
			func(_, keyUp func(string)) error {
				keyUp("1")
				return nil
			},
		},
	}
	e := newTestEmulator(t, h, nil, 1, program(0x1200))

	require.NoError(t, e.Tick())
	assert.True(t, e.Keyboard().IsKeyPressed(vm.Key1))

	require.NoError(t, e.Tick())
	assert.False(t, e.Keyboard().IsKeyPressed(vm.Key1))
}

func TestTick_Reboot(t *testing.T) {
	h := &scriptedHAL{
		steps: []func(keyDown, keyUp func(string)) error{
			nil,
			func(_, _ func(string)) error { return hal.ErrReboot },
		},
	}
	e := newTestEmulator(t, h, nil, 1, program(0x6007, 0x1202))

	require.NoError(t, e.Tick())
	assert.Equal(t, uint8(7), e.VM().Register(0))

	require.NoError(t, e.Tick())
	assert.Equal(t, uint8(0), e.VM().Register(0))
	assert.Equal(t, vm.ProgramStart, e.VM().PC())
	assert.Equal(t, uint64(0), e.VM().Executed())
	assert.True(t, e.Running())

	require.NoError(t, e.Tick())
	assert.Equal(t, uint8(7), e.VM().Register(0))
}

func TestTick_Fault(t *testing.T) {
	h := &scriptedHAL{}
	e := newTestEmulator(t, h, nil, 10, program(0x6001, 0x0123))

	err := e.Tick()
	require.ErrorIs(t, err, vm.ErrUnknownOpcode)

	var fault *vm.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, uint16(0x202), fault.Addr)
	assert.Equal(t, uint16(0x0123), fault.Opcode)

	assert.ErrorIs(t, e.Tick(), vm.ErrUnknownOpcode)
	assert.Equal(t, 0, h.frames)
}

func TestTick_AudioFrames(t *testing.T) {
	rec := audio.NewRecorder("", 60)
	// v0 = 10, sound timer = v0, spin
	e := newTestEmulator(t, &scriptedHAL{}, rec, 3, program(0x600A, 0xF018, 0x1204))

	require.NoError(t, e.Tick())
	require.NoError(t, e.Tick())

	samples := rec.Samples()
	require.Len(t, samples, 2*audio.SampleRate/60)
	assert.NotZero(t, samples[0])
}

func TestRun_QuitsAfterFrames(t *testing.T) {
	h := headless.New(3, "")
	e := newTestEmulator(t, h, nil, 2, program(0x7001, 0x1200))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, e.Run(ctx))
	assert.Equal(t, 3, h.Frames())
	assert.Equal(t, uint64(6), e.VM().Executed())
	assert.False(t, e.Running())
}

func TestRun_Cancelled(t *testing.T) {
	speaker := &testSpeaker{}
	e := newTestEmulator(t, headless.New(0, ""), speaker, 1, program(0x1200))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, e.Run(ctx))
	assert.False(t, e.Running())
	assert.False(t, speaker.playing)
}

func TestRun_Fault(t *testing.T) {
	e := newTestEmulator(t, headless.New(0, ""), nil, 1, program(0x00EE))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.ErrorIs(t, e.Run(ctx), vm.ErrStackUnderflow)
}
