package vm

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	InstructionSize = 2
	MaxProgramSize  = MemorySize - int(ProgramStart)

	DefaultSpeed     = 10
	DefaultFrequency = 440.0

	addrMask = 0x0FFF
	flag     = 0x0F
)

// Display is the framebuffer the engine draws into.
type Display interface {
	Clear()
	// SetPixel toggles the pixel at (x, y), wrapping both coordinates,
	// and reports whether the pixel became unset.
	SetPixel(x, y int) bool
	Render() error
}

// Input is the 16-key keypad.
type Input interface {
	IsKeyPressed(key Key) bool
	Clear()
	// OnNextKeyPress registers fn to be called once, on the next key down.
	OnNextKeyPress(fn func(Key))
}

// Speaker is the tone generator gated by the sound timer.
type Speaker interface {
	Play(frequency float64)
	Stop()
}

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

type State uint8

const (
	Running State = iota
	WaitingForKey
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case WaitingForKey:
		return "waiting-for-key"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

type VM struct {
	memory    [MemorySize]uint8    // Memory (4k)
	registers [RegisterCount]uint8 // V registers (V0-VF)
	stack     stack                // Return addresses

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	state   State
	waitReg uint8  // Register receiving the key while WaitingForKey
	fault   *Fault // Set when Halted

	executed uint64

	speed     int
	frequency float64
	rnd       *rand.Rand

	display Display
	input   Input
	speaker Speaker
}

type Option func(*VM)

// WithSpeed sets the number of instructions executed per Cycle.
func WithSpeed(speed int) Option {
	return func(vm *VM) {
		if speed > 0 {
			vm.speed = speed
		}
	}
}

// WithFrequency sets the tone frequency passed to the speaker.
func WithFrequency(frequency float64) Option {
	return func(vm *VM) {
		if frequency > 0 {
			vm.frequency = frequency
		}
	}
}

// WithRand replaces the random source used by Cxkk.
func WithRand(rnd *rand.Rand) Option {
	return func(vm *VM) {
		vm.rnd = rnd
	}
}

// WithSpeaker attaches a tone generator. Without one the sound timer is silent.
func WithSpeaker(speaker Speaker) Option {
	return func(vm *VM) {
		if speaker != nil {
			vm.speaker = speaker
		}
	}
}

func New(display Display, input Input, opts ...Option) *VM {
	vm := &VM{
		speed:     DefaultSpeed,
		frequency: DefaultFrequency,
		rnd:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		display:   display,
		input:     input,
		speaker:   silence{},
	}

	for _, opt := range opts {
		opt(vm)
	}

	vm.Reset()
	return vm
}

// Reset zeroes memory and registers, reloads the font set and clears the
// display, the keypad and any pending key wait or fault.
func (vm *VM) Reset() {
	vm.pc = ProgramStart
	vm.index = 0
	vm.stack.clear()

	clear(vm.registers[:])
	clear(vm.memory[:])

	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", 0), "n", len(chip8Font))
	copy(vm.memory[0:], chip8Font)

	vm.delayTimer = 0
	vm.soundTimer = 0
	vm.speaker.Stop()

	vm.display.Clear()
	vm.input.Clear()

	vm.state = Running
	vm.waitReg = 0
	vm.fault = nil
	vm.executed = 0
}

// LoadProgram copies a ROM image into memory at ProgramStart.
func (vm *VM) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrProgramTooLarge, len(program), MaxProgramSize)
	}

	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(program))
	copy(vm.memory[ProgramStart:], program)
	return nil
}

// Cycle executes up to speed instructions and renders once. Nothing is
// executed while the engine waits for a key; the frame is still rendered.
// A halted engine returns its fault without rendering.
func (vm *VM) Cycle() error {
	if vm.state == Halted {
		return vm.fault
	}

	for i := 0; i < vm.speed && vm.state == Running; i++ {
		if err := vm.Step(); err != nil {
			return err
		}
	}

	return vm.display.Render()
}

// Step fetches, executes and ticks the timers for a single instruction.
func (vm *VM) Step() error {
	if vm.state == Halted {
		return vm.fault
	}

	if err := vm.Perform(vm.fetchOpcode()); err != nil {
		return err
	}

	vm.updateTimers()
	return nil
}

// Perform executes one opcode as if it had just been fetched from PC.
func (vm *VM) Perform(opcode uint16) error {
	addr := vm.pc
	vm.pc += InstructionSize

	if err := vm.executeOpcode(addr, opcode); err != nil {
		vm.halt(&Fault{Addr: addr, Opcode: opcode, Err: err})
		return vm.fault
	}

	vm.executed++
	return nil
}

func (vm *VM) halt(fault *Fault) {
	slog.Error("vm halted", "err", fault)
	vm.state = Halted
	vm.fault = fault
	vm.speaker.Stop()
}

func (vm *VM) fetchOpcode() uint16 {
	hi := vm.memory[vm.pc&addrMask]
	lo := vm.memory[(vm.pc+1)&addrMask]

	opcode := uint16(hi)<<8 | uint16(lo) // Op code is two bytes
	return opcode
}

// updateTimers decrements both timers and re-derives the speaker state
// from the sound timer.
func (vm *VM) updateTimers() {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}

	if vm.soundTimer > 0 {
		vm.soundTimer--
	}

	if vm.soundTimer > 0 {
		vm.speaker.Play(vm.frequency)
	} else {
		vm.speaker.Stop()
	}
}

// waitForKey suspends execution until the keypad reports the next press.
func (vm *VM) waitForKey(register uint8) {
	vm.state = WaitingForKey
	vm.waitReg = register
	vm.input.OnNextKeyPress(vm.keyPressed)
}

func (vm *VM) keyPressed(key Key) {
	if vm.state != WaitingForKey {
		return
	}

	vm.registers[vm.waitReg] = uint8(key)
	vm.state = Running

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug("key wait resolved", "key", fmt.Sprintf("%X", uint8(key)), "reg", fmt.Sprintf("v%x", vm.waitReg))
	}
}

func (vm *VM) State() State         { return vm.state }
func (vm *VM) Fault() *Fault        { return vm.fault }
func (vm *VM) PC() uint16           { return vm.pc }
func (vm *VM) Index() uint16        { return vm.index }
func (vm *VM) DelayTimer() uint8    { return vm.delayTimer }
func (vm *VM) SoundTimer() uint8    { return vm.soundTimer }
func (vm *VM) Executed() uint64     { return vm.executed }
func (vm *VM) Speed() int           { return vm.speed }
func (vm *VM) StackDepth() int      { return vm.stack.len() }
func (vm *VM) Register(r int) uint8 { return vm.registers[r&0x0F] }

// Memory returns the byte at addr, masked to 12 bits.
func (vm *VM) Memory(addr uint16) uint8 {
	return vm.memory[addr&addrMask]
}

type silence struct{}

func (silence) Play(float64) {}
func (silence) Stop()        {}
