package vm

import (
	"context"
	"fmt"
	"log/slog"
)

func (vm *VM) executeOpcode(addr, opcode uint16) error {
	instr := decode(opcode)

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", addr),
			"opcode", fmt.Sprintf("0x%04x", opcode),
			"instr", instr.Name(opcode),
		)
	}

	return instr.Execute(vm, opcode)
}

// Disassemble returns the mnemonic for a single opcode.
func Disassemble(opcode uint16) string {
	return decode(opcode).Name(opcode)
}

type instruction struct {
	Name    func(opcode uint16) string
	Execute func(vm *VM, opcode uint16) error
}

func regX(opcode uint16) uint8     { return uint8((opcode & 0x0F00) >> 8) }
func regY(opcode uint16) uint8     { return uint8((opcode & 0x00F0) >> 4) }
func address(opcode uint16) uint16 { return opcode & 0x0FFF }
func imm(opcode uint16) uint8      { return uint8(opcode & 0x00FF) }
func nibble(opcode uint16) uint8   { return uint8(opcode & 0x000F) }

func decode(opcode uint16) instruction {
	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			// 00E0 - Clear screen
			return clsInstruction

		case 0x00EE:
			// 00EE - Return from subroutine
			return rtsInstruction
		}

	case 0x1000:
		// 1NNN - Jumps to address NNN
		return jmpInstruction

	case 0x2000:
		// 2NNN - Calls subroutine at NNN
		return jsrInstruction

	case 0x3000:
		// 3XNN - Skips the next instruction if VX equals NN
		return skeq1Instruction

	case 0x4000:
		// 4XNN - Skips the next instruction if VX does not equal NN
		return skne1Instruction

	case 0x5000:
		// 5XY0 - Skips the next instruction if VX equals VY
		if nibble(opcode) == 0 {
			return skeq2Instruction
		}

	case 0x6000:
		// 6XNN - Sets VX to NN
		return mov1Instruction

	case 0x7000:
		// 7XNN - Adds NN to VX, no carry
		return add1Instruction

	case 0x8000:
		// 8XY_
		switch opcode & 0x000F {
		case 0x0000:
			// 8XY0 - Sets VX to the value of VY
			return mov2Instruction

		case 0x0001:
			// 8XY1 - Sets VX to (VX OR VY)
			return orInstruction

		case 0x0002:
			// 8XY2 - Sets VX to (VX AND VY)
			return andInstruction

		case 0x0003:
			// 8XY3 - Sets VX to (VX XOR VY)
			return xorInstruction

		case 0x0004:
			// 8XY4 - Adds VY to VX. VF is set to 1 when the sum exceeds 0xFF.
			return add2Instruction

		case 0x0005:
			// 8XY5 - VY is subtracted from VX. VF is set to 1 when VX > VY.
			return subInstruction

		case 0x0006:
			// 8XY6 - Shifts VX right by one. VF is the bit shifted out.
			return shrInstruction

		case 0x0007:
			// 8XY7 - Sets VX to VY minus VX. VF is set to 0 when VX > VY.
			return rsbInstruction

		case 0x000E:
			// 8XYE - Shifts VX left by one. VF is the bit shifted out.
			return shlInstruction
		}

	case 0x9000:
		// 9XY0 - Skips the next instruction if VX doesn't equal VY
		if nibble(opcode) == 0 {
			return skne2Instruction
		}

	case 0xA000:
		// ANNN - Sets I to the address NNN
		return mviInstruction

	case 0xB000:
		// BNNN - Jumps to the address NNN plus V0
		return jmiInstruction

	case 0xC000:
		// CXNN - Sets VX to a random number, masked by NN
		return randInstruction

	case 0xD000:
		// DXYN - Draws an 8xN sprite read from I at (VX, VY).
		// VF is set to 1 if any pixel is flipped from set to unset.
		return spriteInstruction

	case 0xE000:
		switch opcode & 0x00FF {
		case 0x009E:
			// EX9E - Skips the next instruction if the key stored in VX is pressed
			return skprInstruction

		case 0x00A1:
			// EXA1 - Skips the next instruction if the key stored in VX isn't pressed
			return skupInstruction
		}

	case 0xF000:
		switch opcode & 0x00FF {
		case 0x0007:
			// FX07 - Sets VX to the value of the delay timer
			return gdelayInstruction

		case 0x000A:
			// FX0A - A key press is awaited, and then stored in VX
			return keyInstruction

		case 0x0015:
			// FX15 - Sets the delay timer to VX
			return sdelayInstruction

		case 0x0018:
			// FX18 - Sets the sound timer to VX
			return ssoundInstruction

		case 0x001E:
			// FX1E - Adds VX to I
			return adiInstruction

		case 0x0029:
			// FX29 - Sets I to the location of the font sprite for the digit in VX
			return fontInstruction

		case 0x0033:
			// FX33 - Stores the BCD representation of VX at I, I+1 and I+2
			return bcdInstruction

		case 0x0055:
			// FX55 - Stores V0 to VX in memory starting at address I
			return strInstruction

		case 0x0065:
			// FX65 - Reads memory starting at address I into V0...VX
			return ldrInstruction
		}
	}

	return unknownInstruction
}

var (
	// 00E0	cls	Clear the screen
	clsInstruction = instruction{
		Name: func(opcode uint16) string {
			return "cls"
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.display.Clear()
			return nil
		},
	}

	// 00EE	rts	return from subroutine call
	rtsInstruction = instruction{
		Name: func(opcode uint16) string {
			return "rts"
		},
		Execute: func(vm *VM, opcode uint16) error {
			pc, err := vm.stack.pop()
			if err != nil {
				return err
			}
			vm.pc = pc
			return nil
		},
	}

	// 1xxx	jmp xxx	jump to address xxx
	jmpInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("jmp 0x%03x", address(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.pc = address(opcode)
			return nil
		},
	}

	// 2xxx	jsr xxx	jump to subroutine at address xxx
	jsrInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("jsr 0x%03x", address(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			if err := vm.stack.push(vm.pc); err != nil {
				return err
			}
			vm.pc = address(opcode)
			return nil
		},
	}

	// 3rxx	skeq vr,xx	skip if register r = constant
	skeq1Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skeq v%x, %d", regX(opcode), imm(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			if vm.registers[regX(opcode)] == imm(opcode) {
				vm.pc += InstructionSize
			}
			return nil
		},
	}

	// 4rxx	skne vr,xx	skip if register r <> constant
	skne1Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skne v%x, %d", regX(opcode), imm(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			if vm.registers[regX(opcode)] != imm(opcode) {
				vm.pc += InstructionSize
			}
			return nil
		},
	}

	// 5ry0	skeq vr,vy	skip if register r = register y
	skeq2Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skeq v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			if vm.registers[regX(opcode)] == vm.registers[regY(opcode)] {
				vm.pc += InstructionSize
			}
			return nil
		},
	}

	// 6rxx	mov vr,xx	move constant to register r
	mov1Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("mov v%x, %d", regX(opcode), imm(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] = imm(opcode)
			return nil
		},
	}

	// 7rxx	add vr,xx	add constant to register r	No carry generated
	add1Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("add v%x, %d", regX(opcode), imm(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] += imm(opcode)
			return nil
		},
	}

	// 8ry0	mov vr,vy	move register vy into vr
	mov2Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("mov v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] = vm.registers[regY(opcode)]
			return nil
		},
	}

	// 8ry1	or rx,ry	or register vy into register vx
	orInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("or v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] |= vm.registers[regY(opcode)]
			return nil
		},
	}

	// 8ry2	and rx,ry	and register vy into register vx
	andInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("and v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] &= vm.registers[regY(opcode)]
			return nil
		},
	}

	// 8ry3	xor rx,ry	exclusive or register ry into register rx
	xorInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("xor v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] ^= vm.registers[regY(opcode)]
			return nil
		},
	}

	// 8ry4	add vr,vy	add register vy to vr,carry in vf
	add2Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("add v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			sum := uint16(vm.registers[vX]) + uint16(vm.registers[regY(opcode)])

			vm.registers[flag] = boolToFlag(sum > 0xFF)
			vm.registers[vX] = uint8(sum)
			return nil
		},
	}

	// 8ry5	sub vr,vy	subtract register vy from vr,vf set to 1 if vr > vy
	subInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("sub v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			x := vm.registers[vX]
			y := vm.registers[regY(opcode)]

			vm.registers[flag] = boolToFlag(x > y)
			vm.registers[vX] = x - y
			return nil
		},
	}

	// 8r06	shr vr	shift register vr right, bit 0 goes into register vf
	shrInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("shr v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			x := vm.registers[vX]

			vm.registers[flag] = x & 0x01
			vm.registers[vX] = x >> 1
			return nil
		},
	}

	// 8ry7	rsb vr,vy	subtract register vr from register vy, result in vr	vf set to 0 if vr > vy
	rsbInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("rsb v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			x := vm.registers[vX]
			y := vm.registers[regY(opcode)]

			vm.registers[flag] = boolToFlag(x <= y)
			vm.registers[vX] = y - x
			return nil
		},
	}

	// 8r0e	shl vr	shift register vr left,bit 7 goes into register vf
	shlInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("shl v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			x := vm.registers[vX]

			vm.registers[flag] = x >> 7
			vm.registers[vX] = x << 1
			return nil
		},
	}

	// 9ry0	skne vr,vy	skip if register r <> register y
	skne2Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skne v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			if vm.registers[regX(opcode)] != vm.registers[regY(opcode)] {
				vm.pc += InstructionSize
			}
			return nil
		},
	}

	// axxx	mvi xxx	Load index register with constant xxx
	mviInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("mvi 0x%03x", address(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.index = address(opcode)
			return nil
		},
	}

	// bxxx	jmi xxx	Jump to address xxx+register v0
	jmiInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("jmi 0x%03x", address(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.pc = address(opcode) + uint16(vm.registers[0])
			return nil
		},
	}

	// crxx	rand vr,xx	vr = random byte masked by xx
	randInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("rand v%x, 0x%02x", regX(opcode), imm(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] = uint8(vm.rnd.IntN(256)) & imm(opcode)
			return nil
		},
	}

	// drys	sprite vr,vy,s	Draw sprite at screen location vr,vy height s
	// Sprites are read from memory at the index register, 8 bits wide, and
	// wrap around the screen. All drawing is xor drawing; vf is set to 1 if
	// any pixel was cleared, 0 otherwise.
	spriteInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("sprite v%x, v%x, %d", regX(opcode), regY(opcode), nibble(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			xLocation := int(vm.registers[regX(opcode)])
			yLocation := int(vm.registers[regY(opcode)])
			height := int(nibble(opcode))

			vm.registers[flag] = 0

			for row := 0; row < height; row++ {
				pixel := vm.memory[(vm.index+uint16(row))&addrMask]

				const width = 8
				for col := 0; col < width; col++ {
					if pixel&(0x80>>col) == 0 {
						continue
					}

					if vm.display.SetPixel(xLocation+col, yLocation+row) {
						vm.registers[flag] = 1
					}
				}
			}

			return nil
		},
	}

	// ek9e	skpr k	skip if key (register rk) pressed
	skprInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skpr v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			if vm.input.IsKeyPressed(Key(vm.registers[regX(opcode)])) {
				vm.pc += InstructionSize
			}
			return nil
		},
	}

	// eka1	skup k	skip if key (register rk) not pressed
	skupInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skup v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			if !vm.input.IsKeyPressed(Key(vm.registers[regX(opcode)])) {
				vm.pc += InstructionSize
			}
			return nil
		},
	}

	// fr07	gdelay vr	get delay timer into vr
	gdelayInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("gdelay v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] = vm.delayTimer
			return nil
		},
	}

	// fr0a	key vr	wait for for keypress,put key in register vr
	keyInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("key v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.waitForKey(regX(opcode))
			return nil
		},
	}

	// fr15	sdelay vr	set the delay timer to vr
	sdelayInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("sdelay v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.delayTimer = vm.registers[regX(opcode)]
			return nil
		},
	}

	// fr18	ssound vr	set the sound timer to vr
	ssoundInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("ssound v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.soundTimer = vm.registers[regX(opcode)]
			return nil
		},
	}

	// fr1e	adi vr	add register vr to the index register
	adiInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("adi v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.index += uint16(vm.registers[regX(opcode)])
			return nil
		},
	}

	// fr29	font vr	point I to the sprite for hexadecimal character in vr	Sprite is 5 bytes high
	fontInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("font v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.index = uint16(vm.registers[regX(opcode)]) * FontGlyphSize
			return nil
		},
	}

	// fr33	bcd vr	store the bcd representation of register vr at location I,I+1,I+2	Doesn't change I
	bcdInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("bcd v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			x := vm.registers[regX(opcode)]

			vm.memory[vm.index&addrMask] = x / 100
			vm.memory[(vm.index+1)&addrMask] = (x / 10) % 10
			vm.memory[(vm.index+2)&addrMask] = x % 10
			return nil
		},
	}

	// fr55	str v0-vr	store registers v0-vr at location I onwards	Doesn't change I
	strInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("str v0-v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			n := uint16(regX(opcode))

			for i := uint16(0); i <= n; i++ {
				vm.memory[(vm.index+i)&addrMask] = vm.registers[i]
			}
			return nil
		},
	}

	// fr65	ldr v0-vr	load registers v0-vr from location I onwards	Doesn't change I
	ldrInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("ldr v0-v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			n := uint16(regX(opcode))

			for i := uint16(0); i <= n; i++ {
				vm.registers[i] = vm.memory[(vm.index+i)&addrMask]
			}
			return nil
		},
	}

	unknownInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("unknown 0x%04X", opcode)
		},
		Execute: func(vm *VM, opcode uint16) error {
			return ErrUnknownOpcode
		},
	}
)

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
