package main

import (
	"fmt"
	"io"

	"github.com/kapitanov/chip8/internal/rom"
	"github.com/kapitanov/chip8/internal/vm"
	"github.com/spf13/cobra"
)

func newDisasmCommand() *cobra.Command {
	var romDir string

	cmd := &cobra.Command{
		Use:   "disasm PATH_TO_ROM_FILE",
		Short: "Print the instructions of a ROM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := rom.Load(cmd.Context(), rom.Resolve(romDir, args[0]))
			if err != nil {
				return err
			}
			return disassemble(cmd.OutOrStdout(), program)
		},
	}

	cmd.Flags().StringVar(&romDir, "rom-dir", "", "directory holding the known ROMs")
	return cmd
}

// disassemble prints one line per word of program, addressed as loaded.
// A trailing odd byte is printed as data.
func disassemble(w io.Writer, program []byte) error {
	addr := vm.ProgramStart

	for i := 0; i+1 < len(program); i += vm.InstructionSize {
		opcode := uint16(program[i])<<8 | uint16(program[i+1])
		if _, err := fmt.Fprintf(w, "0x%03X  %04X  %s\n", addr, opcode, vm.Disassemble(opcode)); err != nil {
			return err
		}
		addr += vm.InstructionSize
	}

	if len(program)%2 != 0 {
		if _, err := fmt.Fprintf(w, "0x%03X  %02X    db 0x%02x\n", addr, program[len(program)-1], program[len(program)-1]); err != nil {
			return err
		}
	}

	return nil
}
