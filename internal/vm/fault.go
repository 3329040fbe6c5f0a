package vm

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrStackOverflow   = errors.New("stack overflow")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrProgramTooLarge = errors.New("program too large")
)

// Fault is an unrecoverable execution error. It halts the engine until the
// next Reset.
type Fault struct {
	Addr   uint16 // Address the opcode was fetched from
	Opcode uint16
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("0x%04X: opcode 0x%04X: %v", f.Addr, f.Opcode, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
