package input

import (
	"strings"

	"github.com/kapitanov/chip8/internal/vm"
)

// Keymap maps physical key names to keypad keys.
type Keymap map[string]vm.Key

// DefaultKeymap lays the hex keypad over the left side of a QWERTY keyboard.
//
//	Physical                Logical
//	================        =================
//	| 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
//	| Q | W | E | R |       | 4 | 5 | 6 | D |
//	| A | S | D | F |  <=>  | 7 | 8 | 9 | E |
//	| Z | X | C | V |       | A | 0 | B | F |
//	================        =================
var DefaultKeymap = Keymap{
	"1": vm.Key1, "2": vm.Key2, "3": vm.Key3, "4": vm.KeyC,
	"Q": vm.Key4, "W": vm.Key5, "E": vm.Key6, "R": vm.KeyD,
	"A": vm.Key7, "S": vm.Key8, "D": vm.Key9, "F": vm.KeyE,
	"Z": vm.KeyA, "X": vm.Key0, "C": vm.KeyB, "V": vm.KeyF,
}

// Lookup resolves a physical key name, ignoring case.
func (m Keymap) Lookup(name string) (vm.Key, bool) {
	key, ok := m[strings.ToUpper(name)]
	return key, ok
}
