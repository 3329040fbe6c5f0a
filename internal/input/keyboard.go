// Package input tracks the state of the 16-key hex keypad.
package input

import (
	"log/slog"

	"github.com/kapitanov/chip8/internal/vm"
)

// Keyboard holds the pressed state of each keypad key. It is driven by a
// backend through Press/Release (physical names) or KeyDown/KeyUp (keypad
// keys) and queried by the engine.
type Keyboard struct {
	keymap   Keymap
	pressed  [vm.KeyCount]bool
	next     func(vm.Key)
	handlers []func(vm.Key)
}

func NewKeyboard(keymap Keymap) *Keyboard {
	if keymap == nil {
		keymap = DefaultKeymap
	}
	return &Keyboard{keymap: keymap}
}

// Press handles a key-down of a physical key. Unmapped keys are ignored and
// reported as false.
func (k *Keyboard) Press(name string) bool {
	key, ok := k.keymap.Lookup(name)
	if ok {
		k.KeyDown(key)
	}
	return ok
}

// Release handles a key-up of a physical key.
func (k *Keyboard) Release(name string) bool {
	key, ok := k.keymap.Lookup(name)
	if ok {
		k.KeyUp(key)
	}
	return ok
}

func (k *Keyboard) KeyDown(key vm.Key) {
	key &= 0x0F
	k.pressed[key] = true
	slog.Debug("key down", "key", key)

	if next := k.next; next != nil {
		k.next = nil
		next(key)
	}

	for _, h := range k.handlers {
		h(key)
	}
}

func (k *Keyboard) KeyUp(key vm.Key) {
	k.pressed[key&0x0F] = false
}

func (k *Keyboard) IsKeyPressed(key vm.Key) bool {
	return k.pressed[key&0x0F]
}

// Clear releases every key and drops a pending OnNextKeyPress registration.
// Handlers registered with OnKeyPress are kept.
func (k *Keyboard) Clear() {
	clear(k.pressed[:])
	k.next = nil
}

// OnNextKeyPress registers fn to be called on the next key down only. A new
// registration replaces a pending one.
func (k *Keyboard) OnNextKeyPress(fn func(vm.Key)) {
	k.next = fn
}

// OnKeyPress registers fn to be called on every key down.
func (k *Keyboard) OnKeyPress(fn func(vm.Key)) {
	k.handlers = append(k.handlers, fn)
}

// Pending reports whether an OnNextKeyPress registration is waiting.
func (k *Keyboard) Pending() bool {
	return k.next != nil
}
