// Package headless implements a hal.HAL without a window or terminal. It
// runs for a fixed number of frames and can dump the last frame to a file.
package headless

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kapitanov/chip8/internal/display"
	"github.com/kapitanov/chip8/internal/hal"
)

type HAL struct {
	maxFrames int
	snapshot  string

	frames int
	last   display.Bitmap
}

var _ hal.HAL = (*HAL)(nil)

// New returns a backend that quits after maxFrames frames. Zero means run
// until the context is cancelled. A non-empty snapshot path receives the
// final frame on Shutdown.
func New(maxFrames int, snapshot string) *HAL {
	return &HAL{maxFrames: maxFrames, snapshot: snapshot}
}

func (h *HAL) ReadInput(func(string), func(string)) error {
	if h.maxFrames > 0 && h.frames >= h.maxFrames {
		return hal.ErrQuit
	}
	return nil
}

func (h *HAL) Draw(b *display.Bitmap) error {
	h.frames++
	h.last = *b
	return nil
}

func (h *HAL) Frames() int { return h.frames }

// Last returns the most recently drawn frame.
func (h *HAL) Last() *display.Bitmap { return &h.last }

func (h *HAL) Shutdown() {
	if h.snapshot == "" {
		return
	}

	if err := h.WriteSnapshot(h.snapshot); err != nil {
		slog.Error("failed to write snapshot", "err", err)
		return
	}
	slog.Info("snapshot written", "path", h.snapshot, "frames", h.frames)
}

func (h *HAL) WriteSnapshot(path string) error {
	data := fmt.Sprintf("# frame %d\n%s", h.frames, h.last.String())
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", path, err)
	}
	return nil
}
