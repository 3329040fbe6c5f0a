// Package terminal implements the hal.HAL backend in a text terminal using
// tcell. Two pixel rows share one character cell through half blocks.
package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kapitanov/chip8/internal/display"
	"github.com/kapitanov/chip8/internal/hal"
)

const (
	cols = display.Width
	rows = display.Height / 2

	logLines = 4

	// Terminals report key repeats but never releases. A key counts as held
	// until no repeat has been seen for keyTimeout.
	keyTimeout = 100 * time.Millisecond
)

type HAL struct {
	screen  tcell.Screen
	logs    *logBuffer
	prevLog *slog.Logger

	held map[string]time.Time
	now  func() time.Time
}

var _ hal.HAL = (*HAL)(nil)

// New takes over the controlling terminal.
func New(level slog.Leveler) (*HAL, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal screen: %w", err)
	}
	return NewWithScreen(screen, level)
}

// NewWithScreen runs on an existing, not yet initialized screen.
func NewWithScreen(screen tcell.Screen, level slog.Leveler) (*HAL, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	h := &HAL{
		screen:  screen,
		logs:    newLogBuffer(100),
		prevLog: slog.Default(),
		held:    make(map[string]time.Time),
		now:     time.Now,
	}

	slog.SetDefault(slog.New(&logHandler{buffer: h.logs, level: level}))
	slog.Info("terminal backend initialized")

	return h, nil
}

func (h *HAL) Shutdown() {
	h.screen.Fini()
	slog.SetDefault(h.prevLog)
	h.logs.flush(os.Stderr)
}

func (h *HAL) ReadInput(keyDown func(string), keyUp func(string)) error {
	now := h.now()

	for h.screen.HasPendingEvent() {
		switch ev := h.screen.PollEvent().(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return hal.ErrQuit
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				return hal.ErrReboot
			case tcell.KeyRune:
				name := strings.ToUpper(string(ev.Rune()))
				if _, ok := h.held[name]; !ok {
					keyDown(name)
				}
				h.held[name] = now
			}

		case *tcell.EventResize:
			h.screen.Sync()
		}
	}

	for name, last := range h.held {
		if now.Sub(last) >= keyTimeout {
			delete(h.held, name)
			keyUp(name)
		}
	}

	return nil
}

var (
	pixelStyle = tcell.StyleDefault.Foreground(tcell.NewHexColor(0xbea700)).Background(tcell.ColorBlack)
	logStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorBlack)
)

func (h *HAL) Draw(b *display.Bitmap) error {
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			h.screen.SetContent(x, y, halfBlock(b.At(x, 2*y), b.At(x, 2*y+1)), nil, pixelStyle)
		}
	}

	width, _ := h.screen.Size()
	for i, line := range h.logs.recent(logLines) {
		y := rows + 1 + i
		for x := 0; x < width; x++ {
			r := ' '
			if x < len(line) {
				r = rune(line[x])
			}
			h.screen.SetContent(x, y, r, nil, logStyle)
		}
	}

	h.screen.Show()
	return nil
}

func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	default:
		return ' '
	}
}
