package terminal

import (
	"log/slog"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kapitanov/chip8/internal/display"
	"github.com/kapitanov/chip8/internal/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHAL(t *testing.T) (*HAL, tcell.SimulationScreen) {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	h, err := NewWithScreen(screen, slog.LevelInfo)
	require.NoError(t, err)
	screen.SetSize(80, 24)

	t.Cleanup(h.Shutdown)
	return h, screen
}

type keyLog struct {
	down []string
	up   []string
}

func (k *keyLog) keyDown(name string) { k.down = append(k.down, name) }
func (k *keyLog) keyUp(name string)   { k.up = append(k.up, name) }

func TestReadInput_PressAndRelease(t *testing.T) {
	h, screen := newTestHAL(t)

	now := time.Unix(0, 0)
	h.now = func() time.Time { return now }

	var keys keyLog
	screen.InjectKey(tcell.KeyRune, 'w', tcell.ModNone)
	require.NoError(t, h.ReadInput(keys.keyDown, keys.keyUp))
	assert.Equal(t, []string{"W"}, keys.down)
	assert.Empty(t, keys.up)

	// A repeat within the timeout keeps the key held without a second press.
	now = now.Add(50 * time.Millisecond)
	screen.InjectKey(tcell.KeyRune, 'w', tcell.ModNone)
	require.NoError(t, h.ReadInput(keys.keyDown, keys.keyUp))
	assert.Equal(t, []string{"W"}, keys.down)
	assert.Empty(t, keys.up)

	now = now.Add(keyTimeout)
	require.NoError(t, h.ReadInput(keys.keyDown, keys.keyUp))
	assert.Equal(t, []string{"W"}, keys.up)
}

func TestReadInput_ControlKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		want error
	}{
		{"escape", tcell.KeyEscape, hal.ErrQuit},
		{"ctrl-c", tcell.KeyCtrlC, hal.ErrQuit},
		{"backspace", tcell.KeyBackspace2, hal.ErrReboot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, screen := newTestHAL(t)
			var keys keyLog

			screen.InjectKey(tt.key, 0, tcell.ModNone)
			err := h.ReadInput(keys.keyDown, keys.keyUp)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, keys.down)
		})
	}
}

func TestDraw_HalfBlocks(t *testing.T) {
	h, screen := newTestHAL(t)

	var b display.Bitmap
	b.SetPixel(0, 0)
	b.SetPixel(1, 1)
	b.SetPixel(2, 0)
	b.SetPixel(2, 1)

	require.NoError(t, h.Draw(&b))

	cells, width, _ := screen.GetContents()
	runeAt := func(x, y int) rune { return cells[y*width+x].Runes[0] }

	assert.Equal(t, '▀', runeAt(0, 0))
	assert.Equal(t, '▄', runeAt(1, 0))
	assert.Equal(t, '█', runeAt(2, 0))
	assert.Equal(t, ' ', runeAt(3, 0))
}

func TestHalfBlock(t *testing.T) {
	assert.Equal(t, ' ', halfBlock(false, false))
	assert.Equal(t, '▀', halfBlock(true, false))
	assert.Equal(t, '▄', halfBlock(false, true))
	assert.Equal(t, '█', halfBlock(true, true))
}

func TestLogBuffer(t *testing.T) {
	lb := newLogBuffer(3)
	assert.Empty(t, lb.recent(5))

	for _, line := range []string{"a", "b", "c", "d"} {
		lb.add(line)
	}

	assert.Equal(t, []string{"b", "c", "d"}, lb.recent(5))
	assert.Equal(t, []string{"c", "d"}, lb.recent(2))
}

func TestLogHandler(t *testing.T) {
	lb := newLogBuffer(10)
	logger := slog.New(&logHandler{buffer: lb, level: slog.LevelInfo}).With("rom", "PONG")

	logger.Debug("hidden")
	logger.Info("loaded", "n", 246)

	assert.Equal(t, []string{"INFO loaded rom=PONG n=246"}, lb.recent(10))
}
