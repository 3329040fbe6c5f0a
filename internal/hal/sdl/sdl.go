// Package sdl implements the hal.HAL backend on an SDL2 window.
package sdl

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/kapitanov/chip8/internal/display"
	"github.com/kapitanov/chip8/internal/hal"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	bgColor = uint32(0x000000)
	fgColor = uint32(0xbea700)
)

type HAL struct {
	window          *sdl.Window
	renderer        *sdl.Renderer
	texture         *sdl.Texture
	backBuffer      []uint32
	backBufferPitch int
}

var _ hal.HAL = (*HAL)(nil)

func New(title string, scale int) (*HAL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	width, height := int32(display.Width*scale), int32(display.Height*scale)

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, width, height, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window", "width", width, "height", height)

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to create sdl renderer: %w", err)
	}
	if err := renderer.SetLogicalSize(width, height); err != nil {
		_ = renderer.Destroy()
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to resize sdl renderer: %w", err)
	}
	slog.Debug("hal: create renderer")

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, display.Width, display.Height)
	if err != nil {
		_ = renderer.Destroy()
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to create sdl texture: %w", err)
	}
	slog.Debug("hal: create texture")

	return &HAL{
		window:          window,
		renderer:        renderer,
		texture:         texture,
		backBuffer:      make([]uint32, display.Width*display.Height),
		backBufferPitch: display.Width * int(unsafe.Sizeof(uint32(0))),
	}, nil
}

func (h *HAL) Shutdown() {
	if err := h.texture.Destroy(); err != nil {
		slog.Error("failed to destroy sdl texture", "err", err)
	}

	if err := h.renderer.Destroy(); err != nil {
		slog.Error("failed to destroy sdl renderer", "err", err)
	}

	if err := h.window.Destroy(); err != nil {
		slog.Error("failed to destroy sdl window", "err", err)
	}

	sdl.Quit()
}

func (h *HAL) ReadInput(keyDown func(string), keyUp func(string)) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e := e.(type) {
		case *sdl.QuitEvent:
			slog.Debug("hal: exit requested")
			return hal.ErrQuit

		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}

			switch e.Keysym.Scancode {
			case sdl.SCANCODE_ESCAPE:
				if e.Type == sdl.KEYDOWN {
					return hal.ErrQuit
				}
				continue
			case sdl.SCANCODE_BACKSPACE:
				if e.Type == sdl.KEYDOWN {
					return hal.ErrReboot
				}
				continue
			}

			name := sdl.GetScancodeName(e.Keysym.Scancode)
			if e.Type == sdl.KEYDOWN {
				keyDown(name)
			} else {
				keyUp(name)
			}
		}
	}

	return nil
}

func (h *HAL) Draw(b *display.Bitmap) error {
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			color := bgColor
			if b.At(x, y) {
				color = fgColor
			}

			h.backBuffer[x+y*display.Width] = color
		}
	}

	backBufferPtr := unsafe.Pointer(&h.backBuffer[0])
	if err := h.texture.Update(nil, backBufferPtr, h.backBufferPitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := h.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}

	if err := h.renderer.Copy(h.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	h.renderer.Present()
	return nil
}
