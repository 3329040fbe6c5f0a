// Package display implements the 64x32 monochrome framebuffer.
package display

import "strings"

const (
	Width  = 64
	Height = 32
)

// Bitmap is a one-bit-per-pixel framebuffer composed with XOR.
type Bitmap struct {
	cells [Width * Height]uint8
}

func (b *Bitmap) Clear() {
	clear(b.cells[:])
}

// SetPixel toggles the pixel at (x, y) and reports whether it became unset.
// Coordinates outside the screen wrap around, negative ones included.
func (b *Bitmap) SetPixel(x, y int) bool {
	i := offset(x, y)
	b.cells[i] ^= 1
	return b.cells[i] == 0
}

// At reports whether the pixel at (x, y) is set.
func (b *Bitmap) At(x, y int) bool {
	return b.cells[offset(x, y)] != 0
}

// Lit returns the number of set pixels.
func (b *Bitmap) Lit() int {
	n := 0
	for _, c := range b.cells {
		n += int(c)
	}
	return n
}

// String renders the bitmap as text, '#' for set and '.' for unset pixels.
func (b *Bitmap) String() string {
	var sb strings.Builder
	sb.Grow((Width + 1) * Height)

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if b.cells[y*Width+x] != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func offset(x, y int) int {
	return wrap(y, Height)*Width + wrap(x, Width)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Renderer copies a bitmap to an output surface.
type Renderer interface {
	Draw(b *Bitmap) error
}

// Screen is a Bitmap whose Render hook is delegated to a Renderer.
type Screen struct {
	Bitmap
	renderer Renderer
	frames   uint64
}

func NewScreen(renderer Renderer) *Screen {
	return &Screen{renderer: renderer}
}

// SetRenderer swaps the output surface. A nil renderer makes Render a no-op.
func (s *Screen) SetRenderer(renderer Renderer) {
	s.renderer = renderer
}

func (s *Screen) Render() error {
	s.frames++
	if s.renderer == nil {
		return nil
	}
	return s.renderer.Draw(&s.Bitmap)
}

// Frames returns how many times Render has been called.
func (s *Screen) Frames() uint64 {
	return s.frames
}
