// Package rom loads CHIP-8 program images from disk or over HTTP.
package rom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kapitanov/chip8/internal/vm"
)

var (
	ErrEmpty    = errors.New("rom is empty")
	ErrTooLarge = errors.New("rom too large")
)

// Known lists the classic public domain ROMs by file name.
var Known = []string{
	"15PUZZLE",
	"BLINKY",
	"BLITZ",
	"BRIX",
	"CONNECT4",
	"GUESS",
	"HIDDEN",
	"IBM",
	"INVADERS",
	"KALEID",
	"MAZE",
	"MERLIN",
	"MISSILE",
	"PONG",
	"PONG2",
	"PUZZLE",
	"SYZYGY",
	"TANK",
	"TETRIS",
	"TICTAC",
	"UFO",
	"VBRIX",
	"VERS",
	"WIPEOFF",
}

// IsKnown reports whether name is one of the Known ROMs, ignoring case.
func IsKnown(name string) bool {
	for _, k := range Known {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// Resolve maps a Known ROM name to a path under dir. Any other source is
// returned unchanged.
func Resolve(dir, src string) string {
	if dir == "" || !IsKnown(src) {
		return src
	}
	return filepath.Join(dir, strings.ToUpper(src))
}

// Load reads a ROM from a file path or an http(s) URL.
func Load(ctx context.Context, src string) ([]byte, error) {
	var (
		bs  []byte
		err error
	)

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		bs, err = fetch(ctx, src)
	} else {
		bs, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load rom %q: %w", src, err)
	}

	if err := validate(bs); err != nil {
		return nil, fmt.Errorf("unable to load rom %q: %w", src, err)
	}

	slog.Debug("rom loaded", "src", src, "n", len(bs))
	return bs, nil
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	// Read one byte past the limit so oversized images are detected.
	return io.ReadAll(io.LimitReader(resp.Body, int64(vm.MaxProgramSize)+1))
}

func validate(bs []byte) error {
	if len(bs) == 0 {
		return ErrEmpty
	}
	if len(bs) > vm.MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, len(bs), vm.MaxProgramSize)
	}
	return nil
}
