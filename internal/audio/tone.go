package audio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// Tone plays a square wave on the default audio device through oto. Play and
// Stop only flip an atomic gate; the oto player keeps pulling samples and
// gets silence while the gate is closed.
type Tone struct {
	ctx    *oto.Context
	player *oto.Player

	playing   atomic.Bool
	frequency atomic.Uint64 // math.Float64bits

	mu  sync.Mutex // guards osc, only touched from Read
	osc oscillator
}

func NewTone() (*Tone, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}
	<-ready

	t := &Tone{ctx: ctx}
	t.player = ctx.NewPlayer(t)
	t.player.Play()

	slog.Debug("audio: tone ready", "sample_rate", SampleRate)
	return t, nil
}

// Play opens the gate at frequency. Repeated calls while playing only update
// the frequency.
func (t *Tone) Play(frequency float64) {
	t.frequency.Store(math.Float64bits(frequency))
	if !t.playing.Swap(true) {
		slog.Debug("audio: tone on", "frequency", frequency)
	}
}

func (t *Tone) Stop() {
	if t.playing.Swap(false) {
		slog.Debug("audio: tone off")
	}
}

// Read implements io.Reader for the oto player.
func (t *Tone) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p) / 4
	playing := t.playing.Load()
	frequency := math.Float64frombits(t.frequency.Load())

	if !playing {
		t.osc.reset()
	}

	for i := 0; i < n; i++ {
		var sample float32
		if playing {
			sample = float32(t.osc.next(frequency))
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sample))
	}

	return n * 4, nil
}

func (t *Tone) Close() error {
	t.Stop()
	if t.player != nil {
		if err := t.player.Close(); err != nil {
			return fmt.Errorf("failed to close audio player: %w", err)
		}
		t.player = nil
	}
	return nil
}
