package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const recorderBitDepth = 16

// Recorder renders the speaker signal into a mono 16-bit WAV file. The gate
// state is sampled once per frame: EndFrame appends one frame's worth of
// samples, a tone if the speaker is on and silence otherwise.
type Recorder struct {
	path            string
	samplesPerFrame int

	playing   bool
	frequency float64
	osc       oscillator
	data      []int
}

func NewRecorder(path string, fps int) *Recorder {
	if fps <= 0 {
		fps = 60
	}
	return &Recorder{
		path:            path,
		samplesPerFrame: SampleRate / fps,
	}
}

func (r *Recorder) Play(frequency float64) {
	r.playing = true
	r.frequency = frequency
}

func (r *Recorder) Stop() {
	r.playing = false
}

func (r *Recorder) EndFrame() error {
	scale := float64(math.MaxInt16) / amplitude

	for i := 0; i < r.samplesPerFrame; i++ {
		if !r.playing {
			r.osc.reset()
			r.data = append(r.data, 0)
			continue
		}
		r.data = append(r.data, int(r.osc.next(r.frequency)*scale))
	}
	return nil
}

// Samples returns the recorded samples.
func (r *Recorder) Samples() []int {
	return r.data
}

// Close writes the WAV file.
func (r *Recorder) Close() (rerr error) {
	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", r.path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed to close %q: %w", r.path, err)
		}
	}()

	enc := wav.NewEncoder(f, SampleRate, recorderBitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           r.data,
		SourceBitDepth: recorderBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to encode %q: %w", r.path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize %q: %w", r.path, err)
	}

	slog.Info("audio: recording saved", "path", r.path, "samples", len(r.data))
	return nil
}
