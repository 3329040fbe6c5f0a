// Package audio provides the speakers gated by the sound timer.
package audio

import "math"

const (
	SampleRate = 44100
	amplitude  = 0.25
)

// Mute discards every request.
type Mute struct{}

func (Mute) Play(float64) {}
func (Mute) Stop()        {}

// oscillator produces a square wave.
type oscillator struct {
	phase float64
}

// next returns the next sample at the given frequency in [-amplitude, amplitude].
func (o *oscillator) next(frequency float64) float64 {
	o.phase += frequency / SampleRate
	o.phase -= math.Floor(o.phase)

	if o.phase < 0.5 {
		return amplitude
	}
	return -amplitude
}

func (o *oscillator) reset() {
	o.phase = 0
}
