package debug

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// Waveform selects what a SignalGenerator produces.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveNoise
	// WaveImpulse is a single full-scale sample followed by silence.
	WaveImpulse
	WaveSilence
)

var waveformNames = []string{"sine", "saw", "square", "noise", "impulse", "silence"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform parses the names printed by String.
func ParseWaveform(s string) (Waveform, error) {
	for i, name := range waveformNames {
		if strings.EqualFold(s, name) {
			return Waveform(i), nil
		}
	}
	return WaveSine, fmt.Errorf("unknown waveform %q, want one of %s", s, strings.Join(waveformNames, "|"))
}

// SignalGenerator produces test signals for driving a plugin. The phase is
// kept in [0, 1).
type SignalGenerator struct {
	wave      Waveform
	amplitude float32
	phase     float64
	phaseInc  float64
	fired     bool
	rng       *rand.Rand
}

// NewSignalGenerator creates a generator of wave at frequency Hz.
func NewSignalGenerator(wave Waveform, sampleRate, frequency float64, amplitude float32) *SignalGenerator {
	g := &SignalGenerator{
		wave:      wave,
		amplitude: amplitude,
		rng:       rand.New(rand.NewPCG(1, 2)),
	}
	if sampleRate > 0 {
		g.phaseInc = frequency / sampleRate
	}
	return g
}

// Reset restarts the signal from phase zero.
func (g *SignalGenerator) Reset() {
	g.phase = 0
	g.fired = false
	g.rng = rand.New(rand.NewPCG(1, 2))
}

// Next returns the next sample.
func (g *SignalGenerator) Next() float32 {
	var s float32
	switch g.wave {
	case WaveSine:
		s = float32(math.Sin(2 * math.Pi * g.phase))
	case WaveSaw:
		s = float32(2*g.phase - 1)
	case WaveSquare:
		s = 1
		if g.phase >= 0.5 {
			s = -1
		}
	case WaveNoise:
		s = float32(g.rng.Float64()*2 - 1)
	case WaveImpulse:
		if !g.fired {
			s, g.fired = 1, true
		}
	}
	g.phase += g.phaseInc
	if g.phase >= 1 {
		g.phase -= math.Floor(g.phase)
	}
	return s * g.amplitude
}

// Fill writes the next len(channels[0]) samples to every channel.
func (g *SignalGenerator) Fill(channels [][]float32) {
	if len(channels) == 0 {
		return
	}
	for i := range channels[0] {
		s := g.Next()
		for _, ch := range channels {
			ch[i] = s
		}
	}
}
