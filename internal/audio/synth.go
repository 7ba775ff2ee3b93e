package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
)

// Tone describes a synthesized sound: a waveform at Freq, optionally
// sweeping to SweepTo, shaped by an exponential Decay envelope.
type Tone struct {
	Wave     string // sine, square, triangle, sawtooth, noise
	Freq     float64
	SweepTo  float64
	Duration time.Duration
	Decay    time.Duration
	Gain     float64
}

// Synthesize renders t into a buffer in the engine's format and registers
// it under name.
func (e *Engine) Synthesize(name string, t Tone) error {
	buf, err := render(e.format, t)
	if err != nil {
		return fmt.Errorf("synthesize %q: %w", name, err)
	}
	e.Register(name, buf)
	return nil
}

func render(f beep.Format, t Tone) (*beep.Buffer, error) {
	if t.Duration <= 0 {
		return nil, fmt.Errorf("duration %v", t.Duration)
	}
	if t.Wave != "noise" && (t.Freq <= 0 || t.Freq >= float64(f.SampleRate)/2) {
		return nil, fmt.Errorf("frequency %v out of range", t.Freq)
	}
	src, err := oscillator(f.SampleRate, t)
	if err != nil {
		return nil, err
	}
	n := f.SampleRate.N(t.Duration)
	gain := t.Gain
	if gain == 0 {
		gain = 1
	}
	buf := beep.NewBuffer(f)
	buf.Append(envelope(beep.Take(n, src), f.SampleRate, t.Decay, gain))
	return buf, nil
}

func oscillator(sr beep.SampleRate, t Tone) (beep.Streamer, error) {
	if t.SweepTo > 0 {
		return sweep(sr, t.Freq, t.SweepTo, sr.N(t.Duration)), nil
	}
	switch t.Wave {
	case "", "sine":
		return generators.SineTone(sr, t.Freq)
	case "square":
		return generators.SquareTone(sr, t.Freq)
	case "triangle":
		return generators.TriangleTone(sr, t.Freq)
	case "sawtooth":
		return generators.SawtoothTone(sr, t.Freq)
	case "noise":
		return noise(), nil
	}
	return nil, fmt.Errorf("unknown wave %q", t.Wave)
}

// sweep is a sine whose frequency glides linearly from f0 to f1 over n
// samples.
func sweep(sr beep.SampleRate, f0, f1 float64, n int) beep.Streamer {
	var phase float64
	i := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for k := range samples {
			frac := float64(i) / float64(max(n, 1))
			freq := f0 + (f1-f0)*frac
			v := math.Sin(2 * math.Pi * phase)
			samples[k] = [2]float64{v, v}
			phase += freq / float64(sr)
			phase -= math.Floor(phase)
			i++
		}
		return len(samples), true
	})
}

// noise is a deterministic xorshift noise source so synthesized banks are
// identical run to run.
func noise() beep.Streamer {
	state := uint32(2463534242)
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for k := range samples {
			state ^= state << 13
			state ^= state >> 17
			state ^= state << 5
			v := float64(state)/float64(math.MaxUint32)*2 - 1
			samples[k] = [2]float64{v, v}
		}
		return len(samples), true
	})
}

// envelope applies a fixed gain and, when decay > 0, an exponential decay
// with time constant decay.
func envelope(s beep.Streamer, sr beep.SampleRate, decay time.Duration, gain float64) beep.Streamer {
	var k float64
	if decay > 0 {
		k = math.Exp(-1 / (decay.Seconds() * float64(sr)))
	}
	amp := gain
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		for i := 0; i < n; i++ {
			samples[i][0] *= amp
			samples[i][1] *= amp
			if k > 0 {
				amp *= k
			}
		}
		return n, ok
	})
}
