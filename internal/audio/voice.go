package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

type VoiceOptions struct {
	Gain float64 // linear, 0 means 1
	Pan  float64 // -1 left .. 1 right
	Rate float64 // playback rate, 0 means 1
	Loop bool
}

// Voice is one playing (or stopped) instance of a sound. Its graph is
// source -> playback rate -> pan -> gain -> mixer. Stopping a voice takes
// it out of the mixer without firing the ended notification, so a voice
// stopped for a pause can later Start again at the saved offset.
type Voice struct {
	engine *Engine
	name   string
	buf    *beep.Buffer
	loop   bool

	gain float64
	pan  float64
	rate float64

	src   beep.StreamSeeker
	rs    *beep.Resampler
	panFx *effects.Pan
	volFx *effects.Volume
	ctrl  *beep.Ctrl

	playing  bool
	released bool
	gen      uint64
	onEnded  func()
}

func newVoice(e *Engine, name string, buf *beep.Buffer, opts VoiceOptions) *Voice {
	v := &Voice{
		engine: e,
		name:   name,
		buf:    buf,
		loop:   opts.Loop,
		gain:   opts.Gain,
		pan:    opts.Pan,
		rate:   opts.Rate,
	}
	if v.gain == 0 {
		v.gain = 1
	}
	if v.rate <= 0 {
		v.rate = 1
	}
	return v
}

func (v *Voice) Name() string { return v.name }

func (v *Voice) Loop() bool { return v.loop }

// Duration is the length of the underlying sound at rate 1.
func (v *Voice) Duration() time.Duration {
	return v.buf.Format().SampleRate.D(v.buf.Len())
}

// OnEnded registers fn to run, on the goroutine calling Engine.Poll, when a
// non-looping voice plays to its end.
func (v *Voice) OnEnded(fn func()) { v.onEnded = fn }

// Start begins playback at offset into the sound. Offsets past the end
// wrap for looping voices and clamp to the end otherwise. Starting a
// playing voice restarts it.
func (v *Voice) Start(offset time.Duration) error {
	if v.released {
		return ErrClosed
	}
	e := v.engine
	if e.closed {
		return ErrClosed
	}
	n := v.buf.Len()
	pos := v.buf.Format().SampleRate.N(offset)
	switch {
	case pos < 0:
		pos = 0
	case v.loop && n > 0:
		pos %= n
	case pos > n:
		pos = n
	}

	src := v.buf.Streamer(0, n)
	if err := src.Seek(pos); err != nil {
		return err
	}
	var s beep.Streamer = src
	if v.loop {
		s = beep.Loop(-1, src)
	} else {
		gen := v.gen + 1
		s = beep.Seq(src, beep.Callback(func() { e.queueEnded(v, gen) }))
	}
	rs := beep.ResampleRatio(4, v.rate, s)
	panFx := &effects.Pan{Streamer: rs, Pan: v.pan}
	volFx := &effects.Volume{Streamer: panFx, Base: 2}
	applyGain(volFx, v.gain)
	ctrl := &beep.Ctrl{Streamer: volFx}

	e.lock()
	if v.ctrl != nil {
		v.ctrl.Streamer = nil
	}
	v.src, v.rs, v.panFx, v.volFx, v.ctrl = src, rs, panFx, volFx, ctrl
	v.gen++
	v.playing = true
	e.mixer.Add(ctrl)
	e.unlock()
	return nil
}

// Stop takes the voice out of the mixer and returns the offset it reached.
// The ended notification does not fire.
func (v *Voice) Stop() time.Duration {
	e := v.engine
	e.lock()
	defer e.unlock()
	if v.ctrl != nil {
		v.ctrl.Streamer = nil
	}
	v.playing = false
	return v.position()
}

// Position returns the current offset into the sound.
func (v *Voice) Position() time.Duration {
	e := v.engine
	e.lock()
	defer e.unlock()
	return v.position()
}

func (v *Voice) position() time.Duration {
	if v.src == nil {
		return 0
	}
	return v.buf.Format().SampleRate.D(v.src.Position())
}

// Playing reports whether the voice is in the mixer and has not ended.
func (v *Voice) Playing() bool {
	e := v.engine
	e.lock()
	defer e.unlock()
	return v.playing
}

func (v *Voice) Rate() float64 { return v.rate }

// SetRate changes the playback rate. Non-positive rates are ignored.
func (v *Voice) SetRate(r float64) {
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return
	}
	e := v.engine
	e.lock()
	v.rate = r
	if v.rs != nil {
		v.rs.SetRatio(r)
	}
	e.unlock()
}

func (v *Voice) Gain() float64 { return v.gain }

func (v *Voice) SetGain(g float64) {
	e := v.engine
	e.lock()
	v.gain = g
	if v.volFx != nil {
		applyGain(v.volFx, g)
	}
	e.unlock()
}

func (v *Voice) Pan() float64 { return v.pan }

func (v *Voice) SetPan(p float64) {
	p = math.Max(-1, math.Min(1, p))
	e := v.engine
	e.lock()
	v.pan = p
	if v.panFx != nil {
		v.panFx.Pan = p
	}
	e.unlock()
}

// Release stops the voice for good and frees its engine slot.
func (v *Voice) Release() {
	if v.released {
		return
	}
	v.Stop()
	v.released = true
	v.onEnded = nil
	v.engine.release(v)
}

// Dispose releases the voice; it lets a voice sit in an entity's resource
// bundle.
func (v *Voice) Dispose() { v.Release() }

func (v *Voice) deliverEnded(gen uint64) {
	if v.released || !v.playing || gen != v.gen {
		return
	}
	v.playing = false
	if v.onEnded != nil {
		v.onEnded()
	}
}

func applyGain(vol *effects.Volume, g float64) {
	if g <= 0 {
		vol.Silent = true
		return
	}
	vol.Silent = false
	vol.Volume = math.Log2(g)
}
