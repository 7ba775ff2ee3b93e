// Package sound holds the entities that own audio voices: Instance, a
// single playing sound, and Soundboard, which turns playSound events into
// one-shot instances.
package sound

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pinsim/pinsim/internal/audio"
	"github.com/pinsim/pinsim/internal/core/ecs"
)

type Options struct {
	Gain       float64 // 0 means 1
	Pan        float64
	Speed      float64 // 0 means 1
	Continuous bool
}

// Instance is a currently playing sound. A one-shot instance destroys
// itself when its voice ends; a continuous one loops until destroyed.
//
// Playback rate is Speed times the simulation's slow-mo factor. On pause
// the voice is stopped and its offset saved; on unpause it restarts from
// that offset, so time spent paused never moves the sound forward. A
// one-shot that had already reached its end when paused is destroyed on
// unpause instead.
type Instance struct {
	ecs.Entity

	engine *audio.Engine
	name   string
	opts   Options

	ctx    ecs.Context
	voice  *audio.Voice
	offset time.Duration
	paused bool
}

func NewInstance(engine *audio.Engine, name string, opts Options) *Instance {
	if opts.Gain == 0 {
		opts.Gain = 1
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	return &Instance{engine: engine, name: name, opts: opts}
}

func (s *Instance) Name() string     { return s.name }
func (s *Instance) Continuous() bool { return s.opts.Continuous }
func (s *Instance) Paused() bool     { return s.paused }

func (s *Instance) Tags() []string { return []string{"sound"} }

func (s *Instance) OnAdd(ctx ecs.Context) error {
	s.ctx = ctx
	v, err := s.engine.NewVoice(s.name, audio.VoiceOptions{
		Gain: s.opts.Gain,
		Pan:  s.opts.Pan,
		Rate: s.rate(),
		Loop: s.opts.Continuous,
	})
	if err != nil {
		return fmt.Errorf("sound %q: %w", s.name, err)
	}
	s.voice = v
	s.Resources().AddDisposable(v)
	v.OnEnded(func() {
		if !s.paused {
			s.Destroy()
		}
	})
	if ctx != nil && ctx.Paused() {
		s.paused = true
		return nil
	}
	return v.Start(0)
}

func (s *Instance) rate() float64 {
	slowMo := 1.0
	if s.ctx != nil {
		slowMo = s.ctx.SlowMo()
	}
	return s.opts.Speed * slowMo
}

func (s *Instance) OnTick(time.Duration) {
	if r := s.rate(); r != s.voice.Rate() {
		s.voice.SetRate(r)
	}
}

func (s *Instance) OnPause() {
	if s.paused {
		return
	}
	s.paused = true
	s.offset = s.voice.Stop()
}

func (s *Instance) OnUnpause() {
	if !s.paused {
		return
	}
	s.paused = false
	if !s.opts.Continuous && s.offset >= s.voice.Duration() {
		s.Destroy()
		return
	}
	s.voice.SetRate(s.rate())
	if err := s.voice.Start(s.offset); err != nil {
		s.Fail(err)
	}
}

// Offset returns the playback offset: the saved one while paused, the live
// one otherwise.
func (s *Instance) Offset() time.Duration {
	if s.paused || s.voice == nil {
		return s.offset
	}
	return s.voice.Position()
}

func (s *Instance) Gain() float64 { return s.opts.Gain }

func (s *Instance) SetGain(g float64) {
	s.opts.Gain = g
	if s.voice != nil {
		s.voice.SetGain(g)
	}
}

func (s *Instance) Pan() float64 { return s.opts.Pan }

func (s *Instance) SetPan(p float64) {
	s.opts.Pan = p
	if s.voice != nil {
		s.voice.SetPan(p)
	}
}

func (s *Instance) Speed() float64 { return s.opts.Speed }

func (s *Instance) SetSpeed(v float64) {
	if v <= 0 {
		return
	}
	s.opts.Speed = v
	if s.voice != nil {
		s.voice.SetRate(s.rate())
	}
}

// JumpToRandom restarts a continuous sound at a random offset so several
// copies of one loop do not phase.
func (s *Instance) JumpToRandom() error {
	if !s.opts.Continuous || s.voice == nil {
		return nil
	}
	at := time.Duration(rand.Float64() * float64(s.voice.Duration()))
	if s.paused {
		s.offset = at
		return nil
	}
	return s.voice.Start(at)
}
