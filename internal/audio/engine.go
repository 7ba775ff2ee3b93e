// Package audio is the audio engine capability: a mixer of voices built on
// gopxl/beep, each voice a buffer source with playback-rate, pan and gain
// stages that can start at an offset, stop, and report when it ended.
//
// With the speaker enabled the mixer is pulled by the speaker goroutine and
// every graph mutation happens under speaker.Lock. Headless, the simulation
// pulls samples itself through Pump, which keeps tests deterministic.
package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

var (
	ErrUnknownSound = errors.New("audio: unknown sound")
	ErrVoiceLimit   = errors.New("audio: voice limit reached")
	ErrClosed       = errors.New("audio: engine closed")
)

type Config struct {
	// Enabled opens the system speaker. Disabled engines run headless.
	Enabled    bool
	SampleRate int
	Buffer     time.Duration
	MasterGain float64
	MaxVoices  int
}

type Engine struct {
	log    *zap.Logger
	format beep.Format
	mixer  *beep.Mixer
	master *effects.Volume

	speaker bool
	closed  bool
	mu      sync.Mutex

	bank     map[string]*beep.Buffer
	voices   map[*Voice]struct{}
	max      int
	scratch  [][2]float64
	pumped   time.Duration
	endQueue []endedVoice
}

type endedVoice struct {
	v   *Voice
	gen uint64
}

func NewEngine(cfg Config, log *zap.Logger) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 50 * time.Millisecond
	}
	if cfg.MaxVoices <= 0 {
		cfg.MaxVoices = 32
	}
	sr := beep.SampleRate(cfg.SampleRate)
	e := &Engine{
		log:    log,
		format: beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2},
		mixer:  &beep.Mixer{},
		bank:   make(map[string]*beep.Buffer),
		voices: make(map[*Voice]struct{}),
		max:    cfg.MaxVoices,
	}
	e.master = &effects.Volume{Streamer: keepAlive(e.mixer), Base: 2}
	e.setMasterGain(cfg.MasterGain)

	if cfg.Enabled {
		if err := speaker.Init(sr, sr.N(cfg.Buffer)); err != nil {
			log.Warn("audio output unavailable, running headless", zap.Error(err))
		} else {
			e.speaker = true
			speaker.Play(e.master)
		}
	}
	log.Info("audio engine ready",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Bool("speaker", e.speaker),
		zap.Int("max_voices", cfg.MaxVoices))
	return e, nil
}

// keepAlive streams the mixer and pads with silence so an empty mixer never
// ends the output stream.
func keepAlive(m *beep.Mixer) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, _ := m.Stream(samples)
		for i := n; i < len(samples); i++ {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	})
}

func (e *Engine) lock() {
	if e.speaker {
		speaker.Lock()
		return
	}
	e.mu.Lock()
}

func (e *Engine) unlock() {
	if e.speaker {
		speaker.Unlock()
		return
	}
	e.mu.Unlock()
}

func (e *Engine) SampleRate() beep.SampleRate { return e.format.SampleRate }

// Headless reports whether samples are pulled by Pump rather than a device.
func (e *Engine) Headless() bool { return !e.speaker }

// SetMasterGain sets the linear gain of the master bus.
func (e *Engine) SetMasterGain(g float64) {
	e.lock()
	e.setMasterGain(g)
	e.unlock()
}

func (e *Engine) setMasterGain(g float64) {
	if g <= 0 {
		e.master.Silent = true
		return
	}
	e.master.Silent = false
	e.master.Volume = math.Log2(g)
}

// Register stores a decoded or synthesized buffer under name.
func (e *Engine) Register(name string, buf *beep.Buffer) {
	e.bank[name] = buf
}

func (e *Engine) Has(name string) bool {
	_, ok := e.bank[name]
	return ok
}

// Duration returns the length of a registered sound.
func (e *Engine) Duration(name string) (time.Duration, error) {
	buf, ok := e.bank[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSound, name)
	}
	return e.format.SampleRate.D(buf.Len()), nil
}

// NewVoice builds a stopped voice for a registered sound.
func (e *Engine) NewVoice(name string, opts VoiceOptions) (*Voice, error) {
	if e.closed {
		return nil, ErrClosed
	}
	buf, ok := e.bank[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSound, name)
	}
	if len(e.voices) >= e.max {
		return nil, fmt.Errorf("%w (%d)", ErrVoiceLimit, e.max)
	}
	v := newVoice(e, name, buf, opts)
	e.voices[v] = struct{}{}
	return v, nil
}

// Voices returns the number of voices not yet released.
func (e *Engine) Voices() int { return len(e.voices) }

// Playing returns the number of streamers in the mixer.
func (e *Engine) Playing() int {
	e.lock()
	defer e.unlock()
	return e.mixer.Len()
}

func (e *Engine) release(v *Voice) {
	delete(e.voices, v)
}

// queueEnded runs on the streaming goroutine, already under the engine lock.
func (e *Engine) queueEnded(v *Voice, gen uint64) {
	e.endQueue = append(e.endQueue, endedVoice{v, gen})
}

// Poll delivers ended notifications on the calling goroutine. The
// simulation calls it once per tick.
func (e *Engine) Poll() {
	e.lock()
	ended := e.endQueue
	e.endQueue = nil
	e.unlock()
	for _, x := range ended {
		x.v.deliverEnded(x.gen)
	}
}

// Pump pulls d of output from the mixer when running headless. It is a
// no-op with a live speaker.
func (e *Engine) Pump(d time.Duration) {
	if e.speaker || d <= 0 {
		return
	}
	n := e.format.SampleRate.N(d)
	if cap(e.scratch) < 512 {
		e.scratch = make([][2]float64, 512)
	}
	e.lock()
	for n > 0 {
		chunk := e.scratch[:min(n, len(e.scratch))]
		e.master.Stream(chunk)
		n -= len(chunk)
	}
	e.unlock()
	e.pumped += d
}

// Pumped returns the total output time pulled by Pump.
func (e *Engine) Pumped() time.Duration { return e.pumped }

// Close stops every voice and releases the output device.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.lock()
	e.mixer.Clear()
	e.unlock()
	if e.speaker {
		speaker.Clear()
		speaker.Close()
	}
	e.log.Info("audio engine closed")
}
