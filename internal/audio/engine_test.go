package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tolerance = float64(50 * time.Millisecond)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Config{SampleRate: 44100, MasterGain: 1, MaxVoices: 4}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, e.Headless())
	require.NoError(t, e.Synthesize("beep", Tone{Wave: "sine", Freq: 440, Duration: 200 * time.Millisecond}))
	require.NoError(t, e.Synthesize("hum", Tone{Wave: "square", Freq: 110, Duration: time.Second, Gain: 0.5}))
	return e
}

func TestSynthesizeRegistersDuration(t *testing.T) {
	e := newTestEngine(t)
	d, err := e.Duration("beep")
	require.NoError(t, err)
	assert.InDelta(t, float64(200*time.Millisecond), float64(d), float64(time.Millisecond))

	_, err = e.Duration("missing")
	assert.ErrorIs(t, err, ErrUnknownSound)
	assert.Error(t, e.Synthesize("bad", Tone{Freq: 440}))
	assert.Error(t, e.Synthesize("bad", Tone{Wave: "organ", Freq: 440, Duration: time.Second}))
	assert.NoError(t, e.Synthesize("drain", Tone{Freq: 600, SweepTo: 200, Duration: 300 * time.Millisecond, Decay: 100 * time.Millisecond}))
	assert.NoError(t, e.Synthesize("rumble", Tone{Wave: "noise", Duration: 100 * time.Millisecond}))
}

func TestOneShotEndsOnce(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.NewVoice("beep", VoiceOptions{Gain: 0.5, Pan: -0.3})
	require.NoError(t, err)
	ended := 0
	v.OnEnded(func() { ended++ })
	require.NoError(t, v.Start(0))
	assert.Equal(t, 1, e.Playing())

	e.Pump(100 * time.Millisecond)
	e.Poll()
	assert.Zero(t, ended)

	e.Pump(300 * time.Millisecond)
	e.Poll()
	e.Poll()
	assert.Equal(t, 1, ended)
	assert.False(t, v.Playing())
	assert.Zero(t, e.Playing())
}

func TestStopKeepsOffsetAndSuppressesEnded(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.NewVoice("hum", VoiceOptions{})
	require.NoError(t, err)
	ended := false
	v.OnEnded(func() { ended = true })
	require.NoError(t, v.Start(0))

	e.Pump(400 * time.Millisecond)
	at := v.Stop()
	assert.InDelta(t, float64(400*time.Millisecond), float64(at), tolerance)

	e.Pump(2 * time.Second)
	e.Poll()
	assert.False(t, ended)
	assert.Zero(t, e.Playing())

	require.NoError(t, v.Start(at))
	assert.InDelta(t, float64(at), float64(v.Position()), tolerance)
	e.Pump(100 * time.Millisecond)
	assert.InDelta(t, float64(at+100*time.Millisecond), float64(v.Position()), tolerance)
}

func TestLoopWrapsOffset(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.NewVoice("beep", VoiceOptions{Loop: true})
	require.NoError(t, err)
	require.NoError(t, v.Start(250*time.Millisecond))
	assert.InDelta(t, float64(50*time.Millisecond), float64(v.Position()), float64(time.Millisecond))

	e.Pump(time.Second)
	e.Poll()
	assert.True(t, v.Playing())
	assert.Equal(t, 1, e.Playing())
}

func TestRateScalesPlayback(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.NewVoice("hum", VoiceOptions{Rate: 0.5})
	require.NoError(t, err)
	require.NoError(t, v.Start(0))
	e.Pump(400 * time.Millisecond)
	assert.InDelta(t, float64(200*time.Millisecond), float64(v.Position()), tolerance)

	v.SetRate(1)
	v.SetRate(-3)
	assert.Equal(t, 1.0, v.Rate())
}

func TestVoiceLimitAndRelease(t *testing.T) {
	e := newTestEngine(t)
	var voices []*Voice
	for i := 0; i < 4; i++ {
		v, err := e.NewVoice("beep", VoiceOptions{})
		require.NoError(t, err)
		voices = append(voices, v)
	}
	_, err := e.NewVoice("beep", VoiceOptions{})
	assert.ErrorIs(t, err, ErrVoiceLimit)

	voices[0].Release()
	voices[0].Release()
	assert.Equal(t, 3, e.Voices())
	assert.ErrorIs(t, voices[0].Start(0), ErrClosed)
	_, err = e.NewVoice("beep", VoiceOptions{})
	assert.NoError(t, err)

	e.Close()
	_, err = e.NewVoice("beep", VoiceOptions{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGainAndPanSetters(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.NewVoice("beep", VoiceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Gain())
	v.SetPan(3)
	assert.Equal(t, 1.0, v.Pan())
	require.NoError(t, v.Start(0))
	v.SetGain(0)
	v.SetPan(-0.5)
	e.Pump(10 * time.Millisecond)
	assert.Equal(t, -0.5, v.Pan())
	assert.Zero(t, v.Gain())
}
