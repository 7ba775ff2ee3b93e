package sound

import (
	"testing"
	"time"

	"github.com/pinsim/pinsim/internal/audio"
	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tolerance = float64(50 * time.Millisecond)

type testCtx struct {
	tree   *ecs.Tree
	bus    *event.Bus[ecs.EntityID]
	paused bool
	slowMo float64
}

func (c *testCtx) Dispatch(ev event.Event)                       { c.bus.Dispatch(ev) }
func (c *testCtx) DispatchAfter(d time.Duration, ev event.Event) { c.bus.DispatchAfter(d, ev) }
func (c *testCtx) Tree() *ecs.Tree                               { return c.tree }
func (c *testCtx) Physics() ecs.Physics                          { return nil }
func (c *testCtx) Scene() ecs.Scene                              { return nil }
func (c *testCtx) Log() *zap.Logger                              { return zap.NewNop() }
func (c *testCtx) Elapsed() time.Duration                        { return 0 }
func (c *testCtx) Paused() bool                                  { return c.paused }
func (c *testCtx) SlowMo() float64                               { return c.slowMo }

func (c *testCtx) pause() {
	c.paused = true
	c.tree.Pause()
}

func (c *testCtx) unpause() {
	c.paused = false
	c.tree.Unpause()
}

func setup(t *testing.T) (*testCtx, *audio.Engine) {
	t.Helper()
	tree := ecs.NewTree(zap.NewNop())
	ctx := &testCtx{tree: tree, bus: event.NewBus[ecs.EntityID](tree.Interests(), tree), slowMo: 1}
	tree.Attach(ctx)

	eng, err := audio.NewEngine(audio.Config{SampleRate: 44100, MasterGain: 1, MaxVoices: 8}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, eng.Synthesize("beep", audio.Tone{Freq: 880, Duration: 200 * time.Millisecond}))
	require.NoError(t, eng.Synthesize("roll", audio.Tone{Wave: "noise", Duration: time.Second}))
	t.Cleanup(eng.Close)
	return ctx, eng
}

func TestSoundboardPlaysOneShotAndCleansUp(t *testing.T) {
	ctx, eng := setup(t)
	board := NewSoundboard(eng)
	_, err := ctx.tree.AddEntity(board)
	require.NoError(t, err)

	ctx.Dispatch(events.PlaySound{Sound: "beep", Gain: 0.5, Pan: 0.2})
	playing := board.Playing()
	require.Len(t, playing, 1)
	inst := playing[0]
	assert.Equal(t, 0.5, inst.Gain())
	assert.Equal(t, 1.0, inst.Speed())
	assert.Equal(t, 1, eng.Playing())
	assert.Len(t, ctx.tree.GetTagged("sound"), 1)

	eng.Pump(300 * time.Millisecond)
	eng.Poll()
	assert.True(t, inst.Destroyed())
	assert.Empty(t, board.Playing())
	assert.Zero(t, eng.Voices())
	assert.Equal(t, 1, board.Played())
}

func TestSoundboardUnknownSoundIsLogged(t *testing.T) {
	ctx, eng := setup(t)
	board := NewSoundboard(eng)
	_, err := ctx.tree.AddEntity(board)
	require.NoError(t, err)

	ctx.Dispatch(events.PlaySound{Sound: "missing"})
	assert.Empty(t, board.Playing())
	assert.Zero(t, board.Played())
	assert.True(t, board.Alive())
	assert.Zero(t, eng.Voices())
}

func TestPauseResumesAtSavedOffset(t *testing.T) {
	ctx, eng := setup(t)
	inst := NewInstance(eng, "roll", Options{Continuous: true})
	_, err := ctx.tree.AddEntity(inst)
	require.NoError(t, err)

	eng.Pump(300 * time.Millisecond)
	ctx.pause()
	assert.True(t, inst.Paused())
	saved := inst.Offset()
	assert.InDelta(t, float64(300*time.Millisecond), float64(saved), tolerance)
	assert.Zero(t, eng.Playing())

	eng.Pump(2 * time.Second)
	assert.Equal(t, saved, inst.Offset())

	ctx.unpause()
	assert.InDelta(t, float64(saved), float64(inst.Offset()), tolerance)
	eng.Pump(100 * time.Millisecond)
	assert.InDelta(t, float64(saved+100*time.Millisecond), float64(inst.Offset()), tolerance)

	inst.Destroy()
	assert.Zero(t, eng.Voices())
}

func TestOneShotFinishedWhilePausedIsDestroyedOnUnpause(t *testing.T) {
	ctx, eng := setup(t)
	inst := NewInstance(eng, "beep", Options{})
	_, err := ctx.tree.AddEntity(inst)
	require.NoError(t, err)

	eng.Pump(250 * time.Millisecond)
	ctx.pause()
	eng.Poll()
	assert.True(t, inst.Alive())

	ctx.unpause()
	assert.True(t, inst.Destroyed())
	assert.Zero(t, eng.Voices())
}

func TestAddedWhilePausedWaitsForUnpause(t *testing.T) {
	ctx, eng := setup(t)
	ctx.paused = true
	inst := NewInstance(eng, "beep", Options{})
	_, err := ctx.tree.AddEntity(inst)
	require.NoError(t, err)
	assert.True(t, inst.Paused())
	assert.Zero(t, eng.Playing())

	ctx.unpause()
	assert.Equal(t, 1, eng.Playing())
	assert.False(t, inst.Paused())
}

func TestRateFollowsSlowMo(t *testing.T) {
	ctx, eng := setup(t)
	inst := NewInstance(eng, "roll", Options{Continuous: true, Speed: 2})
	_, err := ctx.tree.AddEntity(inst)
	require.NoError(t, err)

	ctx.slowMo = 0.25
	ctx.tree.Tick(time.Millisecond)
	eng.Pump(400 * time.Millisecond)
	assert.InDelta(t, float64(200*time.Millisecond), float64(inst.Offset()), tolerance)

	inst.SetSpeed(4)
	inst.SetSpeed(-1)
	assert.Equal(t, 4.0, inst.Speed())
}

func TestContinuousSetters(t *testing.T) {
	ctx, eng := setup(t)
	inst := NewInstance(eng, "roll", Options{Continuous: true})
	_, err := ctx.tree.AddEntity(inst)
	require.NoError(t, err)

	inst.SetGain(0)
	inst.SetPan(-1)
	assert.Zero(t, inst.Gain())
	assert.Equal(t, -1.0, inst.Pan())
	require.NoError(t, inst.JumpToRandom())
	assert.Less(t, inst.Offset(), time.Second)

	one := NewInstance(eng, "beep", Options{})
	_, err = ctx.tree.AddEntity(one)
	require.NoError(t, err)
	assert.NoError(t, one.JumpToRandom())

	eng.Pump(3 * time.Second)
	eng.Poll()
	assert.True(t, inst.Alive())
	assert.True(t, one.Destroyed())
}
