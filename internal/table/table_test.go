package table

import (
	"testing"
	"time"

	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	coresys "github.com/pinsim/pinsim/internal/core/system"
	"github.com/pinsim/pinsim/internal/data"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/pinsim/pinsim/internal/physics"
	"github.com/pinsim/pinsim/internal/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tick = 10 * time.Millisecond

type testCtx struct {
	tree    *ecs.Tree
	bus     *event.Bus[ecs.EntityID]
	world   *physics.World
	runner  *coresys.Runner
	elapsed time.Duration
	paused  bool
}

func (c *testCtx) Dispatch(ev event.Event)                       { c.bus.Dispatch(ev) }
func (c *testCtx) DispatchAfter(d time.Duration, ev event.Event) { c.bus.DispatchAfter(d, ev) }
func (c *testCtx) Tree() *ecs.Tree                               { return c.tree }
func (c *testCtx) Physics() ecs.Physics                          { return c.world }
func (c *testCtx) Scene() ecs.Scene                              { return nil }
func (c *testCtx) Log() *zap.Logger                              { return zap.NewNop() }
func (c *testCtx) Elapsed() time.Duration                        { return c.elapsed }
func (c *testCtx) Paused() bool                                  { return c.paused }
func (c *testCtx) SlowMo() float64                               { return 1 }

func newCtx(gravity float64) *testCtx {
	tree := ecs.NewTree(zap.NewNop())
	ctx := &testCtx{
		tree:   tree,
		bus:    event.NewBus[ecs.EntityID](tree.Interests(), tree),
		world:  physics.NewWorld(physics.V(0, gravity)),
		runner: coresys.NewRunner(),
	}
	tree.Attach(ctx)
	ctx.runner.Register(system.NewTimerSystem(ctx.bus, tree))
	ctx.runner.Register(system.NewEntitySystem(tree))
	ctx.runner.Register(system.NewPhysicsSystem(ctx.world, tree, ctx.bus))
	ctx.runner.Register(system.NewCleanupSystem(tree))
	return ctx
}

func (c *testCtx) step(n int) {
	for i := 0; i < n; i++ {
		c.runner.Tick(tick)
		c.elapsed += tick
	}
}

// recorder keeps the game events the table emits.
type recorder struct {
	ecs.Entity
	got []event.Event
}

func (r *recorder) Handlers() event.Table {
	rec := func(ev event.Event) { r.got = append(r.got, ev) }
	return event.Table{
		events.TypePlaySound: rec,
		events.TypeScore:     rec,
		events.TypeDrain:     rec,
		events.TypeBumperHit: rec,
	}
}

func (r *recorder) count(typ string) int {
	n := 0
	for _, ev := range r.got {
		if ev.Type() == typ {
			n++
		}
	}
	return n
}

func (r *recorder) sounds() []string {
	var out []string
	for _, ev := range r.got {
		if s, ok := ev.(events.PlaySound); ok {
			out = append(out, s.Sound)
		}
	}
	return out
}

func build(t *testing.T, ctx *testCtx, doc string) (*Table, *recorder) {
	t.Helper()
	layout, err := data.ParseTableLayout([]byte(doc))
	require.NoError(t, err)
	tbl, err := New(layout, nil)
	require.NoError(t, err)
	rec := &recorder{}
	require.NoError(t, ctx.tree.AddEntities(rec, tbl))
	return tbl, rec
}

func TestShippedTableBuildsEveryElement(t *testing.T) {
	layout, err := data.LoadTableLayout("../../data/table.yaml")
	require.NoError(t, err)
	ctx := newCtx(layout.Gravity)
	tbl, err := New(layout, nil)
	require.NoError(t, err)
	_, err = ctx.tree.AddEntity(tbl)
	require.NoError(t, err)

	links := 0
	for _, w := range layout.Walls {
		links += len(w.Points) - 1
	}
	assert.Len(t, ctx.tree.GetTagged("wall"), len(layout.Walls))
	assert.Len(t, ctx.tree.GetTagged("bumper"), 5)
	assert.Len(t, ctx.tree.GetTagged("post"), 7)
	assert.Len(t, ctx.tree.GetTagged("flipper"), 3)
	assert.Len(t, ctx.tree.GetTagged("right"), 2)
	// walls, drain, bumpers, posts, pendulum pivot and bob, flippers, plunger
	assert.Equal(t, links+1+5+7+2+3+1, ctx.world.BodyCount())
	assert.Equal(t, 1, ctx.world.ConstraintCount())
	assert.Equal(t, 1, ctx.world.SpringCount())

	ctx.Dispatch(events.NewBall{})
	require.Len(t, tbl.Balls(), 1)
	assert.Equal(t, layout.Ball.Start.Vec(), tbl.Balls()[0].Body().Pos)
	assert.Equal(t, 1, tbl.Spawned())

	// The ball settles on the plunger instead of falling through.
	ctx.step(100)
	require.Len(t, tbl.Balls(), 1)
	assert.Less(t, tbl.Balls()[0].Body().Pos.Y, layout.Plunger.At[1])

	ctx.tree.Teardown()
	assert.Zero(t, ctx.world.BodyCount())
	assert.Zero(t, ctx.world.SpringCount())
}

func TestFlippersFollowTheirAction(t *testing.T) {
	ctx := newCtx(0)
	left := NewFlipper(data.FlipperDef{Side: "left", Pivot: data.Point{2, 10}, Length: 4, Radius: 0.5, DownAngle: 30, UpAngle: -38, Speed: 1200, Action: "leftFlipper"})
	upper := NewFlipper(data.FlipperDef{Side: "left", Pivot: data.Point{2, 5}, Length: 3, Radius: 0.5, DownAngle: 30, UpAngle: -38, Speed: 1200, Action: "leftFlipper"})
	right := NewFlipper(data.FlipperDef{Side: "right", Pivot: data.Point{12, 10}, Length: 4, Radius: 0.5, DownAngle: 30, UpAngle: -38, Speed: 1200, Action: "rightFlipper"})
	rec := &recorder{}
	require.NoError(t, ctx.tree.AddEntities(rec, left, upper, right))
	assert.InDelta(t, deg(30), left.Angle(), 1e-9)
	assert.InDelta(t, deg(150), right.Angle(), 1e-9)

	ctx.Dispatch(event.Named("leftFlipperDown"))
	ctx.Dispatch(event.Named("leftFlipperDown"))
	assert.True(t, left.Engaged())
	assert.True(t, upper.Engaged())
	assert.False(t, right.Engaged())
	assert.Equal(t, []string{"flipperUp", "flipperUp"}, rec.sounds())

	// 68 degrees at 1200 deg/s is under six ticks.
	ctx.step(10)
	assert.InDelta(t, left.UpAngle(), left.Angle(), 1e-6)
	assert.InDelta(t, upper.UpAngle(), upper.Angle(), 1e-6)
	assert.InDelta(t, right.DownAngle(), right.Angle(), 1e-9)

	ctx.Dispatch(event.Named("leftFlipperUp"))
	ctx.Dispatch(event.Named("rightFlipperDown"))
	ctx.step(3)
	assert.Greater(t, left.Angle(), left.UpAngle())
	assert.Less(t, left.Angle(), left.DownAngle())
	ctx.step(10)
	assert.InDelta(t, left.DownAngle(), left.Angle(), 1e-6)
	assert.InDelta(t, deg(218), right.Angle(), 1e-6)
}

func TestDrainDestroysBall(t *testing.T) {
	ctx := newCtx(60)
	tbl, rec := build(t, ctx, `
size: [10, 20]
ball: {start: [5, 17], radius: 0.5}
drain: {points: [[3, 20], [7, 20]]}
`)
	ctx.Dispatch(events.NewBall{})
	ball := tbl.Balls()[0]

	ctx.step(60)
	assert.True(t, ball.Destroyed())
	assert.Empty(t, tbl.Balls())
	assert.Equal(t, 1, rec.count(events.TypeDrain))
	assert.Equal(t, 1, ctx.world.BodyCount())
	assert.Equal(t, 1, ctx.tree.GetTagged("drain")[0].(*Drain).Drained())
}

func TestBallPlaysContactSound(t *testing.T) {
	ctx := newCtx(60)
	tbl, rec := build(t, ctx, `
size: [10, 20]
ball: {start: [5, 5], radius: 0.5}
walls: [{points: [[0, 8], [10, 8]], sound: wallHit1}]
drain: {points: [[0, 20], [1, 20]]}
`)
	tbl.SpawnBall()
	ctx.step(50)
	assert.Contains(t, rec.sounds(), "wallHit1")
	assert.Less(t, tbl.Balls()[0].Body().Pos.Y, 8.0)
}

func TestBumperScoresAndKicks(t *testing.T) {
	ctx := newCtx(0)
	tbl, rec := build(t, ctx, `
size: [10, 10]
ball: {start: [5, 1], radius: 0.5}
bumpers: [{at: [5, 5], sound: bumper1}]
drain: {points: [[0, 10], [1, 10]]}
`)
	ball := tbl.SpawnBall()
	ball.Body().Vel = physics.V(0, 10)

	ctx.step(60)
	bumper := ctx.tree.GetTagged("bumper")[0].(*Bumper)
	assert.Equal(t, 1, bumper.Hits())
	assert.Equal(t, 700, tbl.Scoreboard.Score())
	assert.Equal(t, 1, rec.count(events.TypeBumperHit))
	assert.Contains(t, rec.sounds(), "bumper1")
	assert.Less(t, ball.Body().Vel.Y, -10.0)
}

func TestPlungerPullsAndFires(t *testing.T) {
	ctx := newCtx(0)
	_, rec := build(t, ctx, `
size: [10, 20]
plunger: {at: [5, 10], radius: 1, mass: 3, stiffness: 900, damping: 20, pull: 4000, sound: plunger}
drain: {points: [[0, 20], [1, 20]]}
`)
	p := ctx.tree.GetTagged("plunger")[0].(*Plunger)

	ctx.Dispatch(event.Named("launchDown"))
	assert.True(t, p.Held())
	ctx.step(30)
	assert.Greater(t, p.Body().Pos.Y, 12.0)

	ctx.Dispatch(event.Named("launchUp"))
	assert.False(t, p.Held())
	assert.Equal(t, []string{"plunger"}, rec.sounds())
	ctx.step(5)
	assert.Less(t, p.Body().Vel.Y, 0.0)
}

func TestPlungerIgnoresPullWhilePaused(t *testing.T) {
	ctx := newCtx(0)
	_, rec := build(t, ctx, `
size: [10, 20]
plunger: {at: [5, 10], radius: 1, mass: 3, stiffness: 900, damping: 20, pull: 4000, sound: plunger}
drain: {points: [[0, 20], [1, 20]]}
`)
	p := ctx.tree.GetTagged("plunger")[0].(*Plunger)

	ctx.paused = true
	ctx.Dispatch(event.Named("launchDown"))
	assert.False(t, p.Held())

	ctx.paused = false
	ctx.Dispatch(event.Named("launchDown"))
	require.True(t, p.Held())
	ctx.paused = true
	ctx.Dispatch(event.Named("launchUp"))
	assert.False(t, p.Held())
	assert.Empty(t, rec.sounds())
}

func TestPendulumScoresOnHit(t *testing.T) {
	ctx := newCtx(0)
	tbl, rec := build(t, ctx, `
size: [20, 20]
ball: {start: [2, 8], radius: 0.5}
pendulums: [{pivot: [10, 4], length: 4, points: 250}]
drain: {points: [[0, 20], [1, 20]]}
`)
	ball := tbl.SpawnBall()
	ball.Body().Vel = physics.V(20, 0)

	ctx.step(60)
	p := ctx.tree.GetTagged("pendulum")[0].(*Pendulum)
	assert.Equal(t, 1, p.Hits())
	assert.Equal(t, 250, tbl.Scoreboard.Score())
	assert.Contains(t, rec.sounds(), "pendulum")
	assert.InDelta(t, 4.0, p.Bob().Pos.Sub(physics.V(10, 4)).Len(), 0.2)
	assert.Greater(t, p.Bob().Pos.X, 10.0)
}

func TestScoreboardTracksGame(t *testing.T) {
	ctx := newCtx(0)
	s := NewScoreboard()
	_, err := ctx.tree.AddEntity(s)
	require.NoError(t, err)
	assert.Equal(t, "SCORE 0  PRESS START", s.Text())

	ctx.Dispatch(events.GameStart{})
	ctx.Dispatch(events.NewBall{NoSound: true})
	ctx.Dispatch(events.Score{Points: 700})
	ctx.Dispatch(events.Score{Points: 250})
	assert.True(t, s.Playing())
	assert.Equal(t, "SCORE 950  BALL 1", s.Text())
	ctx.Dispatch(events.Score{Points: 12000})
	assert.Equal(t, "SCORE 12,950  BALL 1", s.Text())

	ctx.Dispatch(events.GameOver{})
	assert.Equal(t, "SCORE 12,950  GAME OVER", s.Text())
	ctx.Dispatch(events.GameStart{})
	assert.Equal(t, 0, s.Score())
}
