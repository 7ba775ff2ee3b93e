// Package game wires the simulation together: it owns the entity tree, the
// event bus, the physics world, the audio engine and the clock, and it is
// the ecs.Context every entity receives.
package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/pinsim/pinsim/internal/audio"
	"github.com/pinsim/pinsim/internal/config"
	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	coresys "github.com/pinsim/pinsim/internal/core/system"
	"github.com/pinsim/pinsim/internal/data"
	"github.com/pinsim/pinsim/internal/input"
	"github.com/pinsim/pinsim/internal/physics"
	"github.com/pinsim/pinsim/internal/scripting"
	"github.com/pinsim/pinsim/internal/sound"
	"github.com/pinsim/pinsim/internal/system"
	"github.com/pinsim/pinsim/internal/table"
	"github.com/pinsim/pinsim/internal/terminal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Deps are the I/O edges of a game. Every field is optional: a nil Screen
// runs without rendering, a nil Raw channel without input.
type Deps struct {
	Screen tcell.Screen
	Raw    <-chan input.Raw
	Log    *zap.Logger
}

// Game is one simulation. Several may coexist in a process; nothing in
// here is global.
type Game struct {
	id  uuid.UUID
	cfg *config.Config
	log *zap.Logger

	tree     *ecs.Tree
	bus      *event.Bus[ecs.EntityID]
	world    *physics.World
	audio    *audio.Engine
	scripts  *scripting.Engine
	renderer *terminal.Renderer
	scene    ecs.Scene
	clock    *coresys.Clock
	runner   *coresys.Runner
	input    *input.Manager
	stats    *dispatchStats

	table  *table.Table
	pause  *PauseController
	slowMo *SlowMoController
	board  *sound.Soundboard

	frames uint64
	quit   bool
}

// New builds a game from cfg: it loads the table layout, the sound bank
// and the scripts, then adds every entity to the tree.
func New(cfg *config.Config, deps Deps) (*Game, error) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New()
	log = log.With(zap.String("run", id.String()))

	layout, err := data.LoadTableLayout(cfg.Table.Layout)
	if err != nil {
		return nil, err
	}
	bank, err := data.LoadSoundBank(cfg.Audio.Sounds)
	if err != nil {
		return nil, err
	}

	g := &Game{
		id:    id,
		cfg:   cfg,
		log:   log,
		tree:  ecs.NewTree(log.Named("tree")),
		world: physics.NewWorld(physics.V(0, layout.Gravity)),
		clock: coresys.NewClock(cfg.Simulation.TickRate, cfg.Simulation.TickIterations),
		stats: newDispatchStats(log.Named("bus")),
	}
	g.world.Iterations = cfg.Simulation.Iterations
	g.bus = event.NewBus[ecs.EntityID](g.tree.Interests(), g.tree)
	g.bus.SetObserver(g.stats)
	g.tree.Attach(g)
	if err := g.clock.SetSlowMo(cfg.Simulation.SlowMo); err != nil {
		return nil, err
	}

	g.audio, err = audio.NewEngine(audio.Config{
		Enabled:    cfg.Audio.Enabled,
		SampleRate: cfg.Audio.SampleRate,
		Buffer:     cfg.Audio.Buffer,
		MasterGain: cfg.Audio.MasterGain,
		MaxVoices:  cfg.Audio.MaxVoices,
	}, log.Named("audio"))
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	for _, d := range bank.All() {
		if err := g.audio.Synthesize(d.Name, audio.Tone{
			Wave:     d.Wave,
			Freq:     d.Freq,
			SweepTo:  d.SweepTo,
			Duration: d.Duration,
			Decay:    d.Decay,
			Gain:     d.Gain,
		}); err != nil {
			g.audio.Close()
			return nil, err
		}
	}

	if deps.Screen != nil {
		g.renderer = terminal.NewRenderer(deps.Screen, layout.Size.Vec(), log.Named("render"))
		g.scene = g.renderer
	}

	g.input = input.NewManager(g, cfg.Input.Bindings)
	g.runner = coresys.NewRunner()
	g.runner.Register(system.NewInputSystem(g.input, deps.Raw, g.Quit, log.Named("input")))
	g.runner.Register(system.NewTimerSystem(g.bus, g.tree))
	g.runner.Register(system.NewEntitySystem(g.tree))
	g.runner.Register(system.NewPhysicsSystem(g.world, g.tree, g.bus))
	g.runner.Register(system.NewAudioSystem(g.audio))
	g.runner.Register(system.NewCleanupSystem(g.tree))

	if err := g.populate(layout); err != nil {
		g.Close()
		return nil, err
	}
	if cfg.Simulation.StartPaused {
		g.pause.Pause()
	}
	log.Info("game ready",
		zap.String("table", layout.Name),
		zap.Int("entities", g.tree.Len()),
		zap.Int("bodies", g.world.BodyCount()),
		zap.Int("sounds", bank.Count()),
		zap.Duration("tick", g.clock.Fixed()))
	return g, nil
}

func (g *Game) populate(layout *data.TableLayout) error {
	g.pause = NewPauseController(g.clock, g.cfg.Simulation.AutoPause)
	g.slowMo = NewSlowMoController(g.clock, g.cfg.Simulation.SlowMoFactor)
	g.board = sound.NewSoundboard(g.audio)
	tbl, err := table.New(layout, g.audio)
	if err != nil {
		return err
	}
	g.table = tbl
	if err := g.tree.AddEntities(g.pause, g.slowMo, &quitter{game: g}, g.board, g.table); err != nil {
		return err
	}

	g.scripts = scripting.NewEngine(g.log.Named("lua"))
	scripts, err := g.scripts.LoadAll(g.cfg.Table.Scripts)
	if err != nil {
		return err
	}
	for _, s := range scripts {
		if _, err := g.tree.AddEntity(s); err != nil {
			return err
		}
	}
	return nil
}

// ecs.Context

func (g *Game) Dispatch(ev event.Event) { g.bus.Dispatch(ev) }

func (g *Game) DispatchAfter(d time.Duration, ev event.Event) { g.bus.DispatchAfter(d, ev) }

func (g *Game) Tree() *ecs.Tree { return g.tree }

func (g *Game) Physics() ecs.Physics { return g.world }

func (g *Game) Scene() ecs.Scene { return g.scene }

func (g *Game) Log() *zap.Logger { return g.log }

func (g *Game) Elapsed() time.Duration { return g.clock.Elapsed() }

func (g *Game) Paused() bool { return g.pause != nil && g.pause.Paused() }

func (g *Game) SlowMo() float64 { return g.clock.SlowMo() }

// Frame advances the game by one real frame: input is drained, every due
// fixed tick runs, then the tree renders once. It returns the number of
// ticks run.
func (g *Game) Frame(realDt time.Duration) int {
	g.frames++
	g.runner.TickPhase(coresys.PhaseInput, realDt)
	n := g.clock.Advance(realDt)
	fixed := g.clock.Fixed()
	for i := 0; i < n && !g.quit; i++ {
		g.runner.Tick(fixed)
	}
	g.tree.Render()
	if g.renderer != nil {
		g.renderer.SetStatus(g.status())
		g.renderer.RenderFrame()
	}
	g.audio.Pump(realDt)
	return n
}

// Step runs exactly one fixed tick regardless of real time. It does
// nothing while paused.
func (g *Game) Step() bool {
	if !g.clock.Step() {
		return false
	}
	g.runner.Tick(g.clock.Fixed())
	return true
}

// Run drives Frame at the configured frame rate until ctx is done or the
// game quits.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.cfg.Simulation.FrameRate)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			g.Frame(now.Sub(last))
			last = now
			if g.quit {
				g.log.Info("quit requested", zap.Uint64("frames", g.frames))
				return nil
			}
		}
	}
}

func (g *Game) status() string {
	var parts []string
	if g.Paused() {
		parts = append(parts, "PAUSED")
	}
	if f := g.clock.SlowMo(); f < 1 {
		parts = append(parts, fmt.Sprintf("SLOW x%.2f", f))
	}
	parts = append(parts, "enter start  z / flip  space launch  p pause  t slow  q quit")
	return strings.Join(parts, "  ")
}

// Quit asks Run to return after the current frame.
func (g *Game) Quit() { g.quit = true }

func (g *Game) Quitting() bool { return g.quit }

func (g *Game) ID() uuid.UUID { return g.id }

func (g *Game) Frames() uint64 { return g.frames }

func (g *Game) Clock() *coresys.Clock { return g.clock }

func (g *Game) World() *physics.World { return g.world }

func (g *Game) Audio() *audio.Engine { return g.audio }

func (g *Game) Input() *input.Manager { return g.input }

func (g *Game) Table() *table.Table { return g.table }

func (g *Game) PauseController() *PauseController { return g.pause }

func (g *Game) Soundboard() *sound.Soundboard { return g.board }

// Dispatched returns how many times events named name were dispatched.
func (g *Game) Dispatched(name string) int { return g.stats.counts[name] }

// Close tears the tree down, releasing every owned resource, then shuts
// the engines. Safe to call more than once.
func (g *Game) Close() {
	g.tree.Teardown()
	if g.scripts != nil {
		g.scripts.Close()
		g.scripts = nil
	}
	g.audio.Close()
	g.log.Info("game closed",
		zap.Uint64("ticks", g.clock.Ticks()),
		zap.Duration("elapsed", g.clock.Elapsed()),
		zap.Duration("dropped", g.clock.Dropped()))
}

// dispatchStats counts dispatches per event name and traces them at debug
// level.
type dispatchStats struct {
	log    *zap.Logger
	counts map[string]int
}

func newDispatchStats(log *zap.Logger) *dispatchStats {
	return &dispatchStats{log: log, counts: make(map[string]int)}
}

func (s *dispatchStats) OnDispatch(name string, delivered int) {
	s.counts[name]++
	if ce := s.log.Check(zapcore.DebugLevel, "dispatch"); ce != nil {
		ce.Write(zap.String("event", name), zap.Int("delivered", delivered))
	}
}
