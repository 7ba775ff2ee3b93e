// Package table builds a playfield from a data.TableLayout. Every element
// is an entity owning its physics bodies and terminal sprites; the Table
// root owns the elements and spawns balls on newBall.
package table

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/pinsim/pinsim/internal/audio"
	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/data"
	"github.com/pinsim/pinsim/internal/events"
	"go.uber.org/zap"
)

// ContactSounder is implemented by elements that make a sound when the
// ball hits them. The ball plays it, scaled by the impact speed.
type ContactSounder interface {
	ContactSound() string
}

var (
	styleWall    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleBall    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleBumper  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleLit     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	stylePost    = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleFlipper = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleDrain   = tcell.StyleDefault.Foreground(tcell.ColorMaroon)
	styleHUD     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// Table is the playfield root.
type Table struct {
	ecs.Entity

	layout *data.TableLayout
	engine *audio.Engine
	log    *zap.Logger

	Scoreboard *Scoreboard
	spawned    int
}

// New builds every element of layout as a pending child. engine may be nil
// for a silent table.
func New(layout *data.TableLayout, engine *audio.Engine) (*Table, error) {
	t := &Table{layout: layout, engine: engine}
	var nodes []ecs.Node
	for _, w := range layout.Walls {
		nodes = append(nodes, NewWall(w))
	}
	nodes = append(nodes, NewDrain(layout.Drain))
	for _, b := range layout.Bumpers {
		nodes = append(nodes, NewBumper(b))
	}
	for _, p := range layout.Posts {
		nodes = append(nodes, NewPost(p))
	}
	for _, p := range layout.Pendulums {
		nodes = append(nodes, NewPendulum(p))
	}
	for _, f := range layout.Flippers {
		nodes = append(nodes, NewFlipper(f))
	}
	if layout.Plunger.Stiffness > 0 {
		nodes = append(nodes, NewPlunger(layout.Plunger))
	}
	t.Scoreboard = NewScoreboard()
	nodes = append(nodes, t.Scoreboard)

	for _, n := range nodes {
		if _, err := t.AddChild(n); err != nil {
			return nil, fmt.Errorf("build table: %w", err)
		}
	}
	return t, nil
}

func (t *Table) Tags() []string { return []string{"table"} }

func (t *Table) OnAdd(ctx ecs.Context) error {
	t.log = ctx.Log().Named("table").With(zap.String("layout", t.layout.Name))
	t.log.Info("table ready", zap.Int("elements", len(t.Children())))
	return nil
}

func (t *Table) Handlers() event.Table {
	return event.Table{
		events.TypeNewBall: event.On(func(events.NewBall) { t.SpawnBall() }),
	}
}

// SpawnBall adds a ball at the layout's launch position.
func (t *Table) SpawnBall() *Ball {
	b := NewBall(t.layout.Ball, t.engine)
	if _, err := t.AddChild(b); err != nil {
		t.log.Warn("spawn ball", zap.Error(err))
		return nil
	}
	t.spawned++
	return b
}

// Balls returns the balls in play.
func (t *Table) Balls() []*Ball {
	var out []*Ball
	for _, c := range t.Children() {
		if b, ok := c.(*Ball); ok {
			out = append(out, b)
		}
	}
	return out
}

// Spawned returns how many balls the table has put in play.
func (t *Table) Spawned() int { return t.spawned }

func (t *Table) Layout() *data.TableLayout { return t.layout }

func paused(e *ecs.Entity) bool {
	ctx := e.Context()
	return ctx != nil && ctx.Paused()
}
