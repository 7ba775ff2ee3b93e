package table

import (
	"github.com/gdamore/tcell/v2"
	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/data"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/pinsim/pinsim/internal/physics"
	"github.com/pinsim/pinsim/internal/terminal"
)

// Wall is a static chain of capsules, one body per link.
type Wall struct {
	ecs.Entity

	sound string
}

func NewWall(def data.WallDef) *Wall {
	w := &Wall{sound: def.Sound}
	addChain(&w.Entity, def, false, '#', styleWall)
	return w
}

func (w *Wall) Tags() []string { return []string{"wall"} }

func (w *Wall) ContactSound() string { return w.sound }

// addChain gives e one static segment body per link of def.Points. Shapes
// are validated when e joins the tree.
func addChain(e *ecs.Entity, def data.WallDef, sensor bool, glyph rune, style tcell.Style) {
	for i := 1; i < len(def.Points); i++ {
		body := &physics.Body{
			Kind:        physics.Static,
			Shape:       physics.Segment{A: def.Points[i-1].Vec(), B: def.Points[i].Vec(), Radius: def.Radius},
			Restitution: def.Restitution,
			Sensor:      sensor,
		}
		// Still detached: the handles are registered, and rejected, on attach.
		_ = e.Resources().AddBody(body)
		e.Resources().AddRenderObject(&terminal.BodySprite{Body: body, Glyph: glyph, Style: style})
	}
}

// Drain is the sensor across the outhole. A ball touching it is destroyed
// and a drain event dispatched.
type Drain struct {
	ecs.Entity

	drained int
}

func NewDrain(def data.WallDef) *Drain {
	d := &Drain{}
	addChain(&d.Entity, def, true, '_', styleDrain)
	return d
}

func (d *Drain) Tags() []string { return []string{"drain"} }

func (d *Drain) Handlers() event.Table {
	return event.Table{
		events.TypeBeginContact: event.On(d.onBeginContact),
	}
}

func (d *Drain) onBeginContact(e events.BeginContact) {
	ball, ok := e.Other.(*Ball)
	if !ok || !ball.Alive() {
		return
	}
	ball.Destroy()
	d.drained++
	d.Dispatch(events.Drain{})
}

// Drained returns how many balls went down the drain.
func (d *Drain) Drained() int { return d.drained }
