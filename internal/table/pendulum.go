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

// Pendulum is a swinging target: a dynamic bob held at a fixed distance
// from a pivot. Hitting the bob scores.
type Pendulum struct {
	ecs.Entity

	def   data.PendulumDef
	pivot *physics.Body
	bob   *physics.Body
	link  *physics.Distance
	hits  int
}

func NewPendulum(def data.PendulumDef) *Pendulum {
	p := &Pendulum{def: def}
	p.pivot = &physics.Body{
		Kind:   physics.Static,
		Shape:  physics.Circle{Radius: 0.1},
		Pos:    def.Pivot.Vec(),
		Sensor: true,
	}
	p.bob = &physics.Body{
		Shape:       physics.Circle{Radius: def.Radius},
		Pos:         def.Pivot.Vec().Add(physics.V(0, def.Length)),
		Mass:        def.Mass,
		Restitution: 0.5,
	}
	p.link = &physics.Distance{A: p.pivot, B: p.bob, Length: def.Length}

	res := p.Resources()
	_ = res.AddBody(p.pivot)
	_ = res.AddBody(p.bob)
	_ = res.AddConstraint(p.link)
	res.AddRenderObject(&rod{a: p.pivot, b: p.bob})
	res.AddRenderObject(&terminal.BodySprite{Body: p.bob, Glyph: '@', Style: styleBumper, Z: 1})
	return p
}

func (p *Pendulum) Tags() []string { return []string{"pendulum"} }

func (p *Pendulum) Handlers() event.Table {
	return event.Table{
		events.TypeImpact: event.On(p.onImpact),
	}
}

func (p *Pendulum) onImpact(e events.Impact) {
	if _, ok := e.Other.(*Ball); !ok {
		return
	}
	p.hits++
	if p.def.Points > 0 {
		p.Dispatch(events.Score{Points: p.def.Points})
	}
	p.Dispatch(events.PlaySound{Sound: "pendulum", Gain: clamp(e.Speed/30, 0.2, 1)})
}

func (p *Pendulum) Bob() *physics.Body { return p.bob }

func (p *Pendulum) Hits() int { return p.hits }

// rod draws the line from pivot to bob.
type rod struct {
	a, b *physics.Body
}

func (r *rod) Draw(c *terminal.Canvas) {
	c.Line(r.a.Pos, r.b.Pos, ':', tcell.StyleDefault.Foreground(tcell.ColorGray))
}
