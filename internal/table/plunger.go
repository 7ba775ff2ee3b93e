package table

import (
	"time"

	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/data"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/pinsim/pinsim/internal/physics"
	"github.com/pinsim/pinsim/internal/terminal"
)

// Plunger is the launcher: a dynamic block tied to its rest position by a
// spring. Holding the launch action pulls it back; releasing lets the
// spring fire it into the ball.
type Plunger struct {
	ecs.Entity

	def    data.PlungerDef
	body   *physics.Body
	spring *physics.Spring
	held   bool
}

func NewPlunger(def data.PlungerDef) *Plunger {
	p := &Plunger{def: def}
	p.body = &physics.Body{
		Shape: physics.Circle{Radius: def.Radius},
		Pos:   def.At.Vec(),
		Mass:  def.Mass,
	}
	p.spring = &physics.Spring{
		A:         p.body,
		Anchor:    def.At.Vec(),
		Stiffness: def.Stiffness,
		Damping:   def.Damping,
	}
	// Still detached: the handles are registered, and rejected, on attach.
	_ = p.Resources().AddBody(p.body)
	_ = p.Resources().AddSpring(p.spring)
	p.Resources().AddRenderObject(&terminal.BodySprite{Body: p.body, Glyph: '|', Style: styleWall, Z: 1})

	p.Handle(def.Action+"Down", func(event.Event) {
		if !paused(&p.Entity) {
			p.held = true
		}
	})
	p.Handle(def.Action+"Up", func(event.Event) { p.release() })
	return p
}

func (p *Plunger) Tags() []string { return []string{"plunger"} }

func (p *Plunger) release() {
	if !p.held {
		return
	}
	p.held = false
	if p.def.Sound != "" && !paused(&p.Entity) {
		p.Dispatch(events.PlaySound{Sound: p.def.Sound, Gain: 0.7, Pan: 0.6})
	}
}

func (p *Plunger) OnTick(time.Duration) {
	if p.held {
		p.body.ApplyForce(physics.V(0, p.def.Pull))
	}
}

func (p *Plunger) Held() bool { return p.held }

func (p *Plunger) Body() *physics.Body { return p.body }
