package table

import (
	"math"
	"time"

	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/data"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/pinsim/pinsim/internal/physics"
	"github.com/pinsim/pinsim/internal/terminal"
)

// Flipper is a kinematic capsule hinged at its pivot. While its action is
// held it swings toward the up angle at a fixed angular speed; released, it
// swings back down.
//
// The action handlers are per-instance overrides named after the bound
// action, so two flippers on one side share a key.
type Flipper struct {
	ecs.Entity

	def  data.FlipperDef
	body *physics.Body

	up, down float64 // radians, in world orientation
	speed    float64 // radians per second
	pan      float64
	engaged  bool
}

func NewFlipper(def data.FlipperDef) *Flipper {
	f := &Flipper{
		def:   def,
		up:    deg(def.UpAngle),
		down:  deg(def.DownAngle),
		speed: deg(def.Speed),
		pan:   -0.4,
	}
	if def.Side == "right" {
		f.up = math.Pi - f.up
		f.down = math.Pi - f.down
		f.pan = 0.4
	}
	f.body = &physics.Body{
		Kind:        physics.Kinematic,
		Shape:       physics.Segment{B: physics.V(def.Length, 0), Radius: def.Radius},
		Pos:         def.Pivot.Vec(),
		Angle:       f.down,
		Restitution: 0.2,
	}
	// Still detached: the handles are registered, and rejected, on attach.
	_ = f.Resources().AddBody(f.body)
	f.Resources().AddRenderObject(&terminal.BodySprite{Body: f.body, Glyph: '=', Style: styleFlipper, Z: 2})

	f.Handle(def.Action+"Down", func(event.Event) { f.engage(true) })
	f.Handle(def.Action+"Up", func(event.Event) { f.engage(false) })
	return f
}

func (f *Flipper) Tags() []string { return []string{"flipper", f.def.Side} }

func (f *Flipper) ContactSound() string { return f.def.Sound }

// engage follows the action. While paused a press is ignored and a release
// only drops the flipper, silently.
func (f *Flipper) engage(on bool) {
	if f.engaged == on {
		return
	}
	if paused(&f.Entity) {
		if !on {
			f.engaged = false
		}
		return
	}
	f.engaged = on
	name := "flipperDown"
	if on {
		name = "flipperUp"
	}
	f.Dispatch(events.PlaySound{Sound: name, Gain: 0.3, Pan: f.pan})
}

// OnTick sets the angular velocity that carries the flipper toward its
// target angle within this tick, never past it.
func (f *Flipper) OnTick(dt time.Duration) {
	h := dt.Seconds()
	if h <= 0 {
		return
	}
	target := f.down
	if f.engaged {
		target = f.up
	}
	diff := target - f.body.Angle
	switch {
	case math.Abs(diff) < 1e-9:
		f.body.Angle = target
		f.body.AngVel = 0
	case math.Abs(diff) <= f.speed*h:
		f.body.AngVel = diff / h
	default:
		f.body.AngVel = math.Copysign(f.speed, diff)
	}
}

func (f *Flipper) Engaged() bool { return f.engaged }

func (f *Flipper) Angle() float64 { return f.body.Angle }

// UpAngle and DownAngle are the rest angles in world orientation.
func (f *Flipper) UpAngle() float64   { return f.up }
func (f *Flipper) DownAngle() float64 { return f.down }

func deg(d float64) float64 { return d * math.Pi / 180 }
