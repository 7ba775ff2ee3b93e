package table

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/pinsim/pinsim/internal/audio"
	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/data"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/pinsim/pinsim/internal/physics"
	"github.com/pinsim/pinsim/internal/sound"
	"github.com/pinsim/pinsim/internal/terminal"
	"go.uber.org/zap"
)

const rollingSound = "ballRolling"

// Ball is the dynamic ball. It owns a continuous rolling sound whose speed
// and gain follow the ball's velocity, and plays the contact sound of
// whatever it hits.
type Ball struct {
	ecs.Entity

	def    data.BallDef
	body   *physics.Body
	engine *audio.Engine

	rolling *sound.Instance
}

func NewBall(def data.BallDef, engine *audio.Engine) *Ball {
	b := &Ball{
		def:    def,
		engine: engine,
		body: &physics.Body{
			Shape:       physics.Circle{Radius: def.Radius},
			Pos:         def.Start.Vec(),
			Mass:        def.Mass,
			Restitution: def.Restitution,
		},
	}
	// Still detached: the handles are registered, and rejected, on attach.
	_ = b.Resources().AddBody(b.body)
	b.Resources().AddRenderObject(&terminal.BodySprite{Body: b.body, Glyph: 'o', Style: styleBall, Z: 5})
	return b
}

func (b *Ball) Tags() []string { return []string{"ball"} }

func (b *Ball) Body() *physics.Body { return b.body }

func (b *Ball) OnAdd(ctx ecs.Context) error {
	if b.engine == nil || !b.engine.Has(rollingSound) {
		return nil
	}
	s := sound.NewInstance(b.engine, rollingSound, sound.Options{Continuous: true})
	if _, err := b.AddChild(s); err != nil {
		ctx.Log().Warn("ball rolling sound", zap.Error(err))
		return nil
	}
	s.SetGain(0)
	b.rolling = s
	return nil
}

func (b *Ball) OnTick(time.Duration) {
	if b.rolling == nil || !b.rolling.Alive() {
		return
	}
	speed := b.body.Vel.Len() / b.def.MaxSpeed
	b.rolling.SetSpeed(0.6 + speed*1.3)
	b.rolling.SetGain(clamp(speed, 0, 1.2) * 0.9)
}

func (b *Ball) Handlers() event.Table {
	return event.Table{
		events.TypeImpact: event.On(b.onImpact),
	}
}

func (b *Ball) onImpact(e events.Impact) {
	cs, ok := e.Other.(ContactSounder)
	if !ok || cs.ContactSound() == "" {
		return
	}
	gain := clamp(e.Speed/30, 0, 1)
	if gain < 0.02 {
		return
	}
	b.Dispatch(events.PlaySound{
		Sound: cs.ContactSound(),
		Gain:  gain,
		Speed: clamp(1+rand.NormFloat64()*0.15, 0.5, 1.5),
	})
	if gain > 0.1 && b.rolling != nil && b.rolling.Alive() {
		if err := b.rolling.JumpToRandom(); err != nil {
			b.rolling.Fail(err)
		}
	}
}

// Rolling returns the rolling sound, or nil when the ball is silent.
func (b *Ball) Rolling() *sound.Instance { return b.rolling }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
