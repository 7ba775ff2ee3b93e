package table

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/data"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/pinsim/pinsim/internal/physics"
	"github.com/pinsim/pinsim/internal/terminal"
)

const (
	// kickDelay holds the kick back for about one frame after the hit.
	kickDelay  = 16 * time.Millisecond
	litFor     = 120 * time.Millisecond
	kickJitter = 5 * math.Pi / 180
)

// Bumper scores and kicks the ball away from its centre.
type Bumper struct {
	ecs.Entity

	def    data.BumperDef
	body   *physics.Body
	sprite *terminal.BodySprite

	ctx     ecs.Context
	lastHit time.Duration
	hits    int
	Enabled bool
}

func NewBumper(def data.BumperDef) *Bumper {
	b := &Bumper{
		def:     def,
		lastHit: -litFor,
		Enabled: true,
		body: &physics.Body{
			Kind:  physics.Static,
			Shape: physics.Circle{Radius: def.Radius},
			Pos:   def.At.Vec(),
		},
	}
	b.sprite = &terminal.BodySprite{Body: b.body, Glyph: 'O', Style: styleBumper, Z: 1}
	// Still detached: the handles are registered, and rejected, on attach.
	_ = b.Resources().AddBody(b.body)
	b.Resources().AddRenderObject(b.sprite)
	return b
}

func (b *Bumper) Tags() []string { return []string{"bumper"} }

func (b *Bumper) OnAdd(ctx ecs.Context) error {
	b.ctx = ctx
	return nil
}

func (b *Bumper) Handlers() event.Table {
	return event.Table{
		events.TypeImpact: event.On(b.onImpact),
	}
}

func (b *Bumper) onImpact(e events.Impact) {
	ball, ok := e.Other.(*Ball)
	if !ok || !b.Enabled {
		return
	}
	b.hits++
	b.lastHit = b.ctx.Elapsed()
	b.Dispatch(events.BumperHit{Bumper: b, Ball: ball})
	b.Dispatch(events.Score{Points: b.def.Points})
	if b.def.Sound != "" {
		b.Dispatch(events.PlaySound{Sound: b.def.Sound, Gain: 1.1})
	}
	kick := ball.Body().Pos.Sub(b.body.Pos).Norm().
		Rotate(rand.NormFloat64() * kickJitter).
		Scale(b.def.Strength)
	b.Wait(kickDelay, func() {
		if ball.Alive() {
			ball.Body().ApplyImpulse(kick)
		}
	})
}

func (b *Bumper) OnRender() {
	if b.ctx.Elapsed()-b.lastHit < litFor {
		b.sprite.Style = styleLit
	} else {
		b.sprite.Style = styleBumper
	}
}

// Hits returns how many times the ball struck the bumper.
func (b *Bumper) Hits() int { return b.hits }

// Post is a small static rubber post.
type Post struct {
	ecs.Entity

	sound string
}

func NewPost(def data.PostDef) *Post {
	p := &Post{sound: def.Sound}
	body := &physics.Body{
		Kind:        physics.Static,
		Shape:       physics.Circle{Radius: def.Radius},
		Pos:         def.At.Vec(),
		Restitution: 0.6,
	}
	// Still detached: the handles are registered, and rejected, on attach.
	_ = p.Resources().AddBody(body)
	p.Resources().AddRenderObject(&terminal.BodySprite{Body: body, Glyph: '*', Style: stylePost})
	return p
}

func (p *Post) Tags() []string { return []string{"post"} }

func (p *Post) ContactSound() string { return p.sound }
