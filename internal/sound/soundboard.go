package sound

import (
	"github.com/pinsim/pinsim/internal/audio"
	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/events"
	"go.uber.org/zap"
)

// Soundboard plays one-shot sounds requested through playSound events. Each
// request becomes an Instance child, so pausing the tree pauses it and the
// instance cleans itself up when the sound ends.
type Soundboard struct {
	ecs.Entity

	engine *audio.Engine
	log    *zap.Logger
	played int
}

func NewSoundboard(engine *audio.Engine) *Soundboard {
	return &Soundboard{engine: engine}
}

func (b *Soundboard) Tags() []string { return []string{"soundboard"} }

func (b *Soundboard) OnAdd(ctx ecs.Context) error {
	b.log = ctx.Log().Named("soundboard")
	return nil
}

func (b *Soundboard) Handlers() event.Table {
	return event.Table{
		events.TypePlaySound: event.On(b.onPlaySound),
	}
}

func (b *Soundboard) onPlaySound(e events.PlaySound) {
	_, err := b.AddChild(NewInstance(b.engine, e.Sound, Options{
		Gain:  e.Gain,
		Pan:   e.Pan,
		Speed: e.Speed,
	}))
	if err != nil {
		b.log.Warn("play sound failed", zap.String("sound", e.Sound), zap.Error(err))
		return
	}
	b.played++
}

// Playing returns the instances currently owned by the board.
func (b *Soundboard) Playing() []*Instance {
	var out []*Instance
	for _, c := range b.Children() {
		if s, ok := c.(*Instance); ok && s.Alive() {
			out = append(out, s)
		}
	}
	return out
}

// Played returns how many playSound requests started an instance.
func (b *Soundboard) Played() int { return b.played }
