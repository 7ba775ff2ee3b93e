package game

import (
	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	coresys "github.com/pinsim/pinsim/internal/core/system"
	"github.com/pinsim/pinsim/internal/events"
	"go.uber.org/zap"
)

// PauseController owns the running/paused state.
//
// Pause broadcasts OnPause to every entity and freezes the clock, which
// stops ticks, waits, delayed events and physics together. Unpause
// broadcasts OnUnpause and only then clears the flag. Both are no-ops when
// already in the requested state. With auto-pause on, losing input focus
// pauses and regaining it resumes, but only a pause that focus loss
// caused.
type PauseController struct {
	ecs.Entity

	clock     *coresys.Clock
	autoPause bool
	log       *zap.Logger

	tree       *ecs.Tree
	paused     bool
	autoPaused bool
	count      int
}

func NewPauseController(clock *coresys.Clock, autoPause bool) *PauseController {
	return &PauseController{clock: clock, autoPause: autoPause, log: zap.NewNop()}
}

func (p *PauseController) Tags() []string { return []string{"pause_controller"} }

func (p *PauseController) OnAdd(ctx ecs.Context) error {
	p.tree = ctx.Tree()
	p.log = ctx.Log().Named("pause")
	return nil
}

func (p *PauseController) Handlers() event.Table {
	return event.Table{
		"pauseDown":            func(event.Event) { p.Toggle() },
		events.TypeTogglePause: func(event.Event) { p.Toggle() },
		events.TypeBlur: func(event.Event) {
			if p.autoPause && !p.paused {
				p.Pause()
				p.autoPaused = true
			}
		},
		events.TypeFocus: func(event.Event) {
			if p.autoPaused {
				p.Unpause()
			}
		},
	}
}

func (p *PauseController) Paused() bool { return p.paused }

// Pauses returns how many times the game went from running to paused.
func (p *PauseController) Pauses() int { return p.count }

func (p *PauseController) Pause() {
	if p.paused {
		return
	}
	p.paused = true
	p.count++
	p.clock.Pause()
	if p.tree != nil {
		p.tree.Pause()
	}
	p.log.Info("paused")
}

func (p *PauseController) Unpause() {
	if !p.paused {
		return
	}
	if p.tree != nil {
		p.tree.Unpause()
	}
	p.paused = false
	p.autoPaused = false
	p.clock.Resume()
	p.log.Info("resumed")
}

func (p *PauseController) Toggle() {
	if p.paused {
		p.Unpause()
	} else {
		p.Pause()
	}
}

// SlowMoController toggles slow motion on its action and applies slowMo
// events.
type SlowMoController struct {
	ecs.Entity

	clock  *coresys.Clock
	factor float64
	log    *zap.Logger
}

func NewSlowMoController(clock *coresys.Clock, factor float64) *SlowMoController {
	return &SlowMoController{clock: clock, factor: factor, log: zap.NewNop()}
}

func (s *SlowMoController) OnAdd(ctx ecs.Context) error {
	s.log = ctx.Log().Named("slowmo")
	return nil
}

func (s *SlowMoController) Handlers() event.Table {
	return event.Table{
		"slowMoDown": func(event.Event) {
			if s.clock.SlowMo() < 1 {
				s.set(1)
			} else {
				s.set(s.factor)
			}
		},
		events.TypeSlowMo: event.On(func(e events.SlowMo) { s.set(e.Factor) }),
	}
}

func (s *SlowMoController) set(f float64) {
	if err := s.clock.SetSlowMo(f); err != nil {
		s.log.Warn("slow-mo rejected", zap.Float64("factor", f), zap.Error(err))
		return
	}
	s.log.Info("slow-mo", zap.Float64("factor", f))
}

// quitter ends the game on the quit action.
type quitter struct {
	ecs.Entity
	game *Game
}

func (q *quitter) Handlers() event.Table {
	return event.Table{
		"quitDown": func(event.Event) { q.game.Quit() },
	}
}
