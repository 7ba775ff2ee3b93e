package system

import (
	"time"

	coresys "github.com/pinsim/pinsim/internal/core/system"
	"github.com/pinsim/pinsim/internal/input"
	"go.uber.org/zap"
)

// InputSystem drains raw device samples into the input manager, which
// dispatches them on the bus. Phase 0 (Input). It also runs on frames that
// execute no fixed tick, and while paused, so input is never held back.
type InputSystem struct {
	manager *input.Manager
	raw     <-chan input.Raw
	onQuit  func()
	log     *zap.Logger
}

func NewInputSystem(manager *input.Manager, raw <-chan input.Raw, onQuit func(), log *zap.Logger) *InputSystem {
	return &InputSystem{
		manager: manager,
		raw:     raw,
		onQuit:  onQuit,
		log:     log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	if s.raw == nil {
		return
	}
	quit, resized := s.manager.Drain(s.raw)
	if resized {
		s.log.Debug("terminal resized")
	}
	if quit && s.onQuit != nil {
		s.onQuit()
	}
}
