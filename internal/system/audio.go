package system

import (
	"time"

	"github.com/pinsim/pinsim/internal/audio"
	coresys "github.com/pinsim/pinsim/internal/core/system"
)

// AudioSystem delivers voice-ended notifications on the simulation thread,
// where one-shot sound entities destroy themselves. Phase 4 (PostUpdate).
type AudioSystem struct {
	engine *audio.Engine
}

func NewAudioSystem(engine *audio.Engine) *AudioSystem {
	return &AudioSystem{engine: engine}
}

func (s *AudioSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *AudioSystem) Update(_ time.Duration) {
	s.engine.Poll()
}
