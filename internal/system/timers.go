package system

import (
	"time"

	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	coresys "github.com/pinsim/pinsim/internal/core/system"
)

// TimerSystem advances simulated time for deferred dispatch and entity
// waits. Phase 1 (Timers). It never runs while paused, which is what
// freezes both.
type TimerSystem struct {
	bus  *event.Bus[ecs.EntityID]
	tree *ecs.Tree
}

func NewTimerSystem(bus *event.Bus[ecs.EntityID], tree *ecs.Tree) *TimerSystem {
	return &TimerSystem{bus: bus, tree: tree}
}

func (s *TimerSystem) Phase() coresys.Phase { return coresys.PhaseTimers }

func (s *TimerSystem) Update(dt time.Duration) {
	s.bus.Advance(dt)
	s.tree.AdvanceTimers(dt)
}
