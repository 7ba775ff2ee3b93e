package system

import "time"

// Phase defines execution ordering within a single fixed tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain device events into the bus
	PhaseTimers                  // 1: deferred dispatch + entity waits
	PhaseUpdate                  // 2: entity OnTick traversal
	PhasePhysics                 // 3: world step + contact forwarding
	PhasePostUpdate              // 4: effects that read post-step state
	PhaseCleanup                 // 5: retire destroyed handles
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseTimers:
		return "timers"
	case PhaseUpdate:
		return "update"
	case PhasePhysics:
		return "physics"
	case PhasePostUpdate:
		return "post-update"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick-phase system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
