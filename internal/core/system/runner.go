package system

import (
	"cmp"
	"slices"
	"time"
)

// Runner drives the registered systems through one simulation tick, lowest
// phase first. Within a phase, systems run in the order they were
// registered.
type Runner struct {
	systems []System
	dirty   bool
}

func NewRunner() *Runner {
	return &Runner{systems: make([]System, 0, 16)}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.dirty = true
}

// Tick runs every phase with dt.
func (r *Runner) Tick(dt time.Duration) {
	for _, s := range r.ordered() {
		s.Update(dt)
	}
}

// TickPhase runs only the systems of one phase. The game drains input this
// way on every frame, including frames with no fixed tick and paused ones.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	for _, s := range r.ordered() {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

func (r *Runner) ordered() []System {
	if r.dirty {
		slices.SortStableFunc(r.systems, func(a, b System) int {
			return cmp.Compare(a.Phase(), b.Phase())
		})
		r.dirty = false
	}
	return r.systems
}
