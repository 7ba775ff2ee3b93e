package ecs

import "time"

// Timer is a pending continuation scheduled with Entity.Wait. It counts
// down in simulated time, so it stretches under slow motion and freezes
// while the simulation is paused.
type Timer struct {
	remaining time.Duration
	fn        func()
	done      bool
}

// Cancel stops the timer from firing. Cancelling a fired timer is a no-op.
func (t *Timer) Cancel() { t.done = true }

// Pending reports whether the timer is still waiting to fire.
func (t *Timer) Pending() bool { return !t.done }

// Remaining returns the simulated time left before the timer fires.
func (t *Timer) Remaining() time.Duration {
	if t.done || t.remaining < 0 {
		return 0
	}
	return t.remaining
}

// advanceTimers counts every pending timer down by dt and fires the ones
// that came due, in scheduling order. Timers scheduled by a firing
// continuation start counting on the next call. Firing stops as soon as a
// continuation destroys the entity.
func (e *Entity) advanceTimers(dt time.Duration) {
	if len(e.timers) == 0 {
		return
	}
	batch := e.timers
	n := len(batch)
	for _, t := range batch[:n] {
		if t.done {
			continue
		}
		t.remaining -= dt
	}
	for _, t := range batch[:n] {
		if e.state != stateLive {
			return
		}
		if t.done || t.remaining > 0 {
			continue
		}
		t.done = true
		t.fn()
	}
	if e.state != stateLive {
		return
	}
	keep := make([]*Timer, 0, len(e.timers))
	for _, t := range e.timers {
		if !t.done {
			keep = append(keep, t)
		}
	}
	e.timers = keep
}

func (e *Entity) cancelTimers() {
	for _, t := range e.timers {
		t.done = true
	}
	e.timers = nil
}
