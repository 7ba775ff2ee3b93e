package system

import (
	"errors"
	"time"
)

var ErrSlowMo = errors.New("system: slow-mo factor must be in (0, 1]")

// Clock converts variable real frame time into a whole number of fixed
// simulation ticks. Real time is scaled by the slow-mo factor before it
// accumulates, so slow motion stretches simulated time while render
// cadence stays untouched. At most maxTicks run per frame; accumulated
// time beyond that is dropped rather than simulated.
//
// Elapsed only ever moves in whole fixed ticks and never while paused.
type Clock struct {
	fixed    time.Duration
	maxTicks int
	slowMo   float64

	acc     time.Duration
	elapsed time.Duration
	ticks   uint64
	dropped time.Duration
	paused  bool
}

func NewClock(fixed time.Duration, maxTicks int) *Clock {
	if fixed <= 0 {
		fixed = time.Second / 60
	}
	if maxTicks <= 0 {
		maxTicks = 1
	}
	return &Clock{
		fixed:    fixed,
		maxTicks: maxTicks,
		slowMo:   1,
	}
}

// Advance feeds one real frame of realDt and returns how many fixed ticks
// are due. The ticks are counted into Elapsed immediately.
func (c *Clock) Advance(realDt time.Duration) int {
	if c.paused || realDt <= 0 {
		return 0
	}
	c.acc += time.Duration(float64(realDt) * c.slowMo)
	n := 0
	for c.acc >= c.fixed && n < c.maxTicks {
		c.acc -= c.fixed
		n++
	}
	if n == c.maxTicks && c.acc >= c.fixed {
		c.dropped += c.acc
		c.acc = 0
	}
	c.record(n)
	return n
}

// Step counts a single fixed tick outside the frame loop. It is refused
// while paused.
func (c *Clock) Step() bool {
	if c.paused {
		return false
	}
	c.record(1)
	return true
}

func (c *Clock) record(n int) {
	c.ticks += uint64(n)
	c.elapsed += time.Duration(n) * c.fixed
}

// SetSlowMo sets the simulated-time scale. Values outside (0, 1] are
// rejected and leave the factor unchanged.
func (c *Clock) SetSlowMo(f float64) error {
	if !(f > 0 && f <= 1) {
		return ErrSlowMo
	}
	c.slowMo = f
	return nil
}

func (c *Clock) SlowMo() float64 { return c.slowMo }

// Pause freezes the clock. The partial tick in the accumulator is dropped so
// resuming never starts with a burst.
func (c *Clock) Pause() {
	c.paused = true
	c.acc = 0
}

func (c *Clock) Resume() { c.paused = false }

func (c *Clock) Paused() bool { return c.paused }

func (c *Clock) Fixed() time.Duration { return c.fixed }

func (c *Clock) MaxTicks() int { return c.maxTicks }

func (c *Clock) Elapsed() time.Duration { return c.elapsed }

func (c *Clock) Ticks() uint64 { return c.ticks }

// Dropped returns the total simulated time discarded by the per-frame cap.
func (c *Clock) Dropped() time.Duration { return c.dropped }
