package physics

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Contact is a begin or end of touching between two bodies, reported after
// the step that detected it. Speed is the approach speed along the contact
// normal at the moment contact began.
type Contact struct {
	A, B  *Body
	Begin bool
	Speed float64
}

type pair struct{ a, b *Body }

func makePair(a, b *Body) pair {
	if a.seq > b.seq {
		a, b = b, a
	}
	return pair{a, b}
}

// World is a small stepped rigid-body world: dynamic circles collide with
// circles and capsules, springs and distance constraints join bodies, and
// contact begin/end transitions are queued for the caller to drain.
//
// The world is driven from the single simulation thread and is not safe
// for concurrent use.
type World struct {
	Gravity Vec
	// Iterations is the number of constraint relaxation passes per step.
	Iterations int

	bodies      []*Body
	springs     []*Spring
	constraints []*Distance

	touching map[pair]bool
	order    []pair
	pending  []Contact

	nextSeq uint64
	steps   uint64
}

func NewWorld(gravity Vec) *World {
	return &World{
		Gravity:    gravity,
		Iterations: 4,
		touching:   make(map[pair]bool),
	}
}

func (w *World) AddBody(h any) error {
	b, ok := h.(*Body)
	if !ok {
		return fmt.Errorf("%w: %T", ErrForeign, h)
	}
	if b.world != nil {
		return ErrDuplicate
	}
	if err := b.validate(); err != nil {
		return err
	}
	w.nextSeq++
	b.seq = w.nextSeq
	b.world = w
	w.bodies = append(w.bodies, b)
	return nil
}

// RemoveBody drops b along with any spring, constraint or contact that
// references it. No end-contact is reported for contacts it was part of.
func (w *World) RemoveBody(h any) {
	b, ok := h.(*Body)
	if !ok || b.world != w {
		return
	}
	b.world = nil
	w.bodies = removeBody(w.bodies, b)

	springs := w.springs[:0]
	for _, s := range w.springs {
		if s.A != b && s.B != b {
			springs = append(springs, s)
		}
	}
	w.springs = springs

	cs := w.constraints[:0]
	for _, c := range w.constraints {
		if c.A != b && c.B != b {
			cs = append(cs, c)
		}
	}
	w.constraints = cs

	order := w.order[:0]
	for _, p := range w.order {
		if p.a == b || p.b == b {
			delete(w.touching, p)
			continue
		}
		order = append(order, p)
	}
	w.order = order

	pending := w.pending[:0]
	for _, c := range w.pending {
		if c.A != b && c.B != b {
			pending = append(pending, c)
		}
	}
	w.pending = pending
}

func (w *World) AddSpring(h any) error {
	s, ok := h.(*Spring)
	if !ok {
		return fmt.Errorf("%w: %T", ErrForeign, h)
	}
	if s.A == nil || s.A.world != w || (s.B != nil && s.B.world != w) {
		return ErrUnknownBody
	}
	if !finite(s.Stiffness) || s.Stiffness < 0 || !finite(s.Damping) || s.Damping < 0 {
		return fmt.Errorf("physics: spring stiffness %v damping %v", s.Stiffness, s.Damping)
	}
	for _, have := range w.springs {
		if have == s {
			return ErrDuplicate
		}
	}
	w.springs = append(w.springs, s)
	return nil
}

func (w *World) RemoveSpring(h any) {
	s, ok := h.(*Spring)
	if !ok {
		return
	}
	for i, have := range w.springs {
		if have == s {
			w.springs = append(w.springs[:i], w.springs[i+1:]...)
			return
		}
	}
}

func (w *World) AddConstraint(h any) error {
	c, ok := h.(*Distance)
	if !ok {
		return fmt.Errorf("%w: %T", ErrForeign, h)
	}
	if c.A == nil || c.B == nil || c.A.world != w || c.B.world != w {
		return ErrUnknownBody
	}
	if !finite(c.Length) || c.Length < 0 {
		return fmt.Errorf("physics: constraint length %v", c.Length)
	}
	for _, have := range w.constraints {
		if have == c {
			return ErrDuplicate
		}
	}
	w.constraints = append(w.constraints, c)
	return nil
}

func (w *World) RemoveConstraint(h any) {
	c, ok := h.(*Distance)
	if !ok {
		return
	}
	for i, have := range w.constraints {
		if have == c {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			return
		}
	}
}

func (w *World) BodyCount() int       { return len(w.bodies) }
func (w *World) SpringCount() int     { return len(w.springs) }
func (w *World) ConstraintCount() int { return len(w.constraints) }
func (w *World) Steps() uint64        { return w.steps }

// Bodies returns the simulated bodies in insertion order.
func (w *World) Bodies() []*Body {
	out := make([]*Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

// Step advances the world by dt.
func (w *World) Step(dt time.Duration) {
	h := dt.Seconds()
	if h <= 0 {
		return
	}
	w.steps++
	w.applySprings()
	for _, b := range w.bodies {
		switch b.Kind {
		case Dynamic:
			acc := w.Gravity.Add(b.force.Scale(1 / b.Mass))
			b.Vel = b.Vel.Add(acc.Scale(h))
			b.Pos = b.Pos.Add(b.Vel.Scale(h))
		case Kinematic:
			b.Pos = b.Pos.Add(b.Vel.Scale(h))
			b.Angle += b.AngVel * h
		}
		b.force = Vec{}
	}
	for i := 0; i < w.Iterations; i++ {
		w.solveConstraints()
	}
	w.collide()
}

func (w *World) applySprings() {
	for _, s := range w.springs {
		d := s.other().Sub(s.A.Pos)
		l := d.Len()
		if l == 0 {
			continue
		}
		n := d.Scale(1 / l)
		var relVel float64
		if s.B != nil {
			relVel = s.B.Vel.Sub(s.A.Vel).Dot(n)
		} else {
			relVel = -s.A.Vel.Dot(n)
		}
		f := n.Scale(s.Stiffness*(l-s.RestLength) + s.Damping*relVel)
		s.A.ApplyForce(f)
		if s.B != nil {
			s.B.ApplyForce(f.Scale(-1))
		}
	}
}

func (w *World) solveConstraints() {
	for _, c := range w.constraints {
		ia, ib := c.A.invMass(), c.B.invMass()
		sum := ia + ib
		if sum == 0 {
			continue
		}
		d := c.B.Pos.Sub(c.A.Pos)
		l := d.Len()
		if l == 0 {
			continue
		}
		n := d.Scale(1 / l)
		corr := n.Scale((l - c.Length) / sum)
		c.A.Pos = c.A.Pos.Add(corr.Scale(ia))
		c.B.Pos = c.B.Pos.Sub(corr.Scale(ib))

		rel := c.B.Vel.Sub(c.A.Vel).Dot(n)
		j := n.Scale(rel / sum)
		c.A.Vel = c.A.Vel.Add(j.Scale(ia))
		c.B.Vel = c.B.Vel.Sub(j.Scale(ib))
	}
}

// manifold describes an overlap: normal points from other toward the
// dynamic circle.
type manifold struct {
	normal Vec
	depth  float64
	point  Vec
}

func (w *World) collide() {
	now := make(map[pair]bool, len(w.touching))
	var order []pair
	for i, a := range w.bodies {
		for _, b := range w.bodies[i+1:] {
			circle, other := a, b
			cs, ok := dynamicCircle(circle)
			if !ok {
				circle, other = b, a
				if cs, ok = dynamicCircle(circle); !ok {
					continue
				}
			}
			m, hit := overlap(circle, cs, other)
			if !hit {
				continue
			}
			p := makePair(a, b)
			now[p] = true
			order = append(order, p)
			speed := -circle.Vel.Sub(other.pointVel(m.point)).Dot(m.normal)
			if !w.touching[p] {
				w.pending = append(w.pending, Contact{A: p.a, B: p.b, Begin: true, Speed: math.Max(0, speed)})
			}
			if !circle.Sensor && !other.Sensor {
				resolve(circle, other, m)
			}
		}
	}
	for _, p := range w.order {
		if !now[p] {
			w.pending = append(w.pending, Contact{A: p.a, B: p.b})
		}
	}
	w.touching = now
	w.order = order
}

func dynamicCircle(b *Body) (Circle, bool) {
	if b.Kind != Dynamic {
		return Circle{}, false
	}
	c, ok := b.Shape.(Circle)
	return c, ok
}

func overlap(c *Body, cs Circle, other *Body) (manifold, bool) {
	var closest Vec
	var r float64
	switch s := other.Shape.(type) {
	case Circle:
		closest, r = other.Pos, s.Radius
	case Segment:
		a, b := other.WorldSegment(s)
		closest, r = closestOnSegment(c.Pos, a, b), s.Radius
	default:
		return manifold{}, false
	}
	d := c.Pos.Sub(closest)
	dist := d.Len()
	reach := cs.Radius + r
	if dist >= reach {
		return manifold{}, false
	}
	n := Vec{0, -1}
	if dist > 0 {
		n = d.Scale(1 / dist)
	}
	return manifold{normal: n, depth: reach - dist, point: closest.Add(n.Scale(r))}, true
}

func resolve(c, other *Body, m manifold) {
	ic, io := c.invMass(), other.invMass()
	sum := ic + io
	c.Pos = c.Pos.Add(m.normal.Scale(m.depth * ic / sum))
	other.Pos = other.Pos.Sub(m.normal.Scale(m.depth * io / sum))

	rel := c.Vel.Sub(other.pointVel(m.point)).Dot(m.normal)
	if rel >= 0 {
		return
	}
	e := math.Max(c.Restitution, other.Restitution)
	j := -(1 + e) * rel / sum
	c.Vel = c.Vel.Add(m.normal.Scale(j * ic))
	if other.Kind == Dynamic {
		other.Vel = other.Vel.Sub(m.normal.Scale(j * io))
	}
}

// DrainContacts hands every queued contact transition to fn in detection
// order and clears the queue. Begins of a step precede its ends.
func (w *World) DrainContacts(fn func(Contact)) {
	pending := w.pending
	w.pending = nil
	for _, c := range pending {
		fn(c)
	}
}

// Touching reports whether a and b were in contact after the last step.
func (w *World) Touching(a, b *Body) bool {
	return w.touching[makePair(a, b)]
}

// Digest hashes the kinematic state of every body in insertion order. Two
// worlds fed the same bodies and steps produce the same digest.
func (w *World) Digest() uint64 {
	h := xxhash.New()
	var buf [8]byte
	put := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	for _, b := range w.bodies {
		put(b.Pos.X)
		put(b.Pos.Y)
		put(b.Vel.X)
		put(b.Vel.Y)
		put(b.Angle)
		put(b.AngVel)
	}
	return h.Sum64()
}

func removeBody(bodies []*Body, b *Body) []*Body {
	for i, have := range bodies {
		if have == b {
			return append(bodies[:i], bodies[i+1:]...)
		}
	}
	return bodies
}
