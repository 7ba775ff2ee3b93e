package physics

import (
	"errors"
	"fmt"
)

var (
	ErrForeign     = errors.New("physics: handle not created by this package")
	ErrBadShape    = errors.New("physics: malformed shape")
	ErrBadMass     = errors.New("physics: dynamic body needs positive mass")
	ErrDuplicate   = errors.New("physics: already in world")
	ErrUnknownBody = errors.New("physics: body not in world")
)

type Kind uint8

const (
	Dynamic Kind = iota
	Static
	// Kinematic bodies move by their velocity but ignore forces and
	// impulses. Flippers are kinematic.
	Kinematic
)

// Shape is the collision shape of a body, in body-local coordinates.
type Shape interface {
	validate() error
}

type Circle struct {
	Radius float64
}

func (c Circle) validate() error {
	if !finite(c.Radius) || c.Radius <= 0 {
		return fmt.Errorf("%w: circle radius %v", ErrBadShape, c.Radius)
	}
	return nil
}

// Segment is a capsule from A to B with the given radius. Radius may be
// zero for a thin wall.
type Segment struct {
	A, B   Vec
	Radius float64
}

func (s Segment) validate() error {
	switch {
	case !s.A.IsFinite() || !s.B.IsFinite():
		return fmt.Errorf("%w: segment endpoint not finite", ErrBadShape)
	case s.A == s.B:
		return fmt.Errorf("%w: zero-length segment", ErrBadShape)
	case !finite(s.Radius) || s.Radius < 0:
		return fmt.Errorf("%w: segment radius %v", ErrBadShape, s.Radius)
	}
	return nil
}

// Body is a rigid body. Fields may be set freely before the body is added
// to a World; afterwards only Pos, Vel, Angle and AngVel should change.
type Body struct {
	Kind        Kind
	Shape       Shape
	Pos         Vec
	Vel         Vec
	Angle       float64
	AngVel      float64
	Mass        float64
	Restitution float64
	// Sensor bodies report contacts but are never pushed apart.
	Sensor bool

	world *World
	seq   uint64
	force Vec
}

func (b *Body) validate() error {
	if b.Shape == nil {
		return fmt.Errorf("%w: no shape", ErrBadShape)
	}
	if err := b.Shape.validate(); err != nil {
		return err
	}
	if !b.Pos.IsFinite() || !b.Vel.IsFinite() {
		return fmt.Errorf("%w: position or velocity not finite", ErrBadShape)
	}
	if b.Kind == Dynamic && !(b.Mass > 0 && finite(b.Mass)) {
		return ErrBadMass
	}
	return nil
}

func (b *Body) invMass() float64 {
	if b.Kind != Dynamic {
		return 0
	}
	return 1 / b.Mass
}

// InWorld reports whether the body is currently simulated.
func (b *Body) InWorld() bool { return b.world != nil }

// ApplyImpulse changes the velocity of a dynamic body by j/Mass.
func (b *Body) ApplyImpulse(j Vec) {
	if b.Kind == Dynamic {
		b.Vel = b.Vel.Add(j.Scale(1 / b.Mass))
	}
}

// ApplyForce accumulates a force for the next step.
func (b *Body) ApplyForce(f Vec) {
	if b.Kind == Dynamic {
		b.force = b.force.Add(f)
	}
}

// pointVel is the velocity of the world point p carried by the body.
func (b *Body) pointVel(p Vec) Vec {
	if b.AngVel == 0 {
		return b.Vel
	}
	r := p.Sub(b.Pos)
	return b.Vel.Add(r.Perp().Scale(b.AngVel))
}

// WorldSegment returns the endpoints of s, a shape of b, in world
// coordinates.
func (b *Body) WorldSegment(s Segment) (Vec, Vec) {
	return b.Pos.Add(s.A.Rotate(b.Angle)), b.Pos.Add(s.B.Rotate(b.Angle))
}

// Spring pulls two bodies toward RestLength apart. B may be nil to anchor
// A to the fixed world point Anchor.
type Spring struct {
	A, B       *Body
	Anchor     Vec
	RestLength float64
	Stiffness  float64
	Damping    float64
}

func (s *Spring) other() Vec {
	if s.B == nil {
		return s.Anchor
	}
	return s.B.Pos
}

// Distance keeps two bodies exactly Length apart.
type Distance struct {
	A, B   *Body
	Length float64
}
