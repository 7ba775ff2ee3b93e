package physics

import "math"

// Vec is a 2D vector in table units (y grows toward the drain).
type Vec struct {
	X, Y float64
}

func V(x, y float64) Vec { return Vec{x, y} }

func (a Vec) Add(b Vec) Vec         { return Vec{a.X + b.X, a.Y + b.Y} }
func (a Vec) Sub(b Vec) Vec         { return Vec{a.X - b.X, a.Y - b.Y} }
func (a Vec) Scale(s float64) Vec   { return Vec{a.X * s, a.Y * s} }
func (a Vec) Dot(b Vec) float64     { return a.X*b.X + a.Y*b.Y }
func (a Vec) Cross(b Vec) float64   { return a.X*b.Y - a.Y*b.X }
func (a Vec) Len() float64          { return math.Hypot(a.X, a.Y) }
func (a Vec) Perp() Vec             { return Vec{-a.Y, a.X} }
func (a Vec) IsFinite() bool        { return finite(a.X) && finite(a.Y) }
func (a Vec) Rotate(rad float64) Vec {
	s, c := math.Sincos(rad)
	return Vec{a.X*c - a.Y*s, a.X*s + a.Y*c}
}

// Norm returns the unit vector along a, or the zero vector.
func (a Vec) Norm() Vec {
	l := a.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{a.X / l, a.Y / l}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// closestOnSegment returns the point of segment ab nearest to p.
func closestOnSegment(p, a, b Vec) Vec {
	ab := b.Sub(a)
	t := p.Sub(a).Dot(ab) / ab.Dot(ab)
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Scale(t))
}
