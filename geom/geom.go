// Package geom provides the planar vector geometry shared by the world index,
// the obstacle model and the velocity calculators.
package geom

import "math"

// Epsilon is the tolerance used by the geometric predicates.
const Epsilon = 1e-5

// A Vec2 is a simple 2D vector.
type Vec2 struct {
	X float64
	Y float64
}

// Add returns u+v.
func (u Vec2) Add(v Vec2) Vec2 { return Vec2{u.X + v.X, u.Y + v.Y} }

// Sub returns u-v.
func (u Vec2) Sub(v Vec2) Vec2 { return Vec2{u.X - v.X, u.Y - v.Y} }

// Scale returns k*u.
func (u Vec2) Scale(k float64) Vec2 { return Vec2{k * u.X, k * u.Y} }

// Neg returns -u.
func (u Vec2) Neg() Vec2 { return Vec2{-u.X, -u.Y} }

// Dot returns the dot product of u and v.
func (u Vec2) Dot(v Vec2) float64 { return u.X*v.X + u.Y*v.Y }

// Len returns the Euclidean norm of u.
func (u Vec2) Len() float64 { return math.Hypot(u.X, u.Y) }

// LenSq returns the squared norm of u.
func (u Vec2) LenSq() float64 { return u.X*u.X + u.Y*u.Y }

// Dist returns the distance between u and v.
func (u Vec2) Dist(v Vec2) float64 { return math.Hypot(u.X-v.X, u.Y-v.Y) }

// DistSq returns the squared distance between u and v.
func (u Vec2) DistSq(v Vec2) float64 { return u.Sub(v).LenSq() }

// Perp returns u rotated by +π/2.
func (u Vec2) Perp() Vec2 { return Vec2{-u.Y, u.X} }

// IsZero reports whether both components are zero.
func (u Vec2) IsZero() bool { return u.X == 0 && u.Y == 0 }

// IsFinite reports whether both components are finite numbers.
func (u Vec2) IsFinite() bool {
	return !math.IsNaN(u.X) && !math.IsNaN(u.Y) && !math.IsInf(u.X, 0) && !math.IsInf(u.Y, 0)
}

// Angle returns the direction of u in radians.
func (u Vec2) Angle() float64 { return math.Atan2(u.Y, u.X) }

// Normalize returns u scaled to unit length, or the zero vector if u is zero.
func (u Vec2) Normalize() Vec2 {
	l := u.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{u.X / l, u.Y / l}
}

// ClampLen returns u scaled down so that its norm does not exceed max.
func (u Vec2) ClampLen(max float64) Vec2 {
	if max <= 0 {
		return Vec2{}
	}
	if l := u.LenSq(); l > max*max {
		return u.Scale(max / math.Sqrt(l))
	}
	return u
}

// Rotate returns u rotated by θ radians counter-clockwise.
func (u Vec2) Rotate(θ float64) Vec2 {
	sin, cos := math.Sincos(θ)
	return Vec2{u.X*cos - u.Y*sin, u.X*sin + u.Y*cos}
}

// Polar returns the vector of norm r and direction θ.
func Polar(r, θ float64) Vec2 {
	sin, cos := math.Sincos(θ)
	return Vec2{r * cos, r * sin}
}

// Det returns the determinant of the 2x2 matrix with rows u and v.
func Det(u, v Vec2) float64 { return u.X*v.Y - u.Y*v.X }

// LeftOf returns a positive value if c lies to the left of the directed line a→b,
// a negative value if it lies to the right and zero if the three points are collinear.
func LeftOf(a, b, c Vec2) float64 { return Det(a.Sub(c), b.Sub(a)) }

// AngleBetween returns the signed angle from u to v in [-π, π].
func AngleBetween(u, v Vec2) float64 {
	return DiffAngle(v.Angle(), u.Angle())
}

// DiffAngle returns the difference between two angles in radians.
// θ and φ must be between -π and π. The result is between -π and π.
func DiffAngle(θ, φ float64) float64 {
	return math.Mod(θ-φ+3*math.Pi, 2*math.Pi) - math.Pi
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// A Line is a directed line through Point. Direction is a unit vector.
// The half-plane to the left of the line is the permitted side.
type Line struct {
	Point     Vec2
	Direction Vec2
}

// A Segment is a straight piece between two points.
type Segment [2]Vec2

// Intersect returns the solution of the equation s[0]+x*(s[1]-s[0]) = t[0]+y*(t[1]-t[0]).
// Might contain NaNs or Infs when the segments are parallel.
func (s Segment) Intersect(t Segment) (x, y float64) {
	u := s[1].Sub(s[0])
	v := t[1].Sub(t[0])
	det := u.Y*v.X - u.X*v.Y
	x = ((t[0].Y-s[0].Y)*v.X - (t[0].X-s[0].X)*v.Y) / det
	y = (u.X*(t[0].Y-s[0].Y) - u.Y*(t[0].X-s[0].X)) / det
	return x, y
}

// Point returns a point at position (1-x) * s[0] + x * s[1].
func (s Segment) Point(x float64) Vec2 {
	return Vec2{
		X: (1-x)*s[0].X + x*s[1].X,
		Y: (1-x)*s[0].Y + x*s[1].Y,
	}
}

// DistSq returns the squared distance from p to the closest point of s.
func (s Segment) DistSq(p Vec2) float64 {
	d := s[1].Sub(s[0])
	l := d.LenSq()
	if l == 0 {
		return p.DistSq(s[0])
	}
	r := Clamp(p.Sub(s[0]).Dot(d)/l, 0, 1)
	return p.DistSq(s.Point(r))
}

// Blocks reports whether s obstructs the straight path t.
// Segments crossing at interior points of both block each other, and so do
// collinear segments sharing a stretch of positive length.
// Touching at an endpoint does not block.
func (s Segment) Blocks(t Segment) bool {
	u := s[1].Sub(s[0])
	v := t[1].Sub(t[0])
	w := t[0].Sub(s[0])
	den := Det(u, v)
	if math.Abs(den) > Epsilon*Epsilon {
		a := Det(w, v) / den
		b := Det(w, u) / den
		return a > Epsilon && a < 1-Epsilon && b > Epsilon && b < 1-Epsilon
	}

	// parallel: only collinear overlaps matter
	if math.Abs(Det(w, u)) > Epsilon*math.Max(u.Len(), 1) {
		return false
	}
	ll := u.LenSq()
	if ll == 0 || v.LenSq() == 0 {
		return false
	}
	a0 := w.Dot(u) / ll
	a1 := t[1].Sub(s[0]).Dot(u) / ll
	if a0 > a1 {
		a0, a1 = a1, a0
	}
	lo, hi := math.Max(a0, 0), math.Min(a1, 1)
	return (hi-lo)*math.Sqrt(ll) > Epsilon
}
