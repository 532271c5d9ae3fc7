package motion

import (
	"math"

	"github.com/superxueyizou/MoPlaT/geom"
)

// timeToCollision returns the earliest time at which a disc at p moving with
// velocity v touches a static disc at q, the two radii summing to r.
// When the discs already overlap, colliding is true and t is the time
// needed to separate, +Inf if v does not separate them.
func timeToCollision(p, v, q geom.Vec2, r float64) (t float64, colliding bool) {
	d := q.Sub(p)
	a := v.LenSq()
	b := d.Dot(v)
	c := d.LenSq() - r*r
	if c < 0 {
		if a == 0 {
			return math.Inf(1), true
		}
		disc := b*b - a*c
		return (b + math.Sqrt(disc)) / a, true
	}
	if a == 0 || b <= 0 {
		return math.Inf(1), false
	}
	disc := b*b - a*c
	if disc < 0 {
		return math.Inf(1), false
	}
	return (b - math.Sqrt(disc)) / a, false
}

// timeToSegment returns the earliest time at which a disc of radius r at p
// moving with velocity v touches the segment s. When the disc already touches
// it, colliding is true and t is the time needed to get clear.
func timeToSegment(p, v geom.Vec2, s geom.Segment, r float64) (t float64, colliding bool) {
	if s.DistSq(p) < r*r {
		// move away from the closest point of the segment
		e := s[1].Sub(s[0])
		k := 0.0
		if l := e.LenSq(); l > 0 {
			k = geom.Clamp(p.Sub(s[0]).Dot(e)/l, 0, 1)
		}
		n := p.Sub(s.Point(k))
		d := n.Len()
		if d == 0 {
			return math.Inf(1), true
		}
		n = n.Scale(1 / d)
		out := v.Dot(n)
		if out <= 0 {
			return math.Inf(1), true
		}
		return (r - d) / out, true
	}

	t = math.Inf(1)
	for _, q := range s {
		if tq, _ := timeToCollision(p, v, q, r); tq < t {
			t = tq
		}
	}

	// the two sides of the segment pushed out by r
	e := s[1].Sub(s[0])
	if e.LenSq() == 0 {
		return t, false
	}
	n := e.Perp().Normalize().Scale(r)
	for _, off := range []geom.Vec2{n, n.Neg()} {
		side := geom.Segment{s[0].Add(off), s[1].Add(off)}
		path := geom.Segment{p, p.Add(v)}
		x, y := path.Intersect(side)
		if x >= 0 && y >= 0 && y <= 1 && x < t {
			t = x
		}
	}
	return t, false
}
