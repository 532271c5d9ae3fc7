package motion

import (
	"math"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/space"
)

// Sampling searches a discrete set of candidate velocities for the one
// with the lowest penalty
//
//	SafetyFactor / time to collision + |candidate - preferred velocity|
//
// where the deviation term vanishes for candidates that are already colliding.
// Time to collision against an agent is reciprocal: the other agent is
// assumed to take half of the avoidance effort.
//
// Candidates that would close in on a neighbor by more than half the gap
// between them within one step, or on an edge by more than the whole gap,
// are only used when no candidate keeps within these bounds.
//
// The current velocity is always scored first so that keeping it wins ties.
// With Accel set, candidates are offsets from the current velocity bounded by
// MaxAccel times the time step; otherwise they span a fan of directions and
// magnitudes up to the max speed, after the preferred velocity.
type Sampling struct {
	Accel bool

	conf *moplat.Config
	cand []geom.Vec2
}

// NewSampling returns a sampling calculator.
func NewSampling(conf *moplat.Config, accel bool) *Sampling {
	return &Sampling{Accel: accel, conf: conf}
}

// Velocity implements moplat.VelocityCalculator.
func (c *Sampling) Velocity(self *moplat.Agent, neighbors []*moplat.Agent, obstacles []*space.Vertex, pref geom.Vec2, dt float64) geom.Vec2 {
	vmax := self.MaxSpeed()
	cur := self.Velocity().ClampLen(vmax)
	pref = pref.ClampLen(vmax)

	if len(neighbors) == 0 && len(obstacles) == 0 {
		if c.Accel {
			return cur.Add(pref.Sub(cur).ClampLen(c.conf.MaxAccel * dt)).ClampLen(vmax)
		}
		return pref
	}

	c.cand = c.candidates(c.cand[:0], cur, pref, vmax, dt)
	best, min, minOver := cur, math.Inf(1), math.Inf(1)
	for _, v := range c.cand {
		over := overstep(self, neighbors, obstacles, v, dt)
		if over > minOver {
			continue
		}
		if p := c.penalty(self, neighbors, obstacles, v, pref, dt); over < minOver || p < min {
			best, min, minOver = v, p, over
		}
	}
	return best
}

// overstep returns by how much v closes in on a neighbor or an obstacle edge
// within one step beyond what is allowed: half the surface gap to a
// neighbor, which is expected to take the other half, and the whole gap to
// an edge. When both agents of a pair keep within their halves they cannot
// overlap after the step.
func overstep(self *moplat.Agent, neighbors []*moplat.Agent, obstacles []*space.Vertex, v geom.Vec2, dt float64) float64 {
	p := self.Position()
	var over float64
	for _, o := range neighbors {
		rel := o.Position().Sub(p)
		d := rel.Len()
		if d == 0 {
			continue
		}
		gap := d - self.Radius() - o.Radius()
		if x := v.Dot(rel)/d*dt - gap/2; x > over {
			over = x
		}
	}
	for _, o := range obstacles {
		e := o.Edge()
		k := 0.0
		if l := e[1].Sub(e[0]).LenSq(); l > 0 {
			k = geom.Clamp(p.Sub(e[0]).Dot(e[1].Sub(e[0]))/l, 0, 1)
		}
		rel := e.Point(k).Sub(p)
		d := rel.Len()
		if d == 0 {
			continue
		}
		if x := v.Dot(rel)/d*dt - (d - self.Radius()); x > over {
			over = x
		}
	}
	return over
}

// candidates lists the velocities to score, current velocity first.
func (c *Sampling) candidates(buf []geom.Vec2, cur, pref geom.Vec2, vmax, dt float64) []geom.Vec2 {
	buf = append(buf, cur)
	na, nm := c.conf.CandidateAngles, c.conf.CandidateMagnitudes
	if c.Accel {
		reach := c.conf.MaxAccel * dt
		for i := 0; i < na; i++ {
			θ := 2 * math.Pi * float64(i) / float64(na)
			for j := 1; j <= nm; j++ {
				v := cur.Add(geom.Polar(reach*float64(j)/float64(nm), θ))
				if v.Len() > vmax {
					continue
				}
				buf = append(buf, v)
			}
		}
		return buf
	}

	buf = append(buf, pref)
	for i := 0; i < na; i++ {
		θ := 2 * math.Pi * float64(i) / float64(na)
		for j := 1; j <= nm; j++ {
			buf = append(buf, geom.Polar(vmax*float64(j)/float64(nm), θ))
		}
	}
	buf = append(buf, geom.Vec2{})
	return buf
}

// penalty scores candidate v.
func (c *Sampling) penalty(self *moplat.Agent, neighbors []*moplat.Agent, obstacles []*space.Vertex, v, pref geom.Vec2, dt float64) float64 {
	tc, colliding := c.minTimeToCollision(self, neighbors, obstacles, v, dt)
	dev := v.Dist(pref)
	if colliding {
		dev = 0
	}
	return c.conf.SafetyFactor/tc + dev
}

// minTimeToCollision returns the time to the first collision with v.
// When v keeps the agent inside another body, the result is negative and
// closer to zero the sooner and slower the agent gets clear.
func (c *Sampling) minTimeToCollision(self *moplat.Agent, neighbors []*moplat.Agent, obstacles []*space.Vertex, v geom.Vec2, dt float64) (float64, bool) {
	p := self.Position()
	r := self.Radius() * (1 + self.PersonalSpace())
	vmax := self.MaxSpeed()
	escape := func(t float64) float64 {
		return -math.Ceil(t/dt) - v.LenSq()/(vmax*vmax)
	}

	min, colliding := math.Inf(1), false
	for _, o := range neighbors {
		vab := v.Scale(2).Sub(self.Velocity()).Sub(o.Velocity())
		t, col := timeToCollision(p, vab, o.Position(), r+o.Radius())
		if col {
			colliding = true
			t = escape(t)
		}
		if t < min {
			min = t
		}
	}
	for _, o := range obstacles {
		t, col := timeToSegment(p, v, o.Edge(), r)
		if col {
			colliding = true
			t = escape(t)
		}
		if t < min {
			min = t
		}
	}
	return min, colliding
}
