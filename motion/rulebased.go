package motion

import (
	"math"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/space"
)

// RuleBased adjusts the preferred velocity with simple proximity rules.
//
// Each neighbor whose closest approach, assuming the agent walks at its
// preferred velocity, falls within the combined radii before LookAhead
// deflects the heading away from it, the more so the sooner and the closer
// the approach. A neighbor closer than BrakeDistance in front of the agent
// slows the velocity component heading into it and adds a sidestep, so
// agents in contact slide past each other instead of stopping. The agent is
// pushed out of overlaps and is repelled from nearby obstacle edges.
type RuleBased struct {
	conf *moplat.Config
}

// A brake limits the speed toward a neighbor in the way.
type brake struct {
	dir    geom.Vec2 // unit direction toward the neighbor
	factor float64   // share of the speed kept along dir
}

// NewRuleBased returns a rule-based calculator.
func NewRuleBased(conf *moplat.Config) *RuleBased {
	return &RuleBased{conf: conf}
}

// Velocity implements moplat.VelocityCalculator.
func (c *RuleBased) Velocity(self *moplat.Agent, neighbors []*moplat.Agent, obstacles []*space.Vertex, pref geom.Vec2, dt float64) geom.Vec2 {
	vmax := self.MaxSpeed()
	if pref.IsZero() {
		return c.push(self, neighbors, obstacles, pref, dt).ClampLen(vmax)
	}

	p := self.Position()
	heading := pref.Normalize()
	speed := pref.Len()

	var turn float64
	var blocking []brake
	for _, o := range neighbors {
		rel := o.Position().Sub(p)
		r := self.Radius() + o.Radius()
		gap := rel.Len() - r
		side := -1.0 // dead ahead: pass on the right
		if d := geom.Det(pref, rel); d < 0 {
			side = 1
		}

		// closest approach with o keeping its velocity
		vrel := o.Velocity().Sub(pref)
		t := 0.0
		if l := vrel.LenSq(); l > 0 {
			t = -rel.Dot(vrel) / l
		}
		if t < 0 || t > c.conf.LookAhead {
			t = -1
		}
		if t >= 0 {
			dca := rel.Add(vrel.Scale(t)).Len()
			if dca < r {
				urgency := 1 - t/c.conf.LookAhead
				turn += side * c.conf.TurnGain * urgency * (r - dca) / r
			}
		}

		if gap < c.conf.BrakeDistance && rel.Dot(heading) > 0 && !rel.IsZero() {
			f := math.Max(gap, 0) / c.conf.BrakeDistance
			// sidestep so that a blocked agent keeps moving
			turn += side * c.conf.TurnGain * (1 - f)
			blocking = append(blocking, brake{dir: rel.Normalize(), factor: f})
		}
	}

	turn = geom.Clamp(turn, -math.Pi/2, math.Pi/2)
	v := heading.Rotate(turn).Scale(speed)
	// brake only the part of the velocity heading into a blocking neighbor
	for _, b := range blocking {
		if k := v.Dot(b.dir); k > 0 {
			v = v.Sub(b.dir.Scale(k * (1 - b.factor)))
		}
	}
	return c.push(self, neighbors, obstacles, v, dt).ClampLen(vmax)
}

// push adds the velocity needed to leave overlaps with neighbors within one
// step and a repulsion from edges closer than the agent radius.
func (c *RuleBased) push(self *moplat.Agent, neighbors []*moplat.Agent, obstacles []*space.Vertex, v geom.Vec2, dt float64) geom.Vec2 {
	p := self.Position()
	for _, o := range neighbors {
		d := p.Sub(o.Position())
		depth := self.Radius() + o.Radius() - d.Len()
		if depth <= 0 {
			continue
		}
		if d.IsZero() {
			d = geom.Vec2{X: 1}
			if self.ID() > o.ID() {
				d = d.Neg()
			}
		}
		v = v.Add(d.Normalize().Scale(0.5 * depth / dt))
	}
	for _, o := range obstacles {
		e := o.Edge()
		dist := math.Sqrt(e.DistSq(p))
		if dist >= self.Radius() || dist == 0 {
			continue
		}
		k := 0.0
		if l := e[1].Sub(e[0]).LenSq(); l > 0 {
			k = geom.Clamp(p.Sub(e[0]).Dot(e[1].Sub(e[0]))/l, 0, 1)
		}
		n := p.Sub(e.Point(k)).Scale(1 / dist)
		v = v.Add(n.Scale((self.Radius() - dist) / dt))
	}
	return v
}
