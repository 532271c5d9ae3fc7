package motion

import (
	"math"
	"sort"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/space"
)

// ORCA computes optimal reciprocal collision avoidance velocities.
//
// Every obstacle edge and every neighbor contributes a half-plane of
// permitted velocities (left of a directed line). The result is the
// permitted velocity closest to the preferred velocity within the max speed
// circle. When no velocity satisfies all agent lines, they are relaxed in
// order, nearest agent first (ties by id), while obstacle lines are kept.
type ORCA struct {
	conf  *moplat.Config
	lines []geom.Line
	order []*moplat.Agent
}

// NewORCA returns an ORCA calculator.
func NewORCA(conf *moplat.Config) *ORCA {
	return &ORCA{conf: conf}
}

// Lines implements moplat.ConstraintReporter.
func (c *ORCA) Lines() []geom.Line {
	lines := make([]geom.Line, len(c.lines))
	copy(lines, c.lines)
	return lines
}

// Velocity implements moplat.VelocityCalculator.
func (c *ORCA) Velocity(self *moplat.Agent, neighbors []*moplat.Agent, obstacles []*space.Vertex, pref geom.Vec2, dt float64) geom.Vec2 {
	c.lines = c.lines[:0]
	c.obstacleLines(self, obstacles)
	numObstLines := len(c.lines)
	c.agentLines(self, neighbors, dt)

	vmax := self.MaxSpeed()
	var result geom.Vec2
	if fail := linearProgram2(c.lines, vmax, pref, false, &result); fail < len(c.lines) {
		linearProgram3(c.lines, numObstLines, fail, vmax, &result)
	}
	return result.ClampLen(vmax)
}

// obstacleLines appends the lines of the obstacle edges the agent faces,
// nearest edge first.
func (c *ORCA) obstacleLines(self *moplat.Agent, obstacles []*space.Vertex) {
	pos, vel := self.Position(), self.Velocity()
	r := self.Radius()
	invTimeHorizonObst := 1 / c.conf.TimeHorizonObst
	rSq := r * r

	for _, v := range obstacles {
		obstacle1, obstacle2 := v, v.Next()

		// only edges with the agent on their right
		if geom.LeftOf(obstacle1.Point, obstacle2.Point, pos) >= 0 {
			continue
		}

		relativePosition1 := obstacle1.Point.Sub(pos)
		relativePosition2 := obstacle2.Point.Sub(pos)

		// check if velocity obstacle of obstacle is already taken care of
		// by previously constructed obstacle ORCA lines
		covered := false
		for _, l := range c.lines {
			if geom.Det(relativePosition1.Scale(invTimeHorizonObst).Sub(l.Point), l.Direction)-invTimeHorizonObst*r >= -rvoEpsilon &&
				geom.Det(relativePosition2.Scale(invTimeHorizonObst).Sub(l.Point), l.Direction)-invTimeHorizonObst*r >= -rvoEpsilon {
				covered = true
				break
			}
		}
		if covered {
			continue
		}

		// check if colliding
		distSq1 := relativePosition1.LenSq()
		distSq2 := relativePosition2.LenSq()
		obstacleVector := obstacle2.Point.Sub(obstacle1.Point)
		s := relativePosition1.Neg().Dot(obstacleVector) / obstacleVector.LenSq()
		distSqLine := relativePosition1.Neg().Sub(obstacleVector.Scale(s)).LenSq()

		switch {
		case s < 0 && distSq1 <= rSq:
			// collision with left vertex; ignore if non-convex
			if obstacle1.Convex {
				c.lines = append(c.lines, geom.Line{Direction: geom.Vec2{X: -relativePosition1.Y, Y: relativePosition1.X}.Normalize()})
			}
			continue
		case s > 1 && distSq2 <= rSq:
			// collision with right vertex; ignore if non-convex or if it will
			// be taken care of by the neighboring obstacle
			if obstacle2.Convex && geom.Det(relativePosition2, obstacle2.Direction) >= 0 {
				c.lines = append(c.lines, geom.Line{Direction: geom.Vec2{X: -relativePosition2.Y, Y: relativePosition2.X}.Normalize()})
			}
			continue
		case s >= 0 && s < 1 && distSqLine <= rSq:
			// collision with obstacle segment
			c.lines = append(c.lines, geom.Line{Direction: obstacle1.Direction.Neg()})
			continue
		}

		// no collision; compute legs. When obliquely viewed, both legs can
		// come from a single vertex. Legs extend cut-off line when non-convex vertex.
		var leftLegDirection, rightLegDirection geom.Vec2
		switch {
		case s < 0 && distSqLine <= rSq:
			// obstacle viewed obliquely so that left vertex defines velocity obstacle
			if !obstacle1.Convex {
				continue
			}
			obstacle2 = obstacle1
			leftLegDirection, rightLegDirection = legs(relativePosition1, distSq1, r)
		case s > 1 && distSqLine <= rSq:
			// obstacle viewed obliquely so that right vertex defines velocity obstacle
			if !obstacle2.Convex {
				continue
			}
			obstacle1 = obstacle2
			leftLegDirection, rightLegDirection = legs(relativePosition2, distSq2, r)
		default:
			// usual situation
			if obstacle1.Convex {
				leftLegDirection, _ = legs(relativePosition1, distSq1, r)
			} else {
				// left vertex non-convex; left leg extends cut-off line
				leftLegDirection = obstacle1.Direction.Neg()
			}
			if obstacle2.Convex {
				_, rightLegDirection = legs(relativePosition2, distSq2, r)
			} else {
				// right vertex non-convex; right leg extends cut-off line
				rightLegDirection = obstacle1.Direction
			}
		}

		// legs can never point into neighboring edge when convex vertex,
		// take cut-off line of neighboring edge instead. If velocity projected
		// on "foreign" leg, no constraint is added.
		leftNeighbor := obstacle1.Prev()
		isLeftLegForeign, isRightLegForeign := false, false
		if obstacle1.Convex && geom.Det(leftLegDirection, leftNeighbor.Direction.Neg()) >= 0 {
			// left leg points into obstacle
			leftLegDirection = leftNeighbor.Direction.Neg()
			isLeftLegForeign = true
		}
		if obstacle2.Convex && geom.Det(rightLegDirection, obstacle2.Direction) <= 0 {
			// right leg points into obstacle
			rightLegDirection = obstacle2.Direction
			isRightLegForeign = true
		}

		// compute cut-off centers
		leftCutoff := obstacle1.Point.Sub(pos).Scale(invTimeHorizonObst)
		rightCutoff := obstacle2.Point.Sub(pos).Scale(invTimeHorizonObst)
		cutoffVector := rightCutoff.Sub(leftCutoff)
		same := obstacle1 == obstacle2

		// project current velocity on velocity obstacle
		t := 0.5
		if !same {
			t = vel.Sub(leftCutoff).Dot(cutoffVector) / cutoffVector.LenSq()
		}
		tLeft := vel.Sub(leftCutoff).Dot(leftLegDirection)
		tRight := vel.Sub(rightCutoff).Dot(rightLegDirection)

		if (t < 0 && tLeft < 0) || (same && tLeft < 0 && tRight < 0) {
			// project on left cut-off circle
			unitW := vel.Sub(leftCutoff).Normalize()
			c.lines = append(c.lines, geom.Line{
				Direction: geom.Vec2{X: unitW.Y, Y: -unitW.X},
				Point:     leftCutoff.Add(unitW.Scale(r * invTimeHorizonObst)),
			})
			continue
		} else if t > 1 && tRight < 0 {
			// project on right cut-off circle
			unitW := vel.Sub(rightCutoff).Normalize()
			c.lines = append(c.lines, geom.Line{
				Direction: geom.Vec2{X: unitW.Y, Y: -unitW.X},
				Point:     rightCutoff.Add(unitW.Scale(r * invTimeHorizonObst)),
			})
			continue
		}

		// project on left leg, right leg, or cut-off line, whichever is closest to velocity
		distSqCutoff, distSqLeft, distSqRight := math.Inf(1), math.Inf(1), math.Inf(1)
		if !(t < 0 || t > 1 || same) {
			distSqCutoff = vel.DistSq(leftCutoff.Add(cutoffVector.Scale(t)))
		}
		if tLeft >= 0 {
			distSqLeft = vel.DistSq(leftCutoff.Add(leftLegDirection.Scale(tLeft)))
		}
		if tRight >= 0 {
			distSqRight = vel.DistSq(rightCutoff.Add(rightLegDirection.Scale(tRight)))
		}

		var line geom.Line
		switch {
		case distSqCutoff <= distSqLeft && distSqCutoff <= distSqRight:
			// project on cut-off line
			line.Direction = obstacle1.Direction.Neg()
			line.Point = leftCutoff.Add(line.Direction.Perp().Scale(r * invTimeHorizonObst))
		case distSqLeft <= distSqRight:
			// project on left leg
			if isLeftLegForeign {
				continue
			}
			line.Direction = leftLegDirection
			line.Point = leftCutoff.Add(line.Direction.Perp().Scale(r * invTimeHorizonObst))
		default:
			// project on right leg
			if isRightLegForeign {
				continue
			}
			line.Direction = rightLegDirection.Neg()
			line.Point = rightCutoff.Add(line.Direction.Perp().Scale(r * invTimeHorizonObst))
		}
		c.lines = append(c.lines, line)
	}
}

// legs returns the directions of the two tangents from the agent to the disc of
// radius r around a vertex at relative position rel.
func legs(rel geom.Vec2, distSq, r float64) (left, right geom.Vec2) {
	leg := math.Sqrt(math.Max(distSq-r*r, 0))
	left = geom.Vec2{X: rel.X*leg - rel.Y*r, Y: rel.X*r + rel.Y*leg}.Scale(1 / distSq)
	right = geom.Vec2{X: rel.X*leg + rel.Y*r, Y: -rel.X*r + rel.Y*leg}.Scale(1 / distSq)
	return left, right
}

// agentLines appends one line per neighbor, nearest neighbor first.
func (c *ORCA) agentLines(self *moplat.Agent, neighbors []*moplat.Agent, dt float64) {
	pos, vel := self.Position(), self.Velocity()
	c.order = append(c.order[:0], neighbors...)
	sort.SliceStable(c.order, func(i, j int) bool {
		di, dj := pos.DistSq(c.order[i].Position()), pos.DistSq(c.order[j].Position())
		if di != dj {
			return di < dj
		}
		return c.order[i].ID() < c.order[j].ID()
	})

	invTimeHorizon := 1 / c.conf.TimeHorizon
	for _, other := range c.order {
		relativePosition := other.Position().Sub(pos)
		relativeVelocity := vel.Sub(other.Velocity())
		distSq := relativePosition.LenSq()
		combinedRadius := self.Radius() + other.Radius()
		combinedRadiusSq := combinedRadius * combinedRadius

		var line geom.Line
		var u geom.Vec2
		if distSq > combinedRadiusSq {
			// no collision; vector from cutoff center to relative velocity
			w := relativeVelocity.Sub(relativePosition.Scale(invTimeHorizon))
			wLengthSq := w.LenSq()
			dotProduct1 := w.Dot(relativePosition)

			if dotProduct1 < 0 && dotProduct1*dotProduct1 > combinedRadiusSq*wLengthSq {
				// project on cut-off circle
				wLength := math.Sqrt(wLengthSq)
				unitW := w.Scale(1 / wLength)
				line.Direction = geom.Vec2{X: unitW.Y, Y: -unitW.X}
				u = unitW.Scale(combinedRadius*invTimeHorizon - wLength)
			} else {
				// project on legs
				leg := math.Sqrt(distSq - combinedRadiusSq)
				if geom.Det(relativePosition, w) > 0 {
					// project on left leg
					line.Direction = geom.Vec2{
						X: relativePosition.X*leg - relativePosition.Y*combinedRadius,
						Y: relativePosition.X*combinedRadius + relativePosition.Y*leg,
					}.Scale(1 / distSq)
				} else {
					// project on right leg
					line.Direction = geom.Vec2{
						X: relativePosition.X*leg + relativePosition.Y*combinedRadius,
						Y: -relativePosition.X*combinedRadius + relativePosition.Y*leg,
					}.Scale(-1 / distSq)
				}
				u = line.Direction.Scale(relativeVelocity.Dot(line.Direction)).Sub(relativeVelocity)
			}
		} else {
			// collision; project on cut-off circle of time timeStep
			invTimeStep := 1 / dt
			w := relativeVelocity.Sub(relativePosition.Scale(invTimeStep))
			wLength := w.Len()
			unitW := separation(self, other, w)
			line.Direction = geom.Vec2{X: unitW.Y, Y: -unitW.X}
			u = unitW.Scale(combinedRadius*invTimeStep - wLength)
		}
		line.Point = vel.Add(u.Scale(0.5))
		c.lines = append(c.lines, line)
	}
}

// separation returns the unit direction of w, falling back to the direction
// pushing self away from other, and to a fixed axis ordered by id when the
// two agents coincide.
func separation(self, other *moplat.Agent, w geom.Vec2) geom.Vec2 {
	if w.LenSq() > rvoEpsilon*rvoEpsilon {
		return w.Normalize()
	}
	if d := self.Position().Sub(other.Position()); !d.IsZero() {
		return d.Normalize()
	}
	if self.ID() < other.ID() {
		return geom.Vec2{X: -1}
	}
	return geom.Vec2{X: 1}
}
