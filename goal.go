package moplat

import (
	"math"

	"github.com/pkg/errors"

	"github.com/superxueyizou/MoPlaT/geom"
)

// A GoalKind tells which kind of goal an agent pursues.
type GoalKind int

// Goal kinds.
const (
	NoGoal        GoalKind = iota // stand still
	PointGoal                     // walk to a point
	DirectionGoal                 // walk along a fixed direction forever
	RouteGoal                     // follow a sequence of waypoint groups
)

// A Goal is what an agent walks toward. Only the field matching Kind is used.
type Goal struct {
	Kind      GoalKind
	Point     geom.Vec2
	Direction geom.Vec2
	Route     Route
}

// A WaypointGroup is a set of interchangeable candidate points,
// typically sampled along a doorway or corridor cross-section.
type WaypointGroup []geom.Vec2

// A Route is an ordered list of waypoint groups, the last one being the destination.
type Route []WaypointGroup

// GoalAt returns a point goal.
func GoalAt(p geom.Vec2) Goal { return Goal{Kind: PointGoal, Point: p} }

// Toward returns a direction goal.
func Toward(d geom.Vec2) Goal { return Goal{Kind: DirectionGoal, Direction: d} }

// FollowRoute returns a route goal.
func FollowRoute(r Route) Goal { return Goal{Kind: RouteGoal, Route: r} }

// SegmentGroup samples the segment a-b into points at most spacing apart,
// both ends included.
func SegmentGroup(a, b geom.Vec2, spacing float64) WaypointGroup {
	l := a.Dist(b)
	n := 1
	if spacing > 0 {
		n = int(math.Ceil(l / spacing))
	}
	if n < 1 || l == 0 {
		return WaypointGroup{a}
	}
	g := make(WaypointGroup, n+1)
	s := geom.Segment{a, b}
	for i := range g {
		g[i] = s.Point(float64(i) / float64(n))
	}
	return g
}

func (g Goal) validate() error {
	switch g.Kind {
	case NoGoal, RouteGoal:
	case PointGoal:
		if !g.Point.IsFinite() {
			return errors.New("goal: non-finite point")
		}
	case DirectionGoal:
		if !g.Direction.IsFinite() {
			return errors.New("goal: non-finite direction")
		}
	default:
		return errors.Errorf("goal: unknown kind %d", g.Kind)
	}
	return nil
}

// Destination returns the point the agent finally heads to, if any.
// For a route it is the first point of the last group.
func (g Goal) Destination() (geom.Vec2, bool) {
	switch g.Kind {
	case PointGoal:
		return g.Point, true
	case RouteGoal:
		if n := len(g.Route); n > 0 && len(g.Route[n-1]) > 0 {
			return g.Route[n-1][0], true
		}
	}
	return geom.Vec2{}, false
}

// ReachedGoal reports whether a has arrived at its goal: its center lies
// closer than its radius to the goal point, or to any point of the last
// group of its route.
func (s *Simulation) ReachedGoal(a *Agent) bool {
	switch a.goal.Kind {
	case PointGoal:
		return a.pos.Dist(a.goal.Point) < a.radius
	case RouteGoal:
		if n := len(a.goal.Route); n > 0 {
			for _, p := range a.goal.Route[n-1] {
				if a.pos.Dist(p) < a.radius {
					return true
				}
			}
		}
	}
	return false
}

// OutOfBounds reports whether a has left the world rectangle.
func (s *Simulation) OutOfBounds(a *Agent) bool {
	return !s.Space.Contains(a.pos)
}

// PreferredVelocity returns the velocity a would choose without anybody
// else around, and records the active waypoint of route followers.
// A degenerate goal gives a zero velocity.
func (s *Simulation) PreferredVelocity(a *Agent) geom.Vec2 {
	switch a.goal.Kind {
	case PointGoal:
		return a.goal.Point.Sub(a.pos).Normalize().Scale(a.preferredSpeed)
	case DirectionGoal:
		return a.goal.Direction.Normalize().Scale(a.preferredSpeed)
	case RouteGoal:
		w, ok := s.selectWaypoint(a)
		a.waypoint, a.hasWaypoint = w, ok
		if !ok {
			return geom.Vec2{}
		}
		return w.Sub(a.pos).Normalize().Scale(a.preferredSpeed)
	}
	return geom.Vec2{}
}

func (s *Simulation) selectWaypoint(a *Agent) (geom.Vec2, bool) {
	_, w, ok := s.NextWaypoint(a.goal.Route, a.pos, a.vel, a.radius)
	return w, ok
}

// NextWaypoint returns the waypoint that a body of the given radius at pos,
// moving with vel, heads for along r, together with the index of its group.
// The route is scanned from the destination backward and the nearest point
// of the first group that the whole body can see is chosen. Both sides of
// the body must have line of sight; when no group passes, the test is relaxed
// to the center alone. The index is -1 when no waypoint is visible.
func (s *Simulation) NextWaypoint(r Route, pos, vel geom.Vec2, radius float64) (int, geom.Vec2, bool) {
	side := vel.Normalize().Perp().Scale(radius)
	top, bottom := pos.Add(side), pos.Sub(side)
	strong := func(p geom.Vec2) bool {
		return s.Space.VisibleFrom(p, top) && s.Space.VisibleFrom(p, bottom)
	}
	weak := func(p geom.Vec2) bool {
		return s.Space.VisibleFrom(p, pos)
	}
	for _, visible := range []func(geom.Vec2) bool{strong, weak} {
		for i := len(r) - 1; i >= 0; i-- {
			if p, ok := nearestVisible(pos, r[i], visible); ok {
				return i, p, true
			}
		}
	}
	return -1, geom.Vec2{}, false
}

func nearestVisible(from geom.Vec2, g WaypointGroup, visible func(geom.Vec2) bool) (geom.Vec2, bool) {
	best, found := math.Inf(1), false
	var p geom.Vec2
	for _, q := range g {
		if d := from.DistSq(q); d < best && visible(q) {
			best, p, found = d, q, true
		}
	}
	return p, found
}

// perturb adds the symmetry-breaking noise to a non-zero preferred velocity.
func (s *Simulation) perturb(a *Agent, v geom.Vec2) geom.Vec2 {
	if v.IsZero() || s.Conf.Perturbation <= 0 {
		return v
	}
	e := s.Conf.Perturbation
	return geom.Vec2{X: v.X + a.rng.Float64()*e, Y: v.Y + a.rng.Float64()*e}
}
