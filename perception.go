package moplat

import (
	"math"
	"sort"

	"github.com/superxueyizou/MoPlaT/geom"
)

// A Percept is a neighbor as perceived by an agent, with the attention
// it receives. Higher priorities come first.
type Percept struct {
	Agent    *Agent
	Priority float64
}

// Bounds of the perception scores.
const (
	overlapScore = 1.5 // distance score of an overlapping neighbor
	minScore     = 0.1
	maxScore     = 1.0
)

// Perceive returns what a perceives this tick: the neighbors within sensor
// range ordered by decreasing priority, deduplicated and cut at the
// information budget. Without information processing it returns the
// raw neighbors ordered by distance, all with priority 1.
func (s *Simulation) Perceive(a *Agent) []Percept {
	ids := s.Space.Agents.Within(a.pos, s.Conf.SensorRange*a.radius, nil)
	cand := make([]*Agent, 0, len(ids))
	for _, id := range ids {
		if id != a.id && id >= 0 && id < len(s.Agents) {
			cand = append(cand, s.Agents[id])
		}
	}
	if !s.Conf.InfoProcessing {
		sort.SliceStable(cand, func(i, j int) bool {
			return a.pos.DistSq(cand[i].pos) < a.pos.DistSq(cand[j].pos)
		})
		ps := make([]Percept, len(cand))
		for i, b := range cand {
			ps[i] = Percept{Agent: b, Priority: 1}
		}
		return ps
	}

	goalDir := s.goalDirection(a)
	ps := make([]Percept, 0, len(cand))
	for _, b := range cand {
		ps = insertPercept(ps, a, Percept{Agent: b, Priority: priority(a, b, goalDir)})
	}
	ps = absorb(ps, s.Conf.ClusterRadius)
	return budget(ps, s.Conf.InfoLimit)
}

// goalDirection returns the direction a wants to go in, or zero.
func (s *Simulation) goalDirection(a *Agent) geom.Vec2 {
	switch a.goal.Kind {
	case PointGoal:
		return a.goal.Point.Sub(a.pos)
	case DirectionGoal:
		return a.goal.Direction
	case RouteGoal:
		if a.hasWaypoint {
			return a.waypoint.Sub(a.pos)
		}
	}
	return a.pref
}

// distanceScore decreases with the gap between the two bodies,
// saturating at both ends. Overlapping bodies get the highest score.
func distanceScore(gap float64) float64 {
	if gap < 0 {
		return overlapScore
	}
	return geom.Clamp(math.Expm1(5/gap)-0.11, minScore, maxScore)
}

// angleScore favors neighbors in the direction of the goal.
// A neighbor within 60° of the goal direction scores 1, one beyond 80° or
// behind scores 0.1, and the band between ramps from 0.1 up to 1.
func angleScore(goalDir, d geom.Vec2) float64 {
	if goalDir.IsZero() || d.IsZero() {
		return maxScore
	}
	if goalDir.Dot(d) < 0 {
		return minScore
	}
	θ := math.Acos(geom.Clamp(goalDir.Dot(d)/(goalDir.Len()*d.Len()), -1, 1))
	switch {
	case θ < math.Pi/3:
		return maxScore
	case θ < 4*math.Pi/9:
		return minScore + (maxScore-minScore)*(θ-math.Pi/3)/(math.Pi/9)
	}
	return minScore
}

// priority combines the distance and angle scores of b as seen by a.
func priority(a, b *Agent, goalDir geom.Vec2) float64 {
	d := b.pos.Sub(a.pos)
	ds := distanceScore(d.Len() - a.radius - b.radius)
	if ds > maxScore {
		return ds
	}
	return ds * angleScore(goalDir, d)
}

// insertPercept inserts p into ps, ordered by decreasing priority.
// Among equal priorities a neighbor walking against both a and the one
// already ranked goes first; otherwise the nearer surface goes first.
// A neighbor at the very same place and size as a ranked one is ignored.
func insertPercept(ps []Percept, a *Agent, p Percept) []Percept {
	b := p.Agent
	j := 0
	for ; j < len(ps); j++ {
		q := ps[j].Agent
		if b.pos == q.pos && b.radius == q.radius {
			return ps
		}
		if ps[j].Priority < p.Priority {
			break
		}
		if ps[j].Priority == p.Priority {
			if b.vel.Dot(q.vel) < 0 {
				if b.vel.Dot(a.vel) < 0 {
					break
				}
				continue
			}
			if a.pos.Dist(b.pos)-b.radius < a.pos.Dist(q.pos)-q.radius {
				break
			}
		}
	}
	ps = append(ps, Percept{})
	copy(ps[j+1:], ps[j:])
	ps[j] = p
	return ps
}

// absorb drops neighbors whose center lies inside a ranked body larger than
// the cluster radius. Such bodies stand for groups already accounted for.
func absorb(ps []Percept, cluster float64) []Percept {
	for j := 0; j < len(ps); j++ {
		c := ps[j].Agent
		if c.radius <= cluster {
			continue
		}
		for k := 0; k < len(ps); k++ {
			if k == j || c.pos.Dist(ps[k].Agent.pos) > c.radius {
				continue
			}
			ps = append(ps[:k], ps[k+1:]...)
			if k < j {
				j--
			}
			k--
		}
	}
	return ps
}

// budget keeps the leading percepts until their cumulative priority reaches
// limit. The percept that reaches it is kept.
func budget(ps []Percept, limit float64) []Percept {
	var sum float64
	for i, p := range ps {
		sum += p.Priority
		if sum >= limit {
			return ps[:i+1]
		}
	}
	return ps
}
