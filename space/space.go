// Package space holds the shared world state that agents query:
// a spatial index of agent positions and the static obstacle map.
//
// Obstacles are closed polygons whose vertices are stored counter-clockwise.
// A vertex index is kept beside the agent index so that edges near a point
// can be found without scanning the whole map.
package space

import (
	"math"
	"sort"
	"sync"

	"github.com/superxueyizou/MoPlaT/geom"
)

// A Space is the 2D world agents move in.
type Space struct {
	Agents *Index // agent positions, keyed by agent id

	mu        sync.RWMutex
	vertices  *Index // obstacle vertex positions, keyed by vertex id
	obstacles []*Obstacle
	byID      []*Vertex
	maxEdge   float64
	min, max  geom.Vec2
}

// New creates an empty space. Queries are fastest for positions
// inside the rectangle [min, max] but work everywhere.
func New(min, max geom.Vec2) *Space {
	return &Space{
		Agents:   NewIndex(min, max),
		vertices: NewIndex(min, max),
		min:      min,
		max:      max,
	}
}

// Bounds returns the rectangle given at construction.
func (s *Space) Bounds() (min, max geom.Vec2) { return s.min, s.max }

// Contains reports whether p lies inside the world rectangle.
func (s *Space) Contains(p geom.Vec2) bool {
	return p.X >= s.min.X && p.X <= s.max.X && p.Y >= s.min.Y && p.Y <= s.max.Y
}

// AddObstacle inserts a polygon obstacle and returns it.
func (s *Space) AddObstacle(points []geom.Vec2) (*Obstacle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := NewObstacle(len(s.obstacles), len(s.byID), points)
	if err != nil {
		return nil, err
	}
	s.obstacles = append(s.obstacles, o)
	for i := range o.Vertices {
		v := &o.Vertices[i]
		s.byID = append(s.byID, v)
		s.vertices.Register(v.ID, v.Point)
	}
	if m := o.MaxEdge(); m > s.maxEdge {
		s.maxEdge = m
	}
	return o, nil
}

// Obstacles returns all obstacles in insertion order.
func (s *Space) Obstacles() []*Obstacle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.obstacles
}

// Vertex returns the vertex with the given id.
func (s *Space) Vertex(id int) *Vertex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.byID) {
		return nil
	}
	return s.byID[id]
}

// VisibleFrom reports whether the straight segment between a and b
// crosses no obstacle edge. It is symmetric in a and b.
func (s *Space) VisibleFrom(a, b geom.Vec2) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path := geom.Segment{a, b}
	if len(s.byID) == 0 {
		return true
	}

	// a blocking edge starts within half the path plus the longest edge of the midpoint
	mid := path.Point(0.5)
	r := 0.5*a.Dist(b) + s.maxEdge
	var buf [64]int
	d := b.Sub(a)
	for _, id := range s.vertices.Within(mid, r, buf[:0]) {
		v := s.byID[id]
		if v.Edge().Blocks(path) {
			return false
		}
		// passing exactly through a corner into the interior
		if onInterior(path, v.Point) && (v.enters(d) || v.enters(d.Neg())) {
			return false
		}
	}
	return true
}

// onInterior reports whether p lies on s away from its endpoints.
func onInterior(s geom.Segment, p geom.Vec2) bool {
	d := s[1].Sub(s[0])
	l := d.LenSq()
	if l == 0 || s.DistSq(p) > geom.Epsilon*geom.Epsilon {
		return false
	}
	t := p.Sub(s[0]).Dot(d) / l
	return t > geom.Epsilon && t < 1-geom.Epsilon
}

// ObstaclesNear returns the vertices whose outgoing edge passes within r of p,
// closest edge first. Ties are broken by vertex id.
func (s *Space) ObstaclesNear(p geom.Vec2, r float64) []*Vertex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.byID) == 0 || r < 0 {
		return nil
	}

	// an edge within r of p starts within r+maxEdge of p
	var buf [64]int
	type near struct {
		v *Vertex
		d float64
	}
	var found []near
	r2 := r * r
	for _, id := range s.vertices.Within(p, r+s.maxEdge, buf[:0]) {
		v := s.byID[id]
		if d := v.Edge().DistSq(p); d <= r2 {
			found = append(found, near{v, d})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].d != found[j].d {
			return found[i].d < found[j].d
		}
		return found[i].v.ID < found[j].v.ID
	})
	vs := make([]*Vertex, len(found))
	for i, f := range found {
		vs[i] = f.v
	}
	return vs
}

// Inside reports whether p lies inside an obstacle polygon.
// Two-vertex obstacles have no interior.
func (s *Space) Inside(p geom.Vec2) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.obstacles {
		if len(o.Vertices) >= 3 && inside(o, p) {
			return true
		}
	}
	return false
}

// inside is the even-odd ray test.
func inside(o *Obstacle, p geom.Vec2) bool {
	in := false
	n := len(o.Vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := o.Vertices[i].Point, o.Vertices[j].Point
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

// Clearance returns the distance from p to the nearest obstacle edge,
// or +Inf when there are no obstacles.
func (s *Space) Clearance(p geom.Vec2) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := math.Inf(1)
	for _, o := range s.obstacles {
		for i := range o.Vertices {
			d = math.Min(d, o.Vertices[i].Edge().DistSq(p))
		}
	}
	return math.Sqrt(d)
}
