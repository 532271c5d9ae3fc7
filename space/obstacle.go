package space

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/superxueyizou/MoPlaT/geom"
)

// An Obstacle is a closed static polygon. Vertices are stored in
// counter-clockwise order and never change after construction.
type Obstacle struct {
	ID       int
	Vertices []Vertex
}

// A Vertex is a corner of an obstacle together with the edge leaving it.
type Vertex struct {
	ID        int       // unique across all obstacles of a Space
	Point     geom.Vec2 // position
	Direction geom.Vec2 // unit vector toward the next vertex
	Convex    bool

	obstacle *Obstacle
	index    int // slot in obstacle.Vertices
}

// Next returns the following vertex in counter-clockwise order.
func (v *Vertex) Next() *Vertex {
	vs := v.obstacle.Vertices
	return &vs[(v.index+1)%len(vs)]
}

// Prev returns the preceding vertex in counter-clockwise order.
func (v *Vertex) Prev() *Vertex {
	vs := v.obstacle.Vertices
	return &vs[(v.index+len(vs)-1)%len(vs)]
}

// Obstacle returns the obstacle the vertex belongs to.
func (v *Vertex) Obstacle() *Obstacle { return v.obstacle }

// Edge returns the segment from v to its successor.
func (v *Vertex) Edge() geom.Segment {
	return geom.Segment{v.Point, v.Next().Point}
}

// enters reports whether direction d leaving the vertex points into the
// interior of the polygon.
func (v *Vertex) enters(d geom.Vec2) bool {
	if len(v.obstacle.Vertices) < 3 {
		return false
	}
	a := v.Next().Point.Sub(v.Point)
	b := v.Prev().Point.Sub(v.Point)
	const ε = geom.Epsilon
	if v.Convex {
		return geom.Det(a, d) > ε && geom.Det(d, b) > ε
	}
	return !(geom.Det(b, d) >= -ε && geom.Det(d, a) >= -ε)
}

// NewObstacle builds an obstacle from a polygon given in either winding.
// Vertex ids are numbered from firstID. At least two distinct points are required.
func NewObstacle(id, firstID int, points []geom.Vec2) (*Obstacle, error) {
	pts := dedup(points)
	if len(pts) < 2 {
		return nil, errors.Errorf("obstacle %d: need at least 2 distinct vertices, got %d", id, len(pts))
	}

	// signed area test; a closed ring is passed so orientation is well defined
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	ring = append(ring, ring[0])
	if len(pts) > 2 && ring.Orientation() == orb.CW {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}

	o := &Obstacle{ID: id, Vertices: make([]Vertex, len(pts))}
	n := len(pts)
	for i, p := range pts {
		next, prev := pts[(i+1)%n], pts[(i+n-1)%n]
		o.Vertices[i] = Vertex{
			ID:        firstID + i,
			Point:     p,
			Direction: next.Sub(p).Normalize(),
			Convex:    n == 2 || geom.LeftOf(prev, p, next) >= 0,
			obstacle:  o,
			index:     i,
		}
	}
	return o, nil
}

// MaxEdge returns the length of the longest edge.
func (o *Obstacle) MaxEdge() float64 {
	var m float64
	for i := range o.Vertices {
		if l := o.Vertices[i].Edge()[0].Dist(o.Vertices[i].Edge()[1]); l > m {
			m = l
		}
	}
	return m
}

// dedup copies points dropping consecutive duplicates, including a closing point.
func dedup(points []geom.Vec2) []geom.Vec2 {
	pts := make([]geom.Vec2, 0, len(points))
	for _, p := range points {
		if len(pts) > 0 && pts[len(pts)-1] == p {
			continue
		}
		pts = append(pts, p)
	}
	for len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}
