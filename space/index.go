package space

import (
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"github.com/superxueyizou/MoPlaT/geom"
)

// An entry is what is stored in the quadtree for each registered entity.
type entry struct {
	id int
	p  orb.Point
}

// Point implements orb.Pointer.
func (e *entry) Point() orb.Point { return e.p }

// An Index maps entity ids to positions and answers radius queries.
//
// Positions inside the bound given at construction live in a quadtree.
// Positions outside of it are kept aside and scanned on every query,
// so an entity is never lost when it wanders off the map.
// An Index is safe for concurrent use; updates are visible to every
// query that starts after the update returns.
type Index struct {
	mu       sync.RWMutex
	bound    orb.Bound
	tree     *quadtree.Quadtree
	entries  map[int]*entry
	overflow map[int]*entry
}

// NewIndex returns an empty index covering the rectangle [min, max].
func NewIndex(min, max geom.Vec2) *Index {
	b := orb.Bound{Min: orb.Point{min.X, min.Y}, Max: orb.Point{max.X, max.Y}}
	return &Index{
		bound:    b,
		tree:     quadtree.New(b),
		entries:  make(map[int]*entry),
		overflow: make(map[int]*entry),
	}
}

// Register inserts an entity. Registering an existing id moves it.
func (x *Index) Register(id int, p geom.Vec2) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if e, ok := x.entries[id]; ok {
		x.remove(e)
	}
	e := &entry{id: id, p: orb.Point{p.X, p.Y}}
	x.entries[id] = e
	x.insert(e)
}

// Update moves an entity. Unknown ids are registered.
func (x *Index) Update(id int, p geom.Vec2) {
	x.Register(id, p)
}

// Deregister removes an entity. Unknown ids are ignored.
func (x *Index) Deregister(id int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if e, ok := x.entries[id]; ok {
		x.remove(e)
		delete(x.entries, id)
	}
}

// Position returns the indexed position of an entity.
func (x *Index) Position(id int) (geom.Vec2, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.entries[id]
	if !ok {
		return geom.Vec2{}, false
	}
	return geom.Vec2{X: e.p[0], Y: e.p[1]}, true
}

// Len returns the number of registered entities.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Within appends to buf the ids of all entities at distance at most r from p,
// in increasing id order, and returns the extended buffer.
// The caller is responsible for excluding itself.
func (x *Index) Within(p geom.Vec2, r float64, buf []int) []int {
	if r < 0 {
		return buf
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	start := len(buf)
	r2 := r * r
	c := orb.Point{p.X, p.Y}
	b := orb.Bound{Min: orb.Point{p.X - r, p.Y - r}, Max: orb.Point{p.X + r, p.Y + r}}
	if b.Intersects(x.bound) {
		for _, q := range x.tree.InBound(nil, b) {
			e := q.(*entry)
			if distSq(c, e.p) <= r2 {
				buf = append(buf, e.id)
			}
		}
	}
	for _, e := range x.overflow {
		if distSq(c, e.p) <= r2 {
			buf = append(buf, e.id)
		}
	}
	sort.Ints(buf[start:])
	return buf
}

func (x *Index) insert(e *entry) {
	if x.bound.Contains(e.p) {
		if err := x.tree.Add(e); err == nil {
			return
		}
	}
	x.overflow[e.id] = e
}

func (x *Index) remove(e *entry) {
	if _, ok := x.overflow[e.id]; ok {
		delete(x.overflow, e.id)
		return
	}
	x.tree.Remove(e, func(q orb.Pointer) bool { return q.(*entry) == e })
}

func distSq(a, b orb.Point) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx + dy*dy
}
