package space

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/superxueyizou/MoPlaT/geom"
)

func square(x, y, s float64) []geom.Vec2 {
	return []geom.Vec2{{x, y}, {x + s, y}, {x + s, y + s}, {x, y + s}}
}

func TestIndexWithin(t *testing.T) {
	x := NewIndex(geom.Vec2{0, 0}, geom.Vec2{10, 10})
	x.Register(0, geom.Vec2{1, 1})
	x.Register(1, geom.Vec2{2, 1})
	x.Register(2, geom.Vec2{5, 5})
	x.Register(3, geom.Vec2{-3, 1}) // outside bound

	got := x.Within(geom.Vec2{1, 1}, 1, nil)
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("Expected [0 1] (inclusive radius), got %v", got)
	}

	got = x.Within(geom.Vec2{-2, 1}, 1.5, nil)
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("Expected out-of-bound entity 3, got %v", got)
	}

	x.Update(1, geom.Vec2{9, 9})
	got = x.Within(geom.Vec2{1, 1}, 1, nil)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("Expected [0] after update, got %v", got)
	}

	x.Deregister(0)
	if got := x.Within(geom.Vec2{1, 1}, 1, nil); len(got) != 0 {
		t.Errorf("Expected nothing after deregister, got %v", got)
	}
	if x.Len() != 3 {
		t.Errorf("Expected 3 entities, got %d", x.Len())
	}
}

func TestIndexMovesAcrossBound(t *testing.T) {
	x := NewIndex(geom.Vec2{0, 0}, geom.Vec2{10, 10})
	x.Register(7, geom.Vec2{9.9, 5})
	x.Update(7, geom.Vec2{10.5, 5})
	x.Update(7, geom.Vec2{9.5, 5})
	got := x.Within(geom.Vec2{9.5, 5}, 0.1, nil)
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("Expected [7], got %v", got)
	}
	if x.Len() != 1 {
		t.Errorf("Expected 1 entity, got %d", x.Len())
	}
}

func TestIndexMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := NewIndex(geom.Vec2{0, 0}, geom.Vec2{20, 20})
	pts := make([]geom.Vec2, 300)
	for i := range pts {
		pts[i] = geom.Vec2{X: rng.Float64()*24 - 2, Y: rng.Float64()*24 - 2}
		x.Register(i, pts[i])
	}
	for k := 0; k < 50; k++ {
		c := geom.Vec2{X: rng.Float64() * 20, Y: rng.Float64() * 20}
		r := rng.Float64() * 4
		var want []int
		for i, p := range pts {
			if p.DistSq(c) <= r*r {
				want = append(want, i)
			}
		}
		got := x.Within(c, r, nil)
		if len(got) != len(want) {
			t.Fatalf("Query %d: expected %d ids, got %d", k, len(want), len(got))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("Query %d: expected %v, got %v", k, want, got)
			}
		}
	}
}

func TestIndexConcurrentReads(t *testing.T) {
	x := NewIndex(geom.Vec2{0, 0}, geom.Vec2{10, 10})
	for i := 0; i < 100; i++ {
		x.Register(i, geom.Vec2{X: float64(i % 10), Y: float64(i / 10)})
	}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				if n := len(x.Within(geom.Vec2{5, 5}, 1, nil)); n != 5 {
					t.Errorf("Expected 5 neighbors, got %d", n)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestObstacleWinding(t *testing.T) {
	cw := []geom.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	o, err := NewObstacle(0, 0, cw)
	if err != nil {
		t.Fatal(err)
	}
	for i := range o.Vertices {
		v := &o.Vertices[i]
		if !v.Convex {
			t.Errorf("Expected vertex %d of a square to be convex", i)
		}
		if geom.LeftOf(v.Point, v.Next().Point, v.Next().Next().Point) <= 0 {
			t.Errorf("Expected counter-clockwise order at vertex %d", i)
		}
		if v.Next().Prev() != v {
			t.Errorf("Expected Next().Prev() to be identity at vertex %d", i)
		}
	}
}

func TestObstacleConcave(t *testing.T) {
	// L shape with one reflex corner at (1, 1)
	l := []geom.Vec2{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}
	o, err := NewObstacle(0, 10, l)
	if err != nil {
		t.Fatal(err)
	}
	for i := range o.Vertices {
		v := &o.Vertices[i]
		want := v.Point != (geom.Vec2{1, 1})
		if v.Convex != want {
			t.Errorf("Vertex %v: expected convex=%v, got %v", v.Point, want, v.Convex)
		}
		if v.ID != 10+i {
			t.Errorf("Expected id %d, got %d", 10+i, v.ID)
		}
	}
}

func TestObstacleDegenerate(t *testing.T) {
	if _, err := NewObstacle(0, 0, []geom.Vec2{{1, 1}, {1, 1}}); err == nil {
		t.Error("Expected an error for a single distinct vertex")
	}
	o, err := NewObstacle(0, 0, []geom.Vec2{{0, 0}, {1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if !o.Vertices[0].Convex || !o.Vertices[1].Convex {
		t.Error("Expected two-vertex obstacles to be convex")
	}
}

func TestVisibleFrom(t *testing.T) {
	s := New(geom.Vec2{0, 0}, geom.Vec2{10, 10})
	if _, err := s.AddObstacle(square(4, 4, 2)); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		a, b geom.Vec2
		want bool
	}{
		{"through", geom.Vec2{1, 5}, geom.Vec2{9, 5}, false},
		{"above", geom.Vec2{1, 7}, geom.Vec2{9, 7}, true},
		{"ends at corner", geom.Vec2{2, 4}, geom.Vec2{4, 6}, true},
		{"touching corner", geom.Vec2{3, 9}, geom.Vec2{9, 3}, true},
		{"along edge", geom.Vec2{3, 4}, geom.Vec2{7, 4}, false},
		{"same point", geom.Vec2{1, 1}, geom.Vec2{1, 1}, true},
		{"diagonal", geom.Vec2{3, 3}, geom.Vec2{7, 7}, false},
	}
	for _, tt := range tests {
		if got := s.VisibleFrom(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestVisibleFromSymmetric(t *testing.T) {
	s := New(geom.Vec2{0, 0}, geom.Vec2{10, 10})
	s.AddObstacle(square(2, 2, 1))
	s.AddObstacle([]geom.Vec2{{6, 1}, {8, 1}, {8, 3}, {7, 2}, {6, 3}})
	s.AddObstacle([]geom.Vec2{{1, 7}, {5, 8}})
	rng := rand.New(rand.NewSource(3))
	for k := 0; k < 2000; k++ {
		a := geom.Vec2{X: rng.Float64() * 10, Y: rng.Float64() * 10}
		b := geom.Vec2{X: rng.Float64() * 10, Y: rng.Float64() * 10}
		if s.VisibleFrom(a, b) != s.VisibleFrom(b, a) {
			t.Fatalf("VisibleFrom(%v, %v) is not symmetric", a, b)
		}
	}
}

func TestObstaclesNear(t *testing.T) {
	s := New(geom.Vec2{0, 0}, geom.Vec2{10, 10})
	s.AddObstacle(square(4, 4, 2))
	s.AddObstacle([]geom.Vec2{{0, 9}, {10, 9}})

	vs := s.ObstaclesNear(geom.Vec2{5, 3}, 1.5)
	if len(vs) == 0 {
		t.Fatal("Expected the lower edge of the square")
	}
	if e := vs[0].Edge(); e[0].Y != 4 || e[1].Y != 4 {
		t.Errorf("Expected closest edge at y=4, got %v", e)
	}
	for i := 1; i < len(vs); i++ {
		if vs[i].Edge().DistSq(geom.Vec2{5, 3}) < vs[i-1].Edge().DistSq(geom.Vec2{5, 3}) {
			t.Errorf("Expected edges sorted by distance")
		}
	}

	// long wall whose endpoints are far from the query point
	vs = s.ObstaclesNear(geom.Vec2{5, 8.5}, 1)
	found := false
	for _, v := range vs {
		if v.Obstacle().ID == 1 {
			found = true
		}
	}
	if !found {
		t.Error("Expected the long wall to be found")
	}

	if vs := s.ObstaclesNear(geom.Vec2{1, 1}, 0.5); len(vs) != 0 {
		t.Errorf("Expected no edges, got %d", len(vs))
	}
}

func TestInside(t *testing.T) {
	s := New(geom.Vec2{0, 0}, geom.Vec2{10, 10})
	s.AddObstacle(square(4, 4, 2))
	if !s.Inside(geom.Vec2{5, 5}) {
		t.Error("Expected center of square to be inside")
	}
	if s.Inside(geom.Vec2{1, 1}) {
		t.Error("Expected far point to be outside")
	}
	if d := s.Clearance(geom.Vec2{5, 2}); d != 2 {
		t.Errorf("Expected clearance 2, got %f", d)
	}
}
