package motion

import (
	"math"
	"testing"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
)

func TestORCAHeadOn(t *testing.T) {
	sim := newSim(t)
	a := addAgent(t, sim, moplat.AgentSpec{
		Position:       geom.Vec2{X: 8, Y: 10},
		Goal:           moplat.GoalAt(geom.Vec2{X: 16, Y: 10}),
		Radius:         0.15,
		PreferredSpeed: 1.3,
		Calculator:     NewORCA(sim.Conf),
	})
	b := addAgent(t, sim, moplat.AgentSpec{
		Position:       geom.Vec2{X: 12, Y: 10},
		Goal:           moplat.GoalAt(geom.Vec2{X: 4, Y: 10}),
		Radius:         0.15,
		PreferredSpeed: 1.3,
		Calculator:     NewORCA(sim.Conf),
	})

	for k := 0; k < 100; k++ {
		sim.Step()
		if d := a.Position().Dist(b.Position()); d < a.Radius()+b.Radius()-1e-6 {
			t.Fatalf("tick %d: centers %g apart, below %g", k, d, a.Radius()+b.Radius())
		}
	}
	if a.Position().X <= b.Position().X {
		t.Errorf("Expected the agents to pass each other, got %v and %v", a.Position(), b.Position())
	}
}

func TestORCAWall(t *testing.T) {
	sim := newSim(t)
	if _, err := sim.AddObstacle([]geom.Vec2{{3, 4.9}, {7, 4.9}, {7, 5.1}, {3, 5.1}}); err != nil {
		t.Fatal(err)
	}
	a := addAgent(t, sim, moplat.AgentSpec{
		Position:   geom.Vec2{X: 5, Y: 2},
		Goal:       moplat.GoalAt(geom.Vec2{X: 5, Y: 8}),
		Calculator: NewORCA(sim.Conf),
	})
	for k := 0; k < 100; k++ {
		sim.Step()
		if c := sim.Space.Clearance(a.Position()); c < a.Radius()-1e-6 || sim.Space.Inside(a.Position()) {
			t.Fatalf("tick %d: agent at %v is %g from the wall", k, a.Position(), c)
		}
	}
}

func TestORCALinesNearestFirst(t *testing.T) {
	sim := newSim(t)
	self := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}, Velocity: geom.Vec2{X: 1}})
	// two neighbors at the same distance, and a farther one
	n1 := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 6}, Velocity: geom.Vec2{X: 1, Y: -1}})
	n2 := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 4}, Velocity: geom.Vec2{X: 1, Y: 1}})
	n3 := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 7, Y: 5}, Velocity: geom.Vec2{X: -1}})

	pref := geom.Vec2{X: 1.3}
	orders := [][]*moplat.Agent{{n1, n2, n3}, {n3, n2, n1}, {n2, n3, n1}}
	var first []geom.Line
	var firstV geom.Vec2
	for i, ns := range orders {
		c := NewORCA(sim.Conf)
		v := c.Velocity(self, ns, nil, pref, sim.Conf.Dt)
		lines := c.Lines()
		if len(lines) != 3 {
			t.Fatalf("Expected 3 lines, got %d", len(lines))
		}
		if i == 0 {
			first, firstV = lines, v
			continue
		}
		if v != firstV {
			t.Errorf("order %d: velocity %v, expected %v", i, v, firstV)
		}
		for j := range lines {
			if lines[j] != first[j] {
				t.Errorf("order %d: line %d is %v, expected %v", i, j, lines[j], first[j])
			}
		}
	}

	// the line of the single neighbor n1 comes first
	c := NewORCA(sim.Conf)
	c.Velocity(self, []*moplat.Agent{n1}, nil, pref, sim.Conf.Dt)
	if l := c.Lines(); l[0] != first[0] {
		t.Errorf("Expected the nearest, lowest id neighbor first: %v vs %v", l[0], first[0])
	}
}

func TestORCALinesCopy(t *testing.T) {
	sim := newSim(t)
	self := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}})
	other := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 6, Y: 5}})
	c := NewORCA(sim.Conf)
	c.Velocity(self, []*moplat.Agent{other}, nil, geom.Vec2{X: 1}, sim.Conf.Dt)
	l := c.Lines()
	l[0].Point = geom.Vec2{X: 99}
	if c.Lines()[0].Point == l[0].Point {
		t.Error("Expected Lines to return a copy")
	}
}

func TestORCACoincident(t *testing.T) {
	sim := newSim(t)
	a := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}})
	b := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}})
	va := NewORCA(sim.Conf).Velocity(a, []*moplat.Agent{b}, nil, geom.Vec2{}, sim.Conf.Dt)
	vb := NewORCA(sim.Conf).Velocity(b, []*moplat.Agent{a}, nil, geom.Vec2{}, sim.Conf.Dt)
	if !va.IsFinite() || !vb.IsFinite() {
		t.Fatalf("Expected finite velocities, got %v and %v", va, vb)
	}
	if va.X >= 0 || vb.X <= 0 {
		t.Errorf("Expected the agents to separate along x, got %v and %v", va, vb)
	}
}

func TestLinearProgramInfeasible(t *testing.T) {
	// y >= 1 and y <= -1
	lines := []geom.Line{
		{Point: geom.Vec2{Y: 1}, Direction: geom.Vec2{X: 1}},
		{Point: geom.Vec2{Y: -1}, Direction: geom.Vec2{X: -1}},
	}
	tests := []struct {
		numObstLines int
		wantY        float64
	}{
		{0, 0}, // violation shared evenly
		{1, 1}, // obstacle line kept
	}
	for _, tt := range tests {
		var result geom.Vec2
		fail := linearProgram2(lines, 2, geom.Vec2{}, false, &result)
		if fail != 1 {
			t.Fatalf("Expected line 1 to fail, got %d", fail)
		}
		linearProgram3(lines, tt.numObstLines, fail, 2, &result)
		if math.Abs(result.Y-tt.wantY) > 1e-9 {
			t.Errorf("obstacle lines %d: expected y=%g, got %v", tt.numObstLines, tt.wantY, result)
		}
		if result.Len() > 2+1e-9 {
			t.Errorf("obstacle lines %d: %v is outside the speed circle", tt.numObstLines, result)
		}
	}
}

func TestLinearProgramFeasible(t *testing.T) {
	lines := []geom.Line{{Point: geom.Vec2{Y: 0.5}, Direction: geom.Vec2{X: 1}}}
	var result geom.Vec2
	if fail := linearProgram2(lines, 2, geom.Vec2{X: 1}, false, &result); fail != len(lines) {
		t.Fatalf("Expected success, failed at line %d", fail)
	}
	if result != (geom.Vec2{X: 1, Y: 0.5}) {
		t.Errorf("Expected (1, 0.5), got %v", result)
	}
}
