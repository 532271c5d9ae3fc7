package motion

import (
	"testing"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
)

func TestRuleBased(t *testing.T) {
	pref := geom.Vec2{X: 1.3}
	tests := []struct {
		name  string
		other moplat.AgentSpec
		check func(v geom.Vec2) bool
	}{
		{"free", moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 8}},
			func(v geom.Vec2) bool { return v == pref }},
		{"dead ahead", moplat.AgentSpec{Position: geom.Vec2{X: 7, Y: 5}, Velocity: geom.Vec2{X: -1.3}},
			func(v geom.Vec2) bool { return v.Y < 0 && v.X > 0 }},
		{"ahead on the left", moplat.AgentSpec{Position: geom.Vec2{X: 7, Y: 5.05}, Velocity: geom.Vec2{X: -1.3}},
			func(v geom.Vec2) bool { return v.Y < 0 }},
		{"ahead on the right", moplat.AgentSpec{Position: geom.Vec2{X: 7, Y: 4.95}, Velocity: geom.Vec2{X: -1.3}},
			func(v geom.Vec2) bool { return v.Y > 0 }},
		{"close ahead", moplat.AgentSpec{Position: geom.Vec2{X: 5.35, Y: 5.25}},
			func(v geom.Vec2) bool { return v.Len() < pref.Len() }},
		{"overlapping", moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5.1}},
			func(v geom.Vec2) bool { return v.Y < 0 }},
	}
	for _, tt := range tests {
		sim := newSim(t)
		self := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}, Velocity: pref})
		other := addAgent(t, sim, tt.other)
		v := NewRuleBased(sim.Conf).Velocity(self, []*moplat.Agent{other}, nil, pref, sim.Conf.Dt)
		if !tt.check(v) {
			t.Errorf("%s: unexpected velocity %v", tt.name, v)
		}
		if v.Len() > self.MaxSpeed()+1e-9 {
			t.Errorf("%s: %v exceeds max speed %g", tt.name, v, self.MaxSpeed())
		}
	}
}

func TestRuleBasedWall(t *testing.T) {
	sim := newSim(t)
	if _, err := sim.AddObstacle([]geom.Vec2{{3, 5.1}, {7, 5.1}, {7, 6}, {3, 6}}); err != nil {
		t.Fatal(err)
	}
	self := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}})
	obstacles := sim.Space.ObstaclesNear(self.Position(), self.Radius())
	if len(obstacles) == 0 {
		t.Fatal("Expected the wall to be near")
	}
	v := NewRuleBased(sim.Conf).Velocity(self, nil, obstacles, geom.Vec2{X: 1.3}, sim.Conf.Dt)
	if v.Y >= 0 {
		t.Errorf("Expected a push away from the wall, got %v", v)
	}
}

func TestRuleBasedHeadOn(t *testing.T) {
	for _, off := range []float64{0, 0.05, 0.14, 0.3} {
		sim := newSim(t)
		a := addAgent(t, sim, moplat.AgentSpec{
			Position:       geom.Vec2{X: 8, Y: 10},
			Goal:           moplat.GoalAt(geom.Vec2{X: 16, Y: 10}),
			Radius:         0.15,
			PreferredSpeed: 1.3,
			Calculator:     NewRuleBased(sim.Conf),
		})
		b := addAgent(t, sim, moplat.AgentSpec{
			Position:       geom.Vec2{X: 12, Y: 10 + off},
			Goal:           moplat.GoalAt(geom.Vec2{X: 4, Y: 10 + off}),
			Radius:         0.15,
			PreferredSpeed: 1.3,
			Calculator:     NewRuleBased(sim.Conf),
		})
		for k := 0; k < 200; k++ {
			sim.Step()
		}
		if a.Position().X <= b.Position().X {
			t.Errorf("offset %g: expected the agents to pass each other, got %v and %v", off, a.Position(), b.Position())
		}
	}
}
