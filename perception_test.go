package moplat

import (
	"math"
	"testing"

	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/space"
)

// idle keeps agents in place.
type idle struct{}

func (idle) Velocity(*Agent, []*Agent, []*space.Vertex, geom.Vec2, float64) geom.Vec2 {
	return geom.Vec2{}
}

func TestPerceptionScores(t *testing.T) {
	tests := []struct {
		gap, want float64
	}{
		{-0.1, overlapScore},
		{0.5, maxScore},
		{100, minScore},
	}
	for _, tt := range tests {
		if got := distanceScore(tt.gap); got != tt.want {
			t.Errorf("distanceScore(%g) = %g, expected %g", tt.gap, got, tt.want)
		}
	}

	goal := geom.Vec2{X: 1}
	angles := []struct {
		goal, d geom.Vec2
		want    float64
	}{
		{goal, geom.Vec2{X: 1, Y: 0.5}, maxScore},
		{goal, geom.Vec2{Y: 1}, minScore},
		{goal, geom.Vec2{X: -1, Y: 0.1}, minScore},
		{goal, geom.Polar(1, 65*math.Pi/180), 0.325},
		{goal, geom.Polar(1, 75*math.Pi/180), 0.775},
		{geom.Vec2{}, geom.Vec2{X: -1}, maxScore},
	}
	for _, tt := range angles {
		if got := angleScore(tt.goal, tt.d); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("angleScore(%v, %v) = %g, expected %g", tt.goal, tt.d, got, tt.want)
		}
	}
}

func TestPerceptTieBreak(t *testing.T) {
	self := &Agent{id: 0, pos: geom.Vec2{X: 10, Y: 10}, vel: geom.Vec2{X: 1}, radius: 0.15}
	agent := func(id int, x, vx float64) *Agent {
		return &Agent{id: id, pos: geom.Vec2{X: x, Y: 10}, vel: geom.Vec2{X: vx}, radius: 0.15}
	}

	tests := []struct {
		name        string
		b, c        *Agent
		wantFirstID int
	}{
		// the farther one walks against both self and the nearer one
		{"against both farther", agent(1, 12, 1), agent(2, 13, -1), 2},
		// the nearer one walks against both self and the farther one
		{"against both nearer", agent(1, 11, -1), agent(2, 13, 1), 1},
		// same direction: nearer surface first
		{"same direction", agent(1, 12, 1), agent(2, 13, 1), 1},
		// both oncoming: nearer surface first
		{"both oncoming", agent(1, 12, -1), agent(2, 13, -1), 1},
		// against each other, the nearer one walking with self
		{"against each other", agent(1, 12, -1), agent(2, 11.5, 1), 1},
	}
	for _, tt := range tests {
		orders := [][]*Agent{{tt.b, tt.c}, {tt.c, tt.b}}
		for _, order := range orders {
			var ps []Percept
			for _, b := range order {
				ps = insertPercept(ps, self, Percept{Agent: b, Priority: maxScore})
			}
			if len(ps) != 2 {
				t.Fatalf("%s: expected 2 percepts, got %d", tt.name, len(ps))
			}
			if ps[0].Agent.id != tt.wantFirstID {
				t.Errorf("%s: inserting %d then %d ranked %d first, expected %d",
					tt.name, order[0].id, order[1].id, ps[0].Agent.id, tt.wantFirstID)
			}
		}
	}
}

func TestPerceiveTiesWithinSensorRange(t *testing.T) {
	conf := DefaultConfig()
	conf.Workers = 1
	conf.InfoLimit = 1
	sim, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}
	sim.NewCalculator = func(*Config) VelocityCalculator { return idle{} }
	self, err := sim.AddAgent(AgentSpec{Position: geom.Vec2{X: 10, Y: 10}, Velocity: geom.Vec2{X: 1}, Goal: GoalAt(geom.Vec2{X: 20, Y: 10})})
	if err != nil {
		t.Fatal(err)
	}
	// both well within sensor range, the nearer one walking along
	if _, err := sim.AddAgent(AgentSpec{Position: geom.Vec2{X: 11, Y: 10}, Velocity: geom.Vec2{X: 1}}); err != nil {
		t.Fatal(err)
	}
	oncoming, err := sim.AddAgent(AgentSpec{Position: geom.Vec2{X: 12.5, Y: 10}, Velocity: geom.Vec2{X: -1}})
	if err != nil {
		t.Fatal(err)
	}

	ps := sim.Perceive(self)
	if len(ps) != 1 {
		t.Fatalf("Expected the budget to keep 1 percept, got %d", len(ps))
	}
	if ps[0].Priority != maxScore {
		t.Errorf("Expected a saturated priority, got %g", ps[0].Priority)
	}
	if ps[0].Agent != oncoming {
		t.Errorf("Expected the oncoming agent %d to be perceived, got %d", oncoming.ID(), ps[0].Agent.ID())
	}
}
