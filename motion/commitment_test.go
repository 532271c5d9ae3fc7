package motion

import (
	"math"
	"testing"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
)

// mirror passes the target on the other side than suggested.
func mirror(self *moplat.Agent, neighbors []*moplat.Agent, pref geom.Vec2) geom.Vec2 {
	u := neighbors[0].Position().Sub(self.EyePosition()).Normalize()
	return u.Scale(2 * pref.Dot(u)).Sub(pref)
}

func TestBufferObserve(t *testing.T) {
	sim := newSim(t)
	self := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}, Velocity: geom.Vec2{X: 1.3}})
	front := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 6, Y: 5}, Velocity: geom.Vec2{X: -1}})
	left := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5.2, Y: 6}, Velocity: geom.Vec2{X: 1.3}})
	right := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 6, Y: 4}, Velocity: geom.Vec2{X: 0.5}})
	behind := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 4, Y: 5}})
	static := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 6.5, Y: 5.2}})

	b := NewBuffer(sim.Conf)
	b.Observe(self, []*moplat.Agent{front, left, right, behind, static})

	tests := []struct {
		row, col int
		want     Cell
	}{
		{RowFront, 1, Cell{Oncoming, front.ID()}},
		{RowFront, 2, Cell{Static, static.ID()}},
		{RowLeft, 1, Cell{Faster, left.ID()}},
		{RowRight, 1, Cell{Slower, right.ID()}},
		{RowFront, 0, Cell{Empty, -1}},
	}
	for _, tt := range tests {
		if got := b.Cell(0, tt.row, tt.col); got != tt.want {
			t.Errorf("Cell(0, %d, %d) = %+v, expected %+v", tt.row, tt.col, got, tt.want)
		}
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < b.Columns(); col++ {
			if b.Cell(0, row, col).ID == behind.ID() {
				t.Errorf("Agent behind recorded in row %d column %d", row, col)
			}
		}
	}

	// frames shift
	b.Observe(self, nil)
	if got := b.Cell(0, RowFront, 1); got.Kind != Empty {
		t.Errorf("Expected an empty newest frame, got %+v", got)
	}
	if got := b.Cell(1, RowFront, 1); got != (Cell{Oncoming, front.ID()}) {
		t.Errorf("Expected the previous frame to move back, got %+v", got)
	}
	for i := 0; i < b.Depth(); i++ {
		b.Observe(self, nil)
	}
	if _, ok := b.nearest(RowFront); ok {
		t.Error("Expected the buffer to forget after its depth")
	}
}

func TestCommitmentStability(t *testing.T) {
	sim := newSim(t)
	self := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}, Velocity: geom.Vec2{X: 1.3}})
	target := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 7, Y: 5.1}, Velocity: geom.Vec2{X: -1.3}})
	closer := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 6, Y: 4.95}})

	c := NewCommitment(sim.Conf, fixed(nil), nil)
	pref := geom.Vec2{X: 1.3}
	interval := sim.Conf.Interval(self.Commitment())

	c.Velocity(self, []*moplat.Agent{target}, nil, pref, sim.Conf.Dt)
	first := c.Decision()
	want := moplat.Decision{Strategy: moplat.Avoid, Target: target.ID(), Side: moplat.Right}
	if first != want {
		t.Fatalf("Expected %+v, got %+v", want, first)
	}

	// a closer agent shows up but the commitment holds
	neighbors := []*moplat.Agent{target, closer}
	for k := 1; k < interval; k++ {
		c.Velocity(self, neighbors, nil, pref, sim.Conf.Dt)
		if d := c.Decision(); d != first {
			t.Fatalf("tick %d: decision changed from %v to %v", k, first, d)
		}
	}

	c.Velocity(self, neighbors, nil, pref, sim.Conf.Dt)
	d := c.Decision()
	if d.Since != interval || d.Target != closer.ID() || d.Side != moplat.Left {
		t.Errorf("Expected a new evaluation at tick %d targeting %d on the left, got %+v", interval, closer.ID(), d)
	}
}

func TestCommitmentSteers(t *testing.T) {
	sim := newSim(t)
	self := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}, Velocity: geom.Vec2{X: 1.3}})
	oncoming := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 7, Y: 5.1}, Velocity: geom.Vec2{X: -1.3}})
	slower := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 6.5, Y: 5}, Velocity: geom.Vec2{X: 0.6}})
	faster := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 6.5, Y: 5}, Velocity: geom.Vec2{X: 1.2}})
	pref := geom.Vec2{X: 1.3}

	tests := []struct {
		target   *moplat.Agent
		strategy moplat.Strategy
		check    func(v geom.Vec2) bool
	}{
		{oncoming, moplat.Avoid, func(v geom.Vec2) bool { return v.Y < 0 }},
		{slower, moplat.Overtake, func(v geom.Vec2) bool { return v.Y > 0 }},
		{faster, moplat.Follow, func(v geom.Vec2) bool { return math.Abs(v.Len()-1.2) < 1e-9 && v.Y == 0 }},
	}
	for _, tt := range tests {
		c := NewCommitment(sim.Conf, fixed(nil), nil)
		v := c.Velocity(self, []*moplat.Agent{tt.target}, nil, pref, sim.Conf.Dt)
		if d := c.Decision(); d.Strategy != tt.strategy || d.Target != tt.target.ID() {
			t.Errorf("Expected %v of agent %d, got %v", tt.strategy, tt.target.ID(), d)
		}
		if !tt.check(v) {
			t.Errorf("%v: unexpected velocity %v", tt.strategy, v)
		}
	}
}

func TestCommitmentViolation(t *testing.T) {
	sim := newSim(t)
	self := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}, Velocity: geom.Vec2{X: 1.3}})
	target := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 7, Y: 5.1}, Velocity: geom.Vec2{X: -1.3}})
	neighbors := []*moplat.Agent{target}
	pref := geom.Vec2{X: 1.3}

	c := NewCommitment(sim.Conf, fixed(mirror), nil)
	c.Velocity(self, neighbors, nil, pref, sim.Conf.Dt)
	if d := c.Decision(); !d.Violated || d.Since != 0 {
		t.Fatalf("Expected a violation of the first decision, got %+v", d)
	}

	// violation forces the next tick to evaluate again
	c.Velocity(self, neighbors, nil, pref, sim.Conf.Dt)
	if d := c.Decision(); d.Since != 1 {
		t.Errorf("Expected a new evaluation at tick 1, got %+v", d)
	}

	// the same base keeping to the plan never violates
	c = NewCommitment(sim.Conf, fixed(nil), nil)
	for k := 0; k < 3; k++ {
		c.Velocity(self, neighbors, nil, pref, sim.Conf.Dt)
		if c.Decision().Violated {
			t.Fatalf("tick %d: unexpected violation", k)
		}
	}
}

func TestCommitmentLines(t *testing.T) {
	sim := newSim(t)
	self := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 5, Y: 5}, Velocity: geom.Vec2{X: 1.3}})
	other := addAgent(t, sim, moplat.AgentSpec{Position: geom.Vec2{X: 7, Y: 5}, Velocity: geom.Vec2{X: -1.3}})

	var calc moplat.VelocityCalculator = NewCommitment(sim.Conf, NewORCA(sim.Conf), nil)
	calc.Velocity(self, []*moplat.Agent{other}, nil, geom.Vec2{X: 1.3}, sim.Conf.Dt)
	r, ok := calc.(moplat.ConstraintReporter)
	if !ok || len(r.Lines()) != 1 {
		t.Error("Expected the commitment layer to report the lines of its base")
	}
	if _, ok := calc.(moplat.StrategyReporter); !ok {
		t.Error("Expected the commitment layer to report its strategy")
	}
	if _, ok := moplat.VelocityCalculator(NewSampling(sim.Conf, false)).(moplat.StrategyReporter); ok {
		t.Error("Expected sampling not to report a strategy")
	}
}
