package moplat

import (
	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/space"
)

// A VelocityCalculator decides the velocity of one agent for one tick.
//
// Velocity is given the agent itself, the neighbors it perceives (already
// prioritized and capped), the obstacle edges near it, its preferred
// velocity and the time step. The result must not exceed the agent's
// max speed. A calculator may keep private working memory for its agent
// but must only read the other arguments.
type VelocityCalculator interface {
	Velocity(self *Agent, neighbors []*Agent, obstacles []*space.Vertex, pref geom.Vec2, dt float64) geom.Vec2
}

// A ConstraintReporter exposes the avoidance lines derived during the last call
// to Velocity. The returned slice is a copy.
type ConstraintReporter interface {
	Lines() []geom.Line
}

// A StrategyReporter exposes the strategy a calculator is committed to.
type StrategyReporter interface {
	Decision() Decision
}

// A Strategy is a named way of dealing with the agent ahead.
type Strategy int

// Strategies.
const (
	NoStrategy Strategy = iota
	Avoid               // step aside an oncoming agent
	Overtake            // pass a slower agent going the same way
	Follow              // fall in behind a faster agent going the same way
)

func (s Strategy) String() string {
	switch s {
	case Avoid:
		return "avoid"
	case Overtake:
		return "overtake"
	case Follow:
		return "follow"
	}
	return "none"
}

// A Side is the side on which a target is passed.
type Side int

// Sides. Left means steering counter-clockwise from the target bearing.
const (
	Right Side = -1
	Left  Side = 1
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// A Decision is the state of the commitment state machine.
type Decision struct {
	Strategy Strategy
	Target   int // id of the target agent, -1 if none
	Side     Side
	Violated bool
	Since    int // tick of the last evaluation
}

func (d Decision) String() string {
	if d.Strategy == NoStrategy {
		return "none"
	}
	s := d.Strategy.String() + "/" + d.Side.String()
	if d.Violated {
		s += "/violated"
	}
	return s
}
