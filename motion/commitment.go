package motion

import (
	"io"
	"log/slog"
	"math"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/space"
)

// Thresholds of the expectancy violation test.
const (
	violationSpeed = 0.1               // unit: preferred speed
	violationAngle = 5 * math.Pi / 180 // unit: rad
)

// Commitment wraps a base calculator in a strategy layer.
//
// The agent classifies the nearest agent in front of it from its
// perceptual buffer and commits to a strategy toward it: avoid it when it
// comes the other way or stands, overtake it when it is slower, follow it
// when it is faster. The strategy steers the preferred velocity handed to
// the base calculator. It is kept for the interval of the agent's
// commitment level, unless the velocity chosen by the base calculator
// passes the target on the other side than planned, in which case the
// strategy is marked violated and evaluated again on the next tick.
type Commitment struct {
	Base   moplat.VelocityCalculator
	Logger *slog.Logger

	conf     *moplat.Config
	buf      *Buffer
	decision moplat.Decision
	tick     int
}

// NewCommitment returns a strategy layer over base. A nil logger discards.
func NewCommitment(conf *moplat.Config, base moplat.VelocityCalculator, logger *slog.Logger) *Commitment {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Commitment{
		Base:     base,
		Logger:   logger,
		conf:     conf,
		buf:      NewBuffer(conf),
		decision: moplat.Decision{Target: -1, Side: moplat.Right},
	}
}

// Decision implements moplat.StrategyReporter.
func (c *Commitment) Decision() moplat.Decision { return c.decision }

// Buffer returns the perceptual buffer.
func (c *Commitment) Buffer() *Buffer { return c.buf }

// Lines forwards the constraint lines of the base calculator, if any.
func (c *Commitment) Lines() []geom.Line {
	if r, ok := c.Base.(moplat.ConstraintReporter); ok {
		return r.Lines()
	}
	return nil
}

// Velocity implements moplat.VelocityCalculator.
func (c *Commitment) Velocity(self *moplat.Agent, neighbors []*moplat.Agent, obstacles []*space.Vertex, pref geom.Vec2, dt float64) geom.Vec2 {
	defer func() { c.tick++ }()
	c.buf.Observe(self, neighbors)

	d := c.decision
	if d.Strategy == moplat.NoStrategy || d.Violated || c.tick-d.Since >= c.conf.Interval(self.Commitment()) {
		c.decision = c.evaluate(self, neighbors)
		if c.decision.Strategy != moplat.NoStrategy {
			c.Logger.Debug("strategy committed",
				"id", self.ID(), "tick", c.tick,
				"strategy", c.decision.Strategy, "target", c.decision.Target, "side", c.decision.Side)
		}
	}

	target := find(neighbors, c.decision.Target)
	suggested := c.suggest(self, target, pref)
	v := c.Base.Velocity(self, neighbors, obstacles, suggested, dt)

	if target != nil && c.decision.Strategy != moplat.NoStrategy && !c.decision.Violated {
		if violated(self, target, suggested, v) {
			c.decision.Violated = true
			c.Logger.Debug("expectancy violated",
				"id", self.ID(), "tick", c.tick,
				"strategy", c.decision.Strategy, "target", c.decision.Target, "side", c.decision.Side)
		}
	}
	return v.ClampLen(self.MaxSpeed())
}

// evaluate picks a strategy from the front row of the buffer.
func (c *Commitment) evaluate(self *moplat.Agent, neighbors []*moplat.Agent) moplat.Decision {
	d := moplat.Decision{Target: -1, Side: moplat.Right, Since: c.tick}
	cell, ok := c.buf.nearest(RowFront)
	if !ok {
		return d
	}
	target := find(neighbors, cell.ID)
	if target == nil {
		return d
	}

	d.Target = target.ID()
	switch cell.Kind {
	case Oncoming, Static:
		d.Strategy = moplat.Avoid
		// steer away from the side the target is on
		if geom.AngleBetween(self.Heading(), target.Position().Sub(self.Position())) < 0 {
			d.Side = moplat.Left
		}
	case Slower:
		d.Strategy = moplat.Overtake
		if c.buf.occupied(RowRight) < c.buf.occupied(RowLeft) {
			d.Side = moplat.Right
		} else {
			d.Side = moplat.Left
		}
	case Faster:
		d.Strategy = moplat.Follow
	}
	return d
}

// suggest returns the preferred velocity steered by the current strategy.
func (c *Commitment) suggest(self, target *moplat.Agent, pref geom.Vec2) geom.Vec2 {
	if target == nil || pref.IsZero() {
		return pref
	}
	switch c.decision.Strategy {
	case moplat.Follow:
		speed := math.Min(pref.Len(), target.Velocity().Len())
		return pref.Normalize().Scale(speed)
	case moplat.Avoid, moplat.Overtake:
		toTarget := target.Position().Sub(self.EyePosition())
		dist := toTarget.Len()
		if dist == 0 || toTarget.Dot(pref) <= 0 {
			return pref
		}
		offset := c.conf.ClearAngle
		if r := (self.Radius() + target.Radius()) / dist; r < 1 {
			offset = math.Max(offset, math.Asin(r))
		} else {
			offset = math.Max(offset, math.Pi/2)
		}
		v := toTarget.Normalize().Rotate(float64(c.decision.Side) * offset).Scale(pref.Len())
		if v.Dot(pref) <= 0 {
			return pref
		}
		return v
	}
	return pref
}

// violated reports whether the actual velocity passes the target on the
// other side than the suggested one, and differs enough from it.
func violated(self, target *moplat.Agent, suggested, actual geom.Vec2) bool {
	if suggested.IsZero() || actual.IsZero() {
		return false
	}
	if actual.Dist(suggested) <= violationSpeed*self.PreferredSpeed() {
		return false
	}
	if math.Abs(geom.AngleBetween(suggested, actual)) <= violationAngle {
		return false
	}
	toTarget := target.Position().Sub(self.EyePosition())
	return sign(geom.AngleBetween(toTarget, suggested)) != sign(geom.AngleBetween(toTarget, actual))
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// find returns the agent with the given id among agents, or nil.
func find(agents []*moplat.Agent, id int) *moplat.Agent {
	if id < 0 {
		return nil
	}
	for _, a := range agents {
		if a.ID() == id {
			return a
		}
	}
	return nil
}
