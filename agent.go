package moplat

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/superxueyizou/MoPlaT/geom"
)

// A CommitmentLevel governs how long a chosen strategy is followed
// before it is evaluated again.
type CommitmentLevel int

// Commitment levels. The zero value is replaced by MidCommitment.
const (
	LowCommitment CommitmentLevel = iota + 1
	MidCommitment
	HighCommitment
)

func (l CommitmentLevel) String() string {
	switch l {
	case LowCommitment:
		return "low"
	case MidCommitment:
		return "mid"
	case HighCommitment:
		return "high"
	}
	return "unknown"
}

// ParseCommitment converts "low", "mid" or "high" to a CommitmentLevel.
func ParseCommitment(s string) (CommitmentLevel, error) {
	switch s {
	case "low":
		return LowCommitment, nil
	case "mid", "":
		return MidCommitment, nil
	case "high":
		return HighCommitment, nil
	}
	return 0, errors.Errorf("bad commitment level %q", s)
}

// An AgentSpec describes an agent to be added to a simulation.
// Zero numeric fields take the default of the simulation Config.
type AgentSpec struct {
	Position       geom.Vec2
	Velocity       geom.Vec2
	Goal           Goal
	Radius         float64
	PreferredSpeed float64
	MaxSpeed       float64
	PersonalSpace  float64
	Mass           float64
	Commitment     CommitmentLevel
	Label          string // ignored by the simulation

	// Calculator decides the velocity of the agent. When nil, the
	// simulation factory is used. Calculators keep per-agent state
	// and must not be shared.
	Calculator VelocityCalculator
}

// An Agent is a disc moving toward its goal.
// All state is written by the Simulation that owns the agent;
// the accessors are safe to call between steps.
type Agent struct {
	id             int
	pos            geom.Vec2
	vel            geom.Vec2
	pending        geom.Vec2
	pref           geom.Vec2
	radius         float64
	preferredSpeed float64
	maxSpeed       float64
	personalSpace  float64
	mass           float64
	commitment     CommitmentLevel
	alive          bool
	label          string
	goal           Goal
	waypoint       geom.Vec2 // active waypoint of a route
	hasWaypoint    bool
	calc           VelocityCalculator
	rng            *rand.Rand
	percepts       []Percept

	// cumulative metrics
	distance float64
	energy   float64
}

// ID returns the unique id of the agent.
func (a *Agent) ID() int { return a.id }

// Position returns the current position.
func (a *Agent) Position() geom.Vec2 { return a.pos }

// Velocity returns the current velocity.
func (a *Agent) Velocity() geom.Vec2 { return a.vel }

// Pending returns the velocity decided during the last sense-think phase.
func (a *Agent) Pending() geom.Vec2 { return a.pending }

// PrefVelocity returns the preferred velocity of the last sense-think phase.
func (a *Agent) PrefVelocity() geom.Vec2 { return a.pref }

// Radius returns the collision radius.
func (a *Agent) Radius() float64 { return a.radius }

// PreferredSpeed returns the cruising speed.
func (a *Agent) PreferredSpeed() float64 { return a.preferredSpeed }

// MaxSpeed returns the speed limit.
func (a *Agent) MaxSpeed() float64 { return a.maxSpeed }

// PersonalSpace returns the radius inflation factor used for the agent's own
// time to collision estimates.
func (a *Agent) PersonalSpace() float64 { return a.personalSpace }

// Mass returns the mass in kg.
func (a *Agent) Mass() float64 { return a.mass }

// Commitment returns the commitment level.
func (a *Agent) Commitment() CommitmentLevel { return a.commitment }

// Alive reports whether the agent still takes part in the simulation.
func (a *Agent) Alive() bool { return a.alive }

// Label returns the free-form label given at creation.
func (a *Agent) Label() string { return a.label }

// Goal returns the navigation goal.
func (a *Agent) Goal() Goal { return a.goal }

// ActiveWaypoint returns the waypoint of the route currently aimed at.
func (a *Agent) ActiveWaypoint() (geom.Vec2, bool) { return a.waypoint, a.hasWaypoint }

// Calculator returns the velocity calculator of the agent.
func (a *Agent) Calculator() VelocityCalculator { return a.calc }

// Percepts returns the neighbors perceived during the last sense-think phase.
func (a *Agent) Percepts() []Percept { return a.percepts }

// Distance returns the cumulative distance travelled.
func (a *Agent) Distance() float64 { return a.distance }

// Energy returns the cumulative metabolic energy spent walking, in J.
func (a *Agent) Energy() float64 { return a.energy }

// NextPosition returns the position k steps of duration dt ahead by dead reckoning.
func (a *Agent) NextPosition(k int, dt float64) geom.Vec2 {
	return a.pos.Add(a.vel.Scale(float64(k) * dt))
}

// EyePosition returns the front point of the agent body along its heading.
// It is the agent position when the agent stands still.
func (a *Agent) EyePosition() geom.Vec2 {
	return a.pos.Add(a.vel.Normalize().Scale(a.radius))
}

// Heading returns the unit direction the agent is moving or wants to move in.
func (a *Agent) Heading() geom.Vec2 {
	if !a.vel.IsZero() {
		return a.vel.Normalize()
	}
	return a.pref.Normalize()
}

// newAgent validates spec against conf and builds an agent.
func newAgent(id int, spec AgentSpec, conf *Config) (*Agent, error) {
	a := &Agent{
		id:             id,
		pos:            spec.Position,
		vel:            spec.Velocity,
		radius:         spec.Radius,
		preferredSpeed: spec.PreferredSpeed,
		maxSpeed:       spec.MaxSpeed,
		personalSpace:  spec.PersonalSpace,
		mass:           spec.Mass,
		commitment:     spec.Commitment,
		alive:          true,
		label:          spec.Label,
		goal:           spec.Goal,
		calc:           spec.Calculator,
		rng:            rand.New(rand.NewSource(conf.Seed + int64(id))),
	}
	if a.radius == 0 {
		a.radius = conf.Radius
	}
	if a.preferredSpeed == 0 {
		a.preferredSpeed = conf.PreferredSpeed
	}
	if a.maxSpeed == 0 {
		a.maxSpeed = conf.MaxSpeedFactor * a.preferredSpeed
	}
	if a.personalSpace == 0 {
		a.personalSpace = conf.PersonalSpace
	}
	if a.mass == 0 {
		a.mass = conf.Mass
	}
	if a.commitment == 0 {
		a.commitment = MidCommitment
	}

	switch {
	case !spec.Position.IsFinite() || !spec.Velocity.IsFinite():
		return nil, errors.Errorf("agent %d: non-finite position or velocity", id)
	case !(a.radius > 0):
		return nil, errors.Errorf("agent %d: radius must be positive, got %g", id, a.radius)
	case a.preferredSpeed < 0:
		return nil, errors.Errorf("agent %d: negative preferred speed %g", id, a.preferredSpeed)
	case a.maxSpeed < a.preferredSpeed:
		return nil, errors.Errorf("agent %d: max speed %g below preferred speed %g", id, a.maxSpeed, a.preferredSpeed)
	case a.personalSpace < 0:
		return nil, errors.Errorf("agent %d: negative personal space %g", id, a.personalSpace)
	case a.commitment < LowCommitment || a.commitment > HighCommitment:
		return nil, errors.Errorf("agent %d: bad commitment level %d", id, a.commitment)
	}
	if err := a.goal.validate(); err != nil {
		return nil, errors.Wrapf(err, "agent %d", id)
	}
	a.vel = a.vel.ClampLen(a.maxSpeed)
	return a, nil
}

// walkingEnergy is the metabolic cost of walking at speed v for dt seconds.
func walkingEnergy(mass, v, dt float64) float64 {
	const (
		e0 = 2.23 // unit: J/(kg.s)
		e1 = 1.26 // unit: J.s/(kg.m²)
	)
	return mass * (e0 + e1*v*v) * dt
}

// AgentState is a read-only copy of the state of an agent at one tick.
type AgentState struct {
	ID       int
	Pos      geom.Vec2
	Vel      geom.Vec2
	Pref     geom.Vec2
	Radius   float64
	Alive    bool
	Strategy string
}

func (a *Agent) state() AgentState {
	s := AgentState{
		ID:     a.id,
		Pos:    a.pos,
		Vel:    a.vel,
		Pref:   a.pref,
		Radius: a.radius,
		Alive:  a.alive,
	}
	if r, ok := a.calc.(StrategyReporter); ok {
		s.Strategy = r.Decision().String()
	}
	return s
}
