// Package moplat runs decentralized collision avoidance simulations of crowds.
//
// Disc-shaped agents share a 2D world with static polygonal obstacles.
// Each agent walks toward its own goal and avoids the others using only
// what it perceives, through a pluggable velocity calculator.
// There is no central coordination.
//
// A tick has two phases. In the sense-think phase every live agent reads
// the world as it was at the start of the tick and decides a pending
// velocity. In the act phase every live agent moves with its pending
// velocity and the world index is updated. No decision ever sees a
// position written during the same tick.
package moplat

import (
	"io"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/space"
)

// A Simulation contains all the state and parameters of a simulation.
type Simulation struct {
	Conf   *Config
	Space  *space.Space
	Agents []*Agent // indexed by id

	// NewCalculator builds the calculator of agents added without one.
	NewCalculator func(conf *Config) VelocityCalculator

	// Logger receives debug events from the simulation and the calculators.
	Logger *slog.Logger

	tick int
}

// New returns an empty simulation over the world bounds of conf.
func New(conf *Config) (*Simulation, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &Simulation{
		Conf:   conf,
		Space:  space.New(geom.Vec2{X: conf.Xmin, Y: conf.Ymin}, geom.Vec2{X: conf.Xmax, Y: conf.Ymax}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// AddAgent creates an agent and registers it in the world index.
// Ids are assigned in order from 0.
func (s *Simulation) AddAgent(spec AgentSpec) (*Agent, error) {
	a, err := newAgent(len(s.Agents), spec, s.Conf)
	if err != nil {
		return nil, err
	}
	if a.calc == nil {
		if s.NewCalculator == nil {
			return nil, errors.Errorf("agent %d: no velocity calculator", a.id)
		}
		a.calc = s.NewCalculator(s.Conf)
	}
	s.Agents = append(s.Agents, a)
	s.Space.Agents.Register(a.id, a.pos)
	return a, nil
}

// AddObstacle adds a static polygon given by its vertices in any winding.
func (s *Simulation) AddObstacle(points []geom.Vec2) (*space.Obstacle, error) {
	return s.Space.AddObstacle(points)
}

// Agent returns the agent with the given id, or nil.
func (s *Simulation) Agent(id int) *Agent {
	if id < 0 || id >= len(s.Agents) {
		return nil
	}
	return s.Agents[id]
}

// Tick returns the number of steps run so far.
func (s *Simulation) Tick() int { return s.tick }

// Step runs a single simulation step.
func (s *Simulation) Step() {
	died := s.retire()
	s.senseThink()
	s.act()
	if s.Conf.RetireDead {
		for _, a := range died {
			s.Space.Agents.Deregister(a.id)
		}
	}
	s.tick++
}

// Done reports whether no agent is alive anymore.
func (s *Simulation) Done() bool {
	for _, a := range s.Agents {
		if a.alive {
			return false
		}
	}
	return true
}

// Snapshot appends the state of every agent to buf.
func (s *Simulation) Snapshot(buf []AgentState) []AgentState {
	for _, a := range s.Agents {
		buf = append(buf, a.state())
	}
	return buf
}

// retire marks agents that reached their goal or left the world as dead.
// Dead agents stop where they are.
func (s *Simulation) retire() []*Agent {
	var died []*Agent
	for _, a := range s.Agents {
		if !a.alive {
			continue
		}
		reached := s.ReachedGoal(a)
		if reached || s.OutOfBounds(a) {
			a.alive = false
			a.vel, a.pending = geom.Vec2{}, geom.Vec2{}
			died = append(died, a)
			s.Logger.Debug("agent retired", "id", a.id, "tick", s.tick, "reached", reached)
		}
	}
	return died
}

// senseThink lets every live agent decide its pending velocity.
// Agents only write their own private fields in this phase,
// so they are spread over Conf.Workers goroutines.
func (s *Simulation) senseThink() {
	n := s.Conf.Workers
	if n <= 1 || len(s.Agents) < 2 {
		for _, a := range s.Agents {
			if a.alive {
				s.think(a)
			}
		}
		return
	}

	jobs := make(chan *Agent)
	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			for a := range jobs {
				s.think(a)
			}
		}()
	}
	for _, a := range s.Agents {
		if a.alive {
			jobs <- a
		}
	}
	close(jobs)
	wg.Wait()
}

// think computes the pending velocity of a from the start-of-tick world.
func (s *Simulation) think(a *Agent) {
	pref := s.PreferredVelocity(a)
	if a.goal.Kind == PointGoal || a.goal.Kind == DirectionGoal {
		pref = s.perturb(a, pref)
	}
	assertFinite("preferred velocity", a.id, pref)
	a.pref = pref

	a.percepts = s.Perceive(a)
	neighbors := make([]*Agent, len(a.percepts))
	for i, p := range a.percepts {
		neighbors[i] = p.Agent
	}
	obstacles := s.Space.ObstaclesNear(a.pos, s.Conf.SensorRange*a.radius)

	v := a.calc.Velocity(a, neighbors, obstacles, pref, s.Conf.Dt)
	assertFinite("velocity", a.id, v)
	if !v.IsFinite() {
		v = a.vel
	}
	a.pending = v.ClampLen(a.maxSpeed)
}

// act moves every live agent with its pending velocity.
func (s *Simulation) act() {
	dt := s.Conf.Dt
	for _, a := range s.Agents {
		if !a.alive {
			continue
		}
		a.vel = a.pending
		speed := a.vel.Len()
		a.pos = a.pos.Add(a.vel.Scale(dt))
		a.distance += speed * dt
		a.energy += walkingEnergy(a.mass, speed, dt)
		s.Space.Agents.Update(a.id, a.pos)
	}
}
