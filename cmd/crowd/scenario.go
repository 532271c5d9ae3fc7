package main

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/hdf5"
)

// A scenario places agents (and possibly obstacles) in an empty simulation.
type scenario func(s *moplat.Simulation, conf *Config, rng *rand.Rand) error

var scenarios = map[string]scenario{
	"headon":   headOn,
	"circle":   circle,
	"corridor": corridor,
	"random":   random,
	"data":     replay,
}

// commitment returns the commitment level of the i-th agent.
func commitment(conf *Config, i int) (moplat.CommitmentLevel, error) {
	if conf.Commitment == "mixed" {
		return moplat.CommitmentLevel(i%3) + moplat.LowCommitment, nil
	}
	return moplat.ParseCommitment(conf.Commitment)
}

func add(s *moplat.Simulation, conf *Config, spec moplat.AgentSpec) error {
	l, err := commitment(conf, len(s.Agents))
	if err != nil {
		return err
	}
	spec.Commitment = l
	_, err = s.AddAgent(spec)
	return err
}

func center(c *moplat.Config) geom.Vec2 {
	return geom.Vec2{X: 0.5 * (c.Xmin + c.Xmax), Y: 0.5 * (c.Ymin + c.Ymax)}
}

// headOn places two agents 4 m apart walking toward each other.
func headOn(s *moplat.Simulation, conf *Config, _ *rand.Rand) error {
	c := center(&conf.Sim)
	a, b := c.Sub(geom.Vec2{X: 2}), c.Add(geom.Vec2{X: 2})
	if err := add(s, conf, moplat.AgentSpec{Position: a, Goal: moplat.GoalAt(b.Add(geom.Vec2{X: 2})), Label: "west"}); err != nil {
		return err
	}
	return add(s, conf, moplat.AgentSpec{Position: b, Goal: moplat.GoalAt(a.Sub(geom.Vec2{X: 2})), Label: "east"})
}

// circle places agents evenly on a circle, each heading to the antipodal point.
func circle(s *moplat.Simulation, conf *Config, _ *rand.Rand) error {
	c := center(&conf.Sim)
	r := 0.5*math.Min(conf.Sim.Xmax-conf.Sim.Xmin, conf.Sim.Ymax-conf.Sim.Ymin) - 2*conf.Sim.Radius
	if r <= 0 {
		return errors.New("circle: world too small")
	}
	for i := 0; i < conf.Agents; i++ {
		p := c.Add(geom.Polar(r, 2*math.Pi*float64(i)/float64(conf.Agents)))
		if err := add(s, conf, moplat.AgentSpec{Position: p, Goal: moplat.GoalAt(c.Sub(p.Sub(c)))}); err != nil {
			return err
		}
	}
	return nil
}

// corridor builds a corridor with a narrow door in the middle.
// Half the agents walk east and half walk west, each following a route
// through the door to the opposite end.
func corridor(s *moplat.Simulation, conf *Config, rng *rand.Rand) error {
	const (
		halfWidth = 2.0 // corridor
		halfDoor  = 0.6
		wall      = 0.2
	)
	sc := &conf.Sim
	c := center(sc)
	x0, x1 := sc.Xmin+1, sc.Xmax-1
	if x1-x0 < 6 || sc.Ymax-sc.Ymin < 2*halfWidth+2 {
		return errors.New("corridor: world too small")
	}
	walls := [][]geom.Vec2{
		rect(x0, c.Y+halfWidth, x1, c.Y+halfWidth+wall),
		rect(x0, c.Y-halfWidth-wall, x1, c.Y-halfWidth),
		rect(c.X-wall/2, c.Y+halfDoor, c.X+wall/2, c.Y+halfWidth),
		rect(c.X-wall/2, c.Y-halfWidth, c.X+wall/2, c.Y-halfDoor),
	}
	for _, w := range walls {
		if _, err := s.AddObstacle(w); err != nil {
			return err
		}
	}

	spacing := 2 * sc.Radius
	door := moplat.SegmentGroup(geom.Vec2{X: c.X, Y: c.Y - halfDoor + sc.Radius}, geom.Vec2{X: c.X, Y: c.Y + halfDoor - sc.Radius}, spacing)
	lo, hi := c.Y-halfWidth+sc.Radius, c.Y+halfWidth-sc.Radius
	east := moplat.SegmentGroup(geom.Vec2{X: x1 - 0.5, Y: lo}, geom.Vec2{X: x1 - 0.5, Y: hi}, spacing)
	west := moplat.SegmentGroup(geom.Vec2{X: x0 + 0.5, Y: lo}, geom.Vec2{X: x0 + 0.5, Y: hi}, spacing)

	var placed []geom.Vec2
	for i := 0; i < conf.Agents; i++ {
		goEast := i%2 == 0
		xa, xb, route := x0+0.5, c.X-1, moplat.Route{door, east}
		if !goEast {
			xa, xb, route = c.X+1, x1-0.5, moplat.Route{door, west}
		}
		p, ok := place(rng, placed, 2.2*sc.Radius, xa, lo, xb, hi)
		if !ok {
			return errors.Errorf("corridor: no room for agent %d", i)
		}
		placed = append(placed, p)
		if err := add(s, conf, moplat.AgentSpec{Position: p, Goal: moplat.FollowRoute(route)}); err != nil {
			return err
		}
	}
	return nil
}

// random scatters agents over the world with random goals.
func random(s *moplat.Simulation, conf *Config, rng *rand.Rand) error {
	sc := &conf.Sim
	m := 2 * sc.Radius
	var placed []geom.Vec2
	for i := 0; i < conf.Agents; i++ {
		p, ok := place(rng, placed, 2.2*sc.Radius, sc.Xmin+m, sc.Ymin+m, sc.Xmax-m, sc.Ymax-m)
		if !ok {
			return errors.Errorf("random: no room for agent %d", i)
		}
		placed = append(placed, p)
		g := geom.Vec2{X: sc.Xmin + m + rng.Float64()*(sc.Xmax-sc.Xmin-2*m), Y: sc.Ymin + m + rng.Float64()*(sc.Ymax-sc.Ymin-2*m)}
		if err := add(s, conf, moplat.AgentSpec{Position: p, Goal: moplat.GoalAt(g)}); err != nil {
			return err
		}
	}
	return nil
}

// replay starts the agents alive in the first step of a recorded run
// from their recorded state and sends them where they ended up.
func replay(s *moplat.Simulation, conf *Config, _ *rand.Rand) error {
	l, err := hdf5.NewLoader(conf.DataPath, "agents")
	if err != nil {
		return err
	}
	defer l.Close()

	first, err := l.Load()
	if err != nil {
		return err
	}
	start := append([]hdf5.Record(nil), first...)
	l.Seek(l.Len() - 1)
	last, err := l.Load()
	if err != nil {
		return err
	}
	for i, r := range start {
		if r.Alive == 0 {
			continue
		}
		if err := add(s, conf, moplat.AgentSpec{
			Position: r.Pos,
			Velocity: r.Vel,
			Radius:   r.Radius,
			Goal:     moplat.GoalAt(last[i].Pos),
		}); err != nil {
			return err
		}
	}
	return nil
}

// place draws a point in the rectangle at least gap away from every placed point.
func place(rng *rand.Rand, placed []geom.Vec2, gap, x0, y0, x1, y1 float64) (geom.Vec2, bool) {
	const tries = 1000
next:
	for k := 0; k < tries; k++ {
		p := geom.Vec2{X: x0 + rng.Float64()*(x1-x0), Y: y0 + rng.Float64()*(y1-y0)}
		for _, q := range placed {
			if p.Dist(q) < gap {
				continue next
			}
		}
		return p, true
	}
	return geom.Vec2{}, false
}

func rect(x0, y0, x1, y1 float64) []geom.Vec2 {
	return []geom.Vec2{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}
