// Command density measures how many neighbors agents perceive in
// random static crowds of increasing density.
//
// Usage
//
// The density command takes one optional argument:
//  density [config_file]
// It is the path to a TOML config file.
// If no output file is specified, the crowds are shown in an OpenGL
// window: press right arrow for the next crowd and tab to inspect
// what an agent perceives.
//
// Output
//
// Each step of the HDF5 file is one crowd. The "size" dataset holds the
// number of agents, "raw" the number of neighbors within sensor range,
// "perceived" the number kept after prioritization and "priority" the
// sum of their priorities. Missing agents are recorded as -1.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"

	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/hdf5"
	"github.com/superxueyizou/MoPlaT/opengl"
	"github.com/superxueyizou/MoPlaT/space"
)

const usage = `Usage: density [config_file]

The first argument is optional and is the path to a TOML config file.
If no config file is specified, an interactive display
with default parameters will run in an OpenGL window.
`

func init() {
	// Most OpenGL functions have to run from the main thread.
	// This is needed to arrange that main() runs on main thread.
	// See https://github.com/golang/go/wiki/LockOSThread for more info.
	runtime.LockOSThread()
}

func main() {
	var conf *Config
	var err error
	switch len(os.Args) {
	case 1:
		conf = DefaultConf()
	case 2:
		conf, err = ParseConfig(os.Args[1])
	default:
		err = fmt.Errorf("%d arguments provided (0 required, 1 optional)\n\n%s", len(os.Args)-1, usage)
	}
	if err != nil {
		Fatal(err)
	}

	st := newStudy(conf)
	if err := st.next(); err != nil {
		Fatal(err)
	}
	step := func() {
		if err := st.next(); err != nil {
			Fatal(err)
		}
	}

	// run interactively or not depending on config
	if conf.Output == "" {
		err = opengl.Run(st.sim, &opengl.Config{
			MaxAgents:  conf.MaxAgents,
			Step:       step,
			ForcePause: true,
			Xmin:       conf.Sim.Xmin,
			Ymin:       conf.Sim.Ymin,
			Xmax:       conf.Sim.Xmax,
			Ymax:       conf.Sim.Ymax,
		})
	} else {
		err = hdf5.Run(st.sim, &hdf5.Config{
			Output:   conf.Output,
			Steps:    conf.Levels * conf.Replicates,
			Step:     step,
			Datasets: st.datasets(),
			Params:   conf,
		})
	}
	if err != nil {
		Fatal(err)
	}
}

// Fatal prints an error on the standard output and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

// A study generates the successive crowds, each sensed once.
// The simulation is replaced in place so that drivers holding
// it see the new crowd.
type study struct {
	conf *Config
	sim  *moplat.Simulation
	rng  *rand.Rand
	k    int // index of the next crowd
}

func newStudy(conf *Config) *study {
	return &study{
		conf: conf,
		sim:  new(moplat.Simulation),
		rng:  rand.New(rand.NewSource(conf.Sim.Seed)),
	}
}

// next builds the next crowd and lets every agent perceive it.
func (st *study) next() error {
	c := st.conf
	n := c.size((st.k / c.Replicates) % c.Levels)
	st.k++

	s, err := moplat.New(&c.Sim)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		p := geom.Vec2{
			X: c.Sim.Xmin + st.rng.Float64()*(c.Sim.Xmax-c.Sim.Xmin),
			Y: c.Sim.Ymin + st.rng.Float64()*(c.Sim.Ymax-c.Sim.Ymin),
		}
		_, err := s.AddAgent(moplat.AgentSpec{
			Position:   p,
			Goal:       moplat.Toward(geom.Polar(1, 2*math.Pi*st.rng.Float64())),
			Calculator: still{},
		})
		if err != nil {
			return errors.Wrapf(err, "crowd %d", st.k)
		}
	}
	// a single tick of standing still fills the percepts
	s.Step()
	*st.sim = *s
	return nil
}

// datasets returns what is recorded for each crowd.
func (st *study) datasets() []*hdf5.Dataset {
	m := st.conf.MaxAgents
	size := int32(0)
	raw := make([]int32, m)
	perceived := make([]int32, m)
	priority := make([]float64, m)
	return []*hdf5.Dataset{
		{
			Name: "size",
			Val:  int32(0),
			Data: func(s *moplat.Simulation) interface{} {
				size = int32(len(s.Agents))
				return &size
			},
		},
		{
			Name: "raw",
			Val:  int32(0),
			Dims: []int{m},
			Data: func(s *moplat.Simulation) interface{} {
				for i := range raw {
					raw[i] = -1
					if a := s.Agent(i); a != nil {
						raw[i] = int32(inRange(s, a))
					}
				}
				return &raw
			},
		},
		{
			Name: "perceived",
			Val:  int32(0),
			Dims: []int{m},
			Data: func(s *moplat.Simulation) interface{} {
				for i := range perceived {
					perceived[i] = -1
					if a := s.Agent(i); a != nil {
						perceived[i] = int32(len(a.Percepts()))
					}
				}
				return &perceived
			},
		},
		{
			Name: "priority",
			Val:  0.0,
			Dims: []int{m},
			Data: func(s *moplat.Simulation) interface{} {
				for i := range priority {
					priority[i] = -1
					if a := s.Agent(i); a != nil {
						priority[i] = 0
						for _, p := range a.Percepts() {
							priority[i] += p.Priority
						}
					}
				}
				return &priority
			},
		},
	}
}

// inRange returns the number of other agents within the sensor range of a.
func inRange(s *moplat.Simulation, a *moplat.Agent) int {
	ids := s.Space.Agents.Within(a.Position(), s.Conf.SensorRange*a.Radius(), nil)
	n := 0
	for _, id := range ids {
		if id != a.ID() {
			n++
		}
	}
	return n
}

// still never moves.
type still struct{}

func (still) Velocity(*moplat.Agent, []*moplat.Agent, []*space.Vertex, geom.Vec2, float64) geom.Vec2 {
	return geom.Vec2{}
}
