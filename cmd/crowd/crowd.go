// Command crowd runs MoPlaT crowd simulations.
//
// Usage
//
// The crowd command takes one optional argument:
//  crowd [config_file]
// It is the path to a TOML config file.
// If no config file is specified, an interactive simulation
// with default parameters will run in an OpenGL window.
//
// Config file
//
// The config file is written in TOML. Top-level keys select the scenario,
// the velocity calculator and the output; the [sim] table overrides the
// simulation parameters. For example:
//  scenario = "corridor"
//  calculator = "commitment"
//  agents = 80
//  output = "out/corridor.h5"
//  steps = 600
//
//  [sim]
//  dt = 0.05
//  infolimit = 4
//
// Interactive mode
//
// In interactive mode, the simulation can be paused/resumed with space.
// While in pause, pressing right arrow will perform a single step.
// Tab and shift tab allow to cycle through focal agents.
// Pressing Esc or closing the window will quit.
// Set viewer = "term" to run in the terminal instead.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"runtime"

	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/hdf5"
	"github.com/superxueyizou/MoPlaT/motion"
	"github.com/superxueyizou/MoPlaT/opengl"
	"github.com/superxueyizou/MoPlaT/term"
)

const usage = `Usage: crowd [config_file]

The first argument is optional and is the path to a TOML config file.
If no config file is specified, an interactive simulation
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

	level := slog.LevelInfo
	if conf.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// setup simulation
	s, err := setup(conf, logger)
	if err != nil {
		Fatal(err)
	}
	logger.Info("simulation ready",
		"scenario", conf.Scenario,
		"calculator", conf.Calculator,
		"agents", len(s.Agents),
		"obstacles", len(s.Space.Obstacles()))

	// run interactively or not depending on config
	if err := run(s, conf); err != nil {
		Fatal(err)
	}
	logger.Info("simulation done", "ticks", s.Tick(), "finished", s.Done())
}

// Fatal prints an error on the standard output and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

// setup builds the simulation described by conf.
func setup(conf *Config, logger *slog.Logger) (*moplat.Simulation, error) {
	s, err := moplat.New(&conf.Sim)
	if err != nil {
		return nil, err
	}
	s.Logger = logger

	s.NewCalculator, err = motion.Factory(conf.Calculator, logger)
	if err != nil {
		return nil, err
	}

	if conf.Obstacles != "" {
		if _, err := s.Space.LoadGeoJSON(conf.Obstacles); err != nil {
			return nil, err
		}
	}

	place, ok := scenarios[conf.Scenario]
	if !ok {
		return nil, errors.Errorf("bad scenario %q", conf.Scenario)
	}
	rng := rand.New(rand.NewSource(conf.Sim.Seed))
	if err := place(s, conf, rng); err != nil {
		return nil, errors.Wrapf(err, "scenario %s", conf.Scenario)
	}
	return s, nil
}

// run records s to HDF5 when an output is set and shows it otherwise.
func run(s *moplat.Simulation, conf *Config) error {
	sc := &conf.Sim
	if conf.Output != "" {
		n := conf.Record
		if n <= 0 || n > len(s.Agents) {
			n = len(s.Agents)
		}
		return hdf5.Run(s, &hdf5.Config{
			Output:   conf.Output,
			Steps:    conf.Steps,
			Step:     s.Step,
			Datasets: hdf5.AgentDatasets(n),
			Params:   sc,
		})
	}

	switch conf.Viewer {
	case "opengl":
		return opengl.Run(s, &opengl.Config{
			MaxAgents: len(s.Agents),
			Step:      s.Step,
			Xmin:      sc.Xmin,
			Ymin:      sc.Ymin,
			Xmax:      sc.Xmax,
			Ymax:      sc.Ymax,
		})
	case "term":
		return term.Run(s, &term.Config{
			Step: s.Step,
			Xmin: sc.Xmin,
			Ymin: sc.Ymin,
			Xmax: sc.Xmax,
			Ymax: sc.Ymax,
		})
	}
	return errors.Errorf("bad viewer %q", conf.Viewer)
}
