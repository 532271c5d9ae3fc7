package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
)

// Config holds the various parameters required for running a study.
type Config struct {
	// Output is either a filename (path) for the HDF5 output file,
	// or the empty string for an interactive OpenGL display.
	Output string

	MinAgents  int // number of agents in the sparsest crowd
	MaxAgents  int // number of agents in the densest crowd
	Levels     int // number of densities between MinAgents and MaxAgents
	Replicates int // number of replicates per density

	// Sim holds the perception parameters; the world bounds delimit the crowd.
	Sim moplat.Config `toml:"sim"`
}

// DefaultConf returns the default parameters.
func DefaultConf() *Config {
	sim := moplat.DefaultConfig()
	sim.Xmax, sim.Ymax = 10, 10
	return &Config{
		Output:     "",
		MinAgents:  10,
		MaxAgents:  400,
		Levels:     8,
		Replicates: 50,
		Sim:        *sim,
	}
}

// ParseConfig parses the TOML config file whose path is provided.
func ParseConfig(path string) (*Config, error) {
	// config file overwrites default parameters
	conf := DefaultConf()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return conf, nil
}

// Validate checks that the parameters are usable.
func (c *Config) Validate() error {
	switch {
	case c.MinAgents < 1 || c.MaxAgents < c.MinAgents:
		return errors.Errorf("bad crowd sizes %d to %d", c.MinAgents, c.MaxAgents)
	case c.Levels < 1 || c.Replicates < 1:
		return errors.New("levels and replicates must be positive")
	}
	return c.Sim.Validate()
}

// size returns the number of agents at density level l.
func (c *Config) size(l int) int {
	if c.Levels == 1 {
		return c.MaxAgents
	}
	return c.MinAgents + l*(c.MaxAgents-c.MinAgents)/(c.Levels-1)
}
