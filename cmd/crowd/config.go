package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
)

// Config holds the various parameters required for running a simulation.
type Config struct {
	// Output is either a filename (path) for the HDF5 output file,
	// or the empty string for an interactive simulation.
	Output string

	Viewer string // possible values: opengl, term
	Steps  int    // number of time steps (hdf5 only)
	Record int    // number of agents recorded (hdf5 only, 0 means all)

	Calculator string // possible values: see motion.Names
	Scenario   string // possible values: headon, circle, corridor, random, data
	Agents     int    // number of agents (ignored by headon and data)
	Commitment string // possible values: low, mid, high, mixed

	Obstacles string // GeoJSON file of obstacle polygons, optional
	DataPath  string // HDF5 file recorded by a previous run (data scenario)

	Verbose bool // log debug events

	// Sim holds the parameters shared by the simulation and the calculators.
	Sim moplat.Config `toml:"sim"`
}

// DefaultConf returns the default parameters.
func DefaultConf() *Config {
	return &Config{
		Output:     "",
		Viewer:     "opengl",
		Steps:      1000,
		Calculator: "orca",
		Scenario:   "circle",
		Agents:     50,
		Commitment: "mid",
		Sim:        *moplat.DefaultConfig(),
	}
}

// ParseConfig parses the TOML config file whose path is provided.
func ParseConfig(path string) (*Config, error) {
	// config file overwrites default parameters
	conf := DefaultConf()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if err := conf.Sim.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return conf, nil
}
