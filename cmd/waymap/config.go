package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
)

// Config holds the various parameters required for computing a map.
type Config struct {
	// Output is either a filename (path) for the HDF5 output file,
	// or the empty string to print the map on the standard output.
	Output string

	Obstacles string  // GeoJSON file of obstacle polygons, optional
	Radius    float64 // unit: m (body of the probes)
	Heading   float64 // unit: rad (direction of motion of the probes)

	// Route followed by the probes, from first to last group
	Groups []Group

	// Grid parameters
	GridXmin   float64 // unit: m
	GridXmax   float64 // unit: m
	GridXcount int     // unit: 1
	GridYmin   float64 // unit: m
	GridYmax   float64 // unit: m
	GridYcount int     // unit: 1
}

// A Group is a waypoint group spread along a segment.
type Group struct {
	A       [2]float64 // unit: m
	B       [2]float64 // unit: m
	Spacing float64    // unit: m
}

// defaultRoute goes through the door of defaultWall to an exit on the far side.
var defaultRoute = []Group{
	{A: [2]float64{10, 9.4}, B: [2]float64{10, 10.6}, Spacing: 0.3},
	{A: [2]float64{18, 5}, B: [2]float64{18, 15}, Spacing: 0.5},
}

// DefaultConf returns the default parameters. The route is left empty
// so that a route in the config file does not merge with defaultRoute.
func DefaultConf() *Config {
	return &Config{
		Radius:     0.15,
		Heading:    0,
		GridXmin:   0,
		GridXmax:   20,
		GridXcount: 60,
		GridYmin:   0,
		GridYmax:   20,
		GridYcount: 30,
	}
}

// ParseConfig parses the TOML config file whose path is provided.
func ParseConfig(path string) (*Config, error) {
	// config file overwrites default parameters
	conf := DefaultConf()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if conf.GridXcount < 2 || conf.GridYcount < 2 {
		return nil, errors.Errorf("config %s: grid needs at least 2 points per axis", path)
	}
	return conf, nil
}

// route returns the configured route, or defaultRoute.
func (c *Config) route() moplat.Route {
	groups := c.Groups
	if len(groups) == 0 {
		groups = defaultRoute
	}
	r := make(moplat.Route, len(groups))
	for i, g := range groups {
		a, b := geom.Vec2{X: g.A[0], Y: g.A[1]}, geom.Vec2{X: g.B[0], Y: g.B[1]}
		r[i] = moplat.SegmentGroup(a, b, g.Spacing)
	}
	return r
}
