// Command waymap maps which waypoint group a route follower heads for
// from every point of a grid.
//
// Usage
//
// The waymap command takes one optional argument:
//  waymap [config_file]
// It is the path to a TOML config file.
// Without an output file the map is printed on the standard output,
// one digit per grid point ('#' inside obstacles, '.' when no group is visible).
package main

import (
	"fmt"
	"io"
	"math"
	"os"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
	"github.com/superxueyizou/MoPlaT/hdf5"
)

const usage = `Usage: waymap [config_file]

The first argument is optional and is the path to a TOML config file.
If no config file is specified, the map of a room with a door
is printed on the standard output.
`

// defaultWall splits the default room, leaving a door between y = 9.4 and y = 10.6.
var defaultWall = [][]geom.Vec2{
	{{X: 9.9, Y: 0}, {X: 10.1, Y: 0}, {X: 10.1, Y: 9.4}, {X: 9.9, Y: 9.4}},
	{{X: 9.9, Y: 10.6}, {X: 10.1, Y: 10.6}, {X: 10.1, Y: 20}, {X: 9.9, Y: 20}},
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

	s, err := setup(conf)
	if err != nil {
		Fatal(err)
	}

	if conf.Output == "" {
		printMap(os.Stdout, groups(s, conf), conf)
		return
	}
	err = hdf5.Run(s, &hdf5.Config{
		Output: conf.Output,
		Steps:  1,
		Step:   func() {},
		Datasets: []*hdf5.Dataset{
			{
				Name: "group",
				Val:  int32(0),
				Dims: []int{conf.GridYcount, conf.GridXcount},
				Data: func(s *moplat.Simulation) interface{} {
					g := groups(s, conf)
					return &g
				},
			},
			{
				Name: "clearance",
				Val:  0.0,
				Dims: []int{conf.GridYcount, conf.GridXcount},
				Data: func(s *moplat.Simulation) interface{} {
					c := clearance(s, conf)
					return &c
				},
			},
		},
		Params: conf,
	})
	if err != nil {
		Fatal(err)
	}
}

// Fatal prints an error on the standard output and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

// setup builds an agent-free simulation holding the obstacles.
func setup(conf *Config) (*moplat.Simulation, error) {
	sc := moplat.DefaultConfig()
	sc.Xmin, sc.Xmax = conf.GridXmin, conf.GridXmax
	sc.Ymin, sc.Ymax = conf.GridYmin, conf.GridYmax
	s, err := moplat.New(sc)
	if err != nil {
		return nil, err
	}
	if conf.Obstacles != "" {
		_, err = s.Space.LoadGeoJSON(conf.Obstacles)
		return s, err
	}
	for _, w := range defaultWall {
		if _, err := s.AddObstacle(w); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Cell values of the group map.
const (
	inObstacle = -2
	noGroup    = -1
)

// groups returns for each point in the grid the index of the group
// a probe standing there heads for, row by row from GridYmin.
func groups(s *moplat.Simulation, conf *Config) []int32 {
	route := conf.route()
	heading := geom.Polar(1, conf.Heading)
	g := make([]int32, conf.GridXcount*conf.GridYcount)
	for i, y := range linspace(conf.GridYmin, conf.GridYmax, conf.GridYcount) {
		for j, x := range linspace(conf.GridXmin, conf.GridXmax, conf.GridXcount) {
			p := geom.Vec2{X: x, Y: y}
			if s.Space.Inside(p) {
				g[i*conf.GridXcount+j] = inObstacle
				continue
			}
			k, _, _ := s.NextWaypoint(route, p, heading, conf.Radius)
			g[i*conf.GridXcount+j] = int32(k)
		}
	}
	return g
}

// clearance returns for each point in the grid the distance to the nearest obstacle.
func clearance(s *moplat.Simulation, conf *Config) []float64 {
	c := make([]float64, conf.GridXcount*conf.GridYcount)
	for i, y := range linspace(conf.GridYmin, conf.GridYmax, conf.GridYcount) {
		for j, x := range linspace(conf.GridXmin, conf.GridXmax, conf.GridXcount) {
			d := s.Space.Clearance(geom.Vec2{X: x, Y: y})
			if math.IsInf(d, 1) {
				d = -1
			}
			c[i*conf.GridXcount+j] = d
		}
	}
	return c
}

// printMap writes the group map with the top row first.
func printMap(w io.Writer, g []int32, conf *Config) {
	line := make([]byte, conf.GridXcount+1)
	line[conf.GridXcount] = '\n'
	for i := conf.GridYcount - 1; i >= 0; i-- {
		for j := 0; j < conf.GridXcount; j++ {
			switch k := g[i*conf.GridXcount+j]; {
			case k == inObstacle:
				line[j] = '#'
			case k == noGroup:
				line[j] = '.'
			case k < 10:
				line[j] = byte('0' + k)
			default:
				line[j] = '+'
			}
		}
		w.Write(line)
	}
}

// linspace generates count equally spaced points between min and max.
func linspace(min, max float64, count int) []float64 {
	s := make([]float64, count)
	for i := 0; i < count; i++ {
		s[i] = min + (float64(i)/float64(count-1))*(max-min)
	}
	return s
}
