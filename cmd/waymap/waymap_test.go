package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func grid() *Config {
	conf := DefaultConf()
	conf.GridXcount, conf.GridYcount = 5, 5 // steps of 5 m
	return conf
}

func TestGroups(t *testing.T) {
	conf := grid()
	s, err := setup(conf)
	if err != nil {
		t.Fatal(err)
	}
	g := groups(s, conf)
	tests := []struct {
		i, j int
		want int32
	}{
		{1, 1, 0},          // (5, 5): behind the wall, heads for the door
		{1, 3, 1},          // (15, 5): exit in sight
		{1, 2, inObstacle}, // (10, 5): in the wall
		{2, 2, 1},          // (10, 10): in the door
	}
	for _, tt := range tests {
		if got := g[tt.i*conf.GridXcount+tt.j]; got != tt.want {
			t.Errorf("cell (%d, %d) = %d, expected %d", tt.i, tt.j, got, tt.want)
		}
	}

	c := clearance(s, conf)
	if got := c[1*conf.GridXcount+1]; got < 4.8 || got > 4.95 {
		t.Errorf("Expected a clearance of 4.9 at (5, 5), got %g", got)
	}
}

func TestPrintMap(t *testing.T) {
	conf := grid()
	s, err := setup(conf)
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	printMap(&b, groups(s, conf), conf)
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	if len(lines) != conf.GridYcount {
		t.Fatalf("Expected %d lines, got %d", conf.GridYcount, len(lines))
	}
	// bottom line is y = 0
	if got := lines[len(lines)-2][2]; got != '#' {
		t.Errorf("Expected the wall at (10, 5), got %q", got)
	}
}

func TestParseConfigRoute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waymap.toml")
	data := `
gridxcount = 11

[[groups]]
a = [18.0, 2.0]
b = [18.0, 18.0]
spacing = 1.0
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	conf, err := ParseConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.GridXcount != 11 || conf.GridYcount != DefaultConf().GridYcount {
		t.Errorf("Unexpected grid %dx%d", conf.GridXcount, conf.GridYcount)
	}
	r := conf.route()
	if len(r) != 1 || len(r[0]) != 17 {
		t.Errorf("Expected a single group of 17 points, got %v", r)
	}
	if len(DefaultConf().route()) != len(defaultRoute) {
		t.Error("Expected the default route without groups")
	}
}
