package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	moplat "github.com/superxueyizou/MoPlaT"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfig(t *testing.T) {
	path := write(t, "crowd.toml", `
scenario = "corridor"
calculator = "commitment"
agents = 12
commitment = "mixed"

[sim]
dt = 0.05
infolimit = 4.5
`)
	conf, err := ParseConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Scenario != "corridor" || conf.Calculator != "commitment" || conf.Agents != 12 {
		t.Errorf("Top-level keys not decoded: %+v", conf)
	}
	if conf.Sim.Dt != 0.05 || conf.Sim.InfoLimit != 4.5 {
		t.Errorf("Sim table not decoded: dt %g, infolimit %g", conf.Sim.Dt, conf.Sim.InfoLimit)
	}
	if conf.Sim.Radius != moplat.DefaultConfig().Radius {
		t.Errorf("Expected default radius to be kept, got %g", conf.Sim.Radius)
	}

	bad := write(t, "bad.toml", "[sim]\ndt = -1\n")
	if _, err := ParseConfig(bad); err == nil {
		t.Error("Expected an invalid sim table to be rejected")
	}
}

func TestScenarios(t *testing.T) {
	for _, name := range []string{"headon", "circle", "corridor", "random"} {
		conf := DefaultConf()
		conf.Scenario = name
		conf.Agents = 20
		conf.Commitment = "mixed"
		conf.Sim.Workers = 1
		s, err := setup(conf, discard)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		want := conf.Agents
		if name == "headon" {
			want = 2
		}
		if len(s.Agents) != want {
			t.Errorf("%s: expected %d agents, got %d", name, want, len(s.Agents))
		}
		for i, a := range s.Agents {
			if s.Space.Inside(a.Position()) {
				t.Errorf("%s: agent %d starts inside an obstacle", name, i)
			}
			for _, b := range s.Agents[:i] {
				if a.Position().Dist(b.Position()) < a.Radius()+b.Radius() {
					t.Errorf("%s: agents %d and %d overlap", name, b.ID(), a.ID())
				}
			}
		}
		for k := 0; k < 10; k++ {
			s.Step()
		}
	}
}

func TestMixedCommitment(t *testing.T) {
	conf := DefaultConf()
	conf.Commitment = "mixed"
	want := []moplat.CommitmentLevel{moplat.LowCommitment, moplat.MidCommitment, moplat.HighCommitment, moplat.LowCommitment}
	for i, w := range want {
		if got, err := commitment(conf, i); err != nil || got != w {
			t.Errorf("commitment(%d) = %v, %v, expected %v", i, got, err, w)
		}
	}
	conf.Commitment = "stubborn"
	if _, err := commitment(conf, 0); err == nil {
		t.Error("Expected an error for an unknown level")
	}
}

func TestSetupErrors(t *testing.T) {
	conf := DefaultConf()
	conf.Scenario = "stadium"
	if _, err := setup(conf, discard); err == nil {
		t.Error("Expected an error for an unknown scenario")
	}
	conf = DefaultConf()
	conf.Calculator = "magic"
	if _, err := setup(conf, discard); err == nil {
		t.Error("Expected an error for an unknown calculator")
	}
}
