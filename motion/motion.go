// Package motion implements the velocity calculators of MoPlaT agents.
//
// Every calculator keeps private working memory for a single agent and
// must not be shared between agents.
package motion

import (
	"log/slog"
	"sort"

	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
)

var calculators = map[string]func(conf *moplat.Config, logger *slog.Logger) moplat.VelocityCalculator{
	"sampling": func(conf *moplat.Config, _ *slog.Logger) moplat.VelocityCalculator {
		return NewSampling(conf, false)
	},
	"sampling-accel": func(conf *moplat.Config, _ *slog.Logger) moplat.VelocityCalculator {
		return NewSampling(conf, true)
	},
	"orca": func(conf *moplat.Config, _ *slog.Logger) moplat.VelocityCalculator {
		return NewORCA(conf)
	},
	"rule": func(conf *moplat.Config, _ *slog.Logger) moplat.VelocityCalculator {
		return NewRuleBased(conf)
	},
	"commitment": func(conf *moplat.Config, logger *slog.Logger) moplat.VelocityCalculator {
		return NewCommitment(conf, NewORCA(conf), logger)
	},
}

// Names returns the names accepted by Factory.
func Names() []string {
	names := make([]string, 0, len(calculators))
	for name := range calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory returns a constructor of the named calculator, suitable for
// moplat.Simulation.NewCalculator.
func Factory(name string, logger *slog.Logger) (func(conf *moplat.Config) moplat.VelocityCalculator, error) {
	newCalc, ok := calculators[name]
	if !ok {
		return nil, errors.Errorf("unknown velocity calculator %q (want one of %v)", name, Names())
	}
	return func(conf *moplat.Config) moplat.VelocityCalculator {
		return newCalc(conf, logger)
	}, nil
}
