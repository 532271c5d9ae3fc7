//go:build nogl
// +build nogl

package opengl

import (
	"os"

	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
)

// Config holds the parameters of the OpenGL driver.
type Config struct {
	// Maximum number of agents.
	MaxAgents int

	// Go to next step and step manually only.
	Step       func()
	ForcePause bool

	// Bounds of default viewport.
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// Run returns an error explaining that OpenGL support is disabled.
func Run(s *moplat.Simulation, conf *Config) error {
	return errors.Errorf("%s was built without OpenGL support", os.Args[0])
}
