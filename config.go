package moplat

import (
	"runtime"

	"github.com/pkg/errors"
)

// Config holds every parameter shared by the components of a simulation.
// A single Config is built once per run and passed by pointer.
type Config struct {
	Dt      float64 // unit: s
	Workers int     // goroutines used in the sense-think phase (<= 1 means serial)
	Seed    int64   // seed of the per-agent PRNGs

	// World bounds; agents leaving them die
	Xmin float64 // unit: m
	Ymin float64 // unit: m
	Xmax float64 // unit: m
	Ymax float64 // unit: m

	// Deregister dead agents from the world index at the end of the tick they die
	RetireDead bool

	// Agent defaults, used when an AgentSpec leaves a field at zero
	Radius         float64 // unit: m
	PreferredSpeed float64 // unit: m/s
	MaxSpeedFactor float64 // unit: 1 (max speed = factor * preferred speed)
	PersonalSpace  float64 // unit: 1 (inflation of own radius for time to collision)
	Mass           float64 // unit: kg
	Perturbation   float64 // unit: m/s (bound of the symmetry-breaking noise)

	// Perception
	SensorRange    float64 // unit: own radius
	InfoProcessing bool    // prioritize and cap the perceived neighbors
	InfoLimit      float64 // unit: 1 (cumulative priority budget)
	ClusterRadius  float64 // unit: m (bodies larger than this absorb what they cover)

	// Sampling avoidance
	SafetyFactor        float64 // unit: s (weight of 1/time to collision)
	CandidateAngles     int     // directions sampled around the circle
	CandidateMagnitudes int     // speeds sampled per direction
	MaxAccel            float64 // unit: m/s²

	// Linear constraint avoidance
	TimeHorizon     float64 // unit: s
	TimeHorizonObst float64 // unit: s

	// Rule-based avoidance
	LookAhead     float64 // unit: s
	TurnGain      float64 // unit: rad (largest deflection per conflict)
	BrakeDistance float64 // unit: m (surface gap below which speed drops)

	// Commitment layer
	LowCommitment  int     // unit: tick
	MidCommitment  int     // unit: tick
	HighCommitment int     // unit: tick
	BufferDepth    int     // frames kept in the perceptual buffer
	BufferColumns  int     // range buckets per bearing row
	BufferRange    float64 // unit: m
	ClearAngle     float64 // unit: rad (steering offset from the target bearing)
}

// DefaultConfig returns the default parameters.
func DefaultConfig() *Config {
	return &Config{
		Dt:                  0.1,
		Workers:             runtime.GOMAXPROCS(0),
		Seed:                1,
		Xmin:                0,
		Ymin:                0,
		Xmax:                20,
		Ymax:                20,
		RetireDead:          true,
		Radius:              0.15,
		PreferredSpeed:      1.3,
		MaxSpeedFactor:      1.5,
		PersonalSpace:       0.2,
		Mass:                70,
		Perturbation:        1e-5,
		SensorRange:         20,
		InfoProcessing:      true,
		InfoLimit:           3,
		ClusterRadius:       0.16,
		SafetyFactor:        7.5,
		CandidateAngles:     24,
		CandidateMagnitudes: 5,
		MaxAccel:            2.6,
		TimeHorizon:         2,
		TimeHorizonObst:     2,
		LookAhead:           3,
		TurnGain:            0.6,
		BrakeDistance:       0.3,
		LowCommitment:       2,
		MidCommitment:       5,
		HighCommitment:      10,
		BufferDepth:         3,
		BufferColumns:       5,
		BufferRange:         3,
		ClearAngle:          0.35,
	}
}

// Validate checks that the parameters are usable.
func (c *Config) Validate() error {
	switch {
	case !(c.Dt > 0):
		return errors.Errorf("config: time step must be positive, got %g", c.Dt)
	case !(c.Xmax > c.Xmin && c.Ymax > c.Ymin):
		return errors.Errorf("config: empty world bounds [%g, %g]x[%g, %g]", c.Xmin, c.Xmax, c.Ymin, c.Ymax)
	case !(c.Radius > 0):
		return errors.Errorf("config: radius must be positive, got %g", c.Radius)
	case c.PreferredSpeed < 0:
		return errors.Errorf("config: negative preferred speed %g", c.PreferredSpeed)
	case c.MaxSpeedFactor < 1:
		return errors.Errorf("config: max speed factor must be at least 1, got %g", c.MaxSpeedFactor)
	case c.PersonalSpace < 0:
		return errors.Errorf("config: negative personal space %g", c.PersonalSpace)
	case c.SensorRange < 0 || c.InfoLimit < 0:
		return errors.New("config: sensor range and info limit must not be negative")
	case c.CandidateAngles < 1 || c.CandidateMagnitudes < 1:
		return errors.New("config: at least one candidate angle and magnitude are required")
	case !(c.TimeHorizon > 0 && c.TimeHorizonObst > 0):
		return errors.New("config: time horizons must be positive")
	case c.LowCommitment < 1 || c.MidCommitment < 1 || c.HighCommitment < 1:
		return errors.New("config: commitment intervals must be at least one tick")
	case c.BufferDepth < 1 || c.BufferColumns < 1 || !(c.BufferRange > 0):
		return errors.New("config: perceptual buffer must have a positive size")
	}
	return nil
}

// Interval returns the number of ticks a strategy is kept at the given level.
func (c *Config) Interval(l CommitmentLevel) int {
	switch l {
	case LowCommitment:
		return c.LowCommitment
	case HighCommitment:
		return c.HighCommitment
	default:
		return c.MidCommitment
	}
}
