package som

import (
	"fmt"
	"math/rand"
	"time"
)

// Mode selects the training algorithm.
type Mode string

const (
	// ModeOnline is sequential competitive learning: one random sample per
	// iteration, weights updated immediately.
	ModeOnline Mode = "online"
	// ModeBatch computes every sample's BMU per epoch (concurrently) and then
	// recomputes each neuron as the neighborhood-weighted mean of the data.
	ModeBatch Mode = "batch"
)

// Default training parameters.
const (
	DefaultIterations          = 1000
	DefaultInitialLearningRate = 0.5
	DefaultInitialRadius       = 2.5
	DefaultMinRadius           = 1.5
	DefaultWorkers             = 4
)

// Config controls map sizing and training.
type Config struct {
	// GridSize overrides the GridSize(n) heuristic when non-nil.
	GridSize *int

	Iterations int
	// InitialLearningRate and LearningRateDecay only apply to ModeOnline.
	// Batch epochs replace each weight with a neighborhood-weighted mean,
	// which has no step size.
	InitialLearningRate float64
	InitialRadius       float64
	// MinRadius floors the neighborhood radius. Above 1 a late update still
	// pulls direct neighbours noticeably, which keeps similar inputs on
	// adjacent units.
	MinRadius float64

	LearningRateDecay DecayKind
	RadiusDecay       DecayKind

	Mode Mode
	// Workers bounds BMU fan-out in batch mode.
	Workers int

	// Seed makes training reproducible when non-nil.
	Seed *int64
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Iterations:          DefaultIterations,
		InitialLearningRate: DefaultInitialLearningRate,
		InitialRadius:       DefaultInitialRadius,
		MinRadius:           DefaultMinRadius,
		LearningRateDecay:   DecayLinear,
		RadiusDecay:         DecayAsymptotic,
		Mode:                ModeOnline,
		Workers:             DefaultWorkers,
	}
}

// WithSeed returns a copy of c with a fixed seed.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = &seed
	return c
}

// WithGridSize returns a copy of c with a fixed grid side.
func (c Config) WithGridSize(size int) Config {
	c.GridSize = &size
	return c
}

// Validate checks the training parameters. Grid size is checked by Train
// since it depends on the data.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d: %w", c.Iterations, ErrInvalidConfig)
	}
	if c.InitialLearningRate <= 0 {
		return fmt.Errorf("initial learning rate must be positive, got %g: %w", c.InitialLearningRate, ErrInvalidConfig)
	}
	if c.InitialRadius <= 0 {
		return fmt.Errorf("initial radius must be positive, got %g: %w", c.InitialRadius, ErrInvalidConfig)
	}
	if c.MinRadius < 0 {
		return fmt.Errorf("min radius must not be negative, got %g: %w", c.MinRadius, ErrInvalidConfig)
	}
	if !c.LearningRateDecay.Valid() {
		return fmt.Errorf("unknown learning rate decay %q: %w", c.LearningRateDecay, ErrInvalidConfig)
	}
	if !c.RadiusDecay.Valid() {
		return fmt.Errorf("unknown radius decay %q: %w", c.RadiusDecay, ErrInvalidConfig)
	}
	switch c.Mode {
	case ModeOnline:
	case ModeBatch:
		if c.Workers <= 0 {
			return fmt.Errorf("batch mode needs at least one worker, got %d: %w", c.Workers, ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown mode %q: %w", c.Mode, ErrInvalidConfig)
	}
	return nil
}

// RandomSource is the randomness the trainer consumes. *rand.Rand satisfies
// it; tests can inject scripted sources.
type RandomSource interface {
	Intn(n int) int
}

// NewSource returns a generator seeded from c.Seed, or from the clock when
// no seed is set. The seed actually used is returned so a run can be
// replayed.
func (c Config) NewSource() (*rand.Rand, int64) {
	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	return rand.New(rand.NewSource(seed)), seed
}
