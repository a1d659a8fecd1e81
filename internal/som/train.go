package som

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// minSigma keeps the Gaussian neighborhood defined when MinRadius is 0.
const minSigma = 1e-12

// Train builds and trains a map over the rows of data. src supplies all
// randomness (initial weights and, in online mode, sample order); when nil a
// source is built from cfg.Seed. The grid is only returned when training
// completed; on error the result is nil.
func Train(data mat.Matrix, cfg Config, src RandomSource) (*Grid, error) {
	if data == nil {
		return nil, fmt.Errorf("Train: nil data: %w", ErrEmptyData)
	}
	rows, cols := data.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("Train: %dx%d data: %w", rows, cols, ErrEmptyData)
	}
	samples := make([][]float64, rows)
	for i := range samples {
		samples[i] = mat.Row(nil, i, data)
	}
	return TrainVectors(samples, cfg, src)
}

// TrainVectors is Train over plain vectors. Every vector must have the length
// of the first one.
func TrainVectors(samples [][]float64, cfg Config, src RandomSource) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("TrainVectors: %w", err)
	}
	if len(samples) == 0 || len(samples[0]) == 0 {
		return nil, fmt.Errorf("TrainVectors: %d samples: %w", len(samples), ErrEmptyData)
	}

	size := GridSize(len(samples))
	if cfg.GridSize != nil {
		size = *cfg.GridSize
	}
	grid, err := newGrid(size, len(samples[0]))
	if err != nil {
		return nil, fmt.Errorf("TrainVectors: %w", err)
	}

	for i, x := range samples {
		if len(x) != grid.dim {
			return nil, fmt.Errorf("TrainVectors: sample %d has length %d, want %d: %w", i, len(x), grid.dim, ErrDimensionMismatch)
		}
	}

	if src == nil {
		src, _ = cfg.NewSource()
	}

	grid.initFromSamples(samples, src)

	switch cfg.Mode {
	case ModeBatch:
		err = grid.trainBatch(samples, cfg)
	default:
		grid.trainOnline(samples, cfg, src)
	}
	if err != nil {
		return nil, fmt.Errorf("TrainVectors: %w", err)
	}

	return grid, nil
}

// initFromSamples seeds every neuron with a copy of a randomly drawn sample,
// so all weights start inside the observed data range.
func (g *Grid) initFromSamples(samples [][]float64, src RandomSource) {
	for i := range g.neurons {
		copy(g.neurons[i].Weight, samples[src.Intn(len(samples))])
	}
}

func (g *Grid) trainOnline(samples [][]float64, cfg Config, src RandomSource) {
	diff := make([]float64, g.dim)
	for t := 0; t < cfg.Iterations; t++ {
		x := samples[src.Intn(len(samples))]
		bmu := g.winner(x)
		eta := cfg.LearningRateDecay.At(cfg.InitialLearningRate, t, cfg.Iterations)
		sigma := radiusAt(cfg, t)
		g.update(x, bmu, eta, sigma, diff)
	}
}

// update applies w += eta * h * (x - w) to every neuron, where h is the
// Gaussian neighborhood exp(-d²/(2σ²)) around bmu.
func (g *Grid) update(x []float64, bmu Coord, eta, sigma float64, diff []float64) {
	twoSigma2 := 2 * sigma * sigma
	for i := range g.neurons {
		n := &g.neurons[i]
		h := math.Exp(-gridDist2(n.Coord, bmu) / twoSigma2)
		floats.SubTo(diff, x, n.Weight)
		floats.AddScaled(n.Weight, eta*h, diff)
	}
}

// trainBatch runs cfg.Iterations epochs of the batch algorithm. BMUs for an
// epoch are computed concurrently against frozen weights; the weights are
// then replaced serially, so no neuron is written by two goroutines.
func (g *Grid) trainBatch(samples [][]float64, cfg Config) error {
	bmus := make([]Coord, len(samples))
	num := make([]float64, g.dim)
	chunk := (len(samples) + cfg.Workers - 1) / cfg.Workers

	for t := 0; t < cfg.Iterations; t++ {
		var eg errgroup.Group
		eg.SetLimit(cfg.Workers)
		for start := 0; start < len(samples); start += chunk {
			start, end := start, min(start+chunk, len(samples))
			eg.Go(func() error {
				for i := start; i < end; i++ {
					c, err := g.Winner(samples[i])
					if err != nil {
						return err
					}
					bmus[i] = c
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return fmt.Errorf("trainBatch: epoch %d: %w", t, err)
		}

		twoSigma2 := 2 * radiusAt(cfg, t) * radiusAt(cfg, t)
		for i := range g.neurons {
			n := &g.neurons[i]
			for k := range num {
				num[k] = 0
			}
			var den float64
			for s, x := range samples {
				h := math.Exp(-gridDist2(n.Coord, bmus[s]) / twoSigma2)
				floats.AddScaled(num, h, x)
				den += h
			}
			if den > 0 {
				floats.ScaleTo(n.Weight, 1/den, num)
			}
		}
	}
	return nil
}

func radiusAt(cfg Config, t int) float64 {
	sigma := cfg.RadiusDecay.At(cfg.InitialRadius, t, cfg.Iterations)
	if sigma < cfg.MinRadius {
		sigma = cfg.MinRadius
	}
	if sigma < minSigma {
		sigma = minSigma
	}
	return sigma
}
