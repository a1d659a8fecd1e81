// Package pipeline runs the clustering stages (matrix, normalization,
// training, assignment, summaries, evaluation) as a sequence of steps over
// a shared state.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-clusters/internal/cluster"
	"github.com/dvloznov/finance-clusters/internal/domain"
	"github.com/dvloznov/finance-clusters/internal/features"
	"github.com/dvloznov/finance-clusters/internal/logger"
	"github.com/dvloznov/finance-clusters/internal/som"
)

// Options configures Run.
type Options struct {
	SOM som.Config
	// Source overrides the random source built from SOM.Seed.
	Source som.RandomSource
	// Observer, when set, receives the stats of the run.
	Observer RunObserver
	// AllowedCategories restricts the records to these category codes.
	AllowedCategories []string
}

// DefaultOptions uses the default map configuration.
func DefaultOptions() Options {
	return Options{SOM: som.DefaultConfig()}
}

// Result is the outcome of a successful run.
type Result struct {
	RunID      string                     `json:"run_id"`
	Seed       *int64                     `json:"seed,omitempty"`
	GridSize   int                        `json:"grid_size"`
	Matrix     *features.FeatureMatrix    `json:"-"`
	Normalized *features.NormalizedMatrix `json:"-"`
	Grid       *som.Grid                  `json:"-"`
	Assignment *cluster.Assignment        `json:"-"`
	Summaries  []cluster.Summary          `json:"clusters"`
	Quality    *Quality                   `json:"quality"`
	Duration   time.Duration              `json:"duration_ns"`
}

// Run clusters the records. Every call gets a fresh run ID, which is also
// attached to the context logger.
func Run(ctx context.Context, records []domain.TransactionRecord, opts Options) (*Result, error) {
	runID := uuid.New().String()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	state := &State{
		RunID:   runID,
		Records: records,
		SOM:     opts.SOM,
		Source:  opts.Source,
	}

	start := time.Now()
	err := execute(ctx, state, opts)
	elapsed := time.Since(start)

	if opts.Observer != nil {
		opts.Observer.ObserveRun(statsFor(state, elapsed, err))
	}
	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("Clustering run failed")
		return nil, err
	}

	log.Info().Dur("elapsed", elapsed).Msg("Clustering run completed")
	return &Result{
		RunID:      runID,
		Seed:       state.Seed,
		GridSize:   state.Grid.Size(),
		Matrix:     state.Matrix,
		Normalized: state.Normalized,
		Grid:       state.Grid,
		Assignment: state.Assignment,
		Summaries:  state.Summaries,
		Quality:    state.Quality,
		Duration:   elapsed,
	}, nil
}

func execute(ctx context.Context, state *State, opts Options) error {
	var validator *CategoryValidator
	if len(opts.AllowedCategories) > 0 {
		v, err := NewCategoryValidator(opts.AllowedCategories)
		if err != nil {
			return err
		}
		validator = v
	}
	return NewClusteringPipeline(validator).Execute(ctx, state)
}

func statsFor(state *State, elapsed time.Duration, err error) RunStats {
	stats := RunStats{
		RunID:    state.RunID,
		Status:   StatusSuccess,
		Duration: elapsed,
		Clusters: len(state.Summaries),
		Err:      err,
	}
	if err != nil {
		stats.Status = StatusFailure
	}
	if state.Matrix != nil {
		stats.Entities, stats.Categories = state.Matrix.Dims()
	}
	if state.Grid != nil {
		stats.GridSize = state.Grid.Size()
	}
	if state.Quality != nil {
		stats.QuantizationError = state.Quality.QuantizationError
	}
	return stats
}
