package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-clusters/internal/pipeline"
	"github.com/dvloznov/finance-clusters/internal/som"
)

// NewClusteringHandler returns a JobHandler that runs the pipeline with base
// adjusted by each job's options. observer may be nil.
func NewClusteringHandler(base som.Config, observer pipeline.RunObserver) JobHandler {
	return func(ctx context.Context, job *ClusteringJob) (*JobResult, error) {
		opts, err := job.Options.apply(base)
		if err != nil {
			return nil, err
		}
		opts.Observer = observer

		res, err := pipeline.Run(ctx, job.Records, opts)
		if err != nil {
			return nil, err
		}
		return &JobResult{
			RunID:    res.RunID,
			Seed:     res.Seed,
			GridSize: res.GridSize,
			Entities: res.Matrix.Entities,
			Clusters: res.Summaries,
			Quality:  res.Quality,
		}, nil
	}
}

func (o JobOptions) apply(base som.Config) (pipeline.Options, error) {
	cfg := base
	if o.GridSize != nil {
		if *o.GridSize < 1 {
			return pipeline.Options{}, fmt.Errorf("job options: grid size %d: %w", *o.GridSize, som.ErrDegenerateMap)
		}
		cfg = cfg.WithGridSize(*o.GridSize)
	}
	if o.Iterations != nil {
		cfg.Iterations = *o.Iterations
	}
	if o.Seed != nil {
		cfg = cfg.WithSeed(*o.Seed)
	}
	if o.Mode != "" {
		cfg.Mode = som.Mode(o.Mode)
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Options{}, fmt.Errorf("job options: %w", err)
	}
	return pipeline.Options{SOM: cfg, AllowedCategories: o.AllowedCategories}, nil
}

// Validate checks the overrides against base without running anything.
func (o JobOptions) Validate(base som.Config) error {
	_, err := o.apply(base)
	return err
}
