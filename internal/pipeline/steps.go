package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-clusters/internal/cluster"
	"github.com/dvloznov/finance-clusters/internal/domain"
	"github.com/dvloznov/finance-clusters/internal/features"
	"github.com/dvloznov/finance-clusters/internal/logger"
	"github.com/dvloznov/finance-clusters/internal/som"
)

// Step is a single stage of the clustering pipeline.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline steps. Each step reads
// what earlier steps produced and fills in its own field.
type State struct {
	RunID   string
	Records []domain.TransactionRecord

	SOM    som.Config
	Source som.RandomSource
	// Seed is the seed actually used when the source was built from SOM.
	// It stays nil when the caller injected Source.
	Seed *int64

	Matrix     *features.FeatureMatrix
	Normalized *features.NormalizedMatrix
	Grid       *som.Grid
	Assignment *cluster.Assignment
	Summaries  []cluster.Summary
	Quality    *Quality
}

// Quality holds map quality figures computed on the normalized data.
type Quality struct {
	QuantizationError float64     `json:"quantization_error"`
	TopographicError  float64     `json:"topographic_error"`
	DistanceMap       [][]float64 `json:"distance_map"`
	Activation        [][]int     `json:"activation"`
}

// FilterRecordsStep drops records whose category is not accepted by the
// validator. A nil validator keeps everything.
type FilterRecordsStep struct {
	Validator *CategoryValidator
}

func (s *FilterRecordsStep) Name() string { return StepFilterRecords }

func (s *FilterRecordsStep) Execute(ctx context.Context, state *State) error {
	if s.Validator == nil {
		return nil
	}
	state.Records = s.Validator.Filter(ctx, state.Records)
	return nil
}

// BuildMatrixStep aggregates the records into the feature matrix.
type BuildMatrixStep struct{}

func (s *BuildMatrixStep) Name() string { return StepBuildMatrix }

func (s *BuildMatrixStep) Execute(ctx context.Context, state *State) error {
	m, err := features.Build(state.Records)
	if err != nil {
		return err
	}
	state.Matrix = m

	entities, categories := m.Dims()
	log := logger.FromContext(ctx)
	log.Info().
		Str("run_id", state.RunID).
		Int("records", len(state.Records)).
		Int("entities", entities).
		Int("categories", categories).
		Msg("Feature matrix built")
	return nil
}

// NormalizeStep rescales every column of the matrix to [0, 1].
type NormalizeStep struct{}

func (s *NormalizeStep) Name() string { return StepNormalize }

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	n, err := features.Normalize(state.Matrix)
	if err != nil {
		return err
	}
	state.Normalized = n
	return nil
}

// TrainMapStep trains the self-organizing map. The grid is stored in state
// only when training succeeds.
type TrainMapStep struct{}

func (s *TrainMapStep) Name() string { return StepTrainMap }

func (s *TrainMapStep) Execute(ctx context.Context, state *State) error {
	src := state.Source
	if src == nil {
		rng, seed := state.SOM.NewSource()
		src = rng
		state.Seed = &seed
	}

	start := time.Now()
	grid, err := som.Train(state.Normalized.Values, state.SOM, src)
	if err != nil {
		return err
	}
	state.Grid = grid

	log := logger.FromContext(ctx)
	ev := log.Info().
		Str("run_id", state.RunID).
		Int("grid_size", grid.Size()).
		Int("iterations", state.SOM.Iterations).
		Str("mode", string(state.SOM.Mode)).
		Dur("elapsed", time.Since(start))
	if state.Seed != nil {
		ev = ev.Int64("seed", *state.Seed)
	}
	ev.Msg("Map trained")
	return nil
}

// AssignClustersStep maps every entity to its best matching unit.
type AssignClustersStep struct{}

func (s *AssignClustersStep) Name() string { return StepAssignClusters }

func (s *AssignClustersStep) Execute(ctx context.Context, state *State) error {
	a, err := cluster.Assign(state.Grid, state.Normalized)
	if err != nil {
		return err
	}
	state.Assignment = a
	return nil
}

// SummarizeStep computes the per-cluster raw-value summaries.
type SummarizeStep struct{}

func (s *SummarizeStep) Name() string { return StepSummarize }

func (s *SummarizeStep) Execute(ctx context.Context, state *State) error {
	summaries, err := cluster.Summarize(state.Assignment, state.Matrix)
	if err != nil {
		return err
	}
	state.Summaries = summaries

	log := logger.FromContext(ctx)
	for _, sum := range summaries {
		log.Debug().
			Str("run_id", state.RunID).
			Str("coord", sum.Coord.String()).
			Strs("members", sum.Members).
			Str("dominant_category", sum.DominantCategory).
			Msg("Cluster")
	}
	log.Info().
		Str("run_id", state.RunID).
		Int("clusters", len(summaries)).
		Msg("Clusters summarized")
	return nil
}

// EvaluateMapStep computes quality figures for the trained map.
type EvaluateMapStep struct{}

func (s *EvaluateMapStep) Name() string { return StepEvaluateMap }

func (s *EvaluateMapStep) Execute(ctx context.Context, state *State) error {
	data := state.Normalized.Values
	qe, err := state.Grid.QuantizationError(data)
	if err != nil {
		return err
	}
	te, err := state.Grid.TopographicError(data)
	if err != nil {
		return err
	}
	activation, err := state.Grid.ActivationResponse(data)
	if err != nil {
		return err
	}
	state.Quality = &Quality{
		QuantizationError: qe,
		TopographicError:  te,
		DistanceMap:       state.Grid.DistanceMap(),
		Activation:        activation,
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("run_id", state.RunID).
		Float64("quantization_error", qe).
		Float64("topographic_error", te).
		Msg("Map evaluated")
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially. It stops at the
// first failing step or when ctx is done.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d (%s) not started: %w", i+1, step.Name(), err)
		}
		log.Debug().Str("run_id", state.RunID).Str("step", step.Name()).Msg("Step started")
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}

// NewClusteringPipeline creates the standard pipeline. validator may be nil.
func NewClusteringPipeline(validator *CategoryValidator) *Pipeline {
	return NewPipeline(
		&FilterRecordsStep{Validator: validator},
		&BuildMatrixStep{},
		&NormalizeStep{},
		&TrainMapStep{},
		&AssignClustersStep{},
		&SummarizeStep{},
		&EvaluateMapStep{},
	)
}
