package som

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// scriptedSource replays a fixed sequence of indices, then repeats the last.
type scriptedSource struct {
	seq []int
	pos int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.seq[len(s.seq)-1]
	if s.pos < len(s.seq) {
		v = s.seq[s.pos]
		s.pos++
	}
	return v % n
}

func twoBlobs() *mat.Dense {
	return mat.NewDense(6, 2, []float64{
		0, 0,
		0, 0,
		0, 0,
		1, 1,
		1, 1,
		1, 1,
	})
}

func weights(g *Grid) [][]float64 {
	out := make([][]float64, 0, len(g.neurons))
	for _, n := range g.Neurons() {
		out = append(out, n.Weight)
	}
	return out
}

func TestTrain_SingleUpdate(t *testing.T) {
	cfg := DefaultConfig().WithGridSize(1)
	cfg.Iterations = 1
	data := mat.NewDense(2, 1, []float64{0, 1})

	// Init from row 0, then train on row 1: w = 0 + 0.5*1*(1-0).
	g, err := Train(data, cfg, &scriptedSource{seq: []int{0, 1}})
	require.NoError(t, err)

	n, ok := g.Neuron(Coord{})
	require.True(t, ok)
	assert.InDelta(t, 0.5, n.Weight[0], 1e-12)
}

func TestTrain_InitCopiesSampledRows(t *testing.T) {
	cfg := DefaultConfig().WithGridSize(2)
	cfg.Iterations = 1
	data := mat.NewDense(2, 2, []float64{
		0.25, 0.75,
		1, 0,
	})

	// Every draw is row 0 and training on a neuron's own value is a no-op.
	g, err := Train(data, cfg, &scriptedSource{seq: []int{0}})
	require.NoError(t, err)

	for _, w := range weights(g) {
		assert.Equal(t, []float64{0.25, 0.75}, w)
	}
}

func TestTrain_SeededReproducible(t *testing.T) {
	for _, mode := range []Mode{ModeOnline, ModeBatch} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := DefaultConfig().WithSeed(42)
			cfg.Mode = mode
			cfg.Iterations = 200

			a, err := Train(twoBlobs(), cfg, nil)
			require.NoError(t, err)
			b, err := Train(twoBlobs(), cfg, nil)
			require.NoError(t, err)

			assert.Equal(t, weights(a), weights(b))
		})
	}
}

func TestTrain_WeightsStayInDataRange(t *testing.T) {
	for _, mode := range []Mode{ModeOnline, ModeBatch} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := DefaultConfig().WithSeed(7)
			cfg.Mode = mode
			cfg.Iterations = 300

			g, err := Train(twoBlobs(), cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, GridSize(6), g.Size())
			assert.Equal(t, 2, g.Dim())

			for _, w := range weights(g) {
				for _, v := range w {
					assert.GreaterOrEqual(t, v, -1e-9)
					assert.LessOrEqual(t, v, 1+1e-9)
				}
			}
		})
	}
}

func TestTrain_SeparatesDistinctGroups(t *testing.T) {
	g, err := Train(twoBlobs(), DefaultConfig().WithSeed(1), nil)
	require.NoError(t, err)

	low, err := g.Winner([]float64{0, 0})
	require.NoError(t, err)
	high, err := g.Winner([]float64{1, 1})
	require.NoError(t, err)

	assert.NotEqual(t, low, high)
}

func TestTrain_Errors(t *testing.T) {
	badIter := DefaultConfig()
	badIter.Iterations = 0

	badDecay := DefaultConfig()
	badDecay.RadiusDecay = "cosine"

	badMode := DefaultConfig()
	badMode.Mode = "stochastic"

	noWorkers := DefaultConfig()
	noWorkers.Mode = ModeBatch
	noWorkers.Workers = 0

	tests := []struct {
		name    string
		data    mat.Matrix
		cfg     Config
		wantErr error
	}{
		{"nil data", nil, DefaultConfig(), ErrEmptyData},
		{"zero grid override", twoBlobs(), DefaultConfig().WithGridSize(0), ErrDegenerateMap},
		{"negative grid override", twoBlobs(), DefaultConfig().WithGridSize(-3), ErrDegenerateMap},
		{"zero iterations", twoBlobs(), badIter, ErrInvalidConfig},
		{"unknown decay", twoBlobs(), badDecay, ErrInvalidConfig},
		{"unknown mode", twoBlobs(), badMode, ErrInvalidConfig},
		{"batch without workers", twoBlobs(), noWorkers, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Train(tt.data, tt.cfg, nil)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, g)
		})
	}
}

func TestTrainVectors_Errors(t *testing.T) {
	g, err := TrainVectors(nil, DefaultConfig(), nil)
	require.ErrorIs(t, err, ErrEmptyData)
	assert.Nil(t, g)

	g, err = TrainVectors([][]float64{{1, 2}, {3}}, DefaultConfig(), nil)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Nil(t, g)
}

func TestDecayKind_At(t *testing.T) {
	const total = 100
	for _, k := range []DecayKind{DecayAsymptotic, DecayLinear, DecayExponential} {
		t.Run(string(k), func(t *testing.T) {
			require.True(t, k.Valid())
			assert.InDelta(t, 2.0, k.At(2.0, 0, total), 1e-12)

			prev := k.At(2.0, 0, total)
			for i := 1; i <= total; i++ {
				v := k.At(2.0, i, total)
				assert.LessOrEqual(t, v, prev)
				prev = v
			}
		})
	}

	assert.InDelta(t, 0.0, DecayLinear.At(2, total, total), 1e-12)
	assert.InDelta(t, 2.0/3, DecayAsymptotic.At(2, total, total), 1e-12)
	assert.InDelta(t, 1.0, DecayAsymptotic.At(2, total/2, total), 1e-12)
	assert.False(t, DecayKind("cosine").Valid())
}

func TestTrain_BatchIgnoresLearningRate(t *testing.T) {
	cfg := DefaultConfig().WithSeed(3)
	cfg.Mode = ModeBatch
	cfg.Iterations = 50

	other := cfg
	other.InitialLearningRate = 0.05
	other.LearningRateDecay = DecayExponential

	a, err := Train(twoBlobs(), cfg, nil)
	require.NoError(t, err)
	b, err := Train(twoBlobs(), other, nil)
	require.NoError(t, err)

	assert.Equal(t, weights(a), weights(b))
}
