package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/dvloznov/finance-clusters/internal/domain"
)

func TestNormalize_Bounds(t *testing.T) {
	fm, err := Build(sampleRecords())
	require.NoError(t, err)

	nm, err := Normalize(fm)
	require.NoError(t, err)

	rows, cols := nm.Values.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 2, cols)

	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, nm.Values)
		for _, v := range col {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	// Column 4210: min 0 (Konto_D), max 5000 (Konto_A).
	a, _ := nm.Row("Konto_A")
	d, _ := nm.Row("Konto_D")
	assert.InDelta(t, 1.0, a[0], 1e-9)
	assert.InDelta(t, 0.0, d[0], 1e-12)
	assert.Equal(t, []float64{0, 0}, nm.Min)
	assert.Equal(t, []float64{5000, 4200}, nm.Max)
}

func TestNormalize_ConstantColumn(t *testing.T) {
	records := []domain.TransactionRecord{
		{EntityID: "A", Category: "4210", Amount: 10},
		{EntityID: "A", Category: "4300", Amount: 0},
		{EntityID: "B", Category: "4210", Amount: 20},
		{EntityID: "B", Category: "4300", Amount: 0},
	}
	fm, err := Build(records)
	require.NoError(t, err)

	nm, err := Normalize(fm)
	require.NoError(t, err)

	for _, v := range mat.Col(nil, 1, nm.Values) {
		assert.InDelta(t, 0.0, v, 1e-9)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	fm, err := Build(sampleRecords())
	require.NoError(t, err)
	before := mat.DenseCopyOf(fm.Values)

	_, err = Normalize(fm)
	require.NoError(t, err)

	assert.True(t, mat.Equal(before, fm.Values))
}

func TestNormalize_Empty(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestNormalize_WideRangeStaysFinite(t *testing.T) {
	fm, err := Build([]domain.TransactionRecord{
		{EntityID: "X", Category: "4210", Amount: 1e308},
		{EntityID: "Y", Category: "4210", Amount: -1e308},
		{EntityID: "Z", Category: "4210", Amount: 0},
	})
	require.NoError(t, err)

	nm, err := Normalize(fm)
	require.NoError(t, err)

	x, _ := nm.Row("X")
	y, _ := nm.Row("Y")
	z, _ := nm.Row("Z")
	assert.InDelta(t, 1.0, x[0], 1e-9)
	assert.InDelta(t, 0.0, y[0], 1e-12)
	assert.InDelta(t, 0.5, z[0], 1e-9)
	for _, v := range nm.Values.RawMatrix().Data {
		assert.False(t, math.IsNaN(v))
	}
}
