package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Epsilon keeps constant columns from dividing by zero; such columns
// normalize to ~0, i.e. "no discriminative power".
const Epsilon = 1e-10

// Normalize rescales each column of m to (x - min) / (max - min + Epsilon).
// The input matrix is left untouched.
func Normalize(m *FeatureMatrix) (*NormalizedMatrix, error) {
	if m == nil || m.Values == nil {
		return nil, fmt.Errorf("Normalize: nil matrix: %w", ErrEmptyInput)
	}
	rows, cols := m.Values.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("Normalize: %dx%d matrix: %w", rows, cols, ErrEmptyInput)
	}

	out := mat.NewDense(rows, cols, nil)
	mins := make([]float64, cols)
	maxs := make([]float64, cols)
	col := make([]float64, rows)

	for j := 0; j < cols; j++ {
		mat.Col(col, j, m.Values)

		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		mins[j], maxs[j] = lo, hi

		// Work on halves: hi-lo can overflow for columns spanning most of
		// the float64 range, hi/2-lo/2 cannot. Halving is exact, so the
		// ratio is unchanged for ordinary columns.
		scale := hi/2 - lo/2 + Epsilon/2
		for i, v := range col {
			out.Set(i, j, (v/2-lo/2)/scale)
		}
	}

	return &NormalizedMatrix{
		Entities:    append([]string(nil), m.Entities...),
		Categories:  append([]string(nil), m.Categories...),
		Values:      out,
		Min:         mins,
		Max:         maxs,
		entityIndex: indexOf(m.Entities),
	}, nil
}
