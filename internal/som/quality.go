package som

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// QuantizationError is the mean Euclidean distance between each row of data
// and the weight of its best matching unit.
func (g *Grid) QuantizationError(data mat.Matrix) (float64, error) {
	rows, err := g.checkData(data)
	if err != nil {
		return 0, fmt.Errorf("QuantizationError: %w", err)
	}
	x := make([]float64, g.dim)
	var sum float64
	for i := 0; i < rows; i++ {
		mat.Row(x, i, data)
		c := g.winner(x)
		sum += floats.Distance(x, g.neurons[g.index(c)].Weight, 2)
	}
	return sum / float64(rows), nil
}

// TopographicError is the share of rows whose best and second-best units are
// not adjacent on the grid (Chebyshev distance > 1). A 1x1 map has no second
// unit and always scores 0.
func (g *Grid) TopographicError(data mat.Matrix) (float64, error) {
	rows, err := g.checkData(data)
	if err != nil {
		return 0, fmt.Errorf("TopographicError: %w", err)
	}
	if len(g.neurons) < 2 {
		return 0, nil
	}
	x := make([]float64, g.dim)
	var broken int
	for i := 0; i < rows; i++ {
		mat.Row(x, i, data)
		a, b := g.winners(x)
		if abs(a.Row-b.Row) > 1 || abs(a.Col-b.Col) > 1 {
			broken++
		}
	}
	return float64(broken) / float64(rows), nil
}

// DistanceMap returns the U-matrix: for each neuron the mean weight distance
// to its up to eight grid neighbours, divided by the largest such mean so the
// values lie in [0, 1]. Element [r][c] belongs to Coord{r, c}.
func (g *Grid) DistanceMap() [][]float64 {
	um := make([][]float64, g.size)
	var hi float64
	for r := 0; r < g.size; r++ {
		um[r] = make([]float64, g.size)
		for c := 0; c < g.size; c++ {
			w := g.neurons[r*g.size+c].Weight
			var sum float64
			var n int
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					rr, cc := r+dr, c+dc
					if (dr == 0 && dc == 0) || rr < 0 || rr >= g.size || cc < 0 || cc >= g.size {
						continue
					}
					sum += floats.Distance(w, g.neurons[rr*g.size+cc].Weight, 2)
					n++
				}
			}
			if n > 0 {
				um[r][c] = sum / float64(n)
			}
			if um[r][c] > hi {
				hi = um[r][c]
			}
		}
	}
	if hi > 0 {
		for r := range um {
			floats.Scale(1/hi, um[r])
		}
	}
	return um
}

// ActivationResponse counts how many rows of data each neuron wins.
// Element [r][c] belongs to Coord{r, c}.
func (g *Grid) ActivationResponse(data mat.Matrix) ([][]int, error) {
	rows, err := g.checkData(data)
	if err != nil {
		return nil, fmt.Errorf("ActivationResponse: %w", err)
	}
	counts := make([][]int, g.size)
	for r := range counts {
		counts[r] = make([]int, g.size)
	}
	x := make([]float64, g.dim)
	for i := 0; i < rows; i++ {
		mat.Row(x, i, data)
		c := g.winner(x)
		counts[c.Row][c.Col]++
	}
	return counts, nil
}

func (g *Grid) checkData(data mat.Matrix) (int, error) {
	if data == nil {
		return 0, ErrEmptyData
	}
	rows, cols := data.Dims()
	if rows == 0 {
		return 0, ErrEmptyData
	}
	if cols != g.dim {
		return 0, fmt.Errorf("data has %d columns, weight length %d: %w", cols, g.dim, ErrDimensionMismatch)
	}
	return rows, nil
}

func (g *Grid) index(c Coord) int { return c.Row*g.size + c.Col }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
