// Package som implements a square self-organizing map trained by
// competitive learning with a Gaussian neighborhood.
package som

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// GridSize is the side of the square map for n entities:
// floor(sqrt(5*sqrt(n))) + 2. It grows sub-linearly so small inputs do not
// get one neuron per entity.
func GridSize(n int) int {
	if n < 0 {
		n = 0
	}
	return int(math.Floor(math.Sqrt(5*math.Sqrt(float64(n))))) + 2
}

// Coord identifies a neuron on the grid.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Less orders coordinates row-major.
func (c Coord) Less(o Coord) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// gridDist2 is the squared Euclidean distance between two grid positions.
func gridDist2(a, b Coord) float64 {
	dr := float64(a.Row - b.Row)
	dc := float64(a.Col - b.Col)
	return dr*dr + dc*dc
}

// Neuron is one map unit. Its identity is Coord; Weight is the prototype
// vector in feature space.
type Neuron struct {
	Coord  Coord     `json:"coord"`
	Weight []float64 `json:"weight"`
}

// Grid is a trained map. It is only mutated by the trainer in this package;
// every exported accessor returns copies.
type Grid struct {
	size    int
	dim     int
	neurons []Neuron // row-major
}

func newGrid(size, dim int) (*Grid, error) {
	if size < 1 {
		return nil, fmt.Errorf("newGrid: size %d: %w", size, ErrDegenerateMap)
	}
	g := &Grid{size: size, dim: dim, neurons: make([]Neuron, size*size)}
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			g.neurons[r*size+c] = Neuron{
				Coord:  Coord{Row: r, Col: c},
				Weight: make([]float64, dim),
			}
		}
	}
	return g, nil
}

// Size returns the grid side G.
func (g *Grid) Size() int { return g.size }

// Dim returns the weight vector length.
func (g *Grid) Dim() int { return g.dim }

// Neuron returns a copy of the neuron at c.
func (g *Grid) Neuron(c Coord) (Neuron, bool) {
	if c.Row < 0 || c.Row >= g.size || c.Col < 0 || c.Col >= g.size {
		return Neuron{}, false
	}
	n := g.neurons[c.Row*g.size+c.Col]
	return Neuron{Coord: n.Coord, Weight: append([]float64(nil), n.Weight...)}, true
}

// Neurons returns copies of all neurons in row-major order.
func (g *Grid) Neurons() []Neuron {
	out := make([]Neuron, len(g.neurons))
	for i, n := range g.neurons {
		out[i] = Neuron{Coord: n.Coord, Weight: append([]float64(nil), n.Weight...)}
	}
	return out
}

// Winner returns the best matching unit for x: the neuron with the smallest
// Euclidean distance to x. Ties go to the lowest (row, col).
func (g *Grid) Winner(x []float64) (Coord, error) {
	if len(x) != g.dim {
		return Coord{}, fmt.Errorf("Winner: vector length %d, weight length %d: %w", len(x), g.dim, ErrDimensionMismatch)
	}
	return g.winner(x), nil
}

// winner assumes len(x) == g.dim.
func (g *Grid) winner(x []float64) Coord {
	best := 0
	bestDist := math.Inf(1)
	for i := range g.neurons {
		d := floats.Distance(x, g.neurons[i].Weight, 2)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return g.neurons[best].Coord
}

// winners returns the best and second-best units for x, with the same tie
// rule as winner.
func (g *Grid) winners(x []float64) (Coord, Coord) {
	first, second := -1, -1
	d1, d2 := math.Inf(1), math.Inf(1)
	for i := range g.neurons {
		d := floats.Distance(x, g.neurons[i].Weight, 2)
		switch {
		case d < d1:
			second, d2 = first, d1
			first, d1 = i, d
		case d < d2:
			second, d2 = i, d
		}
	}
	if second < 0 {
		return g.neurons[first].Coord, g.neurons[first].Coord
	}
	return g.neurons[first].Coord, g.neurons[second].Coord
}

// FromWeights rebuilds a grid from size*size weight vectors in row-major
// order, e.g. a map trained elsewhere. The vectors are copied.
func FromWeights(size int, weights [][]float64) (*Grid, error) {
	if size < 1 {
		return nil, fmt.Errorf("FromWeights: size %d: %w", size, ErrDegenerateMap)
	}
	if len(weights) != size*size {
		return nil, fmt.Errorf("FromWeights: %d weights for a %dx%d grid: %w", len(weights), size, size, ErrDimensionMismatch)
	}
	if len(weights[0]) == 0 {
		return nil, fmt.Errorf("FromWeights: %w", ErrEmptyData)
	}
	g, err := newGrid(size, len(weights[0]))
	if err != nil {
		return nil, fmt.Errorf("FromWeights: %w", err)
	}
	for i, w := range weights {
		if len(w) != g.dim {
			return nil, fmt.Errorf("FromWeights: weight %d has length %d, want %d: %w", i, len(w), g.dim, ErrDimensionMismatch)
		}
		copy(g.neurons[i].Weight, w)
	}
	return g, nil
}
