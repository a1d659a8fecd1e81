// Package features turns categorized transaction records into the dense
// entity×category matrix the self-organizing map trains on, and rescales
// that matrix column by column.
package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FeatureMatrix is the aggregated spending matrix: one row per entity, one
// column per category. Entities and Categories are sorted lexicographically
// so that row and column indices are stable across runs.
type FeatureMatrix struct {
	Entities   []string
	Categories []string
	Values     *mat.Dense

	entityIndex   map[string]int
	categoryIndex map[string]int
}

func newFeatureMatrix(entities, categories []string, values *mat.Dense) *FeatureMatrix {
	return &FeatureMatrix{
		Entities:      entities,
		Categories:    categories,
		Values:        values,
		entityIndex:   indexOf(entities),
		categoryIndex: indexOf(categories),
	}
}

// Dims returns (entity count, category count).
func (m *FeatureMatrix) Dims() (int, int) {
	return len(m.Entities), len(m.Categories)
}

// EntityIndex returns the row index of an entity.
func (m *FeatureMatrix) EntityIndex(entityID string) (int, bool) {
	i, ok := m.entityIndex[entityID]
	return i, ok
}

// CategoryIndex returns the column index of a category.
func (m *FeatureMatrix) CategoryIndex(category string) (int, bool) {
	j, ok := m.categoryIndex[category]
	return j, ok
}

// Value returns the aggregated amount for (entity, category). Unknown pairs
// are reported as an error rather than 0 so that typos surface.
func (m *FeatureMatrix) Value(entityID, category string) (float64, error) {
	i, ok := m.entityIndex[entityID]
	if !ok {
		return 0, fmt.Errorf("Value: unknown entity %q", entityID)
	}
	j, ok := m.categoryIndex[category]
	if !ok {
		return 0, fmt.Errorf("Value: unknown category %q", category)
	}
	return m.Values.At(i, j), nil
}

// Row returns a copy of the entity's feature vector.
func (m *FeatureMatrix) Row(entityID string) ([]float64, bool) {
	i, ok := m.entityIndex[entityID]
	if !ok {
		return nil, false
	}
	return mat.Row(nil, i, m.Values), true
}

// NormalizedMatrix has the shape and labels of the FeatureMatrix it was
// derived from. Min and Max hold the per-column bounds used for scaling.
type NormalizedMatrix struct {
	Entities   []string
	Categories []string
	Values     *mat.Dense
	Min        []float64
	Max        []float64

	entityIndex map[string]int
}

// Dims returns (entity count, category count).
func (m *NormalizedMatrix) Dims() (int, int) {
	return len(m.Entities), len(m.Categories)
}

// Row returns a copy of the entity's normalized vector.
func (m *NormalizedMatrix) Row(entityID string) ([]float64, bool) {
	i, ok := m.entityIndex[entityID]
	if !ok {
		return nil, false
	}
	return mat.Row(nil, i, m.Values), true
}

func indexOf(keys []string) map[string]int {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}
