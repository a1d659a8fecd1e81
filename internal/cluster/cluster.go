// Package cluster maps entities onto a trained self-organizing map and
// describes the resulting groups in terms of raw spending.
package cluster

import (
	"fmt"
	"sort"

	"github.com/dvloznov/finance-clusters/internal/features"
	"github.com/dvloznov/finance-clusters/internal/som"
	"gonum.org/v1/gonum/stat"
)

// Assignment maps every entity to the neuron that wins its normalized
// vector. It is read-only once returned by Assign.
type Assignment struct {
	entities []string
	coords   map[string]som.Coord
}

// Assign looks up the best matching unit of every entity's normalized row.
// Neither input is modified.
func Assign(grid *som.Grid, normalized *features.NormalizedMatrix) (*Assignment, error) {
	if grid == nil || normalized == nil {
		return nil, fmt.Errorf("Assign: %w", ErrNilInput)
	}

	a := &Assignment{
		entities: append([]string(nil), normalized.Entities...),
		coords:   make(map[string]som.Coord, len(normalized.Entities)),
	}
	for _, entity := range normalized.Entities {
		row, _ := normalized.Row(entity)
		c, err := grid.Winner(row)
		if err != nil {
			return nil, fmt.Errorf("Assign: entity %q: %w", entity, err)
		}
		a.coords[entity] = c
	}
	return a, nil
}

// Entities returns the assigned entities in matrix order.
func (a *Assignment) Entities() []string {
	return append([]string(nil), a.entities...)
}

// Coord returns the neuron an entity was assigned to.
func (a *Assignment) Coord(entity string) (som.Coord, bool) {
	c, ok := a.coords[entity]
	return c, ok
}

// Len is the number of assigned entities.
func (a *Assignment) Len() int { return len(a.entities) }

// Map returns a copy of the entity → neuron mapping.
func (a *Assignment) Map() map[string]som.Coord {
	out := make(map[string]som.Coord, len(a.coords))
	for k, v := range a.coords {
		out[k] = v
	}
	return out
}

// Summary describes one non-empty group of entities sharing a neuron.
type Summary struct {
	Coord            som.Coord          `json:"coord"`
	Members          []string           `json:"members"`
	DominantCategory string             `json:"dominant_category"`
	CategoryMeans    map[string]float64 `json:"category_means"`
}

// Summarize groups entities by neuron and computes, per group, the mean raw
// amount of every category. The dominant category is the one with the
// highest mean; on a tie the lexicographically smallest label wins.
// Summaries are ordered by (row, col) and members are sorted.
func Summarize(a *Assignment, raw *features.FeatureMatrix) ([]Summary, error) {
	if a == nil || raw == nil {
		return nil, fmt.Errorf("Summarize: %w", ErrNilInput)
	}

	groups := make(map[som.Coord][]string)
	for _, entity := range a.entities {
		if _, ok := raw.EntityIndex(entity); !ok {
			return nil, fmt.Errorf("Summarize: entity %q: %w", entity, ErrEntityMismatch)
		}
		c := a.coords[entity]
		groups[c] = append(groups[c], entity)
	}

	coords := make([]som.Coord, 0, len(groups))
	for c := range groups {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })

	categories := sortedCopy(raw.Categories)
	summaries := make([]Summary, 0, len(coords))
	for _, c := range coords {
		members := groups[c]
		sort.Strings(members)

		means := make(map[string]float64, len(categories))
		vals := make([]float64, len(members))
		dominant := ""
		best := 0.0
		for _, category := range categories {
			j, _ := raw.CategoryIndex(category)
			for k, m := range members {
				i, _ := raw.EntityIndex(m)
				vals[k] = raw.Values.At(i, j)
			}
			mean := stat.Mean(vals, nil)
			means[category] = mean
			if dominant == "" || mean > best {
				dominant, best = category, mean
			}
		}

		summaries = append(summaries, Summary{
			Coord:            c,
			Members:          members,
			DominantCategory: dominant,
			CategoryMeans:    means,
		})
	}
	return summaries, nil
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
