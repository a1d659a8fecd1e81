// Package report renders clustering results for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/finance-clusters/internal/cluster"
	"github.com/dvloznov/finance-clusters/internal/features"
	"github.com/dvloznov/finance-clusters/internal/pipeline"
	"github.com/dvloznov/finance-clusters/internal/som"
)

// Document is the JSON shape of a run.
type Document struct {
	RunID       string               `json:"run_id"`
	Seed        *int64               `json:"seed,omitempty"`
	GridSize    int                  `json:"grid_size"`
	Entities    []string             `json:"entities"`
	Categories  []string             `json:"categories"`
	Assignments map[string]som.Coord `json:"assignments"`
	Clusters    []cluster.Summary    `json:"clusters"`
	Quality     *pipeline.Quality    `json:"quality,omitempty"`
}

// NewDocument flattens a pipeline result.
func NewDocument(res *pipeline.Result) Document {
	doc := Document{
		RunID:    res.RunID,
		Seed:     res.Seed,
		GridSize: res.GridSize,
		Clusters: res.Summaries,
		Quality:  res.Quality,
	}
	if res.Matrix != nil {
		doc.Entities = res.Matrix.Entities
		doc.Categories = res.Matrix.Categories
	}
	if res.Assignment != nil {
		doc.Assignments = res.Assignment.Map()
	}
	return doc
}

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res)); err != nil {
		return fmt.Errorf("WriteJSON: %w", err)
	}
	return nil
}

// WriteText writes a human-readable report: one block per occupied neuron,
// then the quality figures and the U-matrix.
func WriteText(w io.Writer, res *pipeline.Result) error {
	ew := &errWriter{w: w}

	ew.printf("Run %s\n", res.RunID)
	if res.Seed != nil {
		ew.printf("Seed: %d\n", *res.Seed)
	}
	ew.printf("Grid: %dx%d, %d clusters\n\n", res.GridSize, res.GridSize, len(res.Summaries))

	for _, s := range res.Summaries {
		ew.printf("Cluster %s: %s\n", s.Coord, strings.Join(s.Members, ", "))
		ew.printf("  dominant category: %s\n", s.DominantCategory)

		cats := make([]string, 0, len(s.CategoryMeans))
		for c := range s.CategoryMeans {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			ew.printf("  %-10s %14.2f\n", c, s.CategoryMeans[c])
		}
		ew.printf("\n")
	}

	if q := res.Quality; q != nil {
		ew.printf("Quantization error: %.6f\n", q.QuantizationError)
		ew.printf("Topographic error:  %.6f\n", q.TopographicError)
		if len(q.DistanceMap) > 0 {
			ew.printf("\nDistance map:\n")
			for _, row := range q.DistanceMap {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = fmt.Sprintf("%.2f", v)
				}
				ew.printf("  %s\n", strings.Join(cells, " "))
			}
		}
	}

	if ew.err != nil {
		return fmt.Errorf("WriteText: %w", ew.err)
	}
	return nil
}

// WriteMatrix writes the raw feature matrix as an aligned table.
func WriteMatrix(w io.Writer, m *features.FeatureMatrix) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := append([]string{"entity"}, m.Categories...)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		cells := make([]string, 0, cols+1)
		cells = append(cells, m.Entities[i])
		for j := 0; j < cols; j++ {
			cells = append(cells, fmt.Sprintf("%.2f", m.Values.At(i, j)))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("WriteMatrix: %w", err)
	}
	return nil
}

// errWriter keeps the first write error so callers check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
