// Package sources loads categorized transaction records from the places
// they live: built-in demo data, CSV files, GCS objects and BigQuery.
package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-clusters/internal/domain"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("sources: required column missing from header")

// RecordSource yields the records to cluster.
type RecordSource interface {
	Records(ctx context.Context) ([]domain.TransactionRecord, error)
}

// StaticSource serves a fixed slice. Records returns a copy.
type StaticSource struct {
	Data []domain.TransactionRecord
}

// Records returns a copy of the configured records.
func (s *StaticSource) Records(ctx context.Context) ([]domain.TransactionRecord, error) {
	return append([]domain.TransactionRecord(nil), s.Data...), nil
}

// MultiSource reads several sources in order and concatenates their
// records, so several exports can be clustered as one data set.
type MultiSource struct {
	Sources []RecordSource
}

// Records returns the records of every source, in source order. The first
// failing source aborts the read.
func (m *MultiSource) Records(ctx context.Context) ([]domain.TransactionRecord, error) {
	var out []domain.TransactionRecord
	for i, src := range m.Sources {
		records, err := src.Records(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %d of %d: %w", i+1, len(m.Sources), err)
		}
		out = append(out, records...)
	}
	return out, nil
}

// DemoRecords is a small data set with two obvious spending profiles:
// Konto_A and Konto_C spend mostly in 4210, Konto_B and Konto_D in 4300.
func DemoRecords() []domain.TransactionRecord {
	return []domain.TransactionRecord{
		{EntityID: "Konto_A", Category: "4210", Amount: 5000},
		{EntityID: "Konto_A", Category: "4300", Amount: 100},
		{EntityID: "Konto_B", Category: "4300", Amount: 4000},
		{EntityID: "Konto_B", Category: "4210", Amount: 100},
		{EntityID: "Konto_C", Category: "4210", Amount: 4800},
		{EntityID: "Konto_D", Category: "4300", Amount: 4200},
	}
}

// NewDemoSource returns a StaticSource over DemoRecords.
func NewDemoSource() *StaticSource {
	return &StaticSource{Data: DemoRecords()}
}
