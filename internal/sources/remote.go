package sources

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-clusters/internal/domain"
	"github.com/dvloznov/finance-clusters/internal/gcs"
	infra "github.com/dvloznov/finance-clusters/internal/infra/bigquery"
	"github.com/dvloznov/finance-clusters/internal/logger"
)

// GCSSource reads a CSV object from Cloud Storage.
type GCSSource struct {
	URI     string
	Storage gcs.StorageService
	Comma   rune
}

// Records downloads the object and parses it as CSV.
func (s *GCSSource) Records(ctx context.Context) ([]domain.TransactionRecord, error) {
	data, err := s.Storage.FetchFromGCS(ctx, s.URI)
	if err != nil {
		return nil, fmt.Errorf("GCSSource: %w", err)
	}

	log := logger.FromContext(ctx).With().
		Str("source", s.URI).
		Str("file", s.Storage.ExtractFilenameFromGCSURI(s.URI)).
		Logger()
	records, err := parseBytes(data, s.Comma, log)
	if err != nil {
		return nil, fmt.Errorf("GCSSource: %w", err)
	}
	return records, nil
}

// BigQuerySource reads per-(account, category) spending totals.
type BigQuerySource struct {
	Repo      infra.SpendingRepository
	DatasetID string
	Start     civil.Date
	End       civil.Date
	// OutflowsOnly keeps only money out and reports it as positive amounts.
	OutflowsOnly bool
}

// Records runs the spending query and converts the rows. Rows without a
// total are skipped with a warning.
func (s *BigQuerySource) Records(ctx context.Context) ([]domain.TransactionRecord, error) {
	rows, err := s.Repo.QueryCategorizedSpending(ctx, infra.SpendingQuery{
		DatasetID:    s.DatasetID,
		Start:        s.Start,
		End:          s.End,
		OutflowsOnly: s.OutflowsOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("BigQuerySource: %w", err)
	}

	log := logger.FromContext(ctx)
	records := make([]domain.TransactionRecord, 0, len(rows))
	for _, r := range rows {
		if r.Total == nil {
			log.Warn().Str("account_id", r.AccountID).Str("category", r.CategoryName).Msg("Skipping spending row without total")
			continue
		}
		amount, _ := r.Total.Float64()
		if s.OutflowsOnly {
			amount = -amount
		}
		records = append(records, domain.TransactionRecord{
			EntityID: r.AccountID,
			Category: r.CategoryName,
			Amount:   amount,
		})
	}

	log.Info().
		Int("rows", len(rows)).
		Int("records", len(records)).
		Str("start", s.Start.String()).
		Str("end", s.End.String()).
		Msg("Loaded spending from BigQuery")
	return records, nil
}
