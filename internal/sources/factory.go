package sources

import (
	"context"
	"fmt"
	"io"

	"github.com/dvloznov/finance-clusters/internal/config"
	"github.com/dvloznov/finance-clusters/internal/gcs"
	infra "github.com/dvloznov/finance-clusters/internal/infra/bigquery"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromConfig builds the source selected by cfg.Kind. The returned Closer
// releases any client the source holds and must be closed by the caller.
func FromConfig(ctx context.Context, cfg config.SourceConfig) (RecordSource, io.Closer, error) {
	comma := ','
	if cfg.Delimiter != "" {
		comma = []rune(cfg.Delimiter)[0]
	}

	switch cfg.Kind {
	case "", config.SourceStatic:
		return NewDemoSource(), nopCloser{}, nil

	case config.SourceCSV:
		files := cfg.Files()
		if len(files) == 0 {
			return nil, nil, fmt.Errorf("FromConfig: csv source without a path: %w", config.ErrInvalid)
		}
		srcs := make([]RecordSource, len(files))
		for i, path := range files {
			srcs[i] = &CSVSource{Path: path, Comma: comma}
		}
		return combine(srcs), nopCloser{}, nil

	case config.SourceGCS:
		objects := cfg.Objects()
		if len(objects) == 0 {
			return nil, nil, fmt.Errorf("FromConfig: gcs source without an object URI: %w", config.ErrInvalid)
		}
		svc, err := gcs.NewGCSStorageService(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("FromConfig: %w", err)
		}
		srcs := make([]RecordSource, len(objects))
		for i, uri := range objects {
			srcs[i] = &GCSSource{URI: uri, Storage: svc, Comma: comma}
		}
		return combine(srcs), svc, nil

	case config.SourceBigQuery:
		start, end, err := cfg.BigQuery.DateRange()
		if err != nil {
			return nil, nil, fmt.Errorf("FromConfig: %w", err)
		}
		repo, err := infra.NewBigQuerySpendingRepository(ctx, cfg.BigQuery.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("FromConfig: %w", err)
		}
		return &BigQuerySource{
			Repo:         repo,
			DatasetID:    cfg.BigQuery.Dataset,
			Start:        start,
			End:          end,
			OutflowsOnly: cfg.BigQuery.OutflowsOnly,
		}, repo, nil
	}
	return nil, nil, fmt.Errorf("FromConfig: unknown source kind %q: %w", cfg.Kind, config.ErrInvalid)
}

// combine unwraps a single source so the common one-file case keeps its
// concrete type.
func combine(srcs []RecordSource) RecordSource {
	if len(srcs) == 1 {
		return srcs[0]
	}
	return &MultiSource{Sources: srcs}
}
