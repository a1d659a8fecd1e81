package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// SpendingRepository reads aggregated spending for clustering.
type SpendingRepository interface {
	// QueryCategorizedSpending returns per-(account, category) totals.
	QueryCategorizedSpending(ctx context.Context, q SpendingQuery) ([]*SpendingRow, error)
}

// BigQuerySpendingRepository is the concrete implementation of
// SpendingRepository. It holds a shared BigQuery client to avoid creating a
// new connection for each query.
type BigQuerySpendingRepository struct {
	client *bigquery.Client
}

// NewBigQuerySpendingRepository creates a repository with a client for
// projectID.
func NewBigQuerySpendingRepository(ctx context.Context, projectID string) (*BigQuerySpendingRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQuerySpendingRepository: creating client: %w", err)
	}
	return &BigQuerySpendingRepository{
		client: client,
	}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *BigQuerySpendingRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// QueryCategorizedSpending runs the spending query with the shared client.
// q.ProjectID is ignored; the client's project is used.
func (r *BigQuerySpendingRepository) QueryCategorizedSpending(ctx context.Context, q SpendingQuery) ([]*SpendingRow, error) {
	return QueryCategorizedSpendingWithClient(ctx, r.client, q)
}
