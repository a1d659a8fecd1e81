package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// ErrInvalidDateRange is returned when the query end date precedes the start.
var ErrInvalidDateRange = errors.New("bigquery: end date before start date")

// QueryCategorizedSpending opens a client for q.ProjectID, runs the query and
// closes the client.
func QueryCategorizedSpending(ctx context.Context, q SpendingQuery) ([]*SpendingRow, error) {
	client, err := bigquery.NewClient(ctx, q.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("QueryCategorizedSpending: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryCategorizedSpendingWithClient(ctx, client, q)
}

// QueryCategorizedSpendingWithClient sums transaction amounts per account and
// category within [q.Start, q.End] using the provided BigQuery client.
// Transactions without an account or a category are ignored, as are those
// from parsing runs that did not succeed.
func QueryCategorizedSpendingWithClient(ctx context.Context, client *bigquery.Client, q SpendingQuery) ([]*SpendingRow, error) {
	if q.End.Before(q.Start) {
		return nil, fmt.Errorf("QueryCategorizedSpending: %s..%s: %w", q.Start, q.End, ErrInvalidDateRange)
	}

	query := client.Query(spendingSQL(client.Project(), q.dataset()))
	query.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: q.Start},
		{Name: "end_date", Value: q.End},
		{Name: "outflows_only", Value: q.OutflowsOnly},
	}

	it, err := query.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryCategorizedSpending: query read: %w", err)
	}

	var rows []*SpendingRow
	for {
		var r SpendingRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryCategorizedSpending: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

func spendingSQL(projectID, datasetID string) string {
	return fmt.Sprintf(`
		SELECT
			t.account_id,
			t.category_name,
			SUM(t.amount) AS total,
			COUNT(*) AS tx_count
		FROM `+"`%[1]s.%[2]s.%[3]s`"+` t
		INNER JOIN `+"`%[1]s.%[2]s.%[4]s`"+` pr
		  ON t.parsing_run_id = pr.parsing_run_id
		WHERE t.transaction_date >= @start_date
		  AND t.transaction_date <= @end_date
		  AND pr.status = 'SUCCESS'
		  AND t.account_id IS NOT NULL
		  AND t.category_name IS NOT NULL
		  AND (NOT @outflows_only OR t.amount < 0)
		GROUP BY t.account_id, t.category_name
		ORDER BY t.account_id, t.category_name
	`, projectID, datasetID, transactionsTable, parsingRunsTable)
}
