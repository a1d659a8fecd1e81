package bigquery

import (
	"math/big"

	"cloud.google.com/go/civil"
)

const (
	// DefaultDatasetID is the dataset holding transactions and parsing_runs.
	DefaultDatasetID = "finance"

	transactionsTable = "transactions"
	parsingRunsTable  = "parsing_runs"
)

// SpendingRow is one (account, category) total over a date range, as
// returned by QueryCategorizedSpendingWithClient.
type SpendingRow struct {
	AccountID        string   `bigquery:"account_id"`    // REQUIRED
	CategoryName     string   `bigquery:"category_name"` // REQUIRED
	Total            *big.Rat `bigquery:"total"`         // NUMERIC
	TransactionCount int64    `bigquery:"tx_count"`
}

// SpendingQuery selects the transactions that feed the spending totals.
// Only transactions from successful parsing runs are considered.
type SpendingQuery struct {
	ProjectID string
	DatasetID string
	Start     civil.Date
	End       civil.Date
	// OutflowsOnly restricts the totals to negative amounts (money out).
	OutflowsOnly bool
}

func (q SpendingQuery) dataset() string {
	if q.DatasetID == "" {
		return DefaultDatasetID
	}
	return q.DatasetID
}
