package domain

// TransactionRecord is one categorized money movement attributed to an
// account. Records are produced by the record sources (CSV, GCS, BigQuery)
// and consumed by the feature matrix builder; the core never cares where
// they came from.
type TransactionRecord struct {
	EntityID string  `json:"entity_id"` // account identifier ("konto")
	Category string  `json:"category"`  // budget classification code ("paragraf")
	Amount   float64 `json:"amount"`    // signed; negative values are credits/refunds
}
