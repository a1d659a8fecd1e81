package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-clusters/internal/domain"
	"github.com/dvloznov/finance-clusters/internal/logger"
)

// Accepted header names per column, lower-case.
var (
	entityHeaders   = []string{"entity", "entity_id", "account", "account_id", "konto"}
	categoryHeaders = []string{"category", "category_name", "paragraph", "paragraf"}
	amountHeaders   = []string{"amount", "kwota"}
)

// CSVSource reads records from a local CSV file.
type CSVSource struct {
	Path string
	// Comma is the field delimiter; 0 means ','.
	Comma rune
}

// Records opens the file and parses it with ParseCSVDelimited.
func (s *CSVSource) Records(ctx context.Context) ([]domain.TransactionRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("CSVSource: open %q: %w", s.Path, err)
	}
	defer f.Close()

	log := logger.FromContext(ctx).With().Str("source", s.Path).Logger()
	records, err := ParseCSVDelimited(f, s.Comma, log)
	if err != nil {
		return nil, fmt.Errorf("CSVSource: %w", err)
	}
	return records, nil
}

// ParseCSV parses comma-separated entity,category,amount rows.
func ParseCSV(r io.Reader, log zerolog.Logger) ([]domain.TransactionRecord, error) {
	return ParseCSVDelimited(r, ',', log)
}

// ParseCSVDelimited parses delimited rows into records. When the first row
// names the columns (entity/account/konto, category/paragraf,
// amount/kwota) columns are matched by name and may appear in any order;
// otherwise the first three columns are used positionally and the first row
// is data. Rows that are too short, have an empty field or an amount that is
// not a plain decimal number are skipped with a warning.
func ParseCSVDelimited(r io.Reader, comma rune, log zerolog.Logger) ([]domain.TransactionRecord, error) {
	if comma == 0 {
		comma = ','
	}
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	cols := columns{entity: 0, category: 1, amount: 2}
	var records []domain.TransactionRecord
	skipped := 0

	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ParseCSV: line %d: %w", line, err)
		}

		if line == 1 {
			hdr, isHeader, err := headerColumns(row)
			if err != nil {
				return nil, fmt.Errorf("ParseCSV: %w", err)
			}
			if isHeader {
				cols = hdr
				continue
			}
		}

		rec, reason := cols.record(row)
		if reason != "" {
			skipped++
			log.Warn().Int("line", line).Strs("row", row).Str("reason", reason).Msg("Skipping malformed row")
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("parsed", len(records)).Msg("Some rows were skipped")
	}
	return records, nil
}

type columns struct {
	entity, category, amount int
}

func (c columns) width() int {
	return max(c.entity, c.category, c.amount) + 1
}

// record converts a row, returning a non-empty reason when it is skipped.
func (c columns) record(row []string) (domain.TransactionRecord, string) {
	if len(row) < c.width() {
		return domain.TransactionRecord{}, fmt.Sprintf("expected at least %d cells, got %d", c.width(), len(row))
	}
	entity := strings.TrimSpace(row[c.entity])
	category := strings.TrimSpace(row[c.category])
	rawAmount := strings.TrimSpace(row[c.amount])
	if entity == "" || category == "" || rawAmount == "" {
		return domain.TransactionRecord{}, "empty field"
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Sprintf("unparseable amount %q", rawAmount)
	}
	return domain.TransactionRecord{
		EntityID: entity,
		Category: category,
		Amount:   amount.InexactFloat64(),
	}, ""
}

// headerColumns reports whether row is a header and, if so, where each
// column is. A row that names some but not all columns is an error.
func headerColumns(row []string) (columns, bool, error) {
	cols := columns{entity: -1, category: -1, amount: -1}
	found := 0
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		switch {
		case cols.entity < 0 && contains(entityHeaders, name):
			cols.entity = i
		case cols.category < 0 && contains(categoryHeaders, name):
			cols.category = i
		case cols.amount < 0 && contains(amountHeaders, name):
			cols.amount = i
		default:
			continue
		}
		found++
	}

	switch {
	case found == 0:
		return columns{}, false, nil
	case cols.entity < 0:
		return columns{}, false, fmt.Errorf("entity column: %w", ErrMissingColumn)
	case cols.category < 0:
		return columns{}, false, fmt.Errorf("category column: %w", ErrMissingColumn)
	case cols.amount < 0:
		return columns{}, false, fmt.Errorf("amount column: %w", ErrMissingColumn)
	}
	return cols, true, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parseBytes is ParseCSVDelimited over an in-memory object.
func parseBytes(data []byte, comma rune, log zerolog.Logger) ([]domain.TransactionRecord, error) {
	return ParseCSVDelimited(bytes.NewReader(data), comma, log)
}
