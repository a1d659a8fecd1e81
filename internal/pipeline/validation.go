package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dvloznov/finance-clusters/internal/domain"
	"github.com/dvloznov/finance-clusters/internal/features"
	"github.com/dvloznov/finance-clusters/internal/logger"
)

// ErrCategoryNotAllowed is returned by CategoryValidator.Validate.
var ErrCategoryNotAllowed = errors.New("pipeline: category not in allow-list")

// CategoryValidator restricts clustering to a set of budget categories.
// Codes are compared in canonical form, so "4210" also admits "4210.00".
type CategoryValidator struct {
	allowed map[string]bool // canonical codes
}

// NewCategoryValidator creates a validator from an allow-list of category
// labels. An empty list is rejected; pass a nil validator to allow all.
func NewCategoryValidator(codes []string) (*CategoryValidator, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("NewCategoryValidator: empty allow-list: %w", features.ErrInvalidCategory)
	}

	v := &CategoryValidator{allowed: make(map[string]bool, len(codes))}
	for _, code := range codes {
		canonical, err := features.CanonicalCategory(code)
		if err != nil {
			return nil, fmt.Errorf("NewCategoryValidator: %q: %w", code, err)
		}
		v.allowed[canonical] = true
	}
	return v, nil
}

// Allowed returns the canonical allow-list, sorted.
func (v *CategoryValidator) Allowed() []string {
	out := make([]string, 0, len(v.allowed))
	for c := range v.allowed {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Validate checks a record's category against the allow-list.
// Returns nil if valid, error if invalid.
func (v *CategoryValidator) Validate(r domain.TransactionRecord) error {
	canonical, err := features.CanonicalCategory(r.Category)
	if err != nil {
		return err
	}
	if !v.allowed[canonical] {
		return fmt.Errorf("category %q (canonical %q): %w", r.Category, canonical, ErrCategoryNotAllowed)
	}
	return nil
}

// Filter returns the records that pass Validate. Records with an empty
// category are kept so that the matrix builder reports them.
func (v *CategoryValidator) Filter(ctx context.Context, records []domain.TransactionRecord) []domain.TransactionRecord {
	kept := make([]domain.TransactionRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		err := v.Validate(r)
		if err != nil && errors.Is(err, ErrCategoryNotAllowed) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}

	if dropped > 0 {
		log := logger.FromContext(ctx)
		log.Warn().
			Int("dropped", dropped).
			Int("kept", len(kept)).
			Strs("allowed", v.Allowed()).
			Msg("Records outside the category allow-list were dropped")
	}
	return kept
}
