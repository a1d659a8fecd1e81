package features

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"

	"github.com/dvloznov/finance-clusters/internal/domain"
)

type cellKey struct {
	entity   string
	category string
}

// Build pivots records into a FeatureMatrix. Each cell is the sum of all
// amounts for that (entity, category) pair, 0 when the entity never used the
// category. Sums are accumulated as decimals so that the cell equals the
// exact sum of the inputs before the final float conversion.
func Build(records []domain.TransactionRecord) (*FeatureMatrix, error) {
	sums := make(map[cellKey]decimal.Decimal)
	entitySet := make(map[string]struct{})
	categorySet := make(map[string]struct{})

	for i, rec := range records {
		entity := strings.TrimSpace(rec.EntityID)
		if entity == "" {
			return nil, fmt.Errorf("Build: record %d: empty entity id: %w", i, ErrInvalidRecord)
		}
		if math.IsNaN(rec.Amount) || math.IsInf(rec.Amount, 0) {
			return nil, fmt.Errorf("Build: record %d: amount %v is not finite: %w", i, rec.Amount, ErrInvalidRecord)
		}
		category, err := CanonicalCategory(rec.Category)
		if err != nil {
			return nil, fmt.Errorf("Build: record %d: %w", i, err)
		}

		key := cellKey{entity: entity, category: category}
		sums[key] = sums[key].Add(decimal.NewFromFloat(rec.Amount))
		entitySet[entity] = struct{}{}
		categorySet[category] = struct{}{}
	}

	if len(entitySet) == 0 || len(categorySet) == 0 {
		return nil, fmt.Errorf("Build: %d records: %w", len(records), ErrEmptyInput)
	}

	entities := sortedKeys(entitySet)
	categories := sortedKeys(categorySet)
	fm := newFeatureMatrix(entities, categories, mat.NewDense(len(entities), len(categories), nil))

	for key, sum := range sums {
		v := sum.InexactFloat64()
		if math.IsInf(v, 0) {
			return nil, fmt.Errorf("Build: %s/%s: sum %s overflows float64: %w", key.entity, key.category, sum, ErrInvalidRecord)
		}
		fm.Values.Set(fm.entityIndex[key.entity], fm.categoryIndex[key.category], v)
	}

	return fm, nil
}

// CanonicalCategory reduces a raw category label to its canonical code:
// the text before the first '.', trimmed, and cut down to the leading digit
// run when it starts with one ("4210.00" and "4210 Materials" both become
// "4210"). Non-numeric labels such as "FOOD" are kept as trimmed text.
func CanonicalCategory(label string) (string, error) {
	head, _, _ := strings.Cut(label, ".")
	head = strings.TrimSpace(head)

	end := 0
	for end < len(head) && head[end] >= '0' && head[end] <= '9' {
		end++
	}
	if end > 0 {
		head = head[:end]
	}

	if head == "" {
		return "", fmt.Errorf("CanonicalCategory: %q: %w", label, ErrInvalidCategory)
	}
	return head, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
