package features

import "errors"

var (
	// ErrEmptyInput is returned when the records yield zero entities or zero
	// categories. Normalization and training cannot run on such a matrix.
	ErrEmptyInput = errors.New("features: no entities or no categories in input")

	// ErrInvalidCategory is returned when a category label does not reduce to
	// a non-empty canonical code.
	ErrInvalidCategory = errors.New("features: category label is empty after canonicalization")

	// ErrInvalidRecord is returned for records with an empty entity id or a
	// non-finite amount.
	ErrInvalidRecord = errors.New("features: invalid transaction record")
)
