package som

import "errors"

var (
	// ErrDegenerateMap is returned when the grid side would be < 1.
	ErrDegenerateMap = errors.New("som: grid size must be at least 1")

	// ErrDimensionMismatch is returned when a vector's length differs from the
	// neuron weight length. It signals a caller bug, not bad data.
	ErrDimensionMismatch = errors.New("som: vector length does not match neuron weight length")

	// ErrEmptyData is returned when training data has no rows or no columns.
	ErrEmptyData = errors.New("som: training data is empty")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("som: invalid configuration")
)
