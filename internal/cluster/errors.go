package cluster

import "errors"

var (
	// ErrEntityMismatch is returned when an assigned entity has no row in the
	// matrix used for summaries.
	ErrEntityMismatch = errors.New("cluster: entity missing from feature matrix")

	// ErrNilInput is returned when a grid, matrix or assignment is nil.
	ErrNilInput = errors.New("cluster: nil input")
)
