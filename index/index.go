// Package index provides shared types and errors for embedding indexes.
package index

import (
	"errors"
	"fmt"
)

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("k must be positive")

// ErrDimensionMismatch is a named error type for a vector/query whose length
// does not match the index dimension.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension is a named error type for an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

// Error returns the error message for an invalid dimension.
func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// ID is the identifier of the indexed vector.
	ID string

	// Distance is the squared L2 distance between the query vector and the
	// result vector. On unit vectors this is 2 - 2*cos(q, v), so ascending
	// distance order equals descending cosine-similarity order.
	Distance float32
}

// Searcher is the read side of an embedding index.
type Searcher interface {
	// Search returns the k nearest stored vectors to q, ascending by distance.
	Search(q []float32, k int) ([]SearchResult, error)
}
