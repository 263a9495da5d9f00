// Package metric provides the vector math used by the embedding index:
// dot products, L2 distances and unit normalization.
package metric

import (
	"errors"
	"math"
	"slices"
)

// ErrSizeMismatch is returned when two vectors have different lengths.
var ErrSizeMismatch = errors.New("vector sizes do not match")

// Dot calculates the dot product of two float32 slices.
// Assumes vectors are the same length (caller's responsibility).
func Dot(v1, v2 []float32) float32 {
	var sum float32
	for i := range v1 {
		sum += v1[i] * v2[i]
	}
	return sum
}

// Magnitude calculates the magnitude (Euclidean length) of a float32 slice.
func Magnitude(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// SquaredL2 calculates the squared L2 distance between two float32 slices.
func SquaredL2(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, ErrSizeMismatch
	}

	var sum float32
	for i := range v1 {
		d := v1[i] - v2[i]
		sum += d * d
	}

	return sum, nil
}

// CosineSimilarity calculates the cosine similarity between two float32 slices.
func CosineSimilarity(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, ErrSizeMismatch
	}

	magnitudeA := Magnitude(v1)
	magnitudeB := Magnitude(v2)

	// Avoid division by zero
	if magnitudeA == 0 || magnitudeB == 0 {
		return 0, nil
	}

	return Dot(v1, v2) / (magnitudeA * magnitudeB), nil
}

// NormalizeInPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm; v is left untouched in that case.
func NormalizeInPlace(v []float32) bool {
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}

	inv := 1 / float32(math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}

	return true
}

// Normalize returns a unit-length copy of v, preserving direction.
//
// A zero vector carries no direction, so instead of dividing by zero the
// input is returned unchanged (as a copy) and ok is false. Callers decide
// whether a degenerate vector is worth a warning; Normalize itself never
// fails.
func Normalize(v []float32) (normalized []float32, ok bool) {
	dst := slices.Clone(v)
	if !NormalizeInPlace(dst) {
		return dst, false
	}
	return dst, true
}
