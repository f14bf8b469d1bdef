package database

import "math"

// EuclideanDistance computes the Euclidean distance between two encodings.
// Returns +Inf for mismatched or empty input so invalid vectors never match.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}

	return math.Sqrt(sum)
}
