package features

import "gonum.org/v1/gonum/floats"

// MinMaxNormalize scales values into [0, 1] as (x - min) / (max - min).
// A zero-variance column maps to all zeros.
func MinMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo := floats.Min(values)
	hi := floats.Max(values)
	span := hi - lo
	if span <= 0 {
		return out
	}

	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}
