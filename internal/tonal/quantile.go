// Package tonal remaps the tonal range of single image channels.
//
// A channel is a flat slice of samples normalised to [0,1]. Breakpoints are
// read off the channel's own distribution with Quantile, paired with target
// output values into control points, and applied with a piecewise-linear
// Curve.
package tonal

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	ErrEmpty         = errors.New("no samples")
	ErrQuantileRange = errors.New("quantile out of range [0,1]")
	ErrNonFinite     = errors.New("non-finite value")
)

// Quantile returns the value below which fraction q of samples fall,
// interpolating linearly between the two nearest order statistics.
func Quantile(samples []float64, q float64) (float64, error) {
	out, err := Quantiles(samples, q)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Quantiles is Quantile for several fractions sharing one sort.
// samples is not modified.
func Quantiles(samples []float64, qs ...float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, ErrEmpty
	}
	for _, q := range qs {
		if math.IsNaN(q) || q < 0 || q > 1 {
			return nil, fmt.Errorf("quantile %v: %w", q, ErrQuantileRange)
		}
	}
	sorted := slices.Clone(samples)
	for i, v := range sorted {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("sample %d: %w", i, ErrNonFinite)
		}
	}
	slices.Sort(sorted)

	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = sortedQuantile(sorted, q)
	}
	return out, nil
}

// sortedQuantile expects sorted to be non-empty and ascending.
func sortedQuantile(sorted []float64, q float64) float64 {
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	if frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
