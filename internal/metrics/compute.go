package metrics

import (
	"math"
	"sort"

	"protocol-stats/internal/domain"
)

// Summarize computes scalar statistics over one field of a series.
// Values must be in chronological order; Last and MaxDrawdown depend on it.
func Summarize(field string, values []float64) domain.Summary {
	n := len(values)
	if n == 0 {
		return domain.Summary{Field: field}
	}

	// Sort values for percentile calculations
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := computeMean(values)

	s := domain.Summary{
		Field:       field,
		Count:       n,
		Min:         domain.Float(sorted[0]),
		Max:         domain.Float(sorted[n-1]),
		Mean:        domain.Float(mean),
		Median:      domain.Float(computePercentile(sorted, 0.50)),
		Total:       domain.Float(computeTotal(values)),
		Last:        domain.Float(values[n-1]),
		MaxDrawdown: domain.Float(computeMaxDrawdown(values)),
	}
	if n >= 2 {
		s.Stddev = domain.Float(computeStddev(values, mean))
	}

	return s
}

// SummarizeOptional summarizes the available values, skipping NULLs.
func SummarizeOptional(field string, values []*float64) domain.Summary {
	available := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			available = append(available, *v)
		}
	}
	return Summarize(field, available)
}

// MeanOf returns the mean of the available values, or nil if there are none.
func MeanOf(values []*float64) *float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return domain.Float(sum / float64(n))
}

func computeTotal(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return computeTotal(values) / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	// Linear interpolation
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown returns the worst fall from a running peak, reading the
// values as a level series (price, AUM, cumulative total).
// Values must be in chronological order.
func computeMaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDrawdown := 0.0
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
		if drawdown := peak - v; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
