package lookup

import (
	"errors"
	"sort"

	"protocol-stats/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoPriceData = errors.New("no price data available")
)

// PriceAt returns price at or before target timestamp.
// If no price before target, returns first available price.
// Returns ErrNoPriceData if slice is empty.
// Prices must be sorted by timestamp ASC.
func PriceAt(target int64, prices []*domain.PricePoint) (float64, error) {
	if len(prices) == 0 {
		return 0, ErrNoPriceData
	}

	if i := indexAtOrBefore(len(prices), func(i int) int64 { return prices[i].Timestamp }, target); i >= 0 {
		return prices[i].Price, nil
	}

	return prices[0].Price, nil
}

// PointAt returns the latest point at or before target timestamp.
// Returns nil if every point is after target (valid case).
// Points must be sorted by timestamp ASC.
func PointAt(target int64, points []*domain.TimeSeriesPoint) *domain.TimeSeriesPoint {
	p, _ := At(target, points, func(p *domain.TimeSeriesPoint) int64 { return p.Timestamp })
	return p
}

// At returns the latest item at or before target and true,
// or the zero value and false if there is none.
// Items must be sorted by timestamp ASC.
func At[T any](target int64, items []T, ts func(T) int64) (T, bool) {
	i := indexAtOrBefore(len(items), func(i int) int64 { return ts(items[i]) }, target)
	if i < 0 {
		var zero T
		return zero, false
	}
	return items[i], true
}

// indexAtOrBefore returns the largest index with ts(i) <= target, or -1.
func indexAtOrBefore(n int, ts func(i int) int64, target int64) int {
	// first index strictly after target
	j := sort.Search(n, func(i int) bool { return ts(i) > target })
	return j - 1
}
