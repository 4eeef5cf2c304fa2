package metrics

import (
	"fmt"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/normalization"
)

// Tracker maintains a running total and a trailing moving average over bucket totals.
// A Tracker is single-use: create one per series computation.
type Tracker struct {
	windowDays    int
	windowSeconds int64

	cumulative     float64
	cumulativeByTs map[int64]float64

	lastTs  int64
	started bool
	index   int
}

// NewTracker creates a tracker for a moving average over windowDays.
// bucketPeriod must divide the window so that window-start lookups hit bucket timestamps.
func NewTracker(windowDays int, bucketPeriod int64) (*Tracker, error) {
	if windowDays <= 0 {
		return nil, &domain.ConfigurationError{Field: "movingAverageDays", Reason: "must be positive"}
	}
	if bucketPeriod <= 0 {
		return nil, &domain.ConfigurationError{Field: "bucketPeriod", Reason: "must be positive"}
	}
	if (int64(windowDays)*domain.SecondsPerDay)%bucketPeriod != 0 {
		return nil, &domain.ConfigurationError{
			Field:  "bucketPeriod",
			Reason: fmt.Sprintf("%ds does not divide the %d day moving average window", bucketPeriod, windowDays),
		}
	}
	return newTracker(windowDays), nil
}

func newTracker(windowDays int) *Tracker {
	return &Tracker{
		windowDays:     windowDays,
		windowSeconds:  int64(windowDays) * domain.SecondsPerDay,
		cumulativeByTs: make(map[int64]float64),
	}
}

// Add folds one bucket total into the tracker.
// Returns the running total and the moving average, which is nil until the
// tracker has seen the bucket exactly one window earlier.
func (t *Tracker) Add(ts int64, all float64) (float64, *float64, error) {
	if t.started && ts <= t.lastTs {
		return 0, nil, &domain.PreconditionError{
			Stage:     "cumulative tracker",
			Index:     t.index,
			Timestamp: ts,
			Previous:  t.lastTs,
		}
	}
	t.started = true
	t.lastTs = ts
	t.index++

	t.cumulative += all

	var ma *float64
	if start, ok := t.cumulativeByTs[ts-t.windowSeconds]; ok {
		ma = domain.Float((t.cumulative - start) / float64(t.windowDays))
	}
	t.cumulativeByTs[ts] = t.cumulative

	return t.cumulative, ma, nil
}

// Accumulate maps a bucketed series to cumulative points.
// The bucket total "all" is the sum of every field of the point.
func Accumulate(points []*domain.TimeSeriesPoint, windowDays int) ([]*domain.CumulativePoint, error) {
	if windowDays <= 0 {
		return nil, &domain.ConfigurationError{Field: "movingAverageDays", Reason: "must be positive"}
	}

	tracker := newTracker(windowDays)
	result := make([]*domain.CumulativePoint, 0, len(points))

	for _, p := range points {
		fields := make(map[string]float64, len(p.Fields))
		for name, v := range p.Fields {
			fields[name] = v
		}
		all := normalization.SumFields(fields)

		cumulative, ma, err := tracker.Add(p.Timestamp, all)
		if err != nil {
			return nil, err
		}

		result = append(result, &domain.CumulativePoint{
			Timestamp:        p.Timestamp,
			Fields:           fields,
			All:              all,
			Cumulative:       cumulative,
			MovingAverageAll: ma,
		})
	}

	return result, nil
}
