// Package stats turns raw indexer records into the dashboard series.
//
// Every function here is a pure function of its inputs: records are filtered
// to the query window, sorted, normalized, bucketed and folded. Nothing is
// logged or persisted.
package stats

import (
	"protocol-stats/internal/domain"
	"protocol-stats/internal/metrics"
	"protocol-stats/internal/normalization"
)

// Series names, used as API paths and report file names.
const (
	NameVolume            = "volume"
	NameVolumeFromActions = "volume_actions"
	NameFees              = "fees"
	NameSwapSources       = "swap_sources"
	NameFundingRates      = "funding_rates"
	NameUsers             = "users"
	NameTraders           = "traders"
	NameReferrals         = "referrals"
	NamePoolAmounts       = "pool_amounts"
	NamePool              = "pool"
	NamePoolPerformance   = "pool_performance"
	NameYield             = "yield"
)

// Names lists every series in computation order.
var Names = []string{
	NameVolume,
	NameVolumeFromActions,
	NameFees,
	NameSwapSources,
	NameFundingRates,
	NameUsers,
	NameTraders,
	NameReferrals,
	NamePoolAmounts,
	NamePool,
	NamePoolPerformance,
	NameYield,
}

// Series is a derived point sequence with a summary of its headline field.
type Series[P any] struct {
	Name    string         `json:"name"`
	Points  []P            `json:"points"`
	Summary domain.Summary `json:"summary"`
}

// Len returns the number of points, 0 for a nil series.
func (s *Series[P]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// prepare validates cfg and returns the window-filtered records sorted by (timestamp, id).
func prepare(records []*domain.RawRecord, cfg domain.QueryConfig) ([]*domain.RawRecord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := normalization.FilterWindow(records, cfg)
	normalization.SortRecords(out)
	return out, nil
}

// lastPerBucket keeps the last record of every bucket, re-stamped to the bucket start.
// Snapshot series (cumulative counters, pool state) use this instead of summing.
// Records must be sorted.
func lastPerBucket(records []*domain.RawRecord, period int64) []*domain.RawRecord {
	var out []*domain.RawRecord
	for _, r := range records {
		bucket := normalization.BucketStart(r.Timestamp, period)
		stamped := *r
		stamped.Timestamp = bucket

		if n := len(out); n > 0 && out[n-1].Timestamp == bucket {
			out[n-1] = &stamped
			continue
		}
		out = append(out, &stamped)
	}
	return out
}

// cumulativeSeries buckets normalized entries and folds them into cumulative points.
func cumulativeSeries(name string, entries []normalization.BucketEntry, cfg domain.QueryConfig, fields ...string) (*Series[*domain.CumulativePoint], error) {
	buckets := normalization.AggregateBuckets(entries, cfg.BucketPeriod, fields...)

	points, err := metrics.Accumulate(buckets, cfg.MovingAverageDays)
	if err != nil {
		return nil, err
	}

	all := make([]float64, len(points))
	for i, p := range points {
		all[i] = p.All
	}

	return &Series[*domain.CumulativePoint]{
		Name:    name,
		Points:  points,
		Summary: metrics.Summarize("all", all),
	}, nil
}
