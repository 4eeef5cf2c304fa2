package stats

import (
	"sort"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/metrics"
	"protocol-stats/internal/normalization"
)

var fundingFields = []string{"startFundingRate", "endFundingRate", "startTimestamp", "endTimestamp"}

// FundingRate annualizes the funding rate accrued between two snapshots.
// Rates are in basis points of 1/10000; the elapsed time is floored to whole hours.
// Returns 0 when either rate is missing or less than an hour has elapsed.
func FundingRate(startRate, endRate float64, startTs, endTs int64) float64 {
	if startRate == 0 || endRate == 0 {
		return 0
	}
	timeDelta := (endTs - startTs) / 3600 * 3600
	if timeDelta <= 0 {
		return 0
	}
	days := float64(timeDelta) / float64(domain.SecondsPerDay)
	return (endRate - startRate) / days / 10000 * 365
}

// FundingRates builds annualized funding rates per token symbol.
// A token without a rate in a bucket carries its previous rate forward.
func FundingRates(records []*domain.RawRecord, net *chain.Network, cfg domain.QueryConfig) (*Series[*domain.FundingRatePoint], error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}

	groups := make(map[int64]*domain.TimeSeriesPoint)
	for _, r := range records {
		symbol := net.TokenSymbol(r.Source)
		if net.IsExcluded(symbol) {
			continue
		}

		f := normalization.NormalizeRecord(r, normalization.Scale0, fundingFields...)
		rate := FundingRate(f["startFundingRate"], f["endFundingRate"],
			int64(f["startTimestamp"]), int64(f["endTimestamp"]))

		bucket := normalization.BucketStart(r.Timestamp, cfg.BucketPeriod)
		g, ok := groups[bucket]
		if !ok {
			g = &domain.TimeSeriesPoint{Timestamp: bucket, Fields: make(map[string]float64)}
			groups[bucket] = g
		}
		g.Fields[symbol] = rate
	}

	ordered := make([]*domain.TimeSeriesPoint, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	filled, err := normalization.FillForward(ordered)
	if err != nil {
		return nil, err
	}

	points := make([]*domain.FundingRatePoint, len(filled))
	averages := make([]*float64, len(filled))
	for i, p := range filled {
		points[i] = &domain.FundingRatePoint{Timestamp: p.Timestamp, Rates: p.Fields}
		if len(p.Fields) > 0 {
			averages[i] = domain.Float(normalization.SumFields(p.Fields) / float64(len(p.Fields)))
		}
	}

	return &Series[*domain.FundingRatePoint]{
		Name:    NameFundingRates,
		Points:  points,
		Summary: metrics.SummarizeOptional("averageRate", averages),
	}, nil
}
