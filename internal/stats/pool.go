package stats

import (
	"sort"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/metrics"
	"protocol-stats/internal/normalization"
)

// MaxChangePercent caps day-over-day supply and AUM changes; larger jumps are
// bootstrap artifacts and reported as 0.
const MaxChangePercent = 1000.0

var poolScales = map[string]normalization.Scale{
	"aumInUsdg":      normalization.Scale18,
	"elpSupply":      normalization.Scale18,
	"distributedUsd": normalization.Scale30,
	"distributedEth": normalization.Scale18,
}

// Pool builds the liquidity pool series: AUM, supply, token price, per-unit
// distributions and their running totals, and day-over-day changes.
// Only bucket-aligned snapshots are used; the last snapshot of a timestamp wins.
func Pool(records []*domain.RawRecord, cfg domain.QueryConfig) (*Series[*domain.PoolPoint], error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}

	var aligned []*domain.RawRecord
	for _, r := range records {
		if r.Timestamp%cfg.BucketPeriod == 0 {
			aligned = append(aligned, r)
		}
	}
	aligned = lastPerBucket(aligned, cfg.BucketPeriod)

	var cumUSD, cumETH float64
	points := make([]*domain.PoolPoint, 0, len(aligned))
	for _, r := range aligned {
		f := normalization.NormalizeFields(r, poolScales)
		supply := f["elpSupply"]

		p := &domain.PoolPoint{Timestamp: r.Timestamp}
		if v, ok := f["aumInUsdg"]; ok {
			p.AUM = domain.Float(v)
		}
		if _, ok := f["elpSupply"]; ok {
			p.Supply = domain.Float(supply)
		}
		if p.AUM != nil && supply != 0 {
			p.Price = domain.Float(*p.AUM / supply)
		}
		if supply != 0 {
			p.DistributedUSDPerUnit = f["distributedUsd"] / supply
			p.DistributedETHPerUnit = f["distributedEth"] / supply
		}
		cumUSD += p.DistributedUSDPerUnit
		cumETH += p.DistributedETHPerUnit
		p.CumulativeDistributedUSDPerUnit = cumUSD
		p.CumulativeDistributedETHPerUnit = cumETH

		points = append(points, p)
	}

	applyChanges(points)
	if err := fillPoolGaps(points); err != nil {
		return nil, err
	}

	prices := make([]*float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}

	return &Series[*domain.PoolPoint]{
		Name:    NamePool,
		Points:  points,
		Summary: metrics.SummarizeOptional("price", prices),
	}, nil
}

// applyChanges sets supply and AUM change percentages against the previous point.
// A missing or zero value is replaced by the previous one before comparing.
func applyChanges(points []*domain.PoolPoint) {
	var prevSupply, prevAUM float64
	for _, p := range points {
		supply := valueOr(p.Supply, prevSupply)
		aum := valueOr(p.AUM, prevAUM)

		if prevSupply != 0 {
			p.SupplyChange = guardChange((supply - prevSupply) / prevSupply * 100)
		}
		if prevAUM != 0 {
			p.AUMChange = guardChange((aum - prevAUM) / prevAUM * 100)
		}

		prevSupply = supply
		prevAUM = aum
	}
}

func guardChange(v float64) float64 {
	if v > MaxChangePercent {
		return 0
	}
	return v
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil || *v == 0 {
		return fallback
	}
	return *v
}

// fillPoolGaps carries AUM, supply and price forward over missing or zero snapshots.
func fillPoolGaps(points []*domain.PoolPoint) error {
	series := make([]*domain.TimeSeriesPoint, len(points))
	for i, p := range points {
		fields := make(map[string]float64, 3)
		if p.AUM != nil {
			fields["aum"] = *p.AUM
		}
		if p.Supply != nil {
			fields["supply"] = *p.Supply
		}
		if p.Price != nil {
			fields["price"] = *p.Price
		}
		series[i] = &domain.TimeSeriesPoint{Timestamp: p.Timestamp, Fields: fields}
	}

	filled, err := normalization.FillForward(series)
	if err != nil {
		return err
	}

	for i, f := range filled {
		if v, ok := f.Value("aum"); ok {
			points[i].AUM = domain.Float(v)
		}
		if v, ok := f.Value("supply"); ok {
			points[i].Supply = domain.Float(v)
		}
		if v, ok := f.Value("price"); ok && v != 0 {
			points[i].Price = domain.Float(v)
		}
	}
	return nil
}

// PoolAmountSeries is the per-token pool USD amount series.
type PoolAmountSeries struct {
	Series[*domain.PoolAmountPoint]
	Tokens []string `json:"tokens"` // sorted token symbols seen in the window
}

// PoolAmounts builds the pool USD amount (1e30) per token symbol per bucket.
// Amounts are snapshots: the last record of a token in a bucket wins.
func PoolAmounts(records []*domain.RawRecord, net *chain.Network, cfg domain.QueryConfig) (*PoolAmountSeries, error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}

	tokens := make(map[string]struct{})
	buckets := make(map[int64]map[string]float64)
	for _, r := range records {
		raw, ok := r.Field("poolAmountUsd")
		if !ok {
			continue
		}
		amount, err := normalization.Normalize(raw, normalization.Scale30)
		if err != nil {
			continue
		}

		symbol := net.TokenSymbol(r.Source)
		tokens[symbol] = struct{}{}

		bucket := normalization.BucketStart(r.Timestamp, cfg.BucketPeriod)
		if buckets[bucket] == nil {
			buckets[bucket] = make(map[string]float64)
		}
		buckets[bucket][symbol] = amount
	}

	points := make([]*domain.PoolAmountPoint, 0, len(buckets))
	for ts, amounts := range buckets {
		points = append(points, &domain.PoolAmountPoint{Timestamp: ts, Tokens: amounts, All: normalization.SumFields(amounts)})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})

	symbols := make([]string, 0, len(tokens))
	for s := range tokens {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	all := make([]float64, len(points))
	for i, p := range points {
		all[i] = p.All
	}

	return &PoolAmountSeries{
		Series: Series[*domain.PoolAmountPoint]{
			Name:    NamePoolAmounts,
			Points:  points,
			Summary: metrics.Summarize("all", all),
		},
		Tokens: symbols,
	}, nil
}
