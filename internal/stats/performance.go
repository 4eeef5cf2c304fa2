package stats

import (
	"protocol-stats/internal/benchmark"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/metrics"
)

// PoolPerformance compares the pool token against the synthetic index and LP
// benchmarks configured by cfg.AssetWeights.
func PoolPerformance(pool *Series[*domain.PoolPoint], fees *Series[*domain.CumulativePoint], prices map[string][]*domain.PricePoint, cfg domain.QueryConfig) (*Series[*domain.BenchmarkPoint], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine, err := benchmark.NewEngine(benchmark.DefaultConfig(cfg))
	if err != nil {
		return nil, err
	}

	windowed := make(map[string][]*domain.PricePoint, len(prices))
	for symbol, series := range prices {
		for _, p := range series {
			if cfg.InWindow(p.Timestamp) {
				windowed[symbol] = append(windowed[symbol], p)
			}
		}
	}

	points, err := engine.Run(benchmark.Input{
		Pool:   pointsOf(pool),
		Fees:   pointsOf(fees),
		Prices: windowed,
	})
	if err != nil {
		return nil, err
	}

	ratios := make([]*float64, len(points))
	for i, p := range points {
		ratios[i] = p.Index.WithFees
	}

	return &Series[*domain.BenchmarkPoint]{
		Name:    NamePoolPerformance,
		Points:  points,
		Summary: metrics.SummarizeOptional("indexWithFees", ratios),
	}, nil
}

// YieldSeries is the fee APR and pool usage series.
type YieldSeries struct {
	Series[*domain.YieldPoint]
	AverageAPR   *float64 `json:"averageApr"`
	AverageUsage *float64 `json:"averageUsage"`
	Suppressed   int      `json:"suppressed"` // ratios above the sanity ceiling
}

// Yield derives fee APR and pool usage from the fees, pool and volume series.
func Yield(fees *Series[*domain.CumulativePoint], pool *Series[*domain.PoolPoint], volume *Series[*domain.CumulativePoint], cfg domain.QueryConfig) (*YieldSeries, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := metrics.YieldRatios(pointsOf(fees), pointsOf(pool), pointsOf(volume), cfg.BucketPeriod)

	aprs := make([]*float64, len(res.Points))
	for i, p := range res.Points {
		aprs[i] = p.APR
	}

	return &YieldSeries{
		Series: Series[*domain.YieldPoint]{
			Name:    NameYield,
			Points:  res.Points,
			Summary: metrics.SummarizeOptional("apr", aprs),
		},
		AverageAPR:   res.AverageAPR,
		AverageUsage: res.AverageUsage,
		Suppressed:   res.Suppressed,
	}, nil
}

func pointsOf[P any](s *Series[P]) []P {
	if s == nil {
		return nil
	}
	return s.Points
}
