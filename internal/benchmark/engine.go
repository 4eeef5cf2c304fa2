// Package benchmark compares the pool token price against a rebalanced
// synthetic index and constant-product LP positions.
package benchmark

import (
	"fmt"
	"math"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/lookup"
	"protocol-stats/internal/normalization"
)

// Input holds the normalized series a benchmark run consumes.
// Every series must be sorted by timestamp ASC.
type Input struct {
	Pool   []*domain.PoolPoint
	Fees   []*domain.CumulativePoint
	Prices map[string][]*domain.PricePoint // symbol -> prices
}

// Engine runs the benchmark fold. An Engine holds no state between runs.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and creates an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// ImpermanentLoss returns the constant-product divergence loss for a price ratio r.
// The result is always <= 0 and exactly 0 at r == 1.
func ImpermanentLoss(r float64) float64 {
	return 2*math.Sqrt(r)/(1+r) - 1
}

// state is the index and LP state carried across steps of one run.
type state struct {
	startPrice  float64
	firstPrices map[string]float64

	indexUnits  map[string]float64
	stableUnits float64

	lpUnits map[string]float64

	cumulativeFeesPerUnit float64
	lastFeeTs             int64
	feeSeen               bool
}

// Run folds the price sequence of the first asset into benchmark points.
func (e *Engine) Run(in Input) ([]*domain.BenchmarkPoint, error) {
	for _, a := range e.cfg.Assets {
		if len(in.Prices[a.Symbol]) == 0 {
			return nil, fmt.Errorf("benchmark asset %s: %w", a.Symbol, lookup.ErrNoPriceData)
		}
	}
	if err := checkAscending(in); err != nil {
		return nil, err
	}

	steps := in.Prices[e.cfg.Assets[0].Symbol]

	st := e.init(in, steps[0].Timestamp)
	stableWeight := e.cfg.stableWeight()

	result := make([]*domain.BenchmarkPoint, 0, len(steps))
	for i, step := range steps {
		prices := e.pricesAt(step.Timestamp, in)
		bucket := normalization.BucketStart(step.Timestamp, e.cfg.BucketPeriod)

		syntheticPrice := st.stableUnits
		for _, a := range e.cfg.Assets {
			syntheticPrice += st.indexUnits[a.Symbol] * prices[a.Symbol]
		}

		if i%e.cfg.RebalanceInterval == 0 {
			for _, a := range e.cfg.Assets {
				if p := prices[a.Symbol]; p != 0 {
					st.indexUnits[a.Symbol] = syntheticPrice * a.Weight / p
				}
			}
			st.stableUnits = syntheticPrice * stableWeight
		}

		lpPrices := make(map[string]float64, len(e.cfg.Assets))
		for _, a := range e.cfg.Assets {
			p0 := st.firstPrices[a.Symbol]
			if p0 == 0 {
				continue
			}
			p := prices[a.Symbol]
			lpPrices[a.Symbol] = (st.lpUnits[a.Symbol]*p + st.startPrice/2) * (1 + ImpermanentLoss(p/p0))
		}

		poolItem, _ := lookup.At(bucket, in.Pool, func(p *domain.PoolPoint) int64 { return p.Timestamp })
		feeItem, hasFee := lookup.At(bucket, in.Fees, func(p *domain.CumulativePoint) int64 { return p.Timestamp })

		var supply float64
		if poolItem != nil && poolItem.Supply != nil {
			supply = *poolItem.Supply
		}
		// each fee bucket accrues once even when carried forward over several steps
		if hasFee && feeItem.All != 0 && supply != 0 && (!st.feeSeen || feeItem.Timestamp != st.lastFeeTs) {
			st.cumulativeFeesPerUnit += feeItem.All / supply * e.cfg.shareAt(bucket)
			st.lastFeeTs = feeItem.Timestamp
			st.feeSeen = true
		}

		point := &domain.BenchmarkPoint{
			Timestamp:        step.Timestamp,
			AssetPrices:      prices,
			IndexPrice:       syntheticPrice,
			IndexUnits:       copyMap(st.indexUnits),
			IndexStableUnits: st.stableUnits,
			StableWeight:     stableWeight,
			LPPrices:         lpPrices,
		}
		e.overlay(point, poolItem, supply, st.cumulativeFeesPerUnit, in)
		fillPerformance(point)

		result = append(result, point)
	}

	return result, nil
}

// init fixes the start price, first prices and initial unit counts.
func (e *Engine) init(in Input, firstTs int64) *state {
	st := &state{
		startPrice:  e.cfg.StartPrice,
		firstPrices: make(map[string]float64, len(e.cfg.Assets)),
		indexUnits:  make(map[string]float64, len(e.cfg.Assets)),
		lpUnits:     make(map[string]float64, len(e.cfg.Assets)),
	}

	firstBucket := normalization.BucketStart(firstTs, e.cfg.BucketPeriod)
	for _, p := range in.Pool {
		if p.Timestamp == firstBucket && p.Price != nil && *p.Price != 0 {
			st.startPrice = *p.Price
			break
		}
	}

	for _, a := range e.cfg.Assets {
		p0, _ := lookup.PriceAt(firstTs, in.Prices[a.Symbol])
		st.firstPrices[a.Symbol] = p0
		if p0 == 0 {
			continue
		}
		st.indexUnits[a.Symbol] = st.startPrice * a.Weight / p0
		st.lpUnits[a.Symbol] = st.startPrice * 0.5 / p0
	}
	st.stableUnits = st.startPrice * e.cfg.stableWeight()

	return st
}

// pricesAt returns every asset price at ts, carrying forward the last known value.
func (e *Engine) pricesAt(ts int64, in Input) map[string]float64 {
	prices := make(map[string]float64, len(e.cfg.Assets))
	for _, a := range e.cfg.Assets {
		p, _ := lookup.PriceAt(ts, in.Prices[a.Symbol])
		prices[a.Symbol] = p
	}
	return prices
}

// overlay sets the tracked token price and its collected-value variants.
func (e *Engine) overlay(point *domain.BenchmarkPoint, poolItem *domain.PoolPoint, supply, cumulativeFees float64, in Input) {
	if poolItem == nil || poolItem.Price == nil {
		return
	}
	price := *poolItem.Price
	point.TokenPrice = domain.Float(price)

	point.TokenPlusFees = domain.Float(price)
	if supply != 0 && cumulativeFees != 0 {
		point.TokenPlusFees = domain.Float(price + cumulativeFees)
	}

	if poolItem.CumulativeDistributedUSDPerUnit != 0 {
		point.TokenPlusDistributedUSD = domain.Float(price + poolItem.CumulativeDistributedUSDPerUnit)
	}

	if poolItem.CumulativeDistributedETHPerUnit != 0 {
		if ethPrice, ok := point.AssetPrices[e.cfg.DistributionAsset]; ok && ethPrice != 0 {
			point.TokenPlusDistributedETH = domain.Float(price + poolItem.CumulativeDistributedETHPerUnit*ethPrice)
		} else if ethPrice, err := lookup.PriceAt(point.Timestamp, in.Prices[e.cfg.DistributionAsset]); err == nil && ethPrice != 0 {
			point.TokenPlusDistributedETH = domain.Float(price + poolItem.CumulativeDistributedETHPerUnit*ethPrice)
		}
	}
}

func fillPerformance(point *domain.BenchmarkPoint) {
	point.Index = performance(point, point.IndexPrice)
	point.LP = make(map[string]domain.PerformanceSet, len(point.LPPrices))
	for symbol, lp := range point.LPPrices {
		point.LP[symbol] = performance(point, lp)
	}
}

func performance(point *domain.BenchmarkPoint, benchmark float64) domain.PerformanceSet {
	return domain.PerformanceSet{
		Raw:                Ratio(point.TokenPrice, benchmark),
		WithFees:           Ratio(point.TokenPlusFees, benchmark),
		WithDistributedUSD: Ratio(point.TokenPlusDistributedUSD, benchmark),
		WithDistributedETH: Ratio(point.TokenPlusDistributedETH, benchmark),
	}
}

// Ratio returns tracked / benchmark * 100, nil when tracked is unavailable or benchmark is 0.
func Ratio(tracked *float64, benchmark float64) *float64 {
	if tracked == nil || benchmark == 0 {
		return nil
	}
	return domain.Float(*tracked / benchmark * 100)
}

func checkAscending(in Input) error {
	for symbol, prices := range in.Prices {
		ts := make([]int64, len(prices))
		for i, p := range prices {
			ts[i] = p.Timestamp
		}
		if err := normalization.CheckAscending("benchmark prices "+symbol, ts); err != nil {
			return err
		}
	}

	poolTs := make([]int64, len(in.Pool))
	for i, p := range in.Pool {
		poolTs[i] = p.Timestamp
	}
	if err := normalization.CheckAscending("benchmark pool", poolTs); err != nil {
		return err
	}

	feeTs := make([]int64, len(in.Fees))
	for i, p := range in.Fees {
		feeTs[i] = p.Timestamp
	}
	return normalization.CheckAscending("benchmark fees", feeTs)
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
