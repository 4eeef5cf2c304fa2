package metrics

import (
	"protocol-stats/internal/domain"
	"protocol-stats/internal/lookup"
)

// RatioCeiling is the sanity ceiling above which a ratio is treated as unavailable.
const RatioCeiling = 10000.0

// YieldResult holds per-bucket yield ratios and their averages.
type YieldResult struct {
	Points       []*domain.YieldPoint
	AverageAPR   *float64 // mean of available APR values
	AverageUsage *float64 // mean of available usage values
	Suppressed   int      // ratios dropped for exceeding RatioCeiling
}

// YieldRatios derives fee APR and pool usage for every fee bucket.
// Pool and volume are joined on the fee timestamp with carry-forward.
//
//	apr   = fees / aum * 100 * 365 * coef
//	usage = volume / aum * 100 * coef
//
// where coef = 86400 / groupPeriod. A ratio with a missing or zero operand,
// or above RatioCeiling, is nil. The point is kept either way.
func YieldRatios(fees []*domain.CumulativePoint, pool []*domain.PoolPoint, volume []*domain.CumulativePoint, groupPeriod int64) *YieldResult {
	result := &YieldResult{}
	if len(fees) == 0 || groupPeriod <= 0 {
		return result
	}

	coef := float64(domain.SecondsPerDay) / float64(groupPeriod)
	poolTs := func(p *domain.PoolPoint) int64 { return p.Timestamp }
	volumeTs := func(p *domain.CumulativePoint) int64 { return p.Timestamp }

	aprs := make([]*float64, 0, len(fees))
	usages := make([]*float64, 0, len(fees))

	for _, fee := range fees {
		var aum float64
		if p, ok := lookup.At(fee.Timestamp, pool, poolTs); ok && p.AUM != nil {
			aum = *p.AUM
		}
		var vol float64
		if v, ok := lookup.At(fee.Timestamp, volume, volumeTs); ok {
			vol = v.All
		}

		point := &domain.YieldPoint{Timestamp: fee.Timestamp}
		if fee.All != 0 && aum != 0 {
			point.APR = result.guard(fee.All / aum * 100 * 365 * coef)
		}
		if vol != 0 && aum != 0 {
			point.Usage = result.guard(vol / aum * 100 * coef)
		}

		aprs = append(aprs, point.APR)
		usages = append(usages, point.Usage)
		result.Points = append(result.Points, point)
	}

	result.AverageAPR = MeanOf(aprs)
	result.AverageUsage = MeanOf(usages)
	for _, p := range result.Points {
		p.AverageAPR = result.AverageAPR
		p.AverageUsage = result.AverageUsage
	}

	return result
}

func (r *YieldResult) guard(v float64) *float64 {
	if v > RatioCeiling {
		r.Suppressed++
		return nil
	}
	return domain.Float(v)
}
