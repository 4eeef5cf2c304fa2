package domain

// RawRecord is a single record as returned by the stats indexer.
// Numeric fields are kept as strings: fixed-point integers ("1500000000000000000")
// or plain decimals ("12.5"). Normalization decides the scale.
type RawRecord struct {
	Network   string            // network name (arbitrum, avalanche, base)
	Series    string            // source series, see Series* constants
	ID        string            // record id, unique within (network, series)
	Timestamp int64             // Unix timestamp in seconds
	Source    string            // raw source or token identifier, empty if not applicable
	Fields    map[string]string // field name -> raw value
}

// Field returns the raw value of a field and whether it is present.
func (r *RawRecord) Field(name string) (string, bool) {
	if r == nil || r.Fields == nil {
		return "", false
	}
	v, ok := r.Fields[name]
	return v, ok
}

// Raw record series names.
const (
	SeriesVolumeStats    = "volume_stats"
	SeriesVolumeActions  = "volume_actions"
	SeriesFeeStats       = "fee_stats"
	SeriesPoolStats      = "pool_stats"
	SeriesSwapSources    = "swap_sources"
	SeriesFundingRates   = "funding_rates"
	SeriesUserStats      = "user_stats"
	SeriesTradingStats   = "trading_stats"
	SeriesReferralStats  = "referral_stats"
	SeriesTokenPoolStats = "token_pool_stats"
)

// AllSeries lists every raw series in load order.
var AllSeries = []string{
	SeriesVolumeStats,
	SeriesVolumeActions,
	SeriesFeeStats,
	SeriesPoolStats,
	SeriesSwapSources,
	SeriesFundingRates,
	SeriesUserStats,
	SeriesTradingStats,
	SeriesReferralStats,
	SeriesTokenPoolStats,
}

// PricePoint is a reference asset price at a bucket timestamp.
// Corresponds to asset_prices table in ClickHouse.
type PricePoint struct {
	Symbol    string  // asset symbol (BTC, ETH, AVAX)
	Timestamp int64   // Unix timestamp in seconds
	Price     float64 // USD price
}
