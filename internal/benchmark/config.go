package benchmark

import (
	"fmt"
	"sort"

	"protocol-stats/internal/domain"
)

// DefaultStartPrice is used when the pool has no price at the first step.
const DefaultStartPrice = 1.19

// IncreasedRewardsTimestamp is when the pool's share of collected fees rose from 50% to 70%.
const IncreasedRewardsTimestamp int64 = 1635714000

// FeeShareStep sets the pool's share of fees from a timestamp onwards.
type FeeShareStep struct {
	From  int64   // inclusive, Unix seconds
	Share float64 // fraction of fees accruing to pool holders
}

// DefaultFeeShare is the historical fee split.
var DefaultFeeShare = []FeeShareStep{
	{From: 0, Share: 0.5},
	{From: IncreasedRewardsTimestamp, Share: 0.7},
}

// Config configures one benchmark computation.
type Config struct {
	Assets            []domain.AssetWeight // first asset drives the step timestamps
	RebalanceInterval int                  // rebalance the index every R steps
	StartPrice        float64              // fallback when the pool has no price at step 0
	FeeShare          []FeeShareStep       // sorted by From ASC
	DistributionAsset string               // prices the ETH-denominated distributions
	BucketPeriod      int64                // aligns step timestamps to pool and fee buckets
}

// DefaultConfig returns the benchmark configuration for query defaults.
func DefaultConfig(q domain.QueryConfig) Config {
	return Config{
		Assets:            q.AssetWeights,
		RebalanceInterval: q.RebalanceIntervalDays,
		StartPrice:        DefaultStartPrice,
		FeeShare:          DefaultFeeShare,
		DistributionAsset: "ETH",
		BucketPeriod:      q.BucketPeriod,
	}
}

// Validate checks the configuration. Returns *domain.ConfigurationError.
func (c Config) Validate() error {
	if len(c.Assets) == 0 {
		return &domain.ConfigurationError{Field: "assetWeights", Reason: "at least one reference asset is required"}
	}
	if c.RebalanceInterval < 1 {
		return &domain.ConfigurationError{Field: "rebalanceIntervalDays", Reason: "must be at least 1"}
	}
	if c.BucketPeriod <= 0 {
		return &domain.ConfigurationError{Field: "bucketPeriod", Reason: "must be positive"}
	}
	if c.StartPrice < 0 {
		return &domain.ConfigurationError{Field: "startPrice", Reason: "must not be negative"}
	}

	total := 0.0
	for _, a := range c.Assets {
		if a.Weight < 0 {
			return &domain.ConfigurationError{Field: "assetWeights", Reason: "negative weight for " + a.Symbol}
		}
		total += a.Weight
	}
	if total > 1+1e-9 {
		return &domain.ConfigurationError{Field: "assetWeights", Reason: fmt.Sprintf("weights sum to %.4f > 1", total)}
	}

	if !sort.SliceIsSorted(c.FeeShare, func(i, j int) bool { return c.FeeShare[i].From < c.FeeShare[j].From }) {
		return &domain.ConfigurationError{Field: "feeShare", Reason: "steps must be sorted by timestamp"}
	}

	return nil
}

func (c Config) stableWeight() float64 {
	return domain.StableWeight(c.Assets)
}

// shareAt returns the fee share in effect at ts. Before the first step the share is 0.
func (c Config) shareAt(ts int64) float64 {
	share := 0.0
	for _, s := range c.FeeShare {
		if ts < s.From {
			break
		}
		share = s.Share
	}
	return share
}
