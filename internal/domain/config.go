package domain

import "fmt"

// Query defaults.
const (
	DefaultBucketPeriod          = SecondsPerDay
	DefaultMovingAverageDays     = 7
	DefaultRebalanceIntervalDays = 1
	DefaultTopSourceCount        = 30
)

// QueryConfig bundles the per-invocation parameters of every series computation.
type QueryConfig struct {
	WindowStart           int64         // inclusive, Unix seconds; 0 = unbounded
	WindowEnd             int64         // inclusive, Unix seconds; 0 = unbounded
	BucketPeriod          int64         // seconds per bucket
	MovingAverageDays     int           // trailing average window
	RebalanceIntervalDays int           // synthetic index rebalance interval
	TopSourceCount        int           // sources kept before "Other"
	AssetWeights          []AssetWeight // synthetic index weights, first asset drives steps
}

// DefaultQueryConfig returns the dashboard defaults with BTC/ETH 25% weights.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		BucketPeriod:          DefaultBucketPeriod,
		MovingAverageDays:     DefaultMovingAverageDays,
		RebalanceIntervalDays: DefaultRebalanceIntervalDays,
		TopSourceCount:        DefaultTopSourceCount,
		AssetWeights: []AssetWeight{
			{Symbol: "BTC", Weight: 0.25},
			{Symbol: "ETH", Weight: 0.25},
		},
	}
}

// WithDefaults fills zero-valued fields with defaults.
func (c QueryConfig) WithDefaults() QueryConfig {
	if c.BucketPeriod == 0 {
		c.BucketPeriod = DefaultBucketPeriod
	}
	if c.MovingAverageDays == 0 {
		c.MovingAverageDays = DefaultMovingAverageDays
	}
	if c.RebalanceIntervalDays == 0 {
		c.RebalanceIntervalDays = DefaultRebalanceIntervalDays
	}
	if c.TopSourceCount == 0 {
		c.TopSourceCount = DefaultTopSourceCount
	}
	return c
}

// Validate checks the configuration. Returns *ConfigurationError.
func (c QueryConfig) Validate() error {
	if c.BucketPeriod <= 0 {
		return &ConfigurationError{Field: "bucketPeriod", Reason: "must be positive"}
	}
	if c.MovingAverageDays <= 0 {
		return &ConfigurationError{Field: "movingAverageDays", Reason: "must be positive"}
	}
	if (int64(c.MovingAverageDays)*SecondsPerDay)%c.BucketPeriod != 0 {
		return &ConfigurationError{
			Field:  "bucketPeriod",
			Reason: fmt.Sprintf("%ds does not divide the %d day moving average window", c.BucketPeriod, c.MovingAverageDays),
		}
	}
	if c.RebalanceIntervalDays <= 0 {
		return &ConfigurationError{Field: "rebalanceIntervalDays", Reason: "must be positive"}
	}
	if c.TopSourceCount < 0 {
		return &ConfigurationError{Field: "topSourceCount", Reason: "must not be negative"}
	}
	if c.WindowEnd != 0 && c.WindowStart > c.WindowEnd {
		return &ConfigurationError{Field: "windowEnd", Reason: "must not be before windowStart"}
	}

	total := 0.0
	seen := make(map[string]struct{}, len(c.AssetWeights))
	for _, w := range c.AssetWeights {
		if w.Symbol == "" {
			return &ConfigurationError{Field: "assetWeights", Reason: "symbol is required"}
		}
		if _, dup := seen[w.Symbol]; dup {
			return &ConfigurationError{Field: "assetWeights", Reason: "duplicate symbol " + w.Symbol}
		}
		seen[w.Symbol] = struct{}{}
		if w.Weight < 0 {
			return &ConfigurationError{Field: "assetWeights", Reason: "negative weight for " + w.Symbol}
		}
		total += w.Weight
	}
	if total > 1+1e-9 {
		return &ConfigurationError{Field: "assetWeights", Reason: fmt.Sprintf("weights sum to %.4f > 1", total)}
	}

	return nil
}

// InWindow reports whether ts lies in [WindowStart, WindowEnd]. Zero bounds are open.
func (c QueryConfig) InWindow(ts int64) bool {
	if c.WindowStart != 0 && ts < c.WindowStart {
		return false
	}
	if c.WindowEnd != 0 && ts > c.WindowEnd {
		return false
	}
	return true
}

// StableWeight returns the non-volatile remainder of the asset weights.
func (c QueryConfig) StableWeight() float64 {
	return StableWeight(c.AssetWeights)
}

// StableWeight returns 1 minus the summed weights, floored at 0.
func StableWeight(weights []AssetWeight) float64 {
	total := 0.0
	for _, w := range weights {
		total += w.Weight
	}
	if total >= 1 {
		return 0
	}
	return 1 - total
}
