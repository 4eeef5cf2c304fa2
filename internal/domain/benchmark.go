package domain

// PerformanceSet compares the tracked token against one benchmark.
// Each ratio is tracked / benchmark * 100, NULL when either side is unavailable.
type PerformanceSet struct {
	Raw                *float64 `json:"raw"`
	WithFees           *float64 `json:"withFees"`
	WithDistributedUSD *float64 `json:"withDistributedUsd"`
	WithDistributedETH *float64 `json:"withDistributedEth"`
}

// BenchmarkPoint is one step of the pool token benchmark.
type BenchmarkPoint struct {
	Timestamp int64 `json:"timestamp"`

	// Tracked token
	TokenPrice              *float64 `json:"tokenPrice"`
	TokenPlusFees           *float64 `json:"tokenPlusFees"`
	TokenPlusDistributedUSD *float64 `json:"tokenPlusDistributedUsd"`
	TokenPlusDistributedETH *float64 `json:"tokenPlusDistributedEth"`

	// Reference assets
	AssetPrices map[string]float64 `json:"assetPrices"`

	// Synthetic index
	IndexPrice       float64            `json:"indexPrice"`
	IndexUnits       map[string]float64 `json:"indexUnits"`
	IndexStableUnits float64            `json:"indexStableUnits"`
	StableWeight     float64            `json:"stableWeight"`

	// Constant-product LP per reference asset
	LPPrices map[string]float64 `json:"lpPrices"`

	Index PerformanceSet            `json:"index"`
	LP    map[string]PerformanceSet `json:"lp"`
}

// AssetWeight is a target weight of a reference asset in the synthetic index.
type AssetWeight struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Weight float64 `json:"weight" yaml:"weight"`
}
