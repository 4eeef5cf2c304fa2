package domain

// SecondsPerDay is the default bucket period.
const SecondsPerDay int64 = 86400

// TimeSeriesPoint is one bucket of named decimal fields.
// A key present with 0 is an explicit zero, an absent key is missing.
type TimeSeriesPoint struct {
	Timestamp int64              // bucket start, Unix seconds
	Fields    map[string]float64 // field name -> value
}

// Value returns a field value and whether it is present.
func (p *TimeSeriesPoint) Value(name string) (float64, bool) {
	if p == nil || p.Fields == nil {
		return 0, false
	}
	v, ok := p.Fields[name]
	return v, ok
}

// Clone returns a deep copy of the point.
func (p *TimeSeriesPoint) Clone() *TimeSeriesPoint {
	fields := make(map[string]float64, len(p.Fields))
	for k, v := range p.Fields {
		fields[k] = v
	}
	return &TimeSeriesPoint{Timestamp: p.Timestamp, Fields: fields}
}

// CumulativePoint is a bucket with running total and trailing average.
type CumulativePoint struct {
	Timestamp        int64              `json:"timestamp"`
	Fields           map[string]float64 `json:"fields"`
	All              float64            `json:"all"`
	Cumulative       float64            `json:"cumulative"`
	MovingAverageAll *float64           `json:"movingAverageAll"` // NULL until the window has history
	UniqueAccounts   *uint64            `json:"uniqueAccounts,omitempty"`
}

// SourceVolumePoint is the per-source volume breakdown for one bucket.
type SourceVolumePoint struct {
	Timestamp int64              `json:"timestamp"`
	Sources   map[string]float64 `json:"sources"`
	All       float64            `json:"all"`
}

// PoolPoint is a normalized liquidity pool snapshot.
type PoolPoint struct {
	Timestamp                       int64    `json:"timestamp"`
	AUM                             *float64 `json:"aum"`
	Supply                          *float64 `json:"supply"`
	Price                           *float64 `json:"price"` // AUM / supply, NULL if supply is zero
	DistributedUSDPerUnit           float64  `json:"distributedUsdPerUnit"`
	DistributedETHPerUnit           float64  `json:"distributedEthPerUnit"`
	CumulativeDistributedUSDPerUnit float64  `json:"cumulativeDistributedUsdPerUnit"`
	CumulativeDistributedETHPerUnit float64  `json:"cumulativeDistributedEthPerUnit"`
	SupplyChange                    float64  `json:"supplyChange"` // percent vs previous point
	AUMChange                       float64  `json:"aumChange"`    // percent vs previous point
}

// FundingRatePoint holds annualized funding rates per token symbol.
type FundingRatePoint struct {
	Timestamp int64              `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

// UserPoint is a daily user activity snapshot.
type UserPoint struct {
	Timestamp              int64    `json:"timestamp"`
	UniqueCount            float64  `json:"uniqueCount"`
	UniqueSum              float64  `json:"uniqueSum"`
	NewCount               float64  `json:"newCount"`
	NewSwapCount           float64  `json:"newSwapCount"`
	NewMarginCount         float64  `json:"newMarginCount"`
	NewMintBurnCount       float64  `json:"newMintBurnCount"`
	OldCount               float64  `json:"oldCount"`
	OldPercent             *float64 `json:"oldPercent"`
	CumulativeNewUserCount float64  `json:"cumulativeNewUserCount"`
	ActionCount            float64  `json:"actionCount"`
	ActionSwapCount        float64  `json:"actionSwapCount"`
	ActionMarginCount      float64  `json:"actionMarginCount"`
	ActionMintBurnCount    float64  `json:"actionMintBurnCount"`
}

// TraderPoint is a daily trading profit/loss snapshot.
type TraderPoint struct {
	Timestamp               int64   `json:"timestamp"`
	LongOpenInterest        float64 `json:"longOpenInterest"`
	ShortOpenInterest       float64 `json:"shortOpenInterest"`
	OpenInterest            float64 `json:"openInterest"`
	Profit                  float64 `json:"profit"`
	Loss                    float64 `json:"loss"` // stored negative
	ProfitCumulative        float64 `json:"profitCumulative"`
	LossCumulative          float64 `json:"lossCumulative"` // stored negative
	PnL                     float64 `json:"pnl"`
	PnLCumulative           float64 `json:"pnlCumulative"`
	CurrentPnLCumulative    float64 `json:"currentPnlCumulative"`
	CurrentProfitCumulative float64 `json:"currentProfitCumulative"`
	CurrentLossCumulative   float64 `json:"currentLossCumulative"`
}

// TraderStats summarizes a trader series.
type TraderStats struct {
	MaxProfit                      float64 `json:"maxProfit"`
	MaxLoss                        float64 `json:"maxLoss"`
	MaxProfitLoss                  float64 `json:"maxProfitLoss"`
	CurrentProfitCumulative        float64 `json:"currentProfitCumulative"`
	CurrentLossCumulative          float64 `json:"currentLossCumulative"`
	MaxCurrentCumulativeProfitLoss float64 `json:"maxCurrentCumulativeProfitLoss"`
	MaxAbsPnL                      float64 `json:"maxAbsPnl"`
	MaxAbsCumulativePnL            float64 `json:"maxAbsCumulativePnl"`
}

// ReferralPoint is a daily referral program snapshot.
type ReferralPoint struct {
	Timestamp                    int64   `json:"timestamp"`
	Volume                       float64 `json:"volume"`
	VolumeCumulative             float64 `json:"volumeCumulative"`
	TotalRebateUSD               float64 `json:"totalRebateUsd"`
	TotalRebateUSDCumulative     float64 `json:"totalRebateUsdCumulative"`
	DiscountUSD                  float64 `json:"discountUsd"`
	DiscountUSDCumulative        float64 `json:"discountUsdCumulative"`
	ReferrerRebateUSD            float64 `json:"referrerRebateUsd"`
	ReferrersCount               int64   `json:"referrersCount"`
	ReferrersCountCumulative     int64   `json:"referrersCountCumulative"`
	ReferralCodesCount           int64   `json:"referralCodesCount"`
	ReferralCodesCountCumulative int64   `json:"referralCodesCountCumulative"`
	ReferralsCount               int64   `json:"referralsCount"`
	ReferralsCountCumulative     int64   `json:"referralsCountCumulative"`
}

// PoolAmountPoint is the USD pool amount per token for one bucket.
type PoolAmountPoint struct {
	Timestamp int64              `json:"timestamp"`
	Tokens    map[string]float64 `json:"tokens"`
	All       float64            `json:"all"`
}

// YieldPoint holds fee yield and pool usage ratios for one bucket.
type YieldPoint struct {
	Timestamp    int64    `json:"timestamp"`
	APR          *float64 `json:"apr"`   // NULL when unavailable or above the sanity ceiling
	Usage        *float64 `json:"usage"` // NULL when unavailable or above the sanity ceiling
	AverageAPR   *float64 `json:"averageApr"`
	AverageUsage *float64 `json:"averageUsage"`
}

// Summary holds scalar statistics over one field of a series.
// All values are NULL for an empty series.
type Summary struct {
	Field  string   `json:"field"`
	Count  int      `json:"count"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Total  *float64 `json:"total"`
	Last   *float64 `json:"last"`
	Stddev *float64 `json:"stddev"` // sample stddev, NULL below 2 values

	MaxDrawdown *float64 `json:"maxDrawdown"` // worst fall of the values from a running peak
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
