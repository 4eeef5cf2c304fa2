package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/sources"
)

func TestSwapSources_TopKScenario(t *testing.T) {
	net := arbitrum(t)
	const (
		oneInch = "0x1111111254FB6C44BAC0BED2854E76F90643097D" // checksum case
		dodo    = "0x3b6067d4caa8a14c63fdbe6318f27a0bbc9f9237"
		unknown = "0x00000000000000000000000000000000000000c0"
	)

	records := []*domain.RawRecord{
		rec(0, oneInch, "swap", usd(60)),
		rec(3600, unknown, "swap", usd(4)),
		rec(7200, dodo, "swap", usd(50)),
		rec(day, oneInch, "swap", usd(40)),
		rec(day+3600, unknown, "swap", usd(6)),
		rec(day+7200, dodo, "swap", "0"),
	}

	cfg := defaultConfig()
	cfg.TopSourceCount = 2

	s, err := SwapSources(records, net, cfg)
	require.NoError(t, err)
	require.Len(t, s.Points, 2)

	assert.Equal(t, []string{"1inch", "Dodo"}, s.Sources)

	other := 0.0
	for _, p := range s.Points {
		other += p.Sources[sources.Other]
		_, raw := p.Sources[unknown]
		assert.False(t, raw, "unranked source must be relabeled")
	}
	assert.Equal(t, 10.0, other)

	assert.Equal(t, 114.0, s.Points[0].All)
	assert.Equal(t, 46.0, s.Points[1].All)
	assert.Equal(t, 160.0, *s.Summary.Total)
}

func TestFundingRate(t *testing.T) {
	// 100 units over one day: 100 / 1 / 10000 * 365
	assert.InDelta(t, 3.65, FundingRate(1000, 1100, 0, day), 1e-12)
	// elapsed time floored to the hour: 25h59m -> 25h
	assert.InDelta(t, 100/(25.0/24)/10000*365, FundingRate(1000, 1100, 0, 25*3600+3599), 1e-12)
	assert.Equal(t, 0.0, FundingRate(0, 1100, 0, day))
	assert.Equal(t, 0.0, FundingRate(1000, 1100, 0, 1800))
}

func TestFundingRates(t *testing.T) {
	net := arbitrum(t)
	const btc = "0x1AcF131de5Bbc72aE96eE5EC7b59dA2f38b19DBd"
	const eth = "0x4200000000000000000000000000000000000006"

	records := []*domain.RawRecord{
		rec(0, btc, "startFundingRate", "1000", "endFundingRate", "1100", "startTimestamp", "0", "endTimestamp", "86400"),
		rec(0, "MIM", "startFundingRate", "1", "endFundingRate", "9", "startTimestamp", "0", "endTimestamp", "86400"),
		rec(day, btc, "startFundingRate", "1100", "endFundingRate", "1300", "startTimestamp", "86400", "endTimestamp", "172800"),
		rec(day, eth, "startFundingRate", "500", "endFundingRate", "600", "startTimestamp", "86400", "endTimestamp", "172800"),
		rec(2*day, eth, "startFundingRate", "600", "endFundingRate", "700", "startTimestamp", "172800", "endTimestamp", "259200"),
	}

	s, err := FundingRates(records, net, defaultConfig())
	require.NoError(t, err)
	require.Len(t, s.Points, 3)

	_, hasMIM := s.Points[0].Rates["MIM"]
	assert.False(t, hasMIM)
	assert.InDelta(t, 3.65, s.Points[0].Rates["BTC"], 1e-12)
	_, hasETH := s.Points[0].Rates["ETH"]
	assert.False(t, hasETH, "leading gap stays unfilled")

	assert.InDelta(t, 7.3, s.Points[1].Rates["BTC"], 1e-12)
	assert.InDelta(t, 3.65, s.Points[1].Rates["ETH"], 1e-12)

	// BTC missing on day 2: carried forward
	assert.InDelta(t, 7.3, s.Points[2].Rates["BTC"], 1e-12)
	assert.InDelta(t, 3.65, s.Points[2].Rates["ETH"], 1e-12)
}

func TestUsers(t *testing.T) {
	records := []*domain.RawRecord{
		rec(0, "",
			"uniqueCount", "10", "uniqueSwapCount", "4", "uniqueMarginCount", "5", "uniqueMintBurnCount", "2",
			"uniqueCountCumulative", "10", "uniqueSwapCountCumulative", "4",
			"uniqueMarginCountCumulative", "5", "uniqueMintBurnCountCumulative", "2",
			"actionCount", "30"),
		rec(day, "",
			"uniqueCount", "8", "uniqueSwapCount", "3", "uniqueMarginCount", "4", "uniqueMintBurnCount", "1",
			"uniqueCountCumulative", "14", "uniqueSwapCountCumulative", "6",
			"uniqueMarginCountCumulative", "7", "uniqueMintBurnCountCumulative", "2",
			"actionCount", "20"),
	}

	s, err := Users(records, defaultConfig())
	require.NoError(t, err)
	require.Len(t, s.Points, 2)

	p0 := s.Points[0]
	assert.Equal(t, 10.0, p0.NewCount)
	assert.Equal(t, 0.0, p0.OldCount)
	assert.Equal(t, 11.0, p0.UniqueSum)
	require.NotNil(t, p0.OldPercent)
	assert.Equal(t, 0.0, *p0.OldPercent)

	p1 := s.Points[1]
	assert.Equal(t, 4.0, p1.NewCount)
	assert.Equal(t, 2.0, p1.NewSwapCount)
	assert.Equal(t, 2.0, p1.NewMarginCount)
	assert.Equal(t, 0.0, p1.NewMintBurnCount)
	assert.Equal(t, 4.0, p1.OldCount)
	assert.Equal(t, 50.0, *p1.OldPercent)
	assert.Equal(t, 14.0, p1.CumulativeNewUserCount)
	assert.Equal(t, 20.0, p1.ActionCount)

	assert.Equal(t, 14.0, *s.Summary.Total)
}

func TestUsers_ZeroUniqueHasNoPercent(t *testing.T) {
	s, err := Users([]*domain.RawRecord{rec(0, "", "uniqueCount", "0")}, defaultConfig())
	require.NoError(t, err)
	require.Len(t, s.Points, 1)
	assert.Nil(t, s.Points[0].OldPercent)
}

func TestTraders(t *testing.T) {
	records := []*domain.RawRecord{
		rec(0, "", "profit", usd(10), "loss", usd(4), "profitCumulative", usd(10), "lossCumulative", usd(4),
			"longOpenInterest", usd(100), "shortOpenInterest", usd(50)),
		rec(day, "", "profit", usd(2), "loss", usd(20), "profitCumulative", usd(12), "lossCumulative", usd(24)),
		// same bucket, later snapshot wins
		rec(day+60, "", "profit", usd(3), "loss", usd(20), "profitCumulative", usd(13), "lossCumulative", usd(24)),
	}

	s, err := Traders(records, defaultConfig())
	require.NoError(t, err)
	require.Len(t, s.Points, 2)

	p0 := s.Points[0]
	assert.Equal(t, 150.0, p0.OpenInterest)
	assert.Equal(t, -4.0, p0.Loss)
	assert.Equal(t, 6.0, p0.PnL)
	assert.Equal(t, -4.0, p0.LossCumulative)

	p1 := s.Points[1]
	assert.Equal(t, int64(day), p1.Timestamp)
	assert.Equal(t, 3.0, p1.Profit)
	assert.Equal(t, -17.0, p1.PnL)
	assert.Equal(t, -11.0, p1.PnLCumulative)
	assert.Equal(t, -11.0, p1.CurrentPnLCumulative)
	assert.Equal(t, 13.0, p1.CurrentProfitCumulative)
	assert.Equal(t, -24.0, p1.CurrentLossCumulative)

	st := s.Stats
	assert.Equal(t, 10.0, st.MaxProfit)
	assert.Equal(t, -20.0, st.MaxLoss)
	assert.Equal(t, 20.0, st.MaxProfitLoss)
	assert.Equal(t, 24.0, st.MaxCurrentCumulativeProfitLoss)
	assert.Equal(t, 17.0, st.MaxAbsPnL)
	assert.Equal(t, 11.0, st.MaxAbsCumulativePnL)

	// daily pnl 6 then -17
	require.NotNil(t, s.Summary.MaxDrawdown)
	assert.Equal(t, 23.0, *s.Summary.MaxDrawdown)
}

func TestReferrals(t *testing.T) {
	records := []*domain.RawRecord{
		rec(0, "", "volume", usd(1000), "totalRebateUsd", usd(10), "discountUsd", usd(4),
			"referrersCount", "3", "referralsCountCumulative", "12"),
	}

	s, err := Referrals(records, defaultConfig())
	require.NoError(t, err)
	require.Len(t, s.Points, 1)

	p := s.Points[0]
	assert.Equal(t, 1000.0, p.Volume)
	assert.Equal(t, 6.0, p.ReferrerRebateUSD)
	assert.Equal(t, int64(3), p.ReferrersCount)
	assert.Equal(t, int64(12), p.ReferralsCountCumulative)
	assert.Equal(t, int64(0), p.ReferralCodesCount)
}
