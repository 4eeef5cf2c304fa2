package pipeline

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/observability"
	"protocol-stats/internal/stats"
	"protocol-stats/internal/storage/memory"
)

func network(t *testing.T, name string) *chain.Network {
	t.Helper()
	net, err := chain.Lookup(name)
	require.NoError(t, err)
	return net
}

func testRunner() *Runner {
	logger := log.New(io.Discard, "", 0)
	clock := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return NewRunner(logger, nil).WithClock(clock)
}

func TestGenerateFixtures_Deterministic(t *testing.T) {
	net := network(t, chain.Arbitrum)

	a := GenerateFixtures(net, DefaultFixtureOptions())
	b := GenerateFixtures(net, DefaultFixtureOptions())
	assert.Equal(t, a, b)

	for _, series := range domain.AllSeries {
		assert.NotEmpty(t, a.Records[series], series)
	}
	assert.Len(t, a.Records[domain.SeriesVolumeStats], 30)
	assert.Len(t, a.Prices["BTC"], 30)
	assert.Len(t, a.Prices["ETH"], 30)
}

func TestLoader_RoundTrip(t *testing.T) {
	ctx := context.Background()
	net := network(t, chain.Arbitrum)
	in := GenerateFixtures(net, DefaultFixtureOptions())

	records, prices := memory.NewRawRecordStore(), memory.NewPriceStore()
	require.NoError(t, LoadFixtures(ctx, records, prices, in))

	cfg := net.QueryDefaults()
	loaded, err := NewLoader(records, prices, nil).Load(ctx, net.Name, cfg)
	require.NoError(t, err)

	assert.Equal(t, in.RecordCount(), loaded.RecordCount())
	assert.Len(t, loaded.Prices, 2)

	// Window bounds are pushed down to the record store; prices keep their history
	cfg.WindowStart = FixtureStart + 10*domain.SecondsPerDay
	windowed, err := NewLoader(records, prices, nil).Load(ctx, net.Name, cfg)
	require.NoError(t, err)
	assert.Len(t, windowed.Records[domain.SeriesVolumeStats], 20)
	assert.Len(t, windowed.Prices["ETH"], 30)
}

func TestLoader_RecordsQueryMetrics(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetricsWith(prometheus.NewRegistry(), "test")

	_, err := NewLoader(memory.NewRawRecordStore(), memory.NewPriceStore(), m).
		Load(ctx, chain.Base, domain.DefaultQueryConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(m.DBQueryDuration))
}

func TestRunner_FixtureDashboard(t *testing.T) {
	net := network(t, chain.Arbitrum)
	in := GenerateFixtures(net, DefaultFixtureOptions())

	d, err := testRunner().Run(in, net, net.QueryDefaults())
	require.NoError(t, err)

	assert.Equal(t, chain.Arbitrum, d.Network)
	assert.Equal(t, 30, d.Volume.Len())
	assert.Equal(t, 30, d.VolumeFromActions.Len())
	assert.Equal(t, 30, d.Fees.Len())
	assert.Equal(t, 30, d.SwapSources.Len())
	assert.Equal(t, 30, d.FundingRates.Len())
	assert.Equal(t, 30, d.Users.Len())
	assert.Equal(t, 30, d.Traders.Len())
	assert.Equal(t, 30, d.Referrals.Len())
	assert.Equal(t, 30, d.PoolAmounts.Len())
	assert.Equal(t, 30, d.Pool.Len())
	require.NotNil(t, d.PoolPerformance)
	assert.Equal(t, 30, d.PoolPerformance.Len())
	assert.NotNil(t, d.Yield)
	assert.Empty(t, d.Warnings)

	assert.Greater(t, d.TotalActionVolume, 0.0)
	assert.True(t, d.Coverage.AllPass, "coverage errors: %v", d.Coverage.Errors)

	for _, name := range stats.Names {
		_, ok := d.Series(name)
		assert.True(t, ok, name)
	}
	_, ok := d.Series("unknown")
	assert.False(t, ok)

	assert.Len(t, d.Summaries(), len(stats.Names))
}

func TestRunner_Deterministic(t *testing.T) {
	net := network(t, chain.Arbitrum)
	in := GenerateFixtures(net, DefaultFixtureOptions())

	first, err := testRunner().Run(in, net, net.QueryDefaults())
	require.NoError(t, err)

	// Field maps are summed in key order, so repeated runs agree bit for bit
	for i := 0; i < 10; i++ {
		d, err := testRunner().Run(in, net, net.QueryDefaults())
		require.NoError(t, err)
		require.Equal(t, first.Volume, d.Volume)
		require.Equal(t, first.Fees, d.Fees)
		require.Equal(t, first.SwapSources, d.SwapSources)
		require.Equal(t, first.FundingRates, d.FundingRates)
		require.Equal(t, first.PoolAmounts, d.PoolAmounts)
	}
}

func TestRunner_MissingPricesSkipsPerformance(t *testing.T) {
	net := network(t, chain.Arbitrum)
	in := GenerateFixtures(net, DefaultFixtureOptions())
	in.Prices = map[string][]*domain.PricePoint{}

	d, err := testRunner().Run(in, net, net.QueryDefaults())
	require.NoError(t, err)

	assert.Nil(t, d.PoolPerformance)
	assert.Len(t, d.Warnings, 1)
	assert.False(t, d.Coverage.AllPass)

	_, ok := d.Series(stats.NamePoolPerformance)
	assert.False(t, ok)
	assert.Len(t, d.Summaries(), len(stats.Names)-1)
}

func TestRunner_InvalidConfig(t *testing.T) {
	net := network(t, chain.Arbitrum)
	cfg := net.QueryDefaults()
	cfg.BucketPeriod = 0

	_, err := testRunner().Run(&Inputs{}, net, cfg)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRunner_RecordsMetrics(t *testing.T) {
	net := network(t, chain.Arbitrum)
	m := observability.NewMetricsWith(prometheus.NewRegistry(), "test")
	r := NewRunner(log.New(io.Discard, "", 0), m)

	_, err := r.Run(GenerateFixtures(net, DefaultFixtureOptions()), net, net.QueryDefaults())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SeriesComputed.WithLabelValues(stats.NameFees, "ok")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.SeriesPoints.WithLabelValues(chain.Arbitrum, stats.NamePool)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRunsTotal.WithLabelValues("dashboard", "ok")))
}

func TestCheckCoverage_Gaps(t *testing.T) {
	cfg := domain.DefaultQueryConfig()
	day := domain.SecondsPerDay

	var volume []*domain.RawRecord
	for _, d := range []int64{0, 1, 2, 4, 5} {
		volume = append(volume, &domain.RawRecord{ID: "v", Timestamp: d * day})
	}
	in := &Inputs{
		Records: map[string][]*domain.RawRecord{
			domain.SeriesVolumeStats: volume,
			domain.SeriesPoolStats:   {{ID: "p", Timestamp: day + 5}},
		},
		Prices: map[string][]*domain.PricePoint{"BTC": {{Symbol: "BTC", Timestamp: 0, Price: 1}}},
	}

	result := CheckCoverage(in, cfg)
	require.Len(t, result.Checks, 5)
	assert.False(t, result.AllPass)

	byName := make(map[string]CoverageCheck)
	for _, c := range result.Checks {
		byName[c.Name] = c
	}
	assert.False(t, byName["Raw series with records"].Pass)
	assert.Equal(t, "3 buckets (5 total)", byName["Continuous volume buckets"].Actual)
	assert.Equal(t, "1", byName["Duplicate record id count"].Actual)
	assert.Equal(t, "1", byName["Benchmark assets with prices"].Actual)
	assert.Equal(t, "0 of 1", byName["Bucket-aligned pool snapshots"].Actual)
	assert.Contains(t, result.Errors, "no prices for benchmark asset ETH")
	assert.Contains(t, result.Errors, "duplicate record id in volume_stats: v (count=5)")
}
