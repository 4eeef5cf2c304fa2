package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/observability"
	"protocol-stats/internal/storage"
	"protocol-stats/internal/storage/memory"
)

type testStores struct {
	records  *memory.RawRecordStore
	prices   *memory.PriceStore
	progress *memory.LoadProgressStore
	metrics  *observability.Metrics
}

func newTestManager(backfill bool) (*Manager, *testStores) {
	s := &testStores{
		records:  memory.NewRawRecordStore(),
		prices:   memory.NewPriceStore(),
		progress: memory.NewLoadProgressStore(),
		metrics:  observability.NewMetricsWith(prometheus.NewRegistry(), "test"),
	}
	m := NewManager(ManagerOptions{
		RecordStore:   s.records,
		PriceStore:    s.prices,
		ProgressStore: s.progress,
		Metrics:       s.metrics,
		Backfill:      backfill,
	})
	return m, s
}

// feeDump returns a dump with one fee record per day in [from, to).
func feeDump(from, to int) *Dump {
	d := &Dump{
		Network: "arbitrum",
		Records: map[string][]DumpRecord{},
		Prices:  map[string][]DumpPrice{},
	}
	// Written newest first to exercise sorting
	for day := to - 1; day >= from; day-- {
		ts := int64(day) * 86400
		d.Records[domain.SeriesFeeStats] = append(d.Records[domain.SeriesFeeStats], DumpRecord{
			ID:        fmt.Sprintf("fee-%03d", day),
			Timestamp: ts,
			Fields:    map[string]string{"swap": "1000000000000000000000000000000000"},
		})
		d.Prices["ETH"] = append(d.Prices["ETH"], DumpPrice{Timestamp: ts, Price: 2000 + float64(day)})
	}
	return d
}

func storedFees(t *testing.T, s *testStores) []*domain.RawRecord {
	t.Helper()
	got, err := s.records.GetBySeries(context.Background(), "arbitrum", domain.SeriesFeeStats, 0, 0)
	require.NoError(t, err)
	return got
}

func TestIngestDump_FirstLoad(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(false)

	res, err := m.IngestDump(ctx, feeDump(0, 5), "sum-1")
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, 5, res.Records[domain.SeriesFeeStats])
	assert.Equal(t, 5, res.Prices["ETH"])
	assert.Equal(t, 10, res.Inserted())
	assert.Zero(t, res.Stale)
	assert.Zero(t, res.Duplicates)

	fees := storedFees(t, s)
	require.Len(t, fees, 5)
	assert.Equal(t, "fee-000", fees[0].ID)
	assert.Equal(t, "arbitrum", fees[0].Network)

	progress, err := s.progress.GetProgress(ctx, "arbitrum", domain.SeriesFeeStats)
	require.NoError(t, err)
	assert.Equal(t, int64(4*86400), progress.LastTimestamp)
	assert.Equal(t, "fee-004", progress.LastID)
	assert.Equal(t, int64(5), progress.Records)

	loaded, err := s.progress.IsDumpLoaded(ctx, "sum-1")
	require.NoError(t, err)
	assert.True(t, loaded)

	assert.Equal(t, 5.0, testutil.ToFloat64(s.metrics.RecordsLoaded.WithLabelValues("arbitrum", domain.SeriesFeeStats)))
	assert.Equal(t, 5.0, testutil.ToFloat64(s.metrics.PricesLoaded.WithLabelValues("ETH")))
}

func TestIngestDump_SkipsLoadedChecksum(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(false)

	_, err := m.IngestDump(ctx, feeDump(0, 5), "sum-1")
	require.NoError(t, err)

	res, err := m.IngestDump(ctx, feeDump(0, 5), "sum-1")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, res.Inserted())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.DumpsSkipped))
}

func TestIngestDump_ResumesAfterProgress(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(false)

	_, err := m.IngestDump(ctx, feeDump(0, 5), "sum-1")
	require.NoError(t, err)

	// Overlapping export: days 3..7
	res, err := m.IngestDump(ctx, feeDump(3, 8), "sum-2")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Records[domain.SeriesFeeStats])
	assert.Equal(t, 2, res.Stale)
	// Days 3 and 4 prices are already stored
	assert.Equal(t, 3, res.Prices["ETH"])
	assert.Equal(t, 2, res.Duplicates)

	assert.Len(t, storedFees(t, s), 8)

	progress, err := s.progress.GetProgress(ctx, "arbitrum", domain.SeriesFeeStats)
	require.NoError(t, err)
	assert.Equal(t, "fee-007", progress.LastID)
	assert.Equal(t, int64(8), progress.Records)

	prices, err := s.prices.GetBySymbol(ctx, "ETH", 0, 0)
	require.NoError(t, err)
	assert.Len(t, prices, 8)
}

func TestIngestDump_DuplicateFallback(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(false)

	// A record stored out of band, ahead of the progress position
	require.NoError(t, s.records.Insert(ctx, &domain.RawRecord{
		Network:   "arbitrum",
		Series:    domain.SeriesFeeStats,
		ID:        "fee-002",
		Timestamp: 2 * 86400,
	}))

	res, err := m.IngestDump(ctx, feeDump(0, 5), "sum-1")
	require.NoError(t, err)

	assert.Equal(t, 4, res.Records[domain.SeriesFeeStats])
	assert.Equal(t, 1, res.Duplicates)
	assert.Len(t, storedFees(t, s), 5)

	progress, err := s.progress.GetProgress(ctx, "arbitrum", domain.SeriesFeeStats)
	require.NoError(t, err)
	assert.Equal(t, "fee-004", progress.LastID)
	assert.Equal(t, int64(4), progress.Records)
}

func TestIngestDump_Backfill(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(false)

	_, err := m.IngestDump(ctx, feeDump(5, 10), "sum-1")
	require.NoError(t, err)

	// Without backfill older days are stale
	res, err := m.IngestDump(ctx, feeDump(0, 10), "sum-2")
	require.NoError(t, err)
	assert.Equal(t, 10, res.Stale)
	assert.Zero(t, res.Records[domain.SeriesFeeStats])
	assert.Len(t, storedFees(t, s), 5)

	backfill := NewManager(ManagerOptions{
		RecordStore:   s.records,
		PriceStore:    s.prices,
		ProgressStore: s.progress,
		Backfill:      true,
	})
	res, err = backfill.IngestDump(ctx, feeDump(0, 10), "sum-3")
	require.NoError(t, err)

	assert.Equal(t, 5, res.Records[domain.SeriesFeeStats])
	assert.Zero(t, res.Stale)
	assert.Len(t, storedFees(t, s), 10)

	// Progress never moves backwards
	progress, err := s.progress.GetProgress(ctx, "arbitrum", domain.SeriesFeeStats)
	require.NoError(t, err)
	assert.Equal(t, "fee-009", progress.LastID)
	assert.Equal(t, int64(10), progress.Records)
}

func TestIngestDump_DuplicateIDInDump(t *testing.T) {
	m, _ := newTestManager(false)

	d := feeDump(0, 2)
	d.Records[domain.SeriesFeeStats] = append(d.Records[domain.SeriesFeeStats], d.Records[domain.SeriesFeeStats][0])

	_, err := m.IngestDump(context.Background(), d, "sum-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOrdering)
}

func TestIngestDump_NotMarkedOnFailure(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(false)

	d := feeDump(0, 2)
	d.Prices[""] = []DumpPrice{{Timestamp: 0, Price: 1}}

	_, err := m.IngestDump(ctx, d, "sum-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	loaded, err := s.progress.IsDumpLoaded(ctx, "sum-1")
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestRun_FileSource(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(false)

	dir := t.TempDir()
	writeDumpFile(t, dir, "001.json", feeDump(0, 5))
	writeDumpFile(t, dir, "002.json", feeDump(5, 10))
	writeDumpFile(t, dir, "003.json", feeDump(0, 5)) // same content as 001

	src, err := NewFileSource(dir)
	require.NoError(t, err)

	results, err := m.Run(ctx, src)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.False(t, results[0].Skipped)
	assert.False(t, results[1].Skipped)
	assert.True(t, results[2].Skipped)
	assert.Equal(t, results[0].Checksum, results[2].Checksum)
	assert.Len(t, storedFees(t, s), 10)

	dumps, err := s.progress.LoadedDumps(ctx)
	require.NoError(t, err)
	assert.Len(t, dumps, 2)
}

func TestRun_StopsOnError(t *testing.T) {
	m, _ := newTestManager(false)

	dir := t.TempDir()
	writeDumpFile(t, dir, "001.json", feeDump(0, 5))
	writeRaw(t, dir, "002.json", []byte("{not json"))

	src, err := NewFileSource(dir)
	require.NoError(t, err)

	results, err := m.Run(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002.json")
	assert.Len(t, results, 1)
}

func writeDumpFile(t *testing.T, dir, name string, d *Dump) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, d))
	writeRaw(t, dir, name, buf.Bytes())
}
