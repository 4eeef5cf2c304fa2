package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protocol-stats/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "arbitrum", cfg.Network)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)

	q, err := cfg.DomainQuery()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBucketPeriod, q.BucketPeriod)
	assert.Equal(t, domain.DefaultTopSourceCount, q.TopSourceCount)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
network: avalanche
postgres:
  dsn: postgres://stats@localhost/stats
redis:
  addr: localhost:6379
  ttl: 1m
query:
  window_start: 1630000000
  moving_average_days: 14
  top_source_count: 5
  asset_weights:
    - symbol: BTC
      weight: 0.3
    - symbol: ETH
      weight: 0.2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "avalanche", cfg.Network)
	assert.Equal(t, "postgres://stats@localhost/stats", cfg.Postgres.DSN)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)

	q, err := cfg.DomainQuery()
	require.NoError(t, err)
	assert.Equal(t, int64(1630000000), q.WindowStart)
	assert.Equal(t, 14, q.MovingAverageDays)
	assert.Equal(t, 5, q.TopSourceCount)
	require.Len(t, q.AssetWeights, 2)
	assert.InDelta(t, 0.5, q.StableWeight(), 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STATS_NETWORK", "base")
	t.Setenv("CLICKHOUSE_DSN", "clickhouse://localhost:9000/stats")
	t.Setenv("REDIS_TTL", "30s")
	t.Setenv("STATS_WINDOW_END", "1700000000")

	cfg, err := Load(writeConfig(t, "network: arbitrum\n"))
	require.NoError(t, err)

	assert.Equal(t, "base", cfg.Network)
	assert.Equal(t, "clickhouse://localhost:9000/stats", cfg.ClickHouse.DSN)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, int64(1700000000), cfg.Query.WindowEnd)
}

func TestLoad_UnknownNetwork(t *testing.T) {
	_, err := Load(writeConfig(t, "network: solana\n"))

	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestDomainQuery_InvalidBucketPeriod(t *testing.T) {
	cfg := Default()
	cfg.Query.BucketPeriod = 5 * 3600 // does not divide 7 days

	_, err := cfg.DomainQuery()
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoadEnvFile(t *testing.T) {
	// Registered so both are restored after the test
	t.Setenv("STATS_TEST_KEEP", "from-env")
	t.Setenv("STATS_TEST_NEW", "")

	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nSTATS_TEST_KEEP=from-file\n\nSTATS_TEST_NEW = postgres://x?a=b\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	LoadEnvFile(path)

	assert.Equal(t, "from-env", os.Getenv("STATS_TEST_KEEP"))
	assert.Equal(t, "postgres://x?a=b", os.Getenv("STATS_TEST_NEW"))

	// Missing file is a no-op
	LoadEnvFile(filepath.Join(t.TempDir(), "missing"))
}
