// Package config loads the YAML service configuration with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
)

// Config is the service configuration shared by every command.
type Config struct {
	Network string `yaml:"network"`

	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`

	ClickHouse struct {
		DSN string `yaml:"dsn"`
	} `yaml:"clickhouse"`

	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Query QueryConfig `yaml:"query"`
}

// QueryConfig mirrors domain.QueryConfig. Zero values fall back to network defaults.
type QueryConfig struct {
	WindowStart           int64                `yaml:"window_start"`
	WindowEnd             int64                `yaml:"window_end"`
	BucketPeriod          int64                `yaml:"bucket_period"`
	MovingAverageDays     int                  `yaml:"moving_average_days"`
	RebalanceIntervalDays int                  `yaml:"rebalance_interval_days"`
	TopSourceCount        int                  `yaml:"top_source_count"`
	AssetWeights          []domain.AssetWeight `yaml:"asset_weights"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Network: chain.Arbitrum}
	cfg.Redis.TTL = 5 * time.Minute
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 10 * time.Second
	return cfg
}

// Load reads a YAML file over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if _, err := chain.Lookup(cfg.Network); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STATS_NETWORK"); v != "" {
		cfg.Network = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.ClickHouse.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Redis.TTL = ttl
		}
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("STATS_WINDOW_START"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Query.WindowStart = ts
		}
	}
	if v := os.Getenv("STATS_WINDOW_END"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Query.WindowEnd = ts
		}
	}
}

// NetworkConfig resolves the configured network.
func (c *Config) NetworkConfig() (*chain.Network, error) {
	return chain.Lookup(c.Network)
}

// DomainQuery builds the validated domain query configuration for the configured network.
func (c *Config) DomainQuery() (domain.QueryConfig, error) {
	net, err := c.NetworkConfig()
	if err != nil {
		return domain.QueryConfig{}, err
	}

	q := net.QueryDefaults()
	q.WindowStart = c.Query.WindowStart
	q.WindowEnd = c.Query.WindowEnd
	if c.Query.BucketPeriod != 0 {
		q.BucketPeriod = c.Query.BucketPeriod
	}
	if c.Query.MovingAverageDays != 0 {
		q.MovingAverageDays = c.Query.MovingAverageDays
	}
	if c.Query.RebalanceIntervalDays != 0 {
		q.RebalanceIntervalDays = c.Query.RebalanceIntervalDays
	}
	if c.Query.TopSourceCount != 0 {
		q.TopSourceCount = c.Query.TopSourceCount
	}
	if len(c.Query.AssetWeights) > 0 {
		q.AssetWeights = append([]domain.AssetWeight(nil), c.Query.AssetWeights...)
	}

	if err := q.Validate(); err != nil {
		return domain.QueryConfig{}, err
	}
	return q, nil
}

// LoadEnvFile sets environment variables from a KEY=VALUE file if it exists.
// Variables already set in the environment are kept.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
