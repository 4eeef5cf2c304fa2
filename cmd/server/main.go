// Package main serves the dashboard series over HTTP:
// - /api/<series>: JSON or CSV series, cached in Redis
// - /api/summary, /api/report: headline statistics and Markdown report
// - /health, /status, /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"protocol-stats/internal/api"
	"protocol-stats/internal/cache"
	"protocol-stats/internal/chain"
	"protocol-stats/internal/config"
	"protocol-stats/internal/observability"
	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/storage"
	chstore "protocol-stats/internal/storage/clickhouse"
	"protocol-stats/internal/storage/memory"
	pgstore "protocol-stats/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", os.Getenv("STATS_CONFIG"), "Path to YAML config file")
	network := flag.String("network", "", "Network to serve (overrides config)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	useFixtures := flag.Bool("use-fixtures", false, "Serve generated fixture data from memory instead of the databases")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *network != "" {
		cfg.Network = *network
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	net, err := cfg.NetworkConfig()
	if err != nil {
		logger.Fatalf("Invalid network: %v", err)
	}
	query, err := cfg.DomainQuery()
	if err != nil {
		logger.Fatalf("Invalid query config: %v", err)
	}

	if !*useFixtures && (cfg.Postgres.DSN == "" || cfg.ClickHouse.DSN == "") {
		logger.Fatal("postgres and clickhouse DSNs are required (use --use-fixtures for in-memory demo data)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create stores
	records, prices, checks, cleanup, err := createStores(ctx, cfg, net, *useFixtures)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Response cache
	var responseCache cache.Cache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rc.Close()
		responseCache = rc
		checks = append(checks, api.HealthCheck{Name: "redis", Check: rc.Ping})
		logger.Printf("Caching responses in redis at %s (ttl %v)", cfg.Redis.Addr, cfg.Redis.TTL)
	}

	m := observability.DefaultMetrics
	server := api.NewServer(api.Options{
		Network:        net,
		Query:          query,
		Loader:         pipeline.NewLoader(records, prices, m),
		Runner:         pipeline.NewRunner(log.New(os.Stdout, "[pipeline] ", log.LstdFlags|log.Lshortfile), m),
		Cache:          responseCache,
		Metrics:        m,
		MetricsHandler: observability.Handler(),
		HealthChecks:   checks,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Serving %s on %s", net.Name, cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatalf("HTTP server error: %v", err)
		}
	case <-ctx.Done():
		logger.Println("Received signal, initiating graceful shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores opens the record and price stores and their health checks.
func createStores(ctx context.Context, cfg *config.Config, net *chain.Network, useFixtures bool) (
	storage.RawRecordStore,
	storage.PriceStore,
	[]api.HealthCheck,
	func(),
	error,
) {
	if useFixtures {
		records, prices := memory.NewRawRecordStore(), memory.NewPriceStore()
		in := pipeline.GenerateFixtures(net, pipeline.DefaultFixtureOptions())
		if err := pipeline.LoadFixtures(ctx, records, prices, in); err != nil {
			return nil, nil, nil, nil, err
		}
		return records, prices, nil, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	// ClickHouse
	chConn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, nil, err
	}

	checks := []api.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "clickhouse", Check: chConn.Ping},
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return pgstore.NewRawRecordStore(pool), chstore.NewPriceStore(chConn), checks, cleanup, nil
}
