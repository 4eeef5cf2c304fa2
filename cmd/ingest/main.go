package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"protocol-stats/internal/cache"
	"protocol-stats/internal/config"
	"protocol-stats/internal/ingestion"
	"protocol-stats/internal/observability"
	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/storage"
	chstore "protocol-stats/internal/storage/clickhouse"
	"protocol-stats/internal/storage/memory"
	"protocol-stats/internal/storage/migrations"
	pgstore "protocol-stats/internal/storage/postgres"
)

func main() {
	config.LoadEnvFile(".env")

	// Parse flags
	mode := flag.String("mode", "load", "Ingestion mode: load or fixtures")
	configPath := flag.String("config", os.Getenv("STATS_CONFIG"), "Path to YAML config file")
	dump := flag.String("dump", "", "Dump file or directory of *.json dumps to load")
	output := flag.String("output", "fixtures.json", "Output path for fixtures mode")
	fixtureDays := flag.Int("fixture-days", pipeline.DefaultFixtureOptions().Days, "Days of fixture data to generate")
	backfill := flag.Bool("backfill", false, "Load records at or before the stored progress too")
	skipMigrations := flag.Bool("skip-migrations", false, "Do not run schema migrations before loading")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of the databases (dry run)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	switch *mode {
	case "load":
		err = runLoad(ctx, logger, cfg, *dump, *backfill, *skipMigrations, *useMemory)
	case "fixtures":
		err = runFixtures(cfg, *output, *fixtureDays)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// runLoad ingests dump files into PostgreSQL and ClickHouse.
func runLoad(ctx context.Context, logger *log.Logger, cfg *config.Config, dump string, backfill, skipMigrations, useMemory bool) error {
	if dump == "" {
		return fmt.Errorf("--dump is required for load mode")
	}
	if !useMemory && (cfg.Postgres.DSN == "" || cfg.ClickHouse.DSN == "") {
		return fmt.Errorf("postgres and clickhouse DSNs are required for load mode (use --use-memory for a dry run)")
	}

	src, err := ingestion.NewFileSource(dump)
	if err != nil {
		return err
	}
	logger.Printf("Found %d dump files", len(src.Paths()))

	// Create stores (use interfaces)
	var recordStore storage.RawRecordStore = memory.NewRawRecordStore()
	var priceStore storage.PriceStore = memory.NewPriceStore()
	var progressStore storage.LoadProgressStore = memory.NewLoadProgressStore()

	if !useMemory {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		var chConn *chstore.Conn
		if skipMigrations {
			chConn, err = chstore.NewConn(ctx, cfg.ClickHouse.DSN)
			if err != nil {
				return fmt.Errorf("connect to clickhouse: %w", err)
			}
		} else {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("postgres migrations: %w", err)
			}
			// The migration runner creates the database, then opens the connection
			chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
			if err != nil {
				return fmt.Errorf("clickhouse migrations: %w", err)
			}
		}
		defer chConn.Close()

		recordStore = pgstore.NewRawRecordStore(pool)
		progressStore = pgstore.NewLoadProgressStore(pool)
		priceStore = chstore.NewPriceStore(chConn)
	}

	manager := ingestion.NewManager(ingestion.ManagerOptions{
		RecordStore:   recordStore,
		PriceStore:    priceStore,
		ProgressStore: progressStore,
		Metrics:       observability.DefaultMetrics,
		Logger:        logger,
		Backfill:      backfill,
	})

	start := time.Now()
	results, err := manager.Run(ctx, src)
	inserted, skipped := 0, 0
	networks := make(map[string]struct{})
	for _, res := range results {
		inserted += res.Inserted()
		if res.Skipped {
			skipped++
			continue
		}
		networks[res.Network] = struct{}{}
	}
	logger.Printf("Loaded %d dumps (%d skipped): %d rows inserted in %v",
		len(results), skipped, inserted, time.Since(start))
	if err != nil {
		return err
	}

	if inserted == 0 || cfg.Redis.Addr == "" {
		return nil
	}

	// Loaded data changes every cached response of the network
	rc, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	if err != nil {
		logger.Printf("Skipping cache invalidation: %v", err)
		return nil
	}
	defer rc.Close()
	for network := range networks {
		if err := rc.Invalidate(ctx, network); err != nil {
			logger.Printf("Cache invalidation for %s failed: %v", network, err)
			continue
		}
		logger.Printf("Invalidated cached responses for %s", network)
	}
	return nil
}

// runFixtures writes a generated fixture dump for the configured network.
func runFixtures(cfg *config.Config, output string, days int) error {
	net, err := cfg.NetworkConfig()
	if err != nil {
		return err
	}

	opts := pipeline.DefaultFixtureOptions()
	opts.Days = days
	in := pipeline.GenerateFixtures(net, opts)

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()

	if err := ingestion.WriteDump(f, ingestion.NewDump(in.Network, in.Records, in.Prices)); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	fmt.Printf("Wrote %d records for %s to %s\n", in.RecordCount(), in.Network, output)
	return nil
}
