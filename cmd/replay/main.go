// Package main recomputes a published dashboard bundle from the stores and
// reports every cell that no longer matches.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"protocol-stats/internal/config"
	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/storage"
	chstore "protocol-stats/internal/storage/clickhouse"
	"protocol-stats/internal/storage/memory"
	pgstore "protocol-stats/internal/storage/postgres"
	"protocol-stats/internal/verification"
)

// maxPrinted caps the divergences printed per series.
const maxPrinted = 10

func main() {
	config.LoadEnvFile(".env")

	// Parse flags
	bundlePath := flag.String("bundle", "output/dashboard.json", "Dashboard bundle to verify")
	configPath := flag.String("config", os.Getenv("STATS_CONFIG"), "Path to YAML config file")
	useFixtures := flag.Bool("use-fixtures", false, "Recompute from generated fixtures instead of the databases")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	// Setup structured logger
	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	stored, err := verification.ReadBundleFile(*bundlePath)
	if err != nil {
		logger.Fatalf("read bundle: %v", err)
	}
	logger.Printf("Verifying %s bundle generated at %s", stored.Network, stored.GeneratedAt.Format("2006-01-02 15:04:05"))

	// Create stores
	var records storage.RawRecordStore = memory.NewRawRecordStore()
	var prices storage.PriceStore = memory.NewPriceStore()

	if *useFixtures {
		cfg.Network = stored.Network
		net, err := cfg.NetworkConfig()
		if err != nil {
			logger.Fatalf("network: %v", err)
		}
		if err := pipeline.LoadFixtures(ctx, records, prices, pipeline.GenerateFixtures(net, pipeline.DefaultFixtureOptions())); err != nil {
			logger.Fatalf("load fixtures: %v", err)
		}
	} else {
		if cfg.Postgres.DSN == "" || cfg.ClickHouse.DSN == "" {
			logger.Fatal("postgres and clickhouse DSNs are required (use --use-fixtures for demo data)")
		}
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		chConn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer chConn.Close()

		records = pgstore.NewRawRecordStore(pool)
		prices = chstore.NewPriceStore(chConn)
	}

	verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		Loader: pipeline.NewLoader(records, prices, nil),
		Runner: pipeline.NewRunner(log.New(io.Discard, "", 0), nil),
	})

	report, err := verifier.Verify(ctx, stored)
	if err != nil {
		logger.Fatalf("replay failed: %v", err)
	}

	// Output summary
	if *outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
	} else {
		printReport(report)
	}

	if !report.Match() {
		os.Exit(2)
	}
}

func printReport(report *verification.VerificationReport) {
	fmt.Printf("\n=== Replay Summary ===\n")
	fmt.Printf("Series:     %d\n", report.TotalSeries)
	fmt.Printf("Matched:    %d\n", report.MatchedSeries)
	fmt.Printf("Divergent:  %d\n", report.DivergentSeries)

	for _, r := range report.Results {
		if r.Match {
			continue
		}
		fmt.Printf("\n%s: %d divergences\n", r.Series, len(r.Divergences))
		for i, d := range r.Divergences {
			if i == maxPrinted {
				fmt.Printf("  ... %d more\n", len(r.Divergences)-maxPrinted)
				break
			}
			row := d.Row
			if row == "" {
				row = "-"
			}
			fmt.Printf("  row=%s column=%s stored=%q recomputed=%q\n", row, d.Column, d.Expected, d.Actual)
		}
	}
}
