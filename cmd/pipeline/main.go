// Package main provides E2E pipeline entry point.
// Executes: fixtures → dump → ingestion → series → reporting → replay verification
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/ingestion"
	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/reporting"
	"protocol-stats/internal/storage/memory"
	"protocol-stats/internal/verification"
)

func main() {
	// Parse flags
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	network := flag.String("network", chain.Arbitrum, "Network to generate fixtures for")
	days := flag.Int("days", pipeline.DefaultFixtureOptions().Days, "Days of fixture data")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling pipeline...\n", sig)
		cancel()
	}()

	logOut := io.Discard
	if *verbose {
		logOut = os.Stdout
	}
	logger := log.New(logOut, "[pipeline] ", log.LstdFlags)

	net, err := chain.Lookup(*network)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Phase 1: Fixture dump
	fmt.Println("=== E2E Pipeline ===")
	opts := pipeline.DefaultFixtureOptions()
	opts.Days = *days
	in := pipeline.GenerateFixtures(net, opts)

	var dump bytes.Buffer
	if err := ingestion.WriteDump(&dump, ingestion.NewDump(in.Network, in.Records, in.Prices)); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing dump: %v\n", err)
		os.Exit(1)
	}
	d, checksum, err := ingestion.ReadDump(&dump)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading dump: %v\n", err)
		os.Exit(1)
	}

	// Phase 2: Ingestion
	records, prices, progress := memory.NewRawRecordStore(), memory.NewPriceStore(), memory.NewLoadProgressStore()
	manager := ingestion.NewManager(ingestion.ManagerOptions{
		RecordStore:   records,
		PriceStore:    prices,
		ProgressStore: progress,
		Logger:        logger,
	})
	loaded, err := manager.IngestDump(ctx, d, checksum)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingestion error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingestion completed:\n")
	fmt.Printf("  Dump: %s\n", checksum[:12])
	fmt.Printf("  Rows: %d\n", loaded.Inserted())

	// Phase 3: Series
	cfg := net.QueryDefaults()
	loader := pipeline.NewLoader(records, prices, nil)
	inputs, err := loader.Load(ctx, net.Name, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		os.Exit(1)
	}

	// Fixed clock for deterministic output
	fixedTime := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	runner := pipeline.NewRunner(logger, nil).WithClock(func() time.Time { return fixedTime })
	dashboard, err := runner.Run(inputs, net, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	// Phase 4: Reporting
	fmt.Println("\n=== Reporting ===")
	report := reporting.NewGenerator().WithClock(func() time.Time { return fixedTime }).Generate(dashboard, inputs)
	paths, err := reporting.WriteAll(*outputDir, dashboard, report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reporting error: %v\n", err)
		os.Exit(1)
	}

	// Phase 5: Replay verification of the written bundle
	fmt.Println("\n=== Replay Verification ===")
	stored, err := verification.ReadBundleFile(filepath.Join(*outputDir, reporting.BundleFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification error: %v\n", err)
		os.Exit(1)
	}
	verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{Loader: loader, Runner: runner})
	result, err := verifier.Verify(ctx, stored)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Matched: %d/%d series\n", result.MatchedSeries, result.TotalSeries)
	if !result.Match() {
		fmt.Fprintln(os.Stderr, "Replay diverged from the written bundle")
		os.Exit(1)
	}

	fmt.Println("\nE2E Pipeline completed successfully:")
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
}
