package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"protocol-stats/internal/config"
	"protocol-stats/internal/observability"
	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/reporting"
	"protocol-stats/internal/storage"
	chstore "protocol-stats/internal/storage/clickhouse"
	"protocol-stats/internal/storage/memory"
	pgstore "protocol-stats/internal/storage/postgres"
)

func main() {
	config.LoadEnvFile(".env")

	// Parse flags
	configPath := flag.String("config", os.Getenv("STATS_CONFIG"), "Path to YAML config file")
	network := flag.String("network", "", "Network to report on (overrides config)")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	from := flag.Int64("from", 0, "Window start, Unix seconds (overrides config)")
	to := flag.Int64("to", 0, "Window end, Unix seconds (overrides config)")
	useFixtures := flag.Bool("use-fixtures", false, "Use generated fixtures instead of database")
	fixtureDays := flag.Int("fixture-days", pipeline.DefaultFixtureOptions().Days, "Days of fixture data to generate")
	verbose := flag.Bool("verbose", false, "Log pipeline progress")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *network != "" {
		cfg.Network = *network
	}
	if *from != 0 {
		cfg.Query.WindowStart = *from
	}
	if *to != 0 {
		cfg.Query.WindowEnd = *to
	}

	net, err := cfg.NetworkConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	query, err := cfg.DomainQuery()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Validate flags
	if !*useFixtures && (cfg.Postgres.DSN == "" || cfg.ClickHouse.DSN == "") {
		fmt.Fprintln(os.Stderr, "Error: postgres and clickhouse DSNs are required when not using fixtures")
		fmt.Fprintln(os.Stderr, "Use --use-fixtures to run with demo data instead")
		os.Exit(1)
	}

	var (
		records storage.RawRecordStore
		prices  storage.PriceStore
	)
	if *useFixtures {
		records, prices = memory.NewRawRecordStore(), memory.NewPriceStore()
		opts := pipeline.DefaultFixtureOptions()
		opts.Days = *fixtureDays
		if err := pipeline.LoadFixtures(ctx, records, prices, pipeline.GenerateFixtures(net, opts)); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
			os.Exit(1)
		}
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to databases: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()

		chConn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to databases: %v\n", err)
			os.Exit(1)
		}
		defer chConn.Close()

		records, prices = pgstore.NewRawRecordStore(pool), chstore.NewPriceStore(chConn)
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stdout
	}
	logger := log.New(logOut, "[report] ", log.LstdFlags)
	m := observability.DefaultMetrics

	start := time.Now()
	in, err := pipeline.NewLoader(records, prices, m).Load(ctx, net.Name, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading inputs: %v\n", err)
		os.Exit(1)
	}
	logger.Printf("Loaded %d records in %v", in.RecordCount(), time.Since(start))

	d, err := pipeline.NewRunner(logger, m).Run(in, net, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing dashboard: %v\n", err)
		os.Exit(1)
	}

	report := reporting.NewGenerator().Generate(d, in)
	paths, err := reporting.WriteAll(*outputDir, d, report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Report for %s generated successfully:\n", net.Name)
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
	for _, w := range d.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	if !d.Coverage.AllPass {
		fmt.Println("Some coverage checks failed, see the Data Quality section of the report.")
	}
}
