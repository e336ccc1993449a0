package main

// Script to backfill snapshot embeddings for past expiration months so
// anomaly comparison has history to work against
//
// Usage:
//   go run scripts/backfill_embeddings.go --ticker AAPL --months 6

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"chainsight/internal/adapters/config"
	"chainsight/internal/bootstrap"
	"chainsight/pkg/logger"
)

func main() {
	ticker := flag.String("ticker", "", "Underlying ticker to backfill")
	months := flag.Int("months", 6, "Number of past expiration months to index")
	limit := flag.Int("limit", 0, "Contract limit per fetch (0 uses the default)")
	flag.Parse()

	if *ticker == "" {
		fmt.Println("Error: --ticker is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		fmt.Printf("Error: failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	container, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		fmt.Printf("Error: failed to build services: %v\n", err)
		os.Exit(1)
	}
	defer container.Shutdown(ctx)

	if container.Embeddings == nil {
		fmt.Println("Error: embedding storage is not configured (needs Postgres and an OpenAI key)")
		os.Exit(1)
	}

	fmt.Println("Snapshot Embedding Backfill")
	fmt.Println("===========================")
	fmt.Printf("Ticker: %s\n", *ticker)
	fmt.Printf("Months: %d\n", *months)
	fmt.Println("")

	now := time.Now().UTC()
	var indexed, failed int
	for i := 0; i < *months; i++ {
		period := now.AddDate(0, -i, 0).Format("2006-01")

		snap, cacheHit, err := container.SnapshotService.Get(ctx, *ticker, period, *limit, false)
		if err != nil {
			fmt.Printf("%s: fetch failed: %v\n", period, err)
			failed++
			continue
		}

		analysis, err := container.Analyzer.Analyze(ctx, snap)
		if err != nil {
			fmt.Printf("%s: analysis failed: %v\n", period, err)
			failed++
			continue
		}

		if err := container.AnomalyService.Index(ctx, snap, analysis.Metrics); err != nil {
			fmt.Printf("%s: indexing failed: %v\n", period, err)
			failed++
			continue
		}

		source := "provider"
		if cacheHit {
			source = "cache"
		}
		fmt.Printf("%s: indexed %d contracts (%s)\n", period, len(snap.Contracts), source)
		indexed++
	}

	fmt.Println("")
	fmt.Printf("Done: %d indexed, %d failed\n", indexed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
