package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"chainsight/internal/adapters/config"
	"chainsight/internal/bootstrap"
	"chainsight/internal/export"
	"chainsight/internal/metrics"
	"chainsight/internal/services/chain"
	"chainsight/internal/workers"
	"chainsight/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build dependencies: %v", err)
	}
	defer container.Shutdown(context.Background())

	metrics.Init()

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "analyze":
		if err := runAnalyze(ctx, container, args); err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
	case "serve":
		runServe(ctx, cancel, container)
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [analyze|serve]\n", os.Args[0])
		os.Exit(2)
	}
}

// runAnalyze fetches one snapshot, runs the pipeline and prints the report
func runAnalyze(ctx context.Context, c *bootstrap.Container, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	period := fs.String("period", time.Now().UTC().Format("2006-01"), "expiration period, YYYY-MM or YYYY-MM-DD")
	limit := fs.Int("limit", 0, "max contracts to fetch (0 = default)")
	refresh := fs.Bool("refresh", false, "bypass the snapshot cache")
	csvPath := fs.String("csv", "", "write fetched contracts to a CSV file")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one ticker, got %d", fs.NArg())
	}
	ticker := fs.Arg(0)

	snap, cacheHit, err := c.SnapshotService.Get(ctx, ticker, *period, *limit, *refresh)
	if err != nil {
		metrics.RecordAnalysisRun(ticker, err)
		return err
	}
	c.Log.Debug("Snapshot loaded", "ticker", snap.Ticker, "cache_hit", cacheHit)

	analysis, err := c.Analyzer.Analyze(ctx, snap)
	metrics.RecordAnalysisRun(ticker, err)
	if err != nil {
		return err
	}

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteContractsCSV(f, snap); err != nil {
			return err
		}
	}

	if err := c.AnomalyService.Index(ctx, snap, analysis.Metrics); err != nil {
		c.Log.Debugf("Snapshot not indexed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis.Report)
	}

	fmt.Print(chain.RenderText(analysis))
	return nil
}

// runServe starts the metrics endpoint and background workers, then waits
// for a shutdown signal
func runServe(ctx context.Context, cancel context.CancelFunc, c *bootstrap.Container) {
	log := c.Log

	if c.Config.Metrics.Enabled {
		startMetricsServer(c)
	}

	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewRefreshWorker(
		c.SnapshotService,
		c.Analyzer,
		c.AnomalyService,
		c.Config.Workers.Watchlist,
		c.Config.Workers.WatchPeriod,
		c.Config.Workers.RefreshInterval,
		c.Config.Workers.RefreshEnabled,
	))

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler shutdown: %v", err)
	}

	log.Info("Shutdown complete")
}

func startMetricsServer(c *bootstrap.Container) {
	if c.PG != nil || c.Redis != nil {
		var db *sqlx.DB
		if c.PG != nil {
			db = c.PG.DB()
		}
		var rdb *redis.Client
		if c.Redis != nil {
			rdb = c.Redis.Redis()
		}
		prometheus.MustRegister(metrics.NewCustomCollector(c.Log, db, rdb))
	}

	addr := fmt.Sprintf(":%d", c.Config.Metrics.Port)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	go func() {
		c.Log.Info("Metrics server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			c.Log.Errorf("Metrics server failed: %v", err)
		}
	}()
}
