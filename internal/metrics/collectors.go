package metrics

import (
	"context"
	"time"

	"chainsight/pkg/logger"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// CustomCollector collects storage-level metrics from databases
type CustomCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB
	redis    *redis.Client

	// Descriptors
	storedEmbeddings *prometheus.Desc
	trackedTickers   *prometheus.Desc
	cachedSnapshots  *prometheus.Desc
}

// NewCustomCollector creates a new custom metrics collector
func NewCustomCollector(log *logger.Logger, postgres *sqlx.DB, redis *redis.Client) *CustomCollector {
	return &CustomCollector{
		log:      log,
		postgres: postgres,
		redis:    redis,

		storedEmbeddings: prometheus.NewDesc(
			"chainsight_stored_embeddings",
			"Total number of persisted snapshot embeddings",
			nil, nil,
		),
		trackedTickers: prometheus.NewDesc(
			"chainsight_tracked_tickers",
			"Distinct tickers with at least one stored embedding",
			nil, nil,
		),
		cachedSnapshots: prometheus.NewDesc(
			"chainsight_cached_snapshots",
			"Snapshot keys currently held in the Redis cache",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.storedEmbeddings
	ch <- c.trackedTickers
	ch <- c.cachedSnapshots
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectEmbeddingStats(ctx, ch)
	c.collectCacheStats(ctx, ch)
}

func (c *CustomCollector) collectEmbeddingStats(ctx context.Context, ch chan<- prometheus.Metric) {
	if c.postgres == nil {
		return
	}

	var total, tickers float64
	if err := c.postgres.GetContext(ctx, &total, "SELECT COUNT(*) FROM snapshot_embeddings"); err != nil {
		c.log.Warn("Failed to collect embedding count", "error", err)
		return
	}
	if err := c.postgres.GetContext(ctx, &tickers, "SELECT COUNT(DISTINCT ticker) FROM snapshot_embeddings"); err != nil {
		c.log.Warn("Failed to collect ticker count", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.storedEmbeddings, prometheus.GaugeValue, total)
	ch <- prometheus.MustNewConstMetric(c.trackedTickers, prometheus.GaugeValue, tickers)
}

func (c *CustomCollector) collectCacheStats(ctx context.Context, ch chan<- prometheus.Metric) {
	if c.redis == nil {
		return
	}

	count, err := c.redis.DBSize(ctx).Result()
	if err != nil {
		c.log.Warn("Failed to collect cache size", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.cachedSnapshots, prometheus.GaugeValue, float64(count))
}
