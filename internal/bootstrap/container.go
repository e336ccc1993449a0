package bootstrap

import (
	"context"

	"chainsight/internal/adapters/config"
	"chainsight/internal/adapters/embeddings"
	"chainsight/internal/adapters/errors/noop"
	"chainsight/internal/adapters/errors/sentry"
	"chainsight/internal/adapters/polygon"
	pgclient "chainsight/internal/adapters/postgres"
	"chainsight/internal/adapters/ratelimit"
	redisclient "chainsight/internal/adapters/redis"
	"chainsight/internal/adapters/retry"
	"chainsight/internal/domain/options"
	pgrepo "chainsight/internal/repository/postgres"
	redisrepo "chainsight/internal/repository/redis"
	"chainsight/internal/services/anomaly"
	"chainsight/internal/services/chain"
	"chainsight/internal/services/snapshot"
	"chainsight/pkg/errors"
	"chainsight/pkg/logger"
)

// Container holds all application dependencies in initialization order
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure
	PG    *pgclient.Client
	Redis *redisclient.Client

	// Repositories
	Snapshots  options.SnapshotRepository
	Embeddings options.EmbeddingRepository

	// Services
	SnapshotService *snapshot.Service
	Analyzer        *chain.Analyzer
	AnomalyService  *anomaly.Service
}

// Build wires the full dependency graph from configuration. Redis and
// Postgres are optional: without Redis every request hits the provider,
// without Postgres the embedding index is disabled.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		Log:    logger.Get(),
	}

	c.ErrorTracker = buildErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	if rc, err := redisclient.NewClient(cfg.Redis); err != nil {
		c.Log.Warnf("Redis unavailable, snapshot cache disabled: %v", err)
	} else {
		c.Redis = rc
		c.Snapshots = redisrepo.NewSnapshotRepository(rc.Redis(), 0)
	}

	if pg, err := pgclient.NewClient(cfg.Postgres); err != nil {
		c.Log.Warnf("Postgres unavailable, embedding index disabled: %v", err)
	} else {
		c.PG = pg
		c.Embeddings = pgrepo.NewEmbeddingRepository(pg.DB())
	}

	provider, err := polygon.NewClient(cfg.Provider)
	if err != nil {
		return nil, errors.Wrap(err, "init polygon client")
	}

	limiter := ratelimit.NewLimiter("polygon", cfg.Provider.RequestsPerMinute)
	retrier := retry.New(retry.Config{
		MaxRetries:   cfg.Provider.MaxRetries,
		InitialDelay: retry.DefaultConfig().InitialDelay,
		MaxDelay:     retry.DefaultConfig().MaxDelay,
		Multiplier:   retry.DefaultConfig().Multiplier,
	})

	c.SnapshotService = snapshot.NewService(snapshot.Config{
		DefaultLimit: cfg.Provider.DefaultLimit,
		MaxLimit:     cfg.Provider.MaxLimit,
	}, provider, c.Snapshots, limiter, retrier)

	c.Analyzer = chain.NewAnalyzer(chainConfig(cfg.Analysis))

	var embedder embeddings.Provider
	if cfg.Embeddings.OpenAIKey != "" {
		embedder, err = embeddings.NewOpenAIProvider(cfg.Embeddings.OpenAIKey, cfg.Embeddings.Model, cfg.Embeddings.Timeout)
		if err != nil {
			c.Log.Warnf("Embedding provider unavailable: %v", err)
			embedder = nil
		}
	}

	anomalyCfg := anomalyConfig(cfg.Analysis)
	c.AnomalyService = anomaly.NewService(anomalyCfg, anomaly.NewDetector(anomalyCfg), embedder, c.Embeddings)

	return c, nil
}

// Shutdown releases infrastructure resources; services hold no state of
// their own
func (c *Container) Shutdown(ctx context.Context) {
	if c.ErrorTracker != nil {
		if err := c.ErrorTracker.Flush(ctx); err != nil {
			c.Log.Warnf("Failed to flush error tracker: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Log.Warnf("Failed to close redis: %v", err)
		}
	}
	if c.PG != nil {
		if err := c.PG.Close(); err != nil {
			c.Log.Warnf("Failed to close postgres: %v", err)
		}
	}
}

func buildErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func chainConfig(a config.AnalysisConfig) chain.Config {
	return chain.Config{
		MinContracts:         a.MinContracts,
		MaxStrikeSpreadRatio: a.MaxStrikeSpreadRatio,

		GapThreshold:   a.GapThreshold,
		MinClusterSize: a.MinClusterSize,

		SkewWeight:          a.SkewWeight,
		ConcentrationWeight: a.ConcentrationWeight,

		ConfidenceLowBreak:    a.ConfidenceLowBreak,
		ConfidenceMediumBreak: a.ConfidenceMediumBreak,
		ConfidenceHighBreak:   a.ConfidenceHighBreak,

		StrongConcentration: a.StrongConcentration,

		ElevatedPutConcentration: a.ElevatedPutConcentration,
		ModeratePutConcentration: a.ModeratePutConcentration,
		ExtremeImbalanceRatio:    a.ExtremeImbalanceRatio,

		HedgeBandPct:     a.HedgeBandPct,
		HedgeBalanceLow:  a.HedgeBalanceLow,
		HedgeBalanceHigh: a.HedgeBalanceHigh,
		HedgeMinDays:     a.HedgeMinDays,
	}
}

func anomalyConfig(a config.AnalysisConfig) anomaly.Config {
	return anomaly.Config{
		NoneBound:      a.AnomalyNoneBound,
		LowBound:       a.AnomalyLowBound,
		MediumBound:    a.AnomalyMediumBound,
		DeltaThreshold: a.ChangedMetricDelta,
		NeighborLimit:  a.AnomalyNeighborLimit,
	}
}
