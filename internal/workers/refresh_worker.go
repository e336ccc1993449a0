package workers

import (
	"context"
	"time"

	"chainsight/internal/domain/options"
	"chainsight/internal/services/anomaly"
	"chainsight/internal/services/chain"
	"chainsight/internal/services/snapshot"
	"chainsight/pkg/errors"
)

// RefreshWorker re-fetches watchlist tickers on a schedule, grades each
// fresh snapshot against the previously cached one and indexes it for
// similarity search. A fixed period pins every cycle to one expiration;
// otherwise the front month is refreshed.
type RefreshWorker struct {
	*BaseWorker

	snapshots *snapshot.Service
	analyzer  *chain.Analyzer
	anomalies *anomaly.Service
	watchlist []string
	period    string
}

// NewRefreshWorker creates a watchlist refresh worker
func NewRefreshWorker(snapshots *snapshot.Service, analyzer *chain.Analyzer, anomalies *anomaly.Service, watchlist []string, period string, interval time.Duration, enabled bool) *RefreshWorker {
	return &RefreshWorker{
		BaseWorker: NewBaseWorker("watchlist_refresh", interval, enabled),
		snapshots:  snapshots,
		analyzer:   analyzer,
		anomalies:  anomalies,
		watchlist:  watchlist,
		period:     period,
	}
}

// Run refreshes every watchlist ticker once. Per-ticker failures are
// recorded and the cycle continues; only an empty watchlist is a no-op.
func (w *RefreshWorker) Run(ctx context.Context) error {
	if len(w.watchlist) == 0 {
		return nil
	}

	start := time.Now()
	period := w.period
	if period == "" {
		period = frontMonth(time.Now())
	}

	multi := &errors.MultiError{}
	for _, ticker := range w.watchlist {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.refreshTicker(ctx, ticker, period); err != nil {
			w.Log().Error("Ticker refresh failed", "ticker", ticker, "error", err)
			multi.Add(errors.Wrapf(err, "refresh %s", ticker))
		}
	}

	if err := multi.ToError(); err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	w.RecordRun(time.Since(start))
	w.Log().Info("Watchlist refreshed",
		"tickers", len(w.watchlist),
		"period", period,
		"duration", time.Since(start),
	)
	return nil
}

func (w *RefreshWorker) refreshTicker(ctx context.Context, ticker, period string) error {
	previous, err := w.snapshots.GetCached(ctx, ticker, period)
	if err != nil {
		// First sighting of a ticker has nothing to compare against
		w.Log().Warn("No previous snapshot", "ticker", ticker, "error", err)
		previous = nil
	}

	current, _, err := w.snapshots.Get(ctx, ticker, period, 0, true)
	if err != nil {
		return err
	}

	analysis, err := w.analyzer.Analyze(ctx, current)
	if err != nil {
		return err
	}

	if previous != nil && !sameSnapshot(previous, current) {
		prevAnalysis, err := w.analyzer.Analyze(ctx, previous)
		if err == nil {
			result := w.anomalies.Detector().Compare(analysis.Metrics, prevAnalysis.Metrics)
			if result.Grade != anomaly.GradeNone {
				w.Log().Warn("Snapshot drift detected",
					"ticker", ticker,
					"grade", result.Grade,
					"similarity", result.Similarity,
					"changed_metrics", result.ChangedMetrics,
				)
			}
		}
	}

	if err := w.anomalies.Index(ctx, current, analysis.Metrics); err != nil {
		// Indexing is best effort; the refreshed snapshot is already cached
		w.Log().Warn("Snapshot indexing failed", "ticker", ticker, "error", err)
	}

	return nil
}

func sameSnapshot(a, b *options.Snapshot) bool {
	return a.ID == b.ID
}

// frontMonth returns the current expiration month as a normalized period
func frontMonth(now time.Time) string {
	return now.UTC().Format("2006-01")
}
