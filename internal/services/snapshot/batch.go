package snapshot

import (
	"context"
	"sync"

	"chainsight/internal/domain/options"
)

// BatchResult is the per-ticker outcome of a batch fetch
type BatchResult struct {
	Ticker   string
	Snapshot *options.Snapshot
	CacheHit bool
	Err      error
}

// GetBatch fetches snapshots for several tickers concurrently. The shared
// rate limiter paces provider calls, so concurrency here only overlaps
// cache reads and waiting. Results preserve input order; a failed ticker
// carries its error and never aborts the others.
func (s *Service) GetBatch(ctx context.Context, tickers []string, period string, limit int, forceRefresh bool) []BatchResult {
	results := make([]BatchResult, len(tickers))

	var wg sync.WaitGroup
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			snap, hit, err := s.Get(ctx, ticker, period, limit, forceRefresh)
			results[i] = BatchResult{Ticker: ticker, Snapshot: snap, CacheHit: hit, Err: err}
		}(i, ticker)
	}
	wg.Wait()

	return results
}
