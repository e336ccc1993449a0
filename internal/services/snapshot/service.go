package snapshot

import (
	"context"
	"sync"
	"time"

	"chainsight/internal/adapters/ratelimit"
	"chainsight/internal/adapters/retry"
	"chainsight/internal/domain/options"
	"chainsight/internal/metrics"
	"chainsight/pkg/errors"
	"chainsight/pkg/logger"
)

// Config holds snapshot service settings
type Config struct {
	// DefaultLimit is the contract limit used when the caller passes zero
	DefaultLimit int

	// MaxLimit caps the per-request contract limit
	MaxLimit int
}

// DefaultConfig returns the default snapshot service settings
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 300,
		MaxLimit:     1000,
	}
}

// inflightCall tracks one fetch in progress so concurrent requests for the
// same key wait for it instead of hitting the provider again
type inflightCall struct {
	done     chan struct{}
	snapshot *options.Snapshot
	err      error
}

// Service serves chain snapshots cache-first. Misses go to the provider
// through the shared rate limiter with retry; concurrent misses for the
// same ticker/period collapse onto a single provider call.
type Service struct {
	cfg      Config
	provider options.Provider
	repo     options.SnapshotRepository
	limiter  *ratelimit.Limiter
	retrier  *retry.Middleware
	log      *logger.Logger

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

// NewService creates a snapshot service. The repository may be nil, in
// which case every request goes to the provider.
func NewService(cfg Config, provider options.Provider, repo options.SnapshotRepository, limiter *ratelimit.Limiter, retrier *retry.Middleware) *Service {
	return &Service{
		cfg:      cfg,
		provider: provider,
		repo:     repo,
		limiter:  limiter,
		retrier:  retrier,
		log:      logger.Get().With("component", "snapshot_service"),
		inflight: make(map[string]*inflightCall),
	}
}

// Get returns the snapshot for a ticker and period, with cacheHit reporting
// whether it came from the cache. Cached snapshots are returned as-is;
// forceRefresh bypasses the cache read but still joins an in-flight fetch
// for the same key.
func (s *Service) Get(ctx context.Context, ticker, period string, limit int, forceRefresh bool) (*options.Snapshot, bool, error) {
	normalized, err := options.NormalizePeriod(period)
	if err != nil {
		return nil, false, errors.Wrapf(errors.ErrInvalidInput, "period %q: %v", period, err)
	}

	limit = s.clampLimit(limit)
	key := options.CacheKey(ticker, normalized)

	if !forceRefresh && s.repo != nil {
		cached, err := s.repo.Get(ctx, ticker, normalized)
		if err != nil {
			// A broken cache degrades to a provider fetch
			s.log.Warn("Cache read failed", "key", key, "error", err)
		}
		if cached != nil {
			metrics.RecordCacheRequest("hit")
			return cached, true, nil
		}
		metrics.RecordCacheRequest("miss")
	} else if forceRefresh {
		metrics.RecordCacheRequest("bypass")
	}

	snap, err := s.fetchDeduped(ctx, key, ticker, normalized, limit)
	return snap, false, err
}

// GetCached returns the cached snapshot without ever calling the provider.
// Returns nil when the key is not cached.
func (s *Service) GetCached(ctx context.Context, ticker, period string) (*options.Snapshot, error) {
	normalized, err := options.NormalizePeriod(period)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "period %q: %v", period, err)
	}
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.Get(ctx, ticker, normalized)
}

// Invalidate drops the cached snapshot for a ticker and period. Staleness
// is the caller's judgement; the service never expires entries itself.
func (s *Service) Invalidate(ctx context.Context, ticker, period string) error {
	normalized, err := options.NormalizePeriod(period)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "period %q: %v", period, err)
	}
	if s.repo == nil {
		return nil
	}
	return s.repo.Delete(ctx, ticker, normalized)
}

// fetchDeduped collapses concurrent fetches for one key onto a single
// provider call; followers receive the leader's result
func (s *Service) fetchDeduped(ctx context.Context, key, ticker, period string, limit int) (*options.Snapshot, error) {
	s.mu.Lock()
	if c, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		metrics.CacheDedupedFetches.Inc()

		select {
		case <-c.done:
			return c.snapshot, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c := &inflightCall{done: make(chan struct{})}
	s.inflight[key] = c
	s.mu.Unlock()

	c.snapshot, c.err = s.fetch(ctx, ticker, period, limit)

	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
	close(c.done)

	return c.snapshot, c.err
}

func (s *Service) fetch(ctx context.Context, ticker, period string, limit int) (*options.Snapshot, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var contracts []options.Contract
	start := time.Now()
	err := s.retrier.Do(ctx, func() error {
		var fetchErr error
		contracts, fetchErr = s.provider.FetchContracts(ctx, ticker, period, limit)
		return fetchErr
	})
	metrics.RecordProviderCall("polygon", time.Since(start), err)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch chain %s:%s", ticker, period)
	}

	snap := options.NewSnapshot(ticker, period, contracts)

	if s.repo != nil {
		if err := s.repo.Save(ctx, snap); err != nil {
			// Cache write failures are not fatal; the snapshot is still good
			s.log.Warn("Cache write failed", "key", snap.Key(), "error", err)
		}
	}

	s.log.Info("Snapshot fetched",
		"ticker", ticker,
		"period", period,
		"contracts", len(contracts),
		"duration", time.Since(start),
	)

	return snap, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}
