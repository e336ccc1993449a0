package snapshot

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/internal/adapters/ratelimit"
	"chainsight/internal/adapters/retry"
	"chainsight/internal/domain/options"
	"chainsight/pkg/errors"
)

// fakeProvider counts fetches and can hold each call open so concurrency
// tests can line followers up behind a leader
type fakeProvider struct {
	calls int64
	delay time.Duration
	err   error
}

func (p *fakeProvider) FetchContracts(ctx context.Context, ticker, period string, limit int) ([]options.Contract, error) {
	atomic.AddInt64(&p.calls, 1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return []options.Contract{
		{Ticker: "O:TEST261016C00100000", Underlying: ticker, Type: options.Call, Strike: 100, Volume: 50},
		{Ticker: "O:TEST261016P00095000", Underlying: ticker, Type: options.Put, Strike: 95, Volume: 30},
	}, nil
}

// memoryRepo is an in-process SnapshotRepository for tests
type memoryRepo struct {
	mu    sync.Mutex
	items map[string]*options.Snapshot
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]*options.Snapshot)}
}

func (r *memoryRepo) Save(ctx context.Context, snapshot *options.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[snapshot.Key()] = snapshot
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, ticker, period string) (*options.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[options.CacheKey(ticker, period)], nil
}

func (r *memoryRepo) Delete(ctx context.Context, ticker, period string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, options.CacheKey(ticker, period))
	return nil
}

func newTestService(provider options.Provider, repo options.SnapshotRepository) *Service {
	return NewService(
		DefaultConfig(),
		provider,
		repo,
		ratelimit.NewLimiter("test", 6000),
		retry.New(retry.Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	)
}

func TestService_ConcurrentMissesShareOneFetch(t *testing.T) {
	provider := &fakeProvider{delay: 50 * time.Millisecond}
	svc := newTestService(provider, newMemoryRepo())

	const callers = 8
	var wg sync.WaitGroup
	snapshots := make([]*options.Snapshot, callers)
	hits := make([]bool, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snapshots[i], hits[i], errs[i] = svc.Get(context.Background(), "TEST", "2026-10", 0, false)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, snapshots[i])
		assert.False(t, hits[i], "an uncached key is never a cache hit")
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&provider.calls))

	// Followers got the leader's snapshot, not separate fetches
	for i := 1; i < callers; i++ {
		assert.Equal(t, snapshots[0].ID, snapshots[i].ID)
	}
}

func TestService_CacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider, newMemoryRepo())

	first, hit, err := svc.Get(context.Background(), "TEST", "2026-10", 0, false)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.Get(context.Background(), "TEST", "2026-10", 0, false)
	require.NoError(t, err)
	assert.True(t, hit)

	assert.Equal(t, int64(1), atomic.LoadInt64(&provider.calls))
	assert.Equal(t, first.ID, second.ID)
}

func TestService_ForceRefreshBypassesCache(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider, newMemoryRepo())

	first, _, err := svc.Get(context.Background(), "TEST", "2026-10", 0, false)
	require.NoError(t, err)

	refreshed, hit, err := svc.Get(context.Background(), "TEST", "2026-10", 0, true)
	require.NoError(t, err)
	assert.False(t, hit, "a bypassing read never reports a cache hit")

	assert.Equal(t, int64(2), atomic.LoadInt64(&provider.calls))
	assert.NotEqual(t, first.ID, refreshed.ID)

	// The refreshed snapshot replaced the cached one
	cached, err := svc.GetCached(context.Background(), "TEST", "2026-10")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, refreshed.ID, cached.ID)
}

func TestService_InvalidPeriod(t *testing.T) {
	svc := newTestService(&fakeProvider{}, newMemoryRepo())

	_, _, err := svc.Get(context.Background(), "TEST", "not-a-period", 0, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestService_NilRepoFetchesEveryTime(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider, nil)

	_, hit, err := svc.Get(context.Background(), "TEST", "2026-10", 0, false)
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = svc.Get(context.Background(), "TEST", "2026-10", 0, false)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, int64(2), atomic.LoadInt64(&provider.calls))
}

func TestService_ProviderErrorPropagates(t *testing.T) {
	provider := &fakeProvider{err: errors.ErrTickerNotFound}
	svc := newTestService(provider, newMemoryRepo())

	_, _, err := svc.Get(context.Background(), "TEST", "2026-10", 0, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTickerNotFound))

	// Not-found is not retryable, so the provider was hit exactly once
	assert.Equal(t, int64(1), atomic.LoadInt64(&provider.calls))
}

func TestService_Invalidate(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider, newMemoryRepo())

	_, _, err := svc.Get(context.Background(), "TEST", "2026-10", 0, false)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(context.Background(), "TEST", "2026-10"))

	cached, err := svc.GetCached(context.Background(), "TEST", "2026-10")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestService_GetBatchPreservesOrder(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider, newMemoryRepo())

	tickers := []string{"AAA", "BBB", "CCC"}
	results := svc.GetBatch(context.Background(), tickers, "2026-10", 0, false)

	require.Len(t, results, len(tickers))
	for i, res := range results {
		assert.Equal(t, tickers[i], res.Ticker)
		require.NoError(t, res.Err)
		require.NotNil(t, res.Snapshot)
		assert.False(t, res.CacheHit)
	}
	assert.Equal(t, int64(3), atomic.LoadInt64(&provider.calls))
}

func TestService_ClampLimit(t *testing.T) {
	svc := newTestService(&fakeProvider{}, nil)

	assert.Equal(t, 300, svc.clampLimit(0))
	assert.Equal(t, 300, svc.clampLimit(-5))
	assert.Equal(t, 1000, svc.clampLimit(5000))
	assert.Equal(t, 42, svc.clampLimit(42))
}
