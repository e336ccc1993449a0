package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"chainsight/internal/domain/options"
	"chainsight/internal/metrics"
	"chainsight/pkg/errors"
)

// Compile-time check that we implement the interface
var _ options.SnapshotRepository = (*SnapshotRepository)(nil)

const snapshotKeyPrefix = "chainsight:snapshot:"

// SnapshotRepository implements options.SnapshotRepository using Redis.
// Entries live until explicitly deleted unless a TTL is configured.
type SnapshotRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotRepository creates a new snapshot repository. A zero ttl
// stores entries without expiration.
func NewSnapshotRepository(client *redis.Client, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{
		client: client,
		ttl:    ttl,
	}
}

// Save stores a snapshot under its ticker/period key
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *options.Snapshot) error {
	key := snapshotKeyPrefix + snapshot.Key()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal snapshot %s", snapshot.Key())
	}

	start := time.Now()
	err = r.client.Set(ctx, key, data, r.ttl).Err()
	metrics.RecordDBQuery("redis", "set", time.Since(start), err)
	if err != nil {
		return errors.Wrapf(err, "failed to save snapshot %s to redis", snapshot.Key())
	}

	return nil
}

// Get retrieves a snapshot, returning nil without error on a missing key
func (r *SnapshotRepository) Get(ctx context.Context, ticker, period string) (*options.Snapshot, error) {
	key := snapshotKeyPrefix + options.CacheKey(ticker, period)

	start := time.Now()
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.RecordDBQuery("redis", "get", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("redis", "get", time.Since(start), err)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get snapshot %s from redis", key)
	}

	var snapshot options.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal snapshot %s", key)
	}

	return &snapshot, nil
}

// Delete removes a snapshot; deleting a missing key is not an error
func (r *SnapshotRepository) Delete(ctx context.Context, ticker, period string) error {
	key := snapshotKeyPrefix + options.CacheKey(ticker, period)

	start := time.Now()
	err := r.client.Del(ctx, key).Err()
	metrics.RecordDBQuery("redis", "del", time.Since(start), err)
	if err != nil {
		return errors.Wrapf(err, "failed to delete snapshot %s from redis", key)
	}

	return nil
}
