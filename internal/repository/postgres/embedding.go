package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pgvector/pgvector-go"

	"chainsight/internal/domain/options"
	"chainsight/internal/metrics"
	pkgerrors "chainsight/pkg/errors"
)

// Compile-time check that we implement the interface
var _ options.EmbeddingRepository = (*EmbeddingRepository)(nil)

// EmbeddingRepository implements snapshot embedding storage with pgvector
type EmbeddingRepository struct {
	db DBTX
}

// NewEmbeddingRepository creates a new embedding repository
func NewEmbeddingRepository(db DBTX) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// Store saves a snapshot embedding, replacing any previous embedding for
// the same ticker and period
func (r *EmbeddingRepository) Store(ctx context.Context, emb *options.SnapshotEmbedding) error {
	query := `
		INSERT INTO snapshot_embeddings (
			id, snapshot_id, ticker, period, embedding, embedding_model,
			total_contracts, calls, puts, created_at
		) VALUES (
			:id, :snapshot_id, :ticker, :period, :embedding, :embedding_model,
			:total_contracts, :calls, :puts, NOW()
		)
		ON CONFLICT (ticker, period) DO UPDATE SET
			id = EXCLUDED.id,
			snapshot_id = EXCLUDED.snapshot_id,
			embedding = EXCLUDED.embedding,
			embedding_model = EXCLUDED.embedding_model,
			total_contracts = EXCLUDED.total_contracts,
			calls = EXCLUDED.calls,
			puts = EXCLUDED.puts,
			created_at = NOW()`

	start := time.Now()
	_, err := r.db.NamedExecContext(ctx, query, emb)
	metrics.RecordDBQuery("postgres", "store_embedding", time.Since(start), err)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to store snapshot embedding")
	}

	return nil
}

// GetByPeriod returns the embedding stored for a ticker and period, or nil
// without error when none exists
func (r *EmbeddingRepository) GetByPeriod(ctx context.Context, ticker, period string) (*options.SnapshotEmbedding, error) {
	query := `
		SELECT id, snapshot_id, ticker, period, embedding, embedding_model,
			total_contracts, calls, puts, created_at
		FROM snapshot_embeddings
		WHERE ticker = $1 AND period = $2`

	var emb options.SnapshotEmbedding
	start := time.Now()
	err := r.db.GetContext(ctx, &emb, query, ticker, period)
	if err == sql.ErrNoRows {
		metrics.RecordDBQuery("postgres", "get_embedding", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("postgres", "get_embedding", time.Since(start), err)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get snapshot embedding")
	}

	return &emb, nil
}

// SearchSimilar returns the closest stored embeddings for a ticker by
// cosine distance
func (r *EmbeddingRepository) SearchSimilar(ctx context.Context, ticker string, embedding pgvector.Vector, limit int) ([]options.Neighbor, error) {
	query := `
		SELECT id, snapshot_id, ticker, period, embedding, embedding_model,
			total_contracts, calls, puts, created_at,
			1 - (embedding <=> $1) as similarity
		FROM snapshot_embeddings
		WHERE ticker = $2
		ORDER BY embedding <=> $1
		LIMIT $3`

	var neighbors []options.Neighbor
	start := time.Now()
	err := r.db.SelectContext(ctx, &neighbors, query, embedding, ticker, limit)
	metrics.RecordDBQuery("postgres", "search_similar", time.Since(start), err)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to search similar snapshots")
	}

	return neighbors, nil
}
