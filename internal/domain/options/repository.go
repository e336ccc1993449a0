package options

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Provider defines the external market data collaborator.
// Implementations are expected to respect context deadlines; throttling and
// retries are layered on top by the snapshot service.
type Provider interface {
	// FetchContracts returns the option chain for a ticker limited to the
	// given normalized period, up to limit contracts
	FetchContracts(ctx context.Context, ticker, period string, limit int) ([]Contract, error)
}

// SnapshotRepository persists chain snapshots in a key-value store.
// Durability beyond process lifetime is the store's concern, not the cache's.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	// Get returns nil without error on a missing key
	Get(ctx context.Context, ticker, period string) (*Snapshot, error)
	Delete(ctx context.Context, ticker, period string) error
}

// SnapshotEmbedding is a stored feature vector summarizing one snapshot,
// used for similarity-based anomaly comparison across periods
type SnapshotEmbedding struct {
	ID             uuid.UUID       `db:"id"`
	SnapshotID     uuid.UUID       `db:"snapshot_id"`
	Ticker         string          `db:"ticker"`
	Period         string          `db:"period"`
	Embedding      pgvector.Vector `db:"embedding"`
	EmbeddingModel string          `db:"embedding_model"`
	TotalContracts int             `db:"total_contracts"`
	Calls          int             `db:"calls"`
	Puts           int             `db:"puts"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Neighbor is a similarity search hit
type Neighbor struct {
	SnapshotEmbedding
	Similarity float64 `db:"similarity"`
}

// EmbeddingRepository persists snapshot embeddings and supports
// cosine-similarity lookups
type EmbeddingRepository interface {
	Store(ctx context.Context, emb *SnapshotEmbedding) error
	// GetByPeriod returns nil without error when no embedding is stored
	GetByPeriod(ctx context.Context, ticker, period string) (*SnapshotEmbedding, error)
	SearchSimilar(ctx context.Context, ticker string, embedding pgvector.Vector, limit int) ([]Neighbor, error)
}
