package anomaly

import (
	"context"

	"chainsight/internal/adapters/embeddings"
	"chainsight/internal/domain/options"
	"chainsight/internal/metrics"
	"chainsight/internal/services/chain"
	"chainsight/pkg/errors"
	"chainsight/pkg/logger"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Service persists snapshot embeddings and answers cross-period comparison
// queries. The detector handles same-ticker drift on deterministic feature
// vectors; the embedding index supports fuzzy lookups across the whole
// history.
type Service struct {
	cfg      Config
	detector *Detector
	embedder embeddings.Provider
	repo     options.EmbeddingRepository
	log      *logger.Logger
}

// NewService creates an anomaly service. The embedder and repository may be
// nil, in which case only detector comparisons are available.
func NewService(cfg Config, detector *Detector, embedder embeddings.Provider, repo options.EmbeddingRepository) *Service {
	return &Service{
		cfg:      cfg,
		detector: detector,
		embedder: embedder,
		repo:     repo,
		log:      logger.Get().With("component", "anomaly_service"),
	}
}

// Detector exposes the deterministic comparator
func (s *Service) Detector() *Detector {
	return s.detector
}

// Index embeds a snapshot summary and persists it for later similarity
// lookups. Indexing failures never block analysis; callers log and move on.
func (s *Service) Index(ctx context.Context, snapshot *options.Snapshot, m *chain.MetricsResult) error {
	if s.embedder == nil || s.repo == nil {
		return errors.Wrap(errors.ErrEmbeddingUnavailable, "embedding index not configured")
	}

	doc := BuildDocument(snapshot, m)

	vec, err := s.embedder.GenerateEmbedding(ctx, doc)
	metrics.RecordEmbeddingCall(s.embedder.Name(), err)
	if err != nil {
		return errors.Wrapf(err, "embed snapshot %s", snapshot.Key())
	}

	emb := &options.SnapshotEmbedding{
		ID:             uuid.New(),
		SnapshotID:     snapshot.ID,
		Ticker:         snapshot.Ticker,
		Period:         snapshot.Period,
		Embedding:      pgvector.NewVector(vec),
		EmbeddingModel: s.embedder.Name(),
		TotalContracts: m.TotalContracts,
		Calls:          m.Calls,
		Puts:           m.Puts,
	}

	if err := s.repo.Store(ctx, emb); err != nil {
		return errors.Wrapf(err, "store embedding for %s", snapshot.Key())
	}

	s.log.Info("Snapshot indexed",
		"ticker", snapshot.Ticker,
		"period", snapshot.Period,
		"model", s.embedder.Name(),
	)

	return nil
}

// CompareWithPeriod grades the current metrics against a previously stored
// period of the same ticker. Returns ErrNotFound when the reference period
// was never indexed.
func (s *Service) CompareWithPeriod(ctx context.Context, snapshot *options.Snapshot, current *chain.MetricsResult, previousPeriod string, previous *chain.MetricsResult) (*Result, error) {
	if previous != nil {
		return s.detector.Compare(current, previous), nil
	}

	if s.repo == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "no reference metrics and no embedding index")
	}

	ref, err := s.repo.GetByPeriod(ctx, snapshot.Ticker, previousPeriod)
	if err != nil {
		return nil, errors.Wrapf(err, "load reference embedding %s:%s", snapshot.Ticker, previousPeriod)
	}
	if ref == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "period %s not indexed for %s", previousPeriod, snapshot.Ticker)
	}
	if s.embedder == nil {
		return nil, errors.Wrap(errors.ErrEmbeddingUnavailable, "embedding index not configured")
	}

	// Without reference metrics, fall back to comparing stored embeddings
	doc := BuildDocument(snapshot, current)
	vec, err := s.embedder.GenerateEmbedding(ctx, doc)
	metrics.RecordEmbeddingCall(s.embedder.Name(), err)
	if err != nil {
		return nil, errors.Wrapf(err, "embed snapshot %s", snapshot.Key())
	}

	result := &Result{
		Similarity: Cosine(toFloat64(vec), toFloat64(ref.Embedding.Slice())),
	}
	result.Grade = s.detector.gradeFor(result.Similarity)
	metrics.RecordAnomalyGrade(string(result.Grade))

	return result, nil
}

// Neighbors returns the most similar indexed snapshots for a ticker
func (s *Service) Neighbors(ctx context.Context, snapshot *options.Snapshot, m *chain.MetricsResult) ([]options.Neighbor, error) {
	if s.embedder == nil || s.repo == nil {
		return nil, errors.Wrap(errors.ErrEmbeddingUnavailable, "embedding index not configured")
	}

	doc := BuildDocument(snapshot, m)
	vec, err := s.embedder.GenerateEmbedding(ctx, doc)
	metrics.RecordEmbeddingCall(s.embedder.Name(), err)
	if err != nil {
		return nil, errors.Wrapf(err, "embed snapshot %s", snapshot.Key())
	}

	neighbors, err := s.repo.SearchSimilar(ctx, snapshot.Ticker, pgvector.NewVector(vec), s.cfg.NeighborLimit)
	if err != nil {
		return nil, errors.Wrapf(err, "search neighbors for %s", snapshot.Ticker)
	}

	return neighbors, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
