package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/voxrag/voxrag/internal/core/domain"
	"github.com/voxrag/voxrag/internal/core/ports"
)

type HybridSearchConfig struct {
	VectorTopK  int
	LexicalTopK int
	FusionK     int
	FusedLimit  int
}

func (c HybridSearchConfig) withDefaults() HybridSearchConfig {
	if c.VectorTopK <= 0 {
		c.VectorTopK = 20
	}
	if c.LexicalTopK <= 0 {
		c.LexicalTopK = 20
	}
	if c.FusionK <= 0 {
		c.FusionK = 60
	}
	if c.FusedLimit <= 0 {
		c.FusedLimit = 20
	}
	return c
}

// HybridSearchUseCase runs vector and lexical retrieval concurrently and
// merges both rankings with reciprocal rank fusion.
type HybridSearchUseCase struct {
	vector  ports.VectorSearcher
	lexical ports.LexicalSearcher
	chunks  ports.ChunkStore
	cfg     HybridSearchConfig
	logger  *slog.Logger
}

func NewHybridSearchUseCase(
	vector ports.VectorSearcher,
	lexical ports.LexicalSearcher,
	chunks ports.ChunkStore,
	cfg HybridSearchConfig,
	logger *slog.Logger,
) *HybridSearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridSearchUseCase{
		vector:  vector,
		lexical: lexical,
		chunks:  chunks,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Search returns fused, hydrated candidates for the query plus the names
// of retrieval legs that failed. If both legs fail the error wraps
// domain.ErrRetrievalUnavailable; if the corpus holds no chunks at all
// the error wraps domain.ErrEmptyCorpus.
func (uc *HybridSearchUseCase) Search(ctx context.Context, query string) ([]domain.FusedCandidate, []string, error) {
	var (
		wg         sync.WaitGroup
		vectorHits []domain.ScoredCandidate
		vectorErr  error
		lexHits    []domain.ScoredCandidate
		lexErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = uc.vector.SimilaritySearch(ctx, query, uc.cfg.VectorTopK)
	}()
	go func() {
		defer wg.Done()
		lexHits, lexErr = uc.lexical.LexicalSearch(ctx, query, uc.cfg.LexicalTopK)
	}()
	wg.Wait()

	if vectorErr != nil && lexErr != nil {
		uc.logger.Error("both retrieval legs failed",
			slog.String("vector_error", vectorErr.Error()),
			slog.String("lexical_error", lexErr.Error()))
		return nil, nil, domain.WrapError(domain.ErrRetrievalUnavailable, "hybrid search", vectorErr)
	}

	var degraded []string
	if vectorErr != nil {
		uc.logger.Warn("vector search failed, continuing lexical-only", slog.String("error", vectorErr.Error()))
		degraded = append(degraded, "vector_search")
		vectorHits = nil
	}
	if lexErr != nil {
		uc.logger.Warn("lexical search failed, continuing vector-only", slog.String("error", lexErr.Error()))
		degraded = append(degraded, "lexical_search")
		lexHits = nil
	}

	fused := trimFused(fuseCandidatesRRF(uc.cfg.FusionK, vectorHits, lexHits), uc.cfg.FusedLimit)
	if len(fused) == 0 {
		if total, err := uc.chunks.CountChunks(ctx); err == nil && total == 0 {
			return nil, degraded, domain.WrapError(domain.ErrEmptyCorpus, "hybrid search", domain.ErrEmptyCorpus)
		}
		return nil, degraded, nil
	}

	hydrated, err := uc.hydrate(ctx, fused)
	if err != nil {
		return nil, degraded, domain.WrapError(domain.ErrRetrievalUnavailable, "hydrate candidates", err)
	}
	return hydrated, degraded, nil
}

func (uc *HybridSearchUseCase) hydrate(ctx context.Context, fused []fusedScore) ([]domain.FusedCandidate, error) {
	ids := make([]string, 0, len(fused))
	for _, f := range fused {
		ids = append(ids, f.chunkID)
	}

	contents, err := uc.chunks.GetChunks(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.FusedCandidate, 0, len(fused))
	for _, f := range fused {
		content, ok := contents[f.chunkID]
		if !ok {
			uc.logger.Warn("fused chunk missing from store", slog.String("chunk_id", f.chunkID))
			continue
		}
		out = append(out, domain.FusedCandidate{
			ChunkID:    f.chunkID,
			DocumentID: content.DocumentID,
			Page:       content.Page,
			Text:       content.Text,
			FusedScore: f.score,
		})
	}
	return out, nil
}
