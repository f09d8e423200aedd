package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/voxrag/voxrag/internal/core/domain"
)

type vectorSearcherFake struct {
	hits []domain.ScoredCandidate
	err  error
}

func (f *vectorSearcherFake) SimilaritySearch(context.Context, string, int) ([]domain.ScoredCandidate, error) {
	return f.hits, f.err
}

type lexicalSearcherFake struct {
	hits []domain.ScoredCandidate
	err  error
}

func (f *lexicalSearcherFake) LexicalSearch(context.Context, string, int) ([]domain.ScoredCandidate, error) {
	return f.hits, f.err
}

type chunkStoreFake struct {
	contents map[string]domain.ChunkContent
	total    int
	getErr   error
}

func (f *chunkStoreFake) SaveChunks(context.Context, *domain.Document, []domain.ChunkContent) error {
	return nil
}

func (f *chunkStoreFake) GetChunks(_ context.Context, ids []string) (map[string]domain.ChunkContent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make(map[string]domain.ChunkContent, len(ids))
	for _, id := range ids {
		if c, ok := f.contents[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *chunkStoreFake) CountChunks(context.Context) (int, error) { return f.total, nil }

func storeFor(ids ...string) *chunkStoreFake {
	contents := make(map[string]domain.ChunkContent, len(ids))
	for i, id := range ids {
		contents[id] = domain.ChunkContent{ChunkID: id, DocumentID: "doc-1", Page: i + 1, Text: "text " + id}
	}
	return &chunkStoreFake{contents: contents, total: len(ids)}
}

func TestHybridSearchMergesBothLegs(t *testing.T) {
	vector := &vectorSearcherFake{hits: []domain.ScoredCandidate{
		{ChunkID: "c1", Score: 0.95},
		{ChunkID: "c2", Score: 0.90},
	}}
	lexical := &lexicalSearcherFake{hits: []domain.ScoredCandidate{
		{ChunkID: "c3", Score: 5.0},
		{ChunkID: "c2", Score: 4.0},
	}}
	uc := NewHybridSearchUseCase(vector, lexical, storeFor("c1", "c2", "c3"), HybridSearchConfig{}, nil)

	fused, degraded, err := uc.Search(context.Background(), "question")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(degraded) != 0 {
		t.Fatalf("expected no degraded legs, got %v", degraded)
	}
	if len(fused) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(fused))
	}
	if fused[0].ChunkID != "c2" {
		t.Fatalf("expected dual-source c2 first, got %s", fused[0].ChunkID)
	}
	if fused[0].Text == "" || fused[0].Page == 0 {
		t.Fatalf("expected hydrated candidate, got %+v", fused[0])
	}
}

func TestHybridSearchDegradesToSingleLeg(t *testing.T) {
	vector := &vectorSearcherFake{err: errors.New("qdrant down")}
	lexical := &lexicalSearcherFake{hits: []domain.ScoredCandidate{{ChunkID: "c1", Score: 2.0}}}
	uc := NewHybridSearchUseCase(vector, lexical, storeFor("c1"), HybridSearchConfig{}, nil)

	fused, degraded, err := uc.Search(context.Background(), "question")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(fused) != 1 || fused[0].ChunkID != "c1" {
		t.Fatalf("expected lexical-only result, got %+v", fused)
	}
	if len(degraded) != 1 || degraded[0] != "vector_search" {
		t.Fatalf("expected vector_search degraded, got %v", degraded)
	}
}

func TestHybridSearchBothLegsFail(t *testing.T) {
	uc := NewHybridSearchUseCase(
		&vectorSearcherFake{err: errors.New("down")},
		&lexicalSearcherFake{err: errors.New("down")},
		storeFor("c1"),
		HybridSearchConfig{},
		nil,
	)

	_, _, err := uc.Search(context.Background(), "question")
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestHybridSearchEmptyCorpus(t *testing.T) {
	uc := NewHybridSearchUseCase(
		&vectorSearcherFake{},
		&lexicalSearcherFake{},
		&chunkStoreFake{contents: map[string]domain.ChunkContent{}, total: 0},
		HybridSearchConfig{},
		nil,
	)

	_, _, err := uc.Search(context.Background(), "question")
	if !domain.IsKind(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestHybridSearchNoMatchesNonEmptyCorpus(t *testing.T) {
	store := storeFor("c9")
	uc := NewHybridSearchUseCase(&vectorSearcherFake{}, &lexicalSearcherFake{}, store, HybridSearchConfig{}, nil)

	fused, _, err := uc.Search(context.Background(), "question")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(fused) != 0 {
		t.Fatalf("expected no candidates, got %d", len(fused))
	}
}

func TestHybridSearchDropsChunksMissingFromStore(t *testing.T) {
	vector := &vectorSearcherFake{hits: []domain.ScoredCandidate{
		{ChunkID: "c1", Score: 0.9},
		{ChunkID: "ghost", Score: 0.8},
	}}
	uc := NewHybridSearchUseCase(vector, &lexicalSearcherFake{}, storeFor("c1"), HybridSearchConfig{}, nil)

	fused, _, err := uc.Search(context.Background(), "question")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(fused) != 1 || fused[0].ChunkID != "c1" {
		t.Fatalf("expected ghost chunk dropped, got %+v", fused)
	}
}

func TestHybridSearchTruncatesToFusedLimit(t *testing.T) {
	hits := make([]domain.ScoredCandidate, 0, 8)
	ids := make([]string, 0, 8)
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8"} {
		hits = append(hits, domain.ScoredCandidate{ChunkID: id, Score: 1})
		ids = append(ids, id)
	}
	uc := NewHybridSearchUseCase(
		&vectorSearcherFake{hits: hits},
		&lexicalSearcherFake{},
		storeFor(ids...),
		HybridSearchConfig{FusedLimit: 3},
		nil,
	)

	fused, _, err := uc.Search(context.Background(), "question")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(fused) != 3 {
		t.Fatalf("expected 3 candidates after limit, got %d", len(fused))
	}
}
