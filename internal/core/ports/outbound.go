package ports

import (
	"context"
	"io"

	"github.com/voxrag/voxrag/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetCounts(ctx context.Context, id string, pages, chunks int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts per-page plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document, body io.Reader) ([]domain.PageText, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorSearcher performs semantic search over the chunk index.
type VectorSearcher interface {
	SimilaritySearch(ctx context.Context, query string, limit int) ([]domain.ScoredCandidate, error)
}

// LexicalSearcher performs keyword search over the chunk corpus.
type LexicalSearcher interface {
	LexicalSearch(ctx context.Context, query string, limit int) ([]domain.ScoredCandidate, error)
}

// VectorIndexer writes chunk vectors into the semantic index.
type VectorIndexer interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.ChunkContent, vectors [][]float32) error
	DeleteDocument(ctx context.Context, documentID string) error
}

// ChunkStore persists chunk text and hydrates candidates by id.
type ChunkStore interface {
	SaveChunks(ctx context.Context, doc *domain.Document, chunks []domain.ChunkContent) error
	GetChunks(ctx context.Context, ids []string) (map[string]domain.ChunkContent, error)
	CountChunks(ctx context.Context) (int, error)
}

// RelevanceScorer scores candidate texts against a query. Scores are
// returned in input order, higher meaning more relevant.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Generator produces model completions for pipeline prompts.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ConversationMemory holds bounded per-session dialogue history. Begin
// claims exclusive use of a session for one in-flight query and returns
// a release func, or domain.ErrSessionContention when the session is
// already processing a query.
type ConversationMemory interface {
	Begin(sessionID string) (func(), error)
	History(sessionID string) []domain.ConversationTurn
	Append(sessionID string, turn domain.ConversationTurn)
}
