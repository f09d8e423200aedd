package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/voxrag/voxrag/internal/core/domain"
	"github.com/voxrag/voxrag/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	chunks    ports.ChunkStore
	indexer   ports.VectorIndexer
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	chunks ports.ChunkStore,
	indexer ports.VectorIndexer,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		chunks:    chunks,
		indexer:   indexer,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	pages, chunkCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetCounts(ctx, documentID, pages, chunkCount); err != nil {
		return fmt.Errorf("save document counts: %w", err)
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch document by id: %w", err)
	}

	pages, err := uc.extractPages(ctx, doc)
	if err != nil {
		return 0, 0, err
	}

	chunks := uc.chunkPages(doc, pages)
	if len(chunks) == 0 {
		return 0, 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return 0, 0, err
	}

	if err := uc.chunks.SaveChunks(ctx, doc, chunks); err != nil {
		return 0, 0, fmt.Errorf("save chunks: %w", err)
	}
	if err := uc.indexer.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return 0, 0, fmt.Errorf("index chunks in vector db: %w", err)
	}

	return len(pages), len(chunks), nil
}

func (uc *ProcessDocumentUseCase) extractPages(ctx context.Context, doc *domain.Document) ([]domain.PageText, error) {
	body, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored document: %w", err)
	}
	defer body.Close()

	pages, err := uc.extractor.Extract(ctx, doc, body)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	nonEmpty := pages[:0]
	for _, page := range pages {
		if page.Text != "" {
			nonEmpty = append(nonEmpty, page)
		}
	}
	if len(nonEmpty) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return nonEmpty, nil
}

// chunkPages splits each page separately so every chunk keeps its page
// locator. Chunk ids are sequential within the document.
func (uc *ProcessDocumentUseCase) chunkPages(doc *domain.Document, pages []domain.PageText) []domain.ChunkContent {
	out := make([]domain.ChunkContent, 0, len(pages))
	seq := 0
	for _, page := range pages {
		for _, text := range uc.chunker.Split(page.Text) {
			out = append(out, domain.ChunkContent{
				ChunkID:    fmt.Sprintf("%s:%d", doc.ID, seq),
				DocumentID: doc.ID,
				Page:       page.Page,
				Text:       text,
			})
			seq++
		}
	}
	return out
}

func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []domain.ChunkContent) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
