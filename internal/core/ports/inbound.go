package ports

import (
	"context"
	"io"

	"github.com/voxrag/voxrag/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// QueryService is the inbound contract for conversational retrieval.
// onFiller, when non-nil, is invoked with an acknowledgement phrase
// before any blocking pipeline stage runs.
type QueryService interface {
	HandleQuery(ctx context.Context, sessionID, query string, onFiller func(string)) (*domain.QueryResult, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
