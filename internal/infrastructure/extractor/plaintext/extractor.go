package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/voxrag/voxrag/internal/core/domain"
)

// Extractor handles text/plain and markdown uploads. The whole body
// becomes a single page numbered 1.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, doc *domain.Document, body io.Reader) ([]domain.PageText, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "plaintext extract",
			fmt.Errorf("binary content in %s", doc.Filename))
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}
	return []domain.PageText{{Page: 1, Text: text}}, nil
}
