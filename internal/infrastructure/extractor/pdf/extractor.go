package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/voxrag/voxrag/internal/core/domain"
)

// Extractor pulls plain text out of PDF uploads page by page.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document, body io.Reader) ([]domain.PageText, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "pdf extract",
			fmt.Errorf("parse %s: %w", doc.Filename, err))
	}

	pages := make([]domain.PageText, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Corrupt page. Keep what the rest of the document yields.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.PageText{Page: i, Text: text})
	}
	return pages, nil
}
