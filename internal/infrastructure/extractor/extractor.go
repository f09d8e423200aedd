package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/voxrag/voxrag/internal/core/domain"
	"github.com/voxrag/voxrag/internal/core/ports"
	"github.com/voxrag/voxrag/internal/infrastructure/extractor/pdf"
	"github.com/voxrag/voxrag/internal/infrastructure/extractor/plaintext"
	"github.com/voxrag/voxrag/internal/infrastructure/extractor/xlsx"
)

// Dispatcher routes a document to the extractor for its format,
// preferring the declared MIME type and falling back to the
// filename extension.
type Dispatcher struct {
	pdf   ports.TextExtractor
	xlsx  ports.TextExtractor
	plain ports.TextExtractor
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		pdf:   pdf.New(),
		xlsx:  xlsx.New(),
		plain: plaintext.New(),
	}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document, body io.Reader) ([]domain.PageText, error) {
	ex, err := d.pick(doc)
	if err != nil {
		return nil, err
	}
	return ex.Extract(ctx, doc, body)
}

func (d *Dispatcher) pick(doc *domain.Document) (ports.TextExtractor, error) {
	mime := strings.ToLower(strings.TrimSpace(doc.MimeType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch mime {
	case "application/pdf":
		return d.pdf, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return d.xlsx, nil
	case "text/plain", "text/markdown", "text/csv":
		return d.plain, nil
	}

	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return d.pdf, nil
	case ".xlsx":
		return d.xlsx, nil
	case ".txt", ".md", ".csv":
		return d.plain, nil
	}

	return nil, domain.WrapError(domain.ErrInvalidInput, "extract",
		fmt.Errorf("unsupported document format: mime=%q filename=%q", doc.MimeType, doc.Filename))
}
