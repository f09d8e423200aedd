package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/voxrag/voxrag/internal/core/domain"
)

// Extractor flattens spreadsheet uploads into text. Each sheet becomes
// one page, rows joined with tabs so cell adjacency survives.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document, body io.Reader) ([]domain.PageText, error) {
	book, err := excelize.OpenReader(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "xlsx extract",
			fmt.Errorf("parse %s: %w", doc.Filename, err))
	}
	defer book.Close()

	var pages []domain.PageText
	for i, sheet := range book.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		var b strings.Builder
		b.WriteString(sheet)
		b.WriteString("\n")
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteString("\n")
		}

		text := strings.TrimSpace(b.String())
		if text == sheet {
			continue
		}
		pages = append(pages, domain.PageText{Page: i + 1, Text: text})
	}
	return pages, nil
}
