package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/voxrag/voxrag/internal/core/domain"
)

// ChunkRepository stores chunk bodies and serves both keyword search and
// candidate hydration. Full text search runs over a generated tsvector
// column with a GIN index.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// SaveChunks replaces the document's chunks atomically.
func (r *ChunkRepository) SaveChunks(ctx context.Context, doc *domain.Document, chunks []domain.ChunkContent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}

	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO chunks (id, document_id, page, body) VALUES ($1,$2,$3,$4)
`, chunk.ChunkID, chunk.DocumentID, chunk.Page, chunk.Text); err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) GetChunks(ctx context.Context, ids []string) (map[string]domain.ChunkContent, error) {
	if len(ids) == 0 {
		return map[string]domain.ChunkContent{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
SELECT id, document_id, page, body
FROM chunks
WHERE id IN (%s)
`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select chunks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.ChunkContent, len(ids))
	for rows.Next() {
		var chunk domain.ChunkContent
		if err := rows.Scan(&chunk.ChunkID, &chunk.DocumentID, &chunk.Page, &chunk.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out[chunk.ChunkID] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return total, nil
}

// LexicalSearch ranks chunks against the query with ts_rank_cd.
// websearch_to_tsquery tolerates free-form user input.
func (r *ChunkRepository) LexicalSearch(ctx context.Context, query string, limit int) ([]domain.ScoredCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, ts_rank_cd(body_tsv, q) AS rank
FROM chunks, websearch_to_tsquery('english', $1) q
WHERE body_tsv @@ q
ORDER BY rank DESC, id ASC
LIMIT $2
`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ScoredCandidate, 0, limit)
	for rows.Next() {
		candidate := domain.ScoredCandidate{Source: domain.SourceLexical}
		if err := rows.Scan(&candidate.ChunkID, &candidate.Score); err != nil {
			return nil, fmt.Errorf("scan lexical hit: %w", err)
		}
		out = append(out, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lexical hits: %w", err)
	}
	return out, nil
}
