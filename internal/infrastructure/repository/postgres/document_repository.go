package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/voxrag/voxrag/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026053001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	page_count INTEGER NOT NULL DEFAULT 0,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	page INTEGER NOT NULL,
	body TEXT NOT NULL,
	body_tsv TSVECTOR GENERATED ALWAYS AS (to_tsvector('english', body)) STORED
);

CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_chunks_body_tsv ON chunks USING GIN(body_tsv);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_type, storage_path, page_count, chunk_count, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.StoragePath, doc.PageCount, doc.ChunkCount,
		string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, page_count, chunk_count, status, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &doc.PageCount, &doc.ChunkCount,
		&status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowAffected(result, "update document status", id)
}

func (r *DocumentRepository) SetCounts(ctx context.Context, id string, pages, chunks int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET page_count = $2, chunk_count = $3, updated_at = $4
WHERE id = $1
`, id, pages, chunks, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document counts: %w", err)
	}
	return requireRowAffected(result, "update document counts", id)
}

func requireRowAffected(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
