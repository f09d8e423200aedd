package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	PageCount   int            `json:"page_count,omitempty"`
	ChunkCount  int            `json:"chunk_count,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PageText is one page of extracted plain text. Extractors that have no
// page notion return a single page numbered 1.
type PageText struct {
	Page int
	Text string
}
